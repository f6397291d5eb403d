// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package sharedfs makes directories of one host available on all the hosts of a run,
// so the same paths to the MPI installation and the benchmarks are valid everywhere.
package sharedfs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gvallee/go_hpc_omb/pkg/job"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Exporter shares a directory between a set of hosts
type Exporter interface {
	ExportAndMount(ctx context.Context, hosts []job.Host, dir string) error
}

// None is the exporter to use when the directories are already shared, e.g., on a parallel filesystem
type None struct{}

// ExportAndMount does nothing
func (None) ExportAndMount(context.Context, []job.Host, string) error {
	return nil
}

const (
	defaultExportOptions = "rw,sync,no_root_squash,no_subtree_check"
	exportsFile          = "/etc/exports"
)

// NFS exports a directory from one host and mounts it on all the others
type NFS struct {
	// ExportHost is the index of the host exporting the directory, the first host by default
	ExportHost int

	// ExportOptions are the NFS export options
	ExportOptions string

	// Sudo is the command prefix used to gain privileges, "sudo" when empty; use "-" to run without prefix
	Sudo string
}

func (n *NFS) sudo() string {
	switch n.Sudo {
	case "":
		return "sudo "
	case "-":
		return ""
	}
	return n.Sudo + " "
}

func (n *NFS) exportOptions() string {
	if n.ExportOptions == "" {
		return defaultExportOptions
	}
	return n.ExportOptions
}

// ExportCommand returns the command exporting dir; running it more than once is harmless
func (n *NFS) ExportCommand(dir string) string {
	line := fmt.Sprintf("%s *(%s)", dir, n.exportOptions())
	return fmt.Sprintf("%smkdir -p %s && (grep -qs '^%s ' %s || echo '%s' | %stee -a %s > /dev/null) && %sexportfs -ra",
		n.sudo(), dir, dir, exportsFile, line, n.sudo(), exportsFile, n.sudo())
}

// MountCommand returns the command mounting dir from server; running it more than once is harmless
func (n *NFS) MountCommand(server string, dir string) string {
	return fmt.Sprintf("%smkdir -p %s && (mountpoint -q %s || %smount -t nfs %s:%s %s)",
		n.sudo(), dir, dir, n.sudo(), server, dir, dir)
}

// ExportAndMount exports dir from the export host and mounts it on every other host
func (n *NFS) ExportAndMount(ctx context.Context, hosts []job.Host, dir string) error {
	if len(hosts) == 0 {
		return fmt.Errorf("no host to share %s with", dir)
	}
	if n.ExportHost < 0 || n.ExportHost >= len(hosts) {
		return fmt.Errorf("invalid export host index %d for %d hosts", n.ExportHost, len(hosts))
	}
	if !filepath.IsAbs(dir) {
		return fmt.Errorf("%s is not an absolute path", dir)
	}
	dir = filepath.Clean(dir)

	server := hosts[n.ExportHost]
	log.Info("exporting directory", zap.String("dir", dir), zap.String("host", server.InternalIP()))
	if _, _, err := server.RunCommand(ctx, n.ExportCommand(dir)); err != nil {
		return fmt.Errorf("unable to export %s from %s: %w", dir, server.InternalIP(), err)
	}

	for idx, h := range hosts {
		if idx == n.ExportHost {
			continue
		}
		log.Info("mounting directory", zap.String("dir", dir), zap.String("host", h.InternalIP()))
		if _, _, err := h.RunCommand(ctx, n.MountCommand(server.InternalIP(), dir)); err != nil {
			return fmt.Errorf("unable to mount %s on %s: %w", dir, h.InternalIP(), err)
		}
	}
	return nil
}
