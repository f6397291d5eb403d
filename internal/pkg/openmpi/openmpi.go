// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package openmpi

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gvallee/go_hpc_omb/pkg/remote"
)

const (
	// ID is the internal ID for Open MPI
	ID = "openmpi"
)

// Prologue returns the shell commands setting up the environment to use the Open MPI installed in dir
func Prologue(dir string) string {
	return fmt.Sprintf("export PATH=%s:$PATH LD_LIBRARY_PATH=%s:$LD_LIBRARY_PATH",
		filepath.Join(dir, "bin"), filepath.Join(dir, "lib"))
}

func parseOmpiInfoOutputForVersion(output string) (string, error) {
	lines := strings.Split(output, "\n")
	if !strings.HasPrefix(lines[0], "Open MPI") {
		return "", fmt.Errorf("invalid output format")
	}
	version := strings.TrimPrefix(lines[0], "Open MPI v")
	version = strings.TrimSpace(version)
	return version, nil
}

// DetectFromDir tries to figure out which version of Open MPI is installed in a given directory
func DetectFromDir(ctx context.Context, exec remote.Executor, dir string) (string, string, error) {
	targetBin := filepath.Join(dir, "bin", "ompi_info")
	cmd := fmt.Sprintf("test -x %s || exit 127; %s; %s --version", targetBin, Prologue(dir), targetBin)
	stdout, _, err := exec.RunCommand(ctx, cmd)
	if err != nil {
		return "", "", fmt.Errorf("%s cannot be used, not an Open MPI implementation: %w", targetBin, err)
	}
	version, err := parseOmpiInfoOutputForVersion(stdout)
	if err != nil {
		return "", "", err
	}

	return ID, version, nil
}
