// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package config

import (
	"context"

	"github.com/gvallee/go_hpc_omb/pkg/implem"
	"github.com/gvallee/go_hpc_omb/pkg/job"
	"github.com/gvallee/go_hpc_omb/pkg/launcher"
	"github.com/gvallee/go_hpc_omb/pkg/mpi"
	"github.com/gvallee/go_hpc_omb/pkg/mpirun"
	"github.com/gvallee/go_hpc_omb/pkg/remote"
	"github.com/gvallee/go_hpc_omb/pkg/sharedfs"
	"github.com/jonboulle/clockwork"
	"github.com/pingcap/errors"
)

// SSHHosts creates the ssh executors of the hosts
func (c *Config) SSHHosts(clock clockwork.Clock) []*remote.SSH {
	hosts := make([]*remote.SSH, 0, len(c.Hosts))
	for _, h := range c.Hosts {
		hosts = append(hosts, &remote.SSH{
			Target:       h.SSH,
			Address:      h.Address,
			CPUs:         h.CPUs,
			Binary:       c.SSH.Binary,
			Options:      c.SSH.Options,
			WorkDir:      c.SSH.WorkDir,
			PollInterval: c.SSH.PollInterval,
			Retries:      c.SSH.Retries,
			Timeout:      c.SSH.RobustTimeout,
			Clock:        clock,
		})
	}
	return hosts
}

// JobHosts creates the hosts of the campaign, asking the hosts for their number of CPUs
// when the configuration does not specify it
func (c *Config) JobHosts(ctx context.Context, clock clockwork.Clock) ([]job.Host, error) {
	var hosts []job.Host
	for _, h := range c.SSHHosts(clock) {
		if err := h.DiscoverCPUs(ctx); err != nil {
			return nil, errors.Annotatef(err, "unable to get the number of CPUs of %s", h.Target)
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

// GlobalEnv returns the environment variables passed to all ranks, sorted by name
func (c *Config) GlobalEnv() []mpirun.EnvVar {
	var env []mpirun.EnvVar
	for _, name := range c.GEnvNames() {
		env = append(env, mpirun.EnvVar{Name: name, Value: c.GEnv[name]})
	}
	return env
}

// BenchmarkOptions returns the options passed to all benchmark executables
func (c *Config) BenchmarkOptions() mpirun.Options {
	var options mpirun.Options
	for _, o := range c.Options {
		options = options.With(o.Flag, o.Value)
	}
	return options
}

// Environment returns the MPI environment, detecting the implementation from the
// installation directory on the first host when the vendor is not set
func (c *Config) Environment(ctx context.Context, exec remote.Executor) (*mpi.Environment, error) {
	if c.MPI.Vendor == "" && c.MPI.InstallDir != "" {
		env, err := mpi.DetectFromDir(ctx, exec, c.MPI.InstallDir)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if c.MPI.Prologue != "" {
			env.Prologue = c.MPI.Prologue
		}
		return env, nil
	}
	info := implem.Info{ID: c.MPI.Vendor, Version: c.MPI.Version, InstallDir: c.MPI.InstallDir}
	env, err := mpi.NewEnvironment(info, c.MPI.Prologue)
	return env, errors.Trace(err)
}

// Exporter returns the way directories are shared between hosts
func (c *Config) Exporter() sharedfs.Exporter {
	if !c.NFS.Enabled {
		return sharedfs.None{}
	}
	return &sharedfs.NFS{ExportHost: c.NFS.ExportHost}
}

// Runner creates the runner of the campaign
func (c *Config) Runner(env *mpi.Environment, clock clockwork.Clock) *launcher.Runner {
	return &launcher.Runner{
		MPI:        *env,
		RunDir:     c.RunDir,
		Iterations: c.Iterations,
		Perhost:    c.Perhost,
		MPIDebug:   c.MPIDebug,
		GlobalEnv:  c.GlobalEnv(),
		Exporter:   c.Exporter(),
		Clock:      clock,
	}
}

// Requests returns one request per benchmark of the campaign
func (c *Config) Requests(hosts []job.Host) []job.Request {
	reqs := make([]job.Request, 0, len(c.Benchmarks))
	for _, name := range c.Benchmarks {
		reqs = append(reqs, job.Request{
			Benchmark:   name,
			Hosts:       hosts,
			MessageSize: c.MessageSize,
			Options:     c.BenchmarkOptions(),
		})
	}
	return reqs
}
