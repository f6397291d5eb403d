// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// Copyright (c) 2021-2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package mpi

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gvallee/go_hpc_omb/internal/pkg/impi"
	"github.com/gvallee/go_hpc_omb/internal/pkg/mpich"
	"github.com/gvallee/go_hpc_omb/internal/pkg/mvapich2"
	"github.com/gvallee/go_hpc_omb/internal/pkg/openmpi"
	"github.com/gvallee/go_hpc_omb/pkg/implem"
	"github.com/gvallee/go_hpc_omb/pkg/remote"
	"github.com/gvallee/go_util/pkg/util"
)

// Environment is the MPI implementation used to run benchmarks and the way to load it
type Environment struct {
	implem.Info

	// Prologue is the shell command(s) run before mpirun to set up the environment, e.g., ". mpivars.sh"
	Prologue string
}

type detector func(context.Context, remote.Executor, string) (string, string, error)

// Always check for MVAPICH before MPICH since they share some code, otherwise MVAPICH is not correctly detected
var detectors = []detector{
	impi.DetectFromDir,
	openmpi.DetectFromDir,
	mvapich2.DetectFromDir,
	mpich.DetectFromDir,
}

// Prologue returns the default prologue for a given implementation installed in dir
func Prologue(id string, dir string) string {
	if dir == "" {
		return ""
	}
	switch id {
	case implem.IntelMPI:
		return impi.SourceMpiVarsCommand(dir)
	case implem.OMPI:
		return openmpi.Prologue(dir)
	case implem.MVAPICH2:
		return mvapich2.Prologue(dir)
	case implem.MPICH:
		return mpich.Prologue(dir)
	}
	return ""
}

// NewEnvironment creates an environment from known data; when the prologue is not
// specified, the default one of the implementation is used
func NewEnvironment(info implem.Info, prologue string) (*Environment, error) {
	if info.ID != "" && !implem.IsMPI(&info) {
		return nil, fmt.Errorf("unsupported MPI implementation: %s", info.ID)
	}
	env := &Environment{Info: info, Prologue: prologue}
	if env.Prologue == "" {
		env.Prologue = Prologue(info.ID, info.InstallDir)
	}
	return env, nil
}

// DebugEnvVar returns the environment variable controlling the verbosity of the implementation.
// Intel MPI is assumed when the implementation is unknown.
func (e *Environment) DebugEnvVar() string {
	if e.ID == implem.IntelMPI || e.ID == "" {
		return impi.DebugEnvVar
	}
	return ""
}

// DetectFromDir figures out which MPI implementation is installed in dir on the host behind exec
func DetectFromDir(ctx context.Context, exec remote.Executor, dir string) (*Environment, error) {
	for _, d := range detectors {
		id, version, err := d(ctx, exec, dir)
		if err == nil {
			return NewEnvironment(implem.Info{ID: id, Version: version, InstallDir: dir}, "")
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("unable to detect any supported MPI implementation from %s", dir)
}

// DetectLocal figures out which MPI implementation is installed in a local directory
func DetectLocal(ctx context.Context, dir string) (*Environment, error) {
	if !util.PathExists(dir) {
		return nil, fmt.Errorf("%s does not exist", dir)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return DetectFromDir(ctx, &remote.Local{}, absDir)
}
