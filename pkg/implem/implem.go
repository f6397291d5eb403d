// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package implem

import (
	"github.com/gvallee/go_hpc_omb/internal/pkg/impi"
	"github.com/gvallee/go_hpc_omb/internal/pkg/mpich"
	"github.com/gvallee/go_hpc_omb/internal/pkg/mvapich2"
	"github.com/gvallee/go_hpc_omb/internal/pkg/openmpi"
)

const (
	// OMPI is the identifier for Open MPI
	OMPI = openmpi.ID

	// MPICH is the identifier for MPICH
	MPICH = mpich.ID

	// MVAPICH2 is the identifier for MVAPICH2
	MVAPICH2 = mvapich2.ID

	// IntelMPI is the identifier for Intel MPI
	IntelMPI = impi.ID
)

// Info gathers all data about a specific MPI implementation
type Info struct {
	// ID is the string idenfifying the MPI implementation
	ID string

	// Version is the version of the MPI implementation
	Version string

	// InstallDir is where the MPI implementation is installed
	InstallDir string
}

// IsMPI checks if information passed in is an MPI implementation
func IsMPI(i *Info) bool {
	if i == nil {
		return false
	}
	switch i.ID {
	case OMPI, MPICH, MVAPICH2, IntelMPI:
		return true
	}
	return false
}

func (i *Info) String() string {
	if i.Version == "" {
		return i.ID
	}
	return i.ID + " " + i.Version
}
