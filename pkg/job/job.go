// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// Copyright (c) 2021-2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package job

import (
	"fmt"
	"time"

	"github.com/duke-git/lancet/v2/slice"
	"github.com/gvallee/go_hpc_omb/pkg/benchmark"
	"github.com/gvallee/go_hpc_omb/pkg/mpirun"
	"github.com/gvallee/go_hpc_omb/pkg/remote"
)

// Host is a machine taking part in a benchmark run
type Host interface {
	remote.Executor

	// InternalIP is the address of the host on the network used by MPI
	InternalIP() string

	// NumCPUs is the number of CPUs available to run benchmarks
	NumCPUs() int
}

// Addresses returns the internal addresses of a list of hosts, in the same order
func Addresses(hosts []Host) []string {
	return slice.Map(hosts, func(_ int, h Host) string {
		return h.InternalIP()
	})
}

// Request represents a request to run a benchmark on a set of hosts
type Request struct {
	// Benchmark is the name of the benchmark, e.g., mbw_mr
	Benchmark string

	// Hosts is the ordered list of hosts; the first one is used to locate and start the benchmark
	Hosts []Host

	// MessageSize restricts the run to a message size ("1024") or a range of sizes ("1024:4096") (optional)
	MessageSize string

	// Options are extra options for the benchmark executable (optional)
	Options mpirun.Options
}

// Validate checks that a request can be executed
func (r *Request) Validate() error {
	if _, err := benchmark.Lookup(r.Benchmark); err != nil {
		return err
	}
	if len(r.Hosts) == 0 {
		return fmt.Errorf("no host to run %s", r.Benchmark)
	}
	return nil
}

// Variant is one of the process layouts used to run a benchmark
type Variant struct {
	// Perhost is the number of ranks per host
	Perhost int

	// NumberProcesses is the total number of ranks
	NumberProcesses int
}

// Result gathers the interpreted output of one run of a benchmark
type Result struct {
	Name            string
	Metadata        map[string]string
	Data            []benchmark.Record
	FullCmd         string
	Units           string
	Params          mpirun.Options
	MPIVendor       string
	MPIVersion      string
	ValueColumn     string
	NumberProcesses int
	RunTime         time.Duration
	Pinning         []string
	Perhost         int
}

// Values returns the values of the primary column of the benchmark, one per record
func (r *Result) Values() []float64 {
	return slice.Map(r.Data, func(_ int, rec benchmark.Record) float64 {
		return rec[r.ValueColumn]
	})
}
