// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package job

import (
	"context"
	"errors"
	"testing"

	"github.com/gvallee/go_hpc_omb/pkg/benchmark"
	"github.com/stretchr/testify/require"
)

type staticHost struct {
	ip string
}

func (h staticHost) RunCommand(context.Context, string) (string, string, error) {
	return "", "", nil
}

func (h staticHost) RunRobustCommand(context.Context, string) (string, string, error) {
	return "", "", nil
}

func (h staticHost) InternalIP() string { return h.ip }

func (h staticHost) NumCPUs() int { return 1 }

func TestAddresses(t *testing.T) {
	hosts := []Host{staticHost{"10.0.0.2"}, staticHost{"10.0.0.1"}}
	require.Equal(t, []string{"10.0.0.2", "10.0.0.1"}, Addresses(hosts))
}

func TestRequestValidate(t *testing.T) {
	r := Request{Benchmark: "bw", Hosts: []Host{staticHost{"10.0.0.1"}}}
	require.NoError(t, r.Validate())

	r.Hosts = nil
	require.Error(t, r.Validate())

	r = Request{Benchmark: "hello", Hosts: []Host{staticHost{"10.0.0.1"}}}
	var unknown *benchmark.UnknownBenchmarkError
	require.True(t, errors.As(r.Validate(), &unknown))
}

func TestResultValues(t *testing.T) {
	r := Result{
		ValueColumn: "bandwidth",
		Data: []benchmark.Record{
			{"size": 1, "bandwidth": 6.39},
			{"size": 2, "bandwidth": 12.81},
		},
	}
	require.Equal(t, []float64{6.39, 12.81}, r.Values())
}
