// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package mpirun

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBuild(t *testing.T) {
	cmd := Build([]string{"10.0.0.1", "10.0.0.2"}, "path/to/osu_barrier", Options{{"-t", "1"}, {"--full", ""}}, 1, 2, ". mpivars.sh")
	require.Equal(t, ". mpivars.sh; mpirun -perhost 1 -n 2 -hosts 10.0.0.1,10.0.0.2 path/to/osu_barrier -t 1 --full", cmd)
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		name     string
		cmd      Command
		expected string
	}{
		{
			name: "debug",
			cmd: Command{
				Prologue:     ". mpivars.sh",
				Env:          []EnvVar{{"I_MPI_DEBUG", "5"}},
				Perhost:      1,
				NumProcesses: 2,
				Hosts:        []string{"10.0.0.1", "10.0.0.2"},
				Executable:   "/usr/local/libexec/osu-micro-benchmarks/mpi/startup/osu_hello",
			},
			expected: ". mpivars.sh; I_MPI_DEBUG=5 mpirun -perhost 1 -n 2 -hosts 10.0.0.1,10.0.0.2 /usr/local/libexec/osu-micro-benchmarks/mpi/startup/osu_hello",
		},
		{
			name: "genv without prologue",
			cmd: Command{
				Perhost:      4,
				NumProcesses: 8,
				Hosts:        []string{"10.0.0.2", "10.0.0.1"},
				GlobalEnv:    []EnvVar{{"I_MPI_PIN_DOMAIN", "core"}},
				Executable:   "osu_allreduce",
				Options:      Options{{"--iterations", "10"}, {"-m", "1024:1024"}, {"--full", ""}},
			},
			expected: "mpirun -perhost 4 -n 8 -hosts 10.0.0.2,10.0.0.1 -genv I_MPI_PIN_DOMAIN core osu_allreduce --iterations 10 -m 1024:1024 --full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.cmd.String())
		})
	}
}

func TestOptions(t *testing.T) {
	opts := Options{{"--iterations", "10"}}
	withM := opts.With("-m", "8:8")
	require.Equal(t, Options{{"--iterations", "10"}}, opts)
	require.Equal(t, Options{{"--iterations", "10"}, {"-m", "8:8"}}, withM)

	replaced := withM.With("--iterations", "20")
	require.Equal(t, Options{{"--iterations", "20"}, {"-m", "8:8"}}, replaced)

	v, ok := replaced.Get("-m")
	require.True(t, ok)
	require.Equal(t, "8:8", v)
	_, ok = replaced.Get("--full")
	require.False(t, ok)
}

func TestBuildPreservesHostOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		hosts := rapid.SliceOfN(rapid.StringMatching(`10\.0\.[0-9]{1,3}\.[0-9]{1,3}`), 1, 16).Draw(t, "hosts")
		perhost := rapid.IntRange(1, 64).Draw(t, "perhost")

		cmd := Build(hosts, "osu_bw", nil, perhost, perhost*len(hosts), ". mpivars.sh")
		require.Equal(t, cmd, Build(hosts, "osu_bw", nil, perhost, perhost*len(hosts), ". mpivars.sh"))
		require.Contains(t, cmd, " -hosts "+strings.Join(hosts, ",")+" osu_bw")
		require.True(t, strings.HasPrefix(cmd, ". mpivars.sh; mpirun -perhost "))
		require.True(t, strings.HasSuffix(cmd, " osu_bw"))
	})
}
