// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package pinning

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const startupOutput = `[0] MPI startup(): libfabric provider: tcp;ofi_rxm
[0] MPI startup(): Rank    Pid      Node name       Pin cpu
[0] MPI startup(): 0       17077    pkb-a0b71860-0  {0,1,15}
[0] MPI startup(): 1       3475     pkb-a0b71860-1  {0,
                                       1,15}
[0] MPI startup(): 2       17078    pkb-a0b71860-0  {2,16,17}
[0] MPI startup(): 3       3476     pkb-a0b71860-1  {2,16,17}`

func TestParse(t *testing.T) {
	pinning, err := Parse(strings.Split(startupOutput, "\n"), 2)
	require.NoError(t, err)
	require.Equal(t, []string{"0:0:0,1,15", "1:1:0,1,15", "2:0:2,16,17", "3:1:2,16,17"}, pinning)
}

func TestParseSortsByRank(t *testing.T) {
	lines := []string{
		"[0] MPI startup(): 3       3476     pkb-a0b71860-1  {2,16,17}",
		"[0] MPI startup(): 1       3475     pkb-a0b71860-1  {0,",
		"   1,15}",
		"[0] MPI startup(): 0       17077    pkb-a0b71860-0  {0,1,15}",
		"[0] MPI startup(): 2       17078    pkb-a0b71860-0  {2,16,17}",
	}
	entries, err := ParseEntries(lines, 2)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for i, e := range entries {
		require.Equal(t, i, e.Rank)
		require.Equal(t, i%2, e.HostIndex)
	}
	require.Equal(t, "0,1,15", entries[1].CPUs)
}

func TestParseIgnoresOtherLines(t *testing.T) {
	lines := []string{
		"# OSU MPI Latency Test v5.7",
		"[0] MPI startup(): Intel(R) MPI Library, Version 2019 Update 6  Build 20191024 (id: 082ae5608)",
		"[0] MPI startup(): libfabric version: 1.9.0a1-impi",
		"0       1.61",
	}
	pinning, err := Parse(lines, 1)
	require.NoError(t, err)
	require.Empty(t, pinning)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		numHosts int
	}{
		{
			name:     "host index out of range",
			lines:    []string{"[0] MPI startup(): 0       17077    pkb-a0b71860-2  {0,1}"},
			numHosts: 2,
		},
		{
			name:  "no host index",
			lines: []string{"[0] MPI startup(): 0       17077    localhost  {0,1}"},
		},
		{
			name:  "unterminated cpu list",
			lines: []string{"[0] MPI startup(): 0       17077    pkb-a0b71860-0  {0,1"},
		},
		{
			name:  "missing cpu list",
			lines: []string{"[0] MPI startup(): 0       17077    pkb-a0b71860-0"},
		},
		{
			name: "duplicate rank",
			lines: []string{
				"[0] MPI startup(): 0       17077    pkb-a0b71860-0  {0,1}",
				"[0] MPI startup(): 0       17078    pkb-a0b71860-1  {0,1}",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.lines, tt.numHosts)
			var formatErr *FormatError
			require.True(t, errors.As(err, &formatErr), "unexpected error: %v", err)
		})
	}
}
