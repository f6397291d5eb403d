// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gvallee/go_hpc_omb/pkg/benchmark"
	"github.com/gvallee/go_hpc_omb/pkg/job"
	"github.com/gvallee/go_hpc_omb/pkg/mpirun"
	"github.com/stretchr/testify/require"
)

func sampleResult() *job.Result {
	return &job.Result{
		Name:     "mbw_mr",
		Metadata: map[string]string{"pairs": "15", "window_size": "64"},
		Data: []benchmark.Record{
			{"size": 1, "bandwidth": 6.39, "messages_per_second": 6385003.8},
			{"size": 2, "bandwidth": 12.81, "messages_per_second": 6405045.27},
		},
		FullCmd:         ". mpivars.sh; mpirun -perhost 1 -n 2 -hosts 10.0.0.1,10.0.0.2 path/to/startup/osu_mbw_mr --iterations 10",
		Units:           "MB/s",
		Params:          mpirun.Options{{Flag: "--iterations", Value: "10"}},
		MPIVendor:       "intel",
		MPIVersion:      "2019.6",
		ValueColumn:     "bandwidth",
		NumberProcesses: 2,
		RunTime:         1500 * time.Millisecond,
		Pinning:         []string{"0:0:0,1", "1:1:0,1"},
		Perhost:         1,
	}
}

func TestJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	w, err := New(path, FormatJSON)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleResult()))
	require.NoError(t, w.Write(sampleResult()))
	require.NoError(t, w.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	decoder := json.NewDecoder(bytes.NewReader(content))
	var first map[string]any
	require.NoError(t, decoder.Decode(&first))
	require.Equal(t, "mbw_mr", first["name"])
	require.Equal(t, 1.5, first["run_time"])
	require.Equal(t, []any{"0:0:0,1", "1:1:0,1"}, first["pinning"])
	require.Equal(t, []any{map[string]any{"flag": "--iterations", "value": "10"}}, first["params"])
	data := first["data"].([]any)
	require.Equal(t, map[string]any{"size": 1.0, "bandwidth": 6.39, "messages_per_second": 6385003.8}, data[0])
	var second map[string]any
	require.NoError(t, decoder.Decode(&second))
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	w, err := New(path, FormatCSV)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleResult()))

	barrier := &job.Result{
		Name:            "barrier",
		Data:            []benchmark.Record{{"latency": 5.51, "min_latency": 5.49, "max_latency": 5.52, "iterations": 1000}},
		Units:           "usec",
		ValueColumn:     "latency",
		NumberProcesses: 8,
		Perhost:         4,
		Params:          mpirun.Options{{Flag: "--full"}},
	}
	require.NoError(t, w.Write(barrier))
	require.NoError(t, w.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	expected := "benchmark,mpi_vendor,mpi_version,perhost,number_processes,run_time_s,units,value_column,size,value,metadata,params\n" +
		"mbw_mr,intel,2019.6,1,2,1.5,MB/s,bandwidth,1,6.39,\"{\"\"pairs\"\":\"\"15\"\",\"\"window_size\"\":\"\"64\"\"}\",--iterations 10\n" +
		"mbw_mr,intel,2019.6,1,2,1.5,MB/s,bandwidth,2,12.81,\"{\"\"pairs\"\":\"\"15\"\",\"\"window_size\"\":\"\"64\"\"}\",--iterations 10\n" +
		"barrier,,,4,8,0,usec,latency,,5.51,null,--full\n"
	require.Equal(t, expected, string(content))
}

func TestNewUnsupportedFormat(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "results.xml"), "xml")
	require.Error(t, err)

	_, err = New(filepath.Join(t.TempDir(), "missing", "results.json"), FormatJSON)
	require.Error(t, err)
}

func TestForStream(t *testing.T) {
	var buf bytes.Buffer
	w, err := ForStream(&buf, FormatCSV)
	require.NoError(t, err)
	require.NoError(t, w.Write(&job.Result{Name: "bw", ValueColumn: "bandwidth", Data: []benchmark.Record{{"size": 4, "bandwidth": 1.5}}}))
	require.NoError(t, w.Close())
	require.Contains(t, buf.String(), "bw,,,0,0,0,,bandwidth,4,1.5,null,\n")

	_, err = ForStream(&buf, "xml")
	require.Error(t, err)
}
