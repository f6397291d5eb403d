// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package output

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/gvallee/go_hpc_omb/pkg/benchmark"
	"github.com/gvallee/go_hpc_omb/pkg/job"
)

type param struct {
	Flag  string `json:"flag"`
	Value string `json:"value,omitempty"`
}

type result struct {
	Name            string             `json:"name"`
	Metadata        map[string]string  `json:"metadata"`
	Data            []benchmark.Record `json:"data"`
	FullCmd         string             `json:"full_cmd"`
	Units           string             `json:"units"`
	Params          []param            `json:"params"`
	MPIVendor       string             `json:"mpi_vendor"`
	MPIVersion      string             `json:"mpi_version"`
	ValueColumn     string             `json:"value_column"`
	NumberProcesses int                `json:"number_processes"`
	RunTime         float64            `json:"run_time"`
	Pinning         []string           `json:"pinning"`
	Perhost         int                `json:"perhost"`
}

func newResult(r *job.Result) result {
	params := make([]param, 0, len(r.Params))
	for _, p := range r.Params {
		params = append(params, param{Flag: p.Flag, Value: p.Value})
	}
	return result{
		Name:            r.Name,
		Metadata:        r.Metadata,
		Data:            r.Data,
		FullCmd:         r.FullCmd,
		Units:           r.Units,
		Params:          params,
		MPIVendor:       r.MPIVendor,
		MPIVersion:      r.MPIVersion,
		ValueColumn:     r.ValueColumn,
		NumberProcesses: r.NumberProcesses,
		RunTime:         r.RunTime.Seconds(),
		Pinning:         r.Pinning,
		Perhost:         r.Perhost,
	}
}

// JSONWriter writes results as JSON lines
type JSONWriter struct {
	out     io.WriteCloser
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter creates a new JSONWriter
func NewJSONWriter(out io.WriteCloser) *JSONWriter {
	return &JSONWriter{
		out:     out,
		encoder: json.NewEncoder(out),
	}
}

// Write writes a single result as a JSON line
func (jw *JSONWriter) Write(r *job.Result) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	return jw.encoder.Encode(newResult(r))
}

// Close closes the underlying file
func (jw *JSONWriter) Close() error {
	return jw.out.Close()
}
