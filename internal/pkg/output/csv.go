// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package output

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/gvallee/go_hpc_omb/pkg/job"
)

var csvHeader = []string{
	"benchmark", "mpi_vendor", "mpi_version", "perhost", "number_processes",
	"run_time_s", "units", "value_column", "size", "value", "metadata", "params",
}

// CSVWriter writes one row per record of the results
type CSVWriter struct {
	out    io.WriteCloser
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter creates a new CSVWriter and writes the header
func NewCSVWriter(out io.WriteCloser) (*CSVWriter, error) {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return &CSVWriter{
		out:    out,
		writer: w,
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Write writes all the records of a result
func (cw *CSVWriter) Write(r *job.Result) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	metadata, err := json.Marshal(r.Metadata)
	if err != nil {
		return err
	}
	params := strings.Join(r.Params.Args(), " ")

	for _, rec := range r.Data {
		size := ""
		if s, ok := rec["size"]; ok {
			size = formatFloat(s)
		}
		row := []string{
			r.Name,
			r.MPIVendor,
			r.MPIVersion,
			strconv.Itoa(r.Perhost),
			strconv.Itoa(r.NumberProcesses),
			formatFloat(r.RunTime.Seconds()),
			r.Units,
			r.ValueColumn,
			size,
			formatFloat(rec[r.ValueColumn]),
			string(metadata),
			params,
		}
		if err := cw.writer.Write(row); err != nil {
			return err
		}
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

// Close closes the underlying file
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	return cw.out.Close()
}
