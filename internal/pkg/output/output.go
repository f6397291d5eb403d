// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package output writes benchmark results to files.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/gvallee/go_hpc_omb/pkg/job"
)

const (
	// FormatJSON writes one JSON document per result
	FormatJSON = "json"

	// FormatCSV writes one CSV row per record of each result
	FormatCSV = "csv"

	stdoutPath = "-"
)

// Writer writes results as they are produced
type Writer interface {
	Write(r *job.Result) error
	Close() error
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func open(path string) (io.WriteCloser, error) {
	if path == stdoutPath || path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

// New creates a writer for a given format; the file is overwritten if it exists and
// "-" designates the standard output
func New(path string, format string) (Writer, error) {
	if format != FormatJSON && format != FormatCSV {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	w, err := newWriter(f, format)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// ForStream creates a writer on a stream that the writer does not close
func ForStream(out io.Writer, format string) (Writer, error) {
	return newWriter(nopCloser{out}, format)
}

func newWriter(out io.WriteCloser, format string) (Writer, error) {
	switch format {
	case FormatJSON:
		return NewJSONWriter(out), nil
	case FormatCSV:
		w, err := NewCSVWriter(out)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	return nil, fmt.Errorf("unsupported output format: %s", format)
}
