// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package benchmark

import "fmt"

// UnknownBenchmarkError is returned when a benchmark name is not in the catalog
type UnknownBenchmarkError struct {
	Name string
}

func (e *UnknownBenchmarkError) Error() string {
	return fmt.Sprintf("unknown OSU benchmark %q", e.Name)
}

// MalformedReportError is returned when the output of a benchmark cannot be interpreted.
// Line is 0 when the error is not about a specific line (e.g., no data section).
type MalformedReportError struct {
	Benchmark string
	Line      int
	Text      string
	Reason    string
}

func (e *MalformedReportError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("malformed %s report: %s", e.Benchmark, e.Reason)
	}
	return fmt.Sprintf("malformed %s report, line %d (%q): %s", e.Benchmark, e.Line, e.Text, e.Reason)
}
