// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package benchmark

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is one row of the data table of a report, indexed by column name
type Record map[string]float64

// ParseData extracts the data table of the report of a given benchmark.
// A report with a data marker but no row results in an empty slice.
func ParseData(name string, text string) ([]Record, error) {
	def, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return def.ParseData(text)
}

// ParseData extracts the data table of a report produced by the benchmark
func (d *Definition) ParseData(text string) ([]Record, error) {
	header, body, found := SplitReport(d, text)
	if !found {
		return nil, &MalformedReportError{
			Benchmark: d.Name,
			Reason:    fmt.Sprintf("data marker %q not found", d.Marker.String()),
		}
	}

	// Line numbers are 1-based and count the marker line
	firstLine := len(header) + 2
	records := []Record{}
	for idx, line := range body {
		if strings.TrimSpace(line) == "" {
			continue
		}
		r, err := d.parseRow(line)
		if err != nil {
			return nil, &MalformedReportError{
				Benchmark: d.Name,
				Line:      firstLine + idx,
				Text:      line,
				Reason:    err.Error(),
			}
		}
		records = append(records, r)
	}
	return records, nil
}

func (d *Definition) parseRow(line string) (Record, error) {
	tokens := strings.Fields(line)
	if len(tokens) != len(d.Columns) {
		return nil, fmt.Errorf("%d values instead of %d", len(tokens), len(d.Columns))
	}

	r := make(Record, len(d.Columns))
	for idx, col := range d.Columns {
		switch col.Type {
		case Int:
			v, err := strconv.ParseInt(tokens[idx], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid integer for column %s: %s", col.Name, tokens[idx])
			}
			r[col.Name] = float64(v)
		default:
			v, err := strconv.ParseFloat(tokens[idx], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number for column %s: %s", col.Name, tokens[idx])
			}
			r[col.Name] = v
		}
	}
	return r, nil
}
