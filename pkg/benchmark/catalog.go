// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package benchmark

import (
	"regexp"
	"sort"
)

const (
	// UnitsMicroseconds is the unit reported by latency and non-blocking collective benchmarks
	UnitsMicroseconds = "usec"

	// UnitsMBPerSecond is the unit reported by bandwidth benchmarks
	UnitsMBPerSecond = "MB/s"
)

// ColumnType is the numeric type of a column of a report's data table
type ColumnType int

const (
	// Int identifies columns holding integers (message sizes, iteration counts)
	Int ColumnType = iota

	// Float identifies columns holding floating point measurements
	Float
)

// Column is one named, typed column of a report's data table
type Column struct {
	Name string
	Type ColumnType
}

// Definition gathers everything needed to interpret the output of a given OSU benchmark
type Definition struct {
	// Name is the benchmark name, i.e., the executable name without the "osu_" prefix
	Name string

	// Marker matches the line starting the data section of the report
	Marker *regexp.Regexp

	// Columns is the ordered schema of the data rows
	Columns []Column

	// ValueColumn is the column used as the primary value of the benchmark
	ValueColumn string

	// Units is the unit of ValueColumn
	Units string

	// SupportsFull is set when the executable accepts the --full option
	SupportsFull bool

	// SingleThreaded is set for benchmarks that only run with one process per host
	SingleThreaded bool
}

// ExecutableName returns the name of the OSU executable for the benchmark
func (d *Definition) ExecutableName() string {
	return "osu_" + d.Name
}

// ColumnNames returns the names of the columns in report order
func (d *Definition) ColumnNames() []string {
	names := make([]string, 0, len(d.Columns))
	for _, c := range d.Columns {
		names = append(names, c.Name)
	}
	return names
}

var (
	sizeMarker          = regexp.MustCompile(`^#\s*Size\s`)
	avgLatencyMarker    = regexp.MustCompile(`^#\s*Avg Latency\(us\)`)
	overallMarker       = regexp.MustCompile(`^#\s*Overall\(us\)`)
	allMarkers          = []*regexp.Regexp{sizeMarker, avgLatencyMarker, overallMarker}
	latencyColumns      = []Column{{"latency", Float}, {"min_latency", Float}, {"max_latency", Float}, {"iterations", Int}}
	computeColumns      = []Column{{"overall", Float}, {"compute", Float}, {"collection_init", Float}, {"mpi_test", Float}, {"mpi_wait", Float}, {"pure_comm", Float}, {"overlap", Float}}
	sizeColumn          = Column{"size", Int}
	singleLatencyColumn = Column{"latency", Float}
)

// layout describes one family of report formats shared by several benchmarks
type layout struct {
	marker       *regexp.Regexp
	columns      []Column
	valueColumn  string
	units        string
	supportsFull bool
}

func withSize(columns ...Column) []Column {
	return append([]Column{sizeColumn}, columns...)
}

var (
	// Collectives started with --full
	latencyLayout = layout{sizeMarker, withSize(latencyColumns...), "latency", UnitsMicroseconds, true}

	// Barrier does not take any message size
	latencyNoSizeLayout = layout{avgLatencyMarker, latencyColumns, "latency", UnitsMicroseconds, true}

	// Non-blocking collectives started with --full
	computeLayout = layout{sizeMarker, withSize(computeColumns...), "overall", UnitsMicroseconds, true}

	computeNoSizeLayout = layout{overallMarker, computeColumns, "overall", UnitsMicroseconds, true}

	// Point-to-point and one-sided benchmarks do not support --full
	latencySizeOnlyLayout   = layout{sizeMarker, withSize(singleLatencyColumn), "latency", UnitsMicroseconds, false}
	bandwidthLayout         = layout{sizeMarker, withSize(Column{"bandwidth", Float}), "bandwidth", UnitsMBPerSecond, false}
	bandwidthMessagesLayout = layout{sizeMarker, withSize(Column{"bandwidth", Float}, Column{"messages_per_second", Float}), "bandwidth", UnitsMBPerSecond, false}
)

type entry struct {
	layout         layout
	singleThreaded bool
}

var catalog = map[string]entry{
	"acc_latency":     {latencySizeOnlyLayout, true},
	"allgather":       {latencyLayout, false},
	"allgatherv":      {latencyLayout, false},
	"allreduce":       {latencyLayout, false},
	"alltoall":        {latencyLayout, false},
	"alltoallv":       {latencyLayout, false},
	"barrier":         {latencyNoSizeLayout, false},
	"bcast":           {latencyLayout, false},
	"bibw":            {bandwidthLayout, true},
	"bw":              {bandwidthLayout, true},
	"cas_latency":     {latencySizeOnlyLayout, true},
	"fop_latency":     {latencySizeOnlyLayout, true},
	"gather":          {latencyLayout, false},
	"gatherv":         {latencyLayout, false},
	"get_acc_latency": {latencySizeOnlyLayout, true},
	"get_bw":          {bandwidthLayout, true},
	"get_latency":     {latencySizeOnlyLayout, true},
	"iallgather":      {computeLayout, false},
	"iallgatherv":     {computeLayout, false},
	"iallreduce":      {computeLayout, false},
	"ialltoall":       {computeLayout, false},
	"ialltoallv":      {computeLayout, false},
	"ialltoallw":      {computeLayout, false},
	"ibarrier":        {computeNoSizeLayout, false},
	"ibcast":          {computeLayout, false},
	"igather":         {computeLayout, false},
	"igatherv":        {computeLayout, false},
	"ireduce":         {computeLayout, false},
	"iscatter":        {computeLayout, false},
	"iscatterv":       {computeLayout, false},
	"latency":         {latencySizeOnlyLayout, true},
	"latency_mp":      {latencySizeOnlyLayout, false},
	"latency_mt":      {latencySizeOnlyLayout, true},
	"mbw_mr":          {bandwidthMessagesLayout, false},
	"multi_lat":       {latencySizeOnlyLayout, false},
	"put_bibw":        {bandwidthLayout, true},
	"put_bw":          {bandwidthLayout, true},
	"put_latency":     {latencySizeOnlyLayout, true},
	"reduce":          {latencyLayout, false},
	"reduce_scatter":  {latencyLayout, false},
	"scatter":         {latencyLayout, false},
	"scatterv":        {latencyLayout, false},
}

// Lookup returns the definition of a benchmark
func Lookup(name string) (*Definition, error) {
	e, ok := catalog[name]
	if !ok {
		return nil, &UnknownBenchmarkError{Name: name}
	}
	return &Definition{
		Name:           name,
		Marker:         e.layout.marker,
		Columns:        e.layout.columns,
		ValueColumn:    e.layout.valueColumn,
		Units:          e.layout.units,
		SupportsFull:   e.layout.supportsFull,
		SingleThreaded: e.singleThreaded,
	}, nil
}

// Names returns the names of all the known benchmarks, sorted
func Names() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
