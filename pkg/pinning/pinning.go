// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package pinning interprets the process pinning table Intel MPI prints at startup when
// I_MPI_DEBUG is at least 4, e.g.:
//
//	[0] MPI startup(): Rank    Pid      Node name       Pin cpu
//	[0] MPI startup(): 0       17077    pkb-a0b71860-0  {0,1,15}
//	[0] MPI startup(): 1       3475     pkb-a0b71860-1  {0,
//	                                       1,15}
package pinning

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// rankLineRE identifies lines of the pinning table, as opposed to the other startup messages
	rankLineRE = regexp.MustCompile(`^\[\d+\] MPI startup\(\):\s+\d+\s`)

	entryRE = regexp.MustCompile(`^\[\d+\] MPI startup\(\):\s+(\d+)\s+(\d+)\s+(\S+)\s+\{([^}]*)\}\s*$`)

	nodeIndexRE = regexp.MustCompile(`-(\d+)$`)
)

// FormatError is returned when a line of the pinning table cannot be interpreted
type FormatError struct {
	Line   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid MPI pinning line %q: %s", e.Line, e.Reason)
}

// Entry is the pinning of a single rank
type Entry struct {
	Rank int

	// HostIndex is the position of the rank's host in the list of hosts given to mpirun
	HostIndex int

	// CPUs is the comma-separated list of CPU IDs the rank is pinned to
	CPUs string
}

func (e Entry) String() string {
	return strconv.Itoa(e.Rank) + ":" + strconv.Itoa(e.HostIndex) + ":" + e.CPUs
}

// joinWrappedLines merges rank lines whose CPU list has been wrapped onto the next line
func joinWrappedLines(lines []string) []string {
	var joined []string
	for i := 0; i < len(lines); i++ {
		l := strings.TrimRight(lines[i], " \t\r")
		if rankLineRE.MatchString(l) && strings.Contains(l, "{") && !strings.Contains(l, "}") && i+1 < len(lines) {
			l += strings.TrimSpace(lines[i+1])
			i++
		}
		joined = append(joined, l)
	}
	return joined
}

func parseEntry(line string, numHosts int) (Entry, error) {
	var e Entry
	m := entryRE.FindStringSubmatch(line)
	if m == nil {
		return e, &FormatError{Line: line, Reason: "does not match <rank> <pid> <node name> {<cpus>}"}
	}

	var err error
	e.Rank, err = strconv.Atoi(m[1])
	if err != nil {
		return e, &FormatError{Line: line, Reason: fmt.Sprintf("invalid rank: %s", err)}
	}

	nodeName := m[3]
	idx := nodeIndexRE.FindStringSubmatch(nodeName)
	if idx == nil {
		return e, &FormatError{Line: line, Reason: fmt.Sprintf("node name %s does not end with a host index", nodeName)}
	}
	e.HostIndex, err = strconv.Atoi(idx[1])
	if err != nil {
		return e, &FormatError{Line: line, Reason: fmt.Sprintf("invalid host index: %s", err)}
	}
	if numHosts > 0 && e.HostIndex >= numHosts {
		return e, &FormatError{Line: line, Reason: fmt.Sprintf("host index %d out of range (%d hosts)", e.HostIndex, numHosts)}
	}

	cpus := strings.Join(strings.Fields(m[4]), "")
	if cpus == "" {
		return e, &FormatError{Line: line, Reason: "empty CPU list"}
	}
	e.CPUs = cpus

	return e, nil
}

// ParseEntries extracts the pinning table from the startup output of an MPI job, sorted by rank.
// Lines that are not part of the table are ignored. When numHosts is positive, host indexes
// must be lower than numHosts.
func ParseEntries(lines []string, numHosts int) ([]Entry, error) {
	var entries []Entry
	ranks := make(map[int]bool)
	for _, l := range joinWrappedLines(lines) {
		if !rankLineRE.MatchString(l) {
			continue
		}
		e, err := parseEntry(l, numHosts)
		if err != nil {
			return nil, err
		}
		if ranks[e.Rank] {
			return nil, &FormatError{Line: l, Reason: fmt.Sprintf("duplicate rank %d", e.Rank)}
		}
		ranks[e.Rank] = true
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Rank < entries[j].Rank
	})
	return entries, nil
}

// Parse returns the pinning table as "rank:hostIndex:cpus" strings, sorted by rank
func Parse(lines []string, numHosts int) ([]string, error) {
	entries, err := ParseEntries(lines, numHosts)
	if err != nil {
		return nil, err
	}
	pinning := make([]string, 0, len(entries))
	for _, e := range entries {
		pinning = append(pinning, e.String())
	}
	return pinning, nil
}
