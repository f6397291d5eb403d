// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package benchmark

import (
	"regexp"
	"strings"
)

// SplitLines splits the text of a report into physical lines. A trailing newline does not
// produce an extra empty line.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// markerIndex returns the index of the first line matching re, -1 if none does
func markerIndex(re *regexp.Regexp, lines []string) int {
	for idx, l := range lines {
		if re.MatchString(l) {
			return idx
		}
	}
	return -1
}

// LinesAfterMarker returns all the lines strictly after the first line matching re.
// If no line matches, the result is empty.
func LinesAfterMarker(re *regexp.Regexp, text string) []string {
	lines := SplitLines(text)
	idx := markerIndex(re, lines)
	if idx < 0 {
		return []string{}
	}
	return append([]string{}, lines[idx+1:]...)
}

// SplitReport sections a report at the data marker of a benchmark: header holds the lines
// before the marker, body the lines after it. The marker line belongs to neither.
// found is false when the report has no data marker, in which case all lines are in header.
func SplitReport(def *Definition, text string) (header []string, body []string, found bool) {
	lines := SplitLines(text)
	idx := markerIndex(def.Marker, lines)
	if idx < 0 {
		return lines, nil, false
	}
	return lines[:idx], lines[idx+1:], true
}
