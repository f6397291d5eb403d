// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package benchmark

import (
	"regexp"
	"strings"
)

type metadataField struct {
	key string
	re  *regexp.Regexp
}

// Order matters: it is the order in which fields are reported by MetadataFields()
var metadataFields = []metadataField{
	{"pairs", regexp.MustCompile(`pairs: (\d+)`)},
	{"window_size", regexp.MustCompile(`window size: (\d+)`)},
	{"window_creation", regexp.MustCompile(`Window creation: (\S+)`)},
	{"sync", regexp.MustCompile(`Synchronization: (\S+)`)},
}

// MetadataFields returns the keys ParseMetadata can report
func MetadataFields() []string {
	keys := make([]string, 0, len(metadataFields))
	for _, f := range metadataFields {
		keys = append(keys, f.key)
	}
	return keys
}

// headerComments returns the comment lines preceding the first data marker
func headerComments(text string) []string {
	var comments []string
	for _, l := range SplitLines(text) {
		for _, m := range allMarkers {
			if m.MatchString(l) {
				return comments
			}
		}
		if strings.HasPrefix(strings.TrimSpace(l), "#") {
			comments = append(comments, l)
		}
	}
	return comments
}

// ParseMetadata extracts the benchmark parameters the OSU executables print in the header of
// their report (e.g., "# [ pairs: 4 ] [ window size: 64 ]"). Fields that are not found are
// absent from the result.
func ParseMetadata(text string) map[string]string {
	metadata := make(map[string]string)
	comments := headerComments(text)
	for _, f := range metadataFields {
		for _, l := range comments {
			if m := f.re.FindStringSubmatch(l); m != nil {
				metadata[f.key] = m[1]
				break
			}
		}
	}
	return metadata
}
