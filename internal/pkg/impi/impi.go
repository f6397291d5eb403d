// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package impi

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gvallee/go_hpc_omb/pkg/remote"
)

const (
	// ID is the internal ID for Intel MPI
	ID = "intel"

	// DebugEnvVar is the environment variable controlling the verbosity of Intel MPI
	DebugEnvVar = "I_MPI_DEBUG"

	// PinningDebugLevel is the smallest debug level at which Intel MPI reports the process pinning
	PinningDebugLevel = 5

	mpivarsScript = "mpivars.sh"
)

var versionRE = regexp.MustCompile(`Version (\d+)(?:\.(\d+))?(?: Update (\d+))?`)

// MpiVarsPath returns the path to the script setting up the environment of an Intel MPI installation
func MpiVarsPath(dir string) string {
	return filepath.Join(dir, "intel64", "bin", mpivarsScript)
}

// SourceMpiVarsCommand returns the shell command loading the Intel MPI environment
func SourceMpiVarsCommand(dir string) string {
	return ". " + MpiVarsPath(dir)
}

func parseMpirunOutputForVersion(output string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "Intel(R) MPI Library") {
			continue
		}
		m := versionRE.FindStringSubmatch(line)
		if m == nil {
			return "", fmt.Errorf("invalid format: %s", line)
		}
		minor := m[2]
		if m[3] != "" {
			minor = m[3]
		}
		if minor == "" {
			return m[1], nil
		}
		return m[1] + "." + minor, nil
	}
	return "", fmt.Errorf("invalid output format")
}

// DetectFromDir tries to figure out which version of Intel MPI is installed in a given directory
func DetectFromDir(ctx context.Context, exec remote.Executor, dir string) (string, string, error) {
	mpivars := MpiVarsPath(dir)
	cmd := fmt.Sprintf("test -f %s || exit 127; %s; mpirun --version", mpivars, SourceMpiVarsCommand(dir))
	stdout, _, err := exec.RunCommand(ctx, cmd)
	if err != nil {
		return "", "", fmt.Errorf("%s cannot be used, not an Intel MPI implementation: %w", mpivars, err)
	}
	version, err := parseMpirunOutputForVersion(stdout)
	if err != nil {
		return "", "", fmt.Errorf("parseMpirunOutputForVersion() failed: %w", err)
	}

	return ID, version, nil
}
