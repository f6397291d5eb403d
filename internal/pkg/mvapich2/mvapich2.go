// Copyright (c) 2022-2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package mvapich2

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gvallee/go_hpc_omb/pkg/remote"
)

const (
	// ID is the internal ID for MVAPICH2
	ID = "mvapich2"
)

// Prologue returns the shell commands setting up the environment to use the MVAPICH2 installed in dir
func Prologue(dir string) string {
	return fmt.Sprintf("export PATH=%s:$PATH LD_LIBRARY_PATH=%s:$LD_LIBRARY_PATH",
		filepath.Join(dir, "bin"), filepath.Join(dir, "lib"))
}

func parseMVAPICH2InfoOutputForVersion(output string) (string, error) {
	if output == "" {
		return "", fmt.Errorf("empty output from version command")
	}
	lines := strings.Split(output, "\n")
	if !strings.HasPrefix(lines[0], "MVAPICH2 Version:") {
		return "", fmt.Errorf("invalid output format")
	}
	str := strings.TrimPrefix(lines[0], "MVAPICH2 Version:")
	str = strings.TrimSpace(str)
	return str, nil
}

// DetectFromDir tries to figure out which version of MVAPICH2 is installed in a given directory
func DetectFromDir(ctx context.Context, exec remote.Executor, dir string) (string, string, error) {
	targetBin := filepath.Join(dir, "bin", "mpichversion")
	cmd := fmt.Sprintf("test -x %s || exit 127; %s; %s", targetBin, Prologue(dir), targetBin)
	stdout, _, err := exec.RunCommand(ctx, cmd)
	if err != nil {
		return "", "", fmt.Errorf("unable to execute %s: %w", targetBin, err)
	}
	version, err := parseMVAPICH2InfoOutputForVersion(stdout)
	if err != nil {
		return "", "", fmt.Errorf("parseMVAPICH2InfoOutputForVersion() failed: %w", err)
	}

	return ID, version, nil
}
