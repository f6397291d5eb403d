// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package mpich

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gvallee/go_hpc_omb/pkg/remote"
)

const (
	// ID is the internal ID for MPICH
	ID = "mpich"
)

// Prologue returns the shell commands setting up the environment to use the MPICH installed in dir
func Prologue(dir string) string {
	return fmt.Sprintf("export PATH=%s:$PATH LD_LIBRARY_PATH=%s:$LD_LIBRARY_PATH",
		filepath.Join(dir, "bin"), filepath.Join(dir, "lib"))
}

func parseMPICHInfoOutputForVersion(output string) (string, error) {
	targetLineIdx := 1
	lines := strings.Split(output, "\n")
	if len(lines) <= targetLineIdx || !strings.Contains(lines[targetLineIdx], "Version:") {
		return "", fmt.Errorf("invalid output format")
	}
	tokens := strings.Split(lines[targetLineIdx], "Version:")
	if len(tokens) != 2 {
		return "", fmt.Errorf("invalid format: %s", lines[targetLineIdx])
	}
	version := strings.ReplaceAll(tokens[1], " ", "")
	version = strings.ReplaceAll(version, "\t", "")
	return version, nil
}

// DetectFromDir tries to figure out which version of MPICH is installed in a given directory
func DetectFromDir(ctx context.Context, exec remote.Executor, dir string) (string, string, error) {
	targetBin := filepath.Join(dir, "bin", "mpirun")
	cmd := fmt.Sprintf("test -x %s || exit 127; %s; cd %s && %s --version", targetBin, Prologue(dir), filepath.Dir(targetBin), targetBin)
	stdout, _, err := exec.RunCommand(ctx, cmd)
	if err != nil {
		return "", "", fmt.Errorf("unable to execute %s --version: %w", targetBin, err)
	}
	version, err := parseMPICHInfoOutputForVersion(stdout)
	if err != nil {
		return "", "", fmt.Errorf("parseMPICHInfoOutputForVersion() failed - %w", err)
	}

	return ID, version, nil
}
