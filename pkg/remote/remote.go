// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package remote provides the ways to execute shell commands on the hosts used to run
// benchmarks.
package remote

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Executor runs shell commands on a host
type Executor interface {
	// RunCommand runs a short command and returns its stdout and stderr
	RunCommand(ctx context.Context, cmd string) (string, string, error)

	// RunRobustCommand runs a command that may last for a long time; implementations
	// tolerate the loss of the session used to start it
	RunRobustCommand(ctx context.Context, cmd string) (string, string, error)
}

// CommandError is returned when a command cannot be executed or fails
type CommandError struct {
	Host   string
	Cmd    string
	Stdout string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed on %s: %s - stdout: %s - stderr: %s", e.Cmd, e.Host, e.Err, e.Stdout, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when a robust command does not complete in time
type TimeoutError struct {
	Host    string
	Cmd     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q did not complete on %s within %s", e.Cmd, e.Host, e.Timeout)
}

// shellQuote quotes a string so a POSIX shell sees it as a single word
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
