// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package remote

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gvallee/go_exec/pkg/advexec"
	"github.com/jonboulle/clockwork"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

const (
	// DefaultPollInterval is how often the completion of a robust command is checked
	DefaultPollInterval = 5 * time.Second

	// DefaultRetries is the number of consecutive failed polls tolerated by a robust command
	DefaultRetries = 5

	// DefaultWorkDir is the remote directory where robust commands store their output
	DefaultWorkDir = "/tmp"
)

// SSH runs commands on a remote host through the ssh client
type SSH struct {
	// Target is the ssh destination, e.g., user@node-0
	Target string

	// Address is the address of the host on the network used by MPI
	Address string

	// CPUs is the number of CPUs of the host that can be used to run benchmarks
	CPUs int

	// Binary is the path to the ssh client, ssh by default
	Binary string

	// Options are extra options of the ssh client (e.g., -o BatchMode=yes)
	Options []string

	// WorkDir is the remote directory where robust commands store their output
	WorkDir string

	// PollInterval is how often the completion of a robust command is checked
	PollInterval time.Duration

	// Retries is the number of consecutive failed polls tolerated by a robust command
	Retries int

	// Timeout is the maximum duration of a robust command, no limit when 0
	Timeout time.Duration

	// Clock is used to pace the polling of robust commands, real time by default
	Clock clockwork.Clock
}

// InternalIP returns the address of the host on the network used by MPI
func (s *SSH) InternalIP() string {
	return s.Address
}

// NumCPUs returns the number of CPUs of the host
func (s *SSH) NumCPUs() int {
	return s.CPUs
}

// DiscoverCPUs sets the number of CPUs of the host using nproc when it is not already known
func (s *SSH) DiscoverCPUs(ctx context.Context) error {
	if s.CPUs > 0 {
		return nil
	}
	stdout, _, err := s.RunCommand(ctx, "nproc")
	if err != nil {
		return err
	}
	s.CPUs, err = strconv.Atoi(strings.TrimSpace(stdout))
	if err != nil {
		return fmt.Errorf("invalid nproc output from %s: %q", s.Target, stdout)
	}
	return nil
}

func (s *SSH) clock() clockwork.Clock {
	if s.Clock == nil {
		return clockwork.NewRealClock()
	}
	return s.Clock
}

// RunCommand runs a command on the remote host
func (s *SSH) RunCommand(ctx context.Context, cmd string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	var sshCmd advexec.Advcmd
	sshCmd.BinPath = s.Binary
	if sshCmd.BinPath == "" {
		sshCmd.BinPath = "ssh"
	}
	sshCmd.CmdArgs = append(sshCmd.CmdArgs, s.Options...)
	sshCmd.CmdArgs = append(sshCmd.CmdArgs, s.Target, cmd)
	res := sshCmd.Run()
	if res.Err != nil {
		return res.Stdout, res.Stderr, &CommandError{Host: s.Target, Cmd: cmd, Stdout: res.Stdout, Stderr: res.Stderr, Err: res.Err}
	}
	return res.Stdout, res.Stderr, nil
}

// RunRobustCommand starts a command detached from the ssh session and polls for its
// completion, so the loss of a session does not kill a benchmark.
func (s *SSH) RunRobustCommand(ctx context.Context, cmd string) (string, string, error) {
	workDir := s.WorkDir
	if workDir == "" {
		workDir = DefaultWorkDir
	}
	base := path.Join(workDir, "omb-"+uuid.NewString())
	inner := fmt.Sprintf("(%s) > %s.out 2> %s.err; echo $? > %s.tmp && mv %s.tmp %s.status", cmd, base, base, base, base, base)
	launch := "nohup sh -c " + shellQuote(inner) + " > /dev/null 2>&1 < /dev/null &"

	if _, _, err := s.RunCommand(ctx, launch); err != nil {
		return "", "", &CommandError{Host: s.Target, Cmd: cmd, Err: err}
	}
	log.Debug("robust command started", zap.String("host", s.Target), zap.String("cmd", cmd), zap.String("output", base))

	status, err := s.waitForStatus(ctx, cmd, base)
	if err != nil {
		return "", "", err
	}

	stdout, _, err := s.RunCommand(ctx, "cat "+base+".out")
	if err != nil {
		return "", "", &CommandError{Host: s.Target, Cmd: cmd, Err: fmt.Errorf("unable to read stdout: %w", err)}
	}
	stderr, _, err := s.RunCommand(ctx, "cat "+base+".err")
	if err != nil {
		return stdout, "", &CommandError{Host: s.Target, Cmd: cmd, Stdout: stdout, Err: fmt.Errorf("unable to read stderr: %w", err)}
	}
	if _, _, err := s.RunCommand(ctx, "rm -f "+base+".out "+base+".err "+base+".status"); err != nil {
		log.Warn("unable to clean up robust command output", zap.String("host", s.Target), zap.Error(err))
	}

	if status != "0" {
		return stdout, stderr, &CommandError{Host: s.Target, Cmd: cmd, Stdout: stdout, Stderr: stderr, Err: fmt.Errorf("exit status %s", status)}
	}
	return stdout, stderr, nil
}

// waitForStatus polls the remote host until the exit status of a robust command is available
func (s *SSH) waitForStatus(ctx context.Context, cmd string, base string) (string, error) {
	clock := s.clock()
	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	retries := s.Retries
	if retries <= 0 {
		retries = DefaultRetries
	}

	start := clock.Now()
	failures := 0
	for {
		stdout, _, err := s.RunCommand(ctx, "cat "+base+".status 2> /dev/null || true")
		switch {
		case err != nil && ctx.Err() != nil:
			return "", ctx.Err()
		case err != nil:
			failures++
			log.Warn("unable to check robust command status", zap.String("host", s.Target), zap.Int("failures", failures), zap.Error(err))
			if failures > retries {
				return "", &CommandError{Host: s.Target, Cmd: cmd, Err: fmt.Errorf("lost contact with host: %w", err)}
			}
		default:
			failures = 0
			if status := strings.TrimSpace(stdout); status != "" {
				return status, nil
			}
		}

		if s.Timeout > 0 && clock.Since(start) >= s.Timeout {
			return "", &TimeoutError{Host: s.Target, Cmd: cmd, Timeout: s.Timeout}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-clock.After(interval):
		}
	}
}
