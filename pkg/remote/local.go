// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package remote

import (
	"context"

	"github.com/gvallee/go_exec/pkg/advexec"
)

const localHost = "localhost"

// Local runs commands on the local host through sh
type Local struct {
	// Shell is the path to the shell used to run the commands, sh by default
	Shell string

	// ExecDir is the directory where commands are executed (optional)
	ExecDir string
}

func (l *Local) shell() string {
	if l.Shell == "" {
		return "sh"
	}
	return l.Shell
}

// RunCommand runs a command on the local host
func (l *Local) RunCommand(ctx context.Context, cmd string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	var shCmd advexec.Advcmd
	shCmd.BinPath = l.shell()
	shCmd.CmdArgs = []string{"-c", cmd}
	shCmd.ExecDir = l.ExecDir
	res := shCmd.Run()
	if res.Err != nil {
		return res.Stdout, res.Stderr, &CommandError{Host: localHost, Cmd: cmd, Stdout: res.Stdout, Stderr: res.Stderr, Err: res.Err}
	}
	return res.Stdout, res.Stderr, nil
}

// RunRobustCommand runs a command on the local host; there is no session to lose so it is
// the same as RunCommand
func (l *Local) RunRobustCommand(ctx context.Context, cmd string) (string, string, error) {
	return l.RunCommand(ctx, cmd)
}
