// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package mpirun

import (
	"strconv"
	"strings"
)

const (
	// BinName is the name of the MPI launcher
	BinName = "mpirun"

	prologueSeparator = "; "
)

// Option is an option of a benchmark executable. Options with an empty value are bare flags
// (e.g., --full).
type Option struct {
	Flag  string
	Value string
}

// Options is an ordered list of options
type Options []Option

// Get returns the value of a flag and whether it is set
func (o Options) Get(flag string) (string, bool) {
	for _, opt := range o {
		if opt.Flag == flag {
			return opt.Value, true
		}
	}
	return "", false
}

// With returns a copy of the options with flag set to value. A flag that is already set keeps
// its position.
func (o Options) With(flag string, value string) Options {
	newOpts := make(Options, 0, len(o)+1)
	found := false
	for _, opt := range o {
		if opt.Flag == flag {
			opt.Value = value
			found = true
		}
		newOpts = append(newOpts, opt)
	}
	if !found {
		newOpts = append(newOpts, Option{Flag: flag, Value: value})
	}
	return newOpts
}

// Args returns the options as command line arguments
func (o Options) Args() []string {
	var args []string
	for _, opt := range o {
		args = append(args, opt.Flag)
		if opt.Value != "" {
			args = append(args, opt.Value)
		}
	}
	return args
}

// EnvVar is an environment variable set for the MPI job
type EnvVar struct {
	Name  string
	Value string
}

// Command gathers all the details required to start a benchmark with mpirun
type Command struct {
	// Prologue is the shell fragment setting up the MPI environment (e.g., ". mpivars.sh")
	Prologue string

	// Env is the set of variables set in the environment of mpirun (e.g., I_MPI_DEBUG)
	Env []EnvVar

	// Perhost is the number of ranks per host
	Perhost int

	// NumProcesses is the total number of ranks
	NumProcesses int

	// Hosts is the ordered list of host addresses; the order defines the host index of the ranks
	Hosts []string

	// GlobalEnv is the set of variables mpirun propagates to all ranks with -genv
	GlobalEnv []EnvVar

	// Executable is the path to the benchmark executable
	Executable string

	// Options are the options of the benchmark executable
	Options Options
}

// Args returns the arguments of mpirun
func (c *Command) Args() []string {
	var args []string
	args = append(args, "-perhost", strconv.Itoa(c.Perhost))
	args = append(args, "-n", strconv.Itoa(c.NumProcesses))
	args = append(args, "-hosts", strings.Join(c.Hosts, ","))
	for _, e := range c.GlobalEnv {
		args = append(args, "-genv", e.Name, e.Value)
	}
	args = append(args, c.Executable)
	args = append(args, c.Options.Args()...)
	return args
}

// String returns the full shell command line
func (c *Command) String() string {
	var sb strings.Builder
	if c.Prologue != "" {
		sb.WriteString(c.Prologue)
		sb.WriteString(prologueSeparator)
	}
	for _, e := range c.Env {
		sb.WriteString(e.Name + "=" + e.Value + " ")
	}
	sb.WriteString(BinName)
	for _, a := range c.Args() {
		sb.WriteString(" ")
		sb.WriteString(a)
	}
	return sb.String()
}

// Build returns the command line starting a benchmark on a set of hosts
func Build(hosts []string, executable string, options Options, perhost int, numberProcesses int, prologue string) string {
	c := Command{
		Prologue:     prologue,
		Perhost:      perhost,
		NumProcesses: numberProcesses,
		Hosts:        hosts,
		Executable:   executable,
		Options:      options,
	}
	return c.String()
}
