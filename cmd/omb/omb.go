// Copyright (c) 2021-2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gvallee/go_hpc_omb/internal/pkg/config"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	logLevel   string
	logFile    string
}

func initLogger(level string, file string) error {
	cfg := &log.Config{Level: level}
	if file != "" {
		cfg.File = log.FileLogConfig{Filename: file}
	}
	logger, props, err := log.InitLogger(cfg)
	if err != nil {
		return errors.Annotate(err, "init logger failed")
	}
	log.ReplaceGlobals(logger, props)
	return nil
}

// loadConfig loads the configuration file; the logging flags take precedence over the
// logging settings of the file
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if o.configFile == "" {
		return nil, errors.New("a configuration file is required (--config)")
	}
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if cmd.Flags().Changed("log-file") {
		cfg.LogFile = o.logFile
	}
	if err := initLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "omb",
		Short:         "Run the OSU Micro-Benchmarks on a set of hosts and interpret their results",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return initLogger(opts.logLevel, opts.logFile)
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to the configuration file (.toml, .yaml or .yml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Log to a file instead of stderr")

	cmd.AddCommand(
		newRunCmd(opts),
		newPrepareCmd(opts),
		newParseCmd(),
		newBenchmarksCmd(),
		newMPIDetectCmd(),
	)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		stop()
		os.Exit(1)
	}
}
