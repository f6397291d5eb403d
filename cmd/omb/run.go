// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package main

import (
	"context"

	"github.com/gvallee/go_hpc_omb/internal/pkg/config"
	"github.com/gvallee/go_hpc_omb/internal/pkg/output"
	"github.com/gvallee/go_hpc_omb/pkg/benchmark"
	"github.com/gvallee/go_hpc_omb/pkg/job"
	"github.com/gvallee/go_hpc_omb/pkg/launcher"
	"github.com/jonboulle/clockwork"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// setup creates the hosts and the runner described by a configuration
func setup(ctx context.Context, cfg *config.Config) ([]job.Host, *launcher.Runner, error) {
	clock := clockwork.NewRealClock()
	hosts, err := cfg.JobHosts(ctx, clock)
	if err != nil {
		return nil, nil, err
	}
	env, err := cfg.Environment(ctx, hosts[0])
	if err != nil {
		return nil, nil, errors.Annotate(err, "unable to load the MPI environment")
	}
	log.Info("MPI environment loaded", zap.String("mpi", env.String()), zap.String("prologue", env.Prologue))
	return hosts, cfg.Runner(env, clock), nil
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var benchmarks []string
	var outputPath string
	var prepare bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run benchmarks on the hosts of a configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(benchmarks) > 0 {
				for _, name := range benchmarks {
					if _, err := benchmark.Lookup(name); err != nil {
						return err
					}
				}
				cfg.Benchmarks = benchmarks
			}
			if outputPath != "" {
				cfg.Output = outputPath
			}

			ctx := cmd.Context()
			hosts, runner, err := setup(ctx, cfg)
			if err != nil {
				return err
			}
			if prepare {
				if err := runner.PrepareWorkers(ctx, hosts); err != nil {
					return errors.Annotate(err, "unable to prepare the hosts")
				}
			}

			var w output.Writer
			if cfg.Output == config.StdoutOutput {
				w, err = output.ForStream(cmd.OutOrStdout(), cfg.Format)
			} else {
				w, err = output.New(cfg.Output, cfg.Format)
			}
			if err != nil {
				return errors.Annotatef(err, "unable to create %s", cfg.Output)
			}
			defer w.Close()

			failures := 0
			for res, err := range runner.RunBenchmarks(ctx, cfg.Requests(hosts)) {
				if err != nil {
					failures++
					log.Error("benchmark run failed", zap.Error(err))
					continue
				}
				if err := w.Write(res); err != nil {
					return errors.Annotate(err, "unable to write result")
				}
			}
			if failures > 0 {
				return errors.Errorf("%d benchmark run(s) failed", failures)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&benchmarks, "benchmark", "b", nil, "Benchmarks to run instead of the ones of the configuration")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Where to write the results, - for the standard output")
	cmd.Flags().BoolVar(&prepare, "prepare", false, "Prepare the hosts before running the benchmarks")
	return cmd
}

func newPrepareCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prepare",
		Short: "Share the MPI installation and the benchmarks between hosts and check that MPI jobs can run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			hosts, runner, err := setup(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return runner.PrepareWorkers(cmd.Context(), hosts)
		},
	}
}
