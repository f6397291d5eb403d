// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package main

import (
	"os"

	"github.com/gvallee/go_hpc_omb/internal/pkg/output"
	"github.com/gvallee/go_hpc_omb/pkg/benchmark"
	"github.com/gvallee/go_hpc_omb/pkg/job"
	"github.com/gvallee/go_hpc_omb/pkg/pinning"
	"github.com/gvallee/go_util/pkg/util"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
)

// parseReport interprets a report saved from a previous run
func parseReport(name string, text string, numHosts int) (*job.Result, error) {
	def, err := benchmark.Lookup(name)
	if err != nil {
		return nil, err
	}
	data, err := def.ParseData(text)
	if err != nil {
		return nil, err
	}
	pins, err := pinning.Parse(benchmark.SplitLines(text), numHosts)
	if err != nil {
		return nil, err
	}
	return &job.Result{
		Name:        def.Name,
		Metadata:    benchmark.ParseMetadata(text),
		Data:        data,
		Units:       def.Units,
		ValueColumn: def.ValueColumn,
		Pinning:     pins,
	}, nil
}

func newParseCmd() *cobra.Command {
	var format string
	var numHosts int

	cmd := &cobra.Command{
		Use:   "parse <benchmark> <report>",
		Short: "Interpret the output of a benchmark saved in a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !util.FileExists(args[1]) {
				return errors.Errorf("%s does not exist", args[1])
			}
			content, err := os.ReadFile(args[1])
			if err != nil {
				return errors.Trace(err)
			}
			res, err := parseReport(args[0], string(content), numHosts)
			if err != nil {
				return err
			}
			w, err := output.ForStream(cmd.OutOrStdout(), format)
			if err != nil {
				return err
			}
			if err := w.Write(res); err != nil {
				return err
			}
			return w.Close()
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", output.FormatJSON, "Output format (json or csv)")
	cmd.Flags().IntVar(&numHosts, "hosts", 0, "Number of hosts of the run, used to check the pinning (0 to skip the check)")
	return cmd
}
