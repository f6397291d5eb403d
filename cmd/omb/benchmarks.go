// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/gvallee/go_hpc_omb/pkg/benchmark"
	"github.com/spf13/cobra"
)

func newBenchmarksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "benchmarks",
		Short: "List the supported benchmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tUNITS\tVALUE\tCOLUMNS\tFULL\tSINGLE-THREADED")
			for _, name := range benchmark.Names() {
				def, err := benchmark.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%t\n", def.Name, def.Units, def.ValueColumn,
					strings.Join(def.ColumnNames(), ","), def.SupportsFull, def.SingleThreaded)
			}
			return tw.Flush()
		},
	}
}
