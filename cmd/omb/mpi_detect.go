// Copyright (c) 2022-2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package main

import (
	"fmt"

	"github.com/gvallee/go_hpc_omb/pkg/mpi"
	"github.com/gvallee/go_hpc_omb/pkg/remote"
	"github.com/spf13/cobra"
)

func newMPIDetectCmd() *cobra.Command {
	var dir string
	var host string

	cmd := &cobra.Command{
		Use:   "mpi-detect",
		Short: "Detect the MPI implementation installed in a given directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var env *mpi.Environment
			var err error
			if host == "" {
				env, err = mpi.DetectLocal(cmd.Context(), dir)
			} else {
				env, err = mpi.DetectFromDir(cmd.Context(), &remote.SSH{Target: host, Address: host}, dir)
			}
			if err != nil {
				return fmt.Errorf("unable to detect the MPI implementation installed in %s: %w", dir, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Detected MPI:\n%s %s\n", env.ID, env.Version)
			if env.Prologue != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Prologue: %s\n", env.Prologue)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Path to the install directory where the MPI is installed")
	cmd.Flags().StringVar(&host, "host", "", "Host where the MPI is installed, the local host by default")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}
