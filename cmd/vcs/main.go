// Copyright (C) 2015-2016  Nexedi SA and Contributors.
//                          Kirill Smelkov <kirr@nexedi.com>
//
// This program is free software: you can Use, Study, Modify and Redistribute
// it under the terms of the GNU General Public License version 3, or (at your
// option) any later version, as published by the Free Software Foundation.
//
// This program is distributed WITHOUT ANY WARRANTY; without even the implied
// warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//
// See COPYING file for full licensing terms.

// Command vcs is a small, from-scratch version control tool: a
// content-addressed object store plus a branch/commit/merge layer, built the
// way git-backup (lab.nexedi.com/kirr/git-backup) builds its own git object
// tooling, but without a dependency on an existing git repository or ODB.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lab.nexedi.com/kirr/vcs-go/internal/cliutil"
	"lab.nexedi.com/kirr/vcs-go/internal/vlog"
)

var (
	verbose cliutil.CountFlag = 1
	quiet   bool
	repoDir string
)

func main() {
	root := &cobra.Command{
		Use:           "vcs",
		Short:         "A small content-addressed version control tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if quiet {
				vlog.Level = 0
			} else {
				vlog.Level = int(verbose)
			}
		},
	}

	root.PersistentFlags().VarP(&verbose, "verbose", "v", "increase verbosity (repeatable)")
	root.PersistentFlags().Lookup("verbose").NoOptDefVal = "true"
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all non-error output")
	root.PersistentFlags().StringVarP(&repoDir, "repo", "C", ".", "run as if started in this directory")

	root.AddCommand(
		newInitCommand(),
		newAddCommand(),
		newCommitCommand(),
		newBranchCommand(),
		newCheckoutCommand(),
		newRevertCommand(),
		newMergeCommand(),
		newLogCommand(),
		newGraphCommand(),
	)

	if err := root.Execute(); err != nil {
		vlog.Errorf("%s", err)
		fmt.Fprintln(os.Stderr)
		os.Exit(1)
	}
}
