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

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"lab.nexedi.com/kirr/vcs-go/internal/repo"
	"lab.nexedi.com/kirr/vcs-go/internal/vcserr"
	"lab.nexedi.com/kirr/vcs-go/internal/vlog"
)

func openRepo() *repo.Repo {
	return repo.Open(repoDir)
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new repository in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := openRepo().Init(); err != nil {
				return err
			}
			vlog.Infof("Initialized empty repository in %s/.vcs", repoDir)
			return nil
		},
	}
}

func newAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path|all>",
		Short: "Stage a file, or all eligible files, for the next commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return openRepo().Stage(args[0])
		},
	}
}

func newCommitCommand() *cobra.Command {
	var message string
	c := &cobra.Command{
		Use:   "commit",
		Short: "Record a new commit from the working tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			commit, err := openRepo().Commit(message)
			if err != nil {
				return err
			}
			vlog.Infof("[%s] %s", commit.BranchName, shortID(commit.CommitID))
			return nil
		},
	}
	c.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return c
}

func newBranchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "branch <name>",
		Short: "Create a branch from the current branch's head and switch to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openRepo().CreateBranch(args[0])
			if err != nil {
				return err
			}
			vlog.Infof("Switched to a new branch '%s'", b.Name)
			return nil
		},
	}
}

func newCheckoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <branch>",
		Short: "Switch the current branch and restore its head commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := openRepo().Checkout(args[0]); err != nil {
				return err
			}
			vlog.Infof("Switched to branch '%s'", args[0])
			return nil
		},
	}
}

func newRevertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "revert <commit>",
		Short: "Restore a past commit's tree onto the working tree and re-stage it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := openRepo().Revert(args[0]); err != nil {
				return err
			}
			vlog.Infof("Reverted to %s", shortID(args[0]))
			return nil
		},
	}
}

func newMergeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge another branch's tip into the current branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openRepo().Merge(args[0])
			if err != nil {
				var already *vcserr.AlreadyMergedError
				if errors.As(err, &already) {
					vlog.Infof("%s", already)
					return nil
				}
				var conflict *vcserr.ConflictError
				if errors.As(err, &conflict) {
					vlog.Errorf("%s", conflict)
					return nil
				}
				return err
			}
			vlog.Infof("[%s] %s", c.BranchName, c.Message)
			return nil
		},
	}
}

func newLogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Print commits on the current branch, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := openRepo()
			cur, err := r.ReadCurrent()
			if err != nil {
				return err
			}
			branch, err := r.ReadBranch(cur.Name)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"commit", "branch", "timestamp", "message"})
			for i := len(branch.Commits) - 1; i >= 0; i-- {
				c, err := r.ReadCommit(branch.Commits[i])
				if err != nil {
					return err
				}
				t.AppendRow(table.Row{shortID(c.CommitID), c.BranchName, c.Timestamp, c.Message})
			}
			fmt.Println(t.Render())
			return nil
		},
	}
}

func newGraphCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the commit DAG and write commit_graph.dot",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := openRepo()
			dag, err := r.BuildDAG()
			if err != nil {
				return err
			}
			fmt.Print(dag.Dump())

			dotPath := filepath.Join(r.WorkDir, "commit_graph.dot")
			if err := os.WriteFile(dotPath, []byte(dag.ExportDOT()), 0666); err != nil {
				return err
			}
			vlog.Infof("Graph exported to '%s'. Use Graphviz to visualize.", dotPath)
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
