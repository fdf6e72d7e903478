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

// Package repo implements the four core VCS subsystems: the content-addressed
// object store, the snapshot/commit model, the branch/ref manager, and the
// checkout/revert and merge engines.
//
// Per the "global state" re-architecture note, there is no process-wide
// repository singleton: every operation hangs off an explicit *Repo handle,
// constructed once at CLI entry (cmd/vcs) and threaded through.
package repo

import (
	"path/filepath"

	"lab.nexedi.com/kirr/vcs-go/internal/fsx"
)

// DirName is the repository-internal directory name, alongside the working
// tree it tracks.
const DirName = fsx.RepoDir

// Repo is a handle onto one repository: a working tree root plus its
// .vcs/ state directory.
type Repo struct {
	WorkDir string // working tree root (absolute or relative to cwd)
	VCSDir  string // WorkDir/.vcs
}

// Open returns a handle for the repository rooted at workDir. It does not
// check that the repository is initialized: Init creates the .vcs/ layout,
// and the first commit after Init bootstraps the "master" branch when no
// current branch exists yet, same as the original's VCSCommands::init/commit
// bootstrap. Commit fails with an IOError if the staging area was never
// created by Init.
func Open(workDir string) *Repo {
	return &Repo{
		WorkDir: workDir,
		VCSDir:  filepath.Join(workDir, DirName),
	}
}

func (r *Repo) path(elem ...string) string {
	return filepath.Join(append([]string{r.VCSDir}, elem...)...)
}

func (r *Repo) branchesDir() string       { return r.path("branches") }
func (r *Repo) branchPath(name string) string { return r.path("branches", name+".json") }
func (r *Repo) commitsDir() string        { return r.path("commits") }
func (r *Repo) commitPath(id string) string   { return r.path("commits", id+".json") }
func (r *Repo) hashDir() string           { return r.path("data", "hash") }
func (r *Repo) hashObjDir(digest string) string { return r.path("data", "hash", digest) }
func (r *Repo) stagingFilesDir() string   { return r.path("staging", "files") }
func (r *Repo) stagingFileDir(digest string) string { return r.path("staging", "files", digest) }
func (r *Repo) stagingTreeDir() string    { return r.path("staging", "tree") }
func (r *Repo) stagingTreePath() string   { return r.path("staging", "tree", "staging_tree.json") }
func (r *Repo) currentBranchDir() string  { return r.path("current_branch") }
func (r *Repo) currentBranchPath() string { return r.path("current_branch", "current_branch.json") }
func (r *Repo) latestCommitDir() string   { return r.path("latest_commit") }
func (r *Repo) latestCommitPath() string  { return r.path("latest_commit", "latest_commit.json") }

// Init creates the on-disk repository layout, per spec.md §6.
func (r *Repo) Init() error {
	for _, dir := range []string{
		r.currentBranchDir(),
		r.latestCommitDir(),
		r.stagingFilesDir(),
		r.stagingTreeDir(),
		r.branchesDir(),
		r.commitsDir(),
		r.hashDir(),
	} {
		if err := fsx.MkdirAll(dir); err != nil {
			return err
		}
	}
	return nil
}
