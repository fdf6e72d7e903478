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

package repo

import (
	"path/filepath"

	"lab.nexedi.com/kirr/vcs-go/internal/fsx"
	"lab.nexedi.com/kirr/vcs-go/internal/vcserr"
	"lab.nexedi.com/kirr/vcs-go/internal/vlog"
)

// restore materializes commitID's directory_tree onto the working tree: the
// working directory is first cleared down to the repository-internal
// directory alone, then every (path, digest) pair is written from the
// object store. This mirrors VCSCommands::checkout/VCSCommands::revert
// (original_source/src/VCSCommands.cpp:342-356, 475-489), both of which
// `remove_all` every top-level entry except .vcs before restoring - so a
// path present in the working tree but absent from the target commit does
// not survive a restore, per spec.md §4.7 steps 2/4 and testable property 5
// (restore round-trip).
//
// A per-file materialize failure is logged and skipped rather than aborting
// the whole restore, matching the original's per-file try/catch around the
// restore loop.
func (r *Repo) restore(commitID string) error {
	c, err := r.readCommit(commitID)
	if err != nil {
		return err
	}

	entries, err := fsx.ListEntries(r.WorkDir)
	if err != nil {
		return &vcserr.IOError{Op: "list working tree", Err: err}
	}
	for _, e := range entries {
		if e.Name() == fsx.RepoDir {
			continue
		}
		if err := fsx.RemoveTree(filepath.Join(r.WorkDir, e.Name())); err != nil {
			vlog.Warnf("could not remove %s: %s", e.Name(), err)
		}
	}

	for path, digestHex := range c.DirectoryTree {
		if fsx.IsExcluded(r.WorkDir, path) {
			continue
		}
		digest, err := ParseDigest(digestHex)
		if err != nil {
			return &vcserr.MalformedRecordError{Path: r.commitPath(commitID), Err: err}
		}
		dest := filepath.Join(r.WorkDir, path)
		if err := r.Materialize(digest, dest); err != nil {
			vlog.Warnf("failed to restore %s: %s", path, err)
			continue
		}
	}
	return nil
}

// Checkout switches the current branch to branchName and restores its head
// commit's tree onto the working tree, per spec.md §4.6.
func (r *Repo) Checkout(branchName string) error {
	b, err := r.ReadBranch(branchName)
	if err != nil {
		return err
	}
	if b.Head != NullParent {
		if err := r.restore(b.Head); err != nil {
			return err
		}
	}
	return r.WriteCurrent(b.Name, b.Head)
}

// Revert restores commitID's tree onto the working tree and re-stages it,
// without truncating the current branch's commit history.
//
// Per Open Question 3 (spec.md §9), VCSCommands::revert
// (original_source/src/VCSCommands.cpp) sets only the current-branch head to
// commitID, leaving the branch record's own head/commits untouched - which
// leaves the repository in a state where current.head != branches[name].head,
// violating the "current-branch coherence" property (spec.md §8 property 4)
// until the next commit. Asked to decide between truncating the commit list
// or treating the revert as appending the restored state, this rewrite picks
// the latter without minting a new commit record: commitID is appended again
// to the current branch's Commits list (a harmless repeat entry - the list is
// append-only and never rewound) and the branch's Head is set to commitID,
// matching the current-branch pointer. This keeps branch-head coherence
// (property 3) and current-branch coherence (property 4) intact at every
// step, while still satisfying the literal end-to-end scenario requirement
// (spec.md §8 S4) that after a revert the current-branch head is the
// reverted-to commit's own ID, not a freshly minted one.
func (r *Repo) Revert(commitID string) error {
	c, err := r.readCommit(commitID)
	if err != nil {
		return err
	}
	if err := r.restore(commitID); err != nil {
		return err
	}

	cur, err := r.ReadCurrent()
	if err != nil {
		return err
	}
	branch, err := r.ReadBranch(cur.Name)
	if err != nil {
		return err
	}
	branch.Commits = append(branch.Commits, c.CommitID)
	branch.Head = c.CommitID
	if err := r.WriteBranch(branch); err != nil {
		return err
	}
	if err := r.WriteCurrent(cur.Name, c.CommitID); err != nil {
		return err
	}

	return r.Stage("all")
}
