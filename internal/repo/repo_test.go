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
	"os"
	"path/filepath"
	"testing"

	"lab.nexedi.com/kirr/vcs-go/internal/vcserr"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	dir := t.TempDir()
	r := Open(dir)
	if err := r.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

func writeWorkFile(t *testing.T, r *Repo, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(r.WorkDir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// S1: init + add + commit bootstraps a "master" branch.
func TestScenarioInitAddCommitBootstrapsMaster(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "hello.txt", "hello world")

	if err := r.Stage("all"); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	c, err := r.Commit("first commit")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if c.BranchName != "master" {
		t.Fatalf("BranchName = %q, want master", c.BranchName)
	}
	if c.Parent != NullParent {
		t.Fatalf("Parent = %q, want %q", c.Parent, NullParent)
	}
	if c.DirectoryTree["hello.txt"] == "" {
		t.Fatalf("directory_tree missing hello.txt")
	}

	cur, err := r.ReadCurrent()
	if err != nil {
		t.Fatalf("ReadCurrent: %v", err)
	}
	if cur.Name != "master" || cur.Head != c.CommitID {
		t.Fatalf("current branch = %+v, want master@%s", cur, c.CommitID)
	}
}

// Universal property: commit records are immutable once written - re-reading
// a commit after further operations returns the same content.
func TestCommitIsImmutable(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "a.txt", "v1")
	r.Stage("all")
	c1, err := r.Commit("v1")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	writeWorkFile(t, r, "b.txt", "v2")
	r.Stage("all")
	if _, err := r.Commit("v2"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	reread, err := r.readCommit(c1.CommitID)
	if err != nil {
		t.Fatalf("readCommit: %v", err)
	}
	if reread.Message != "v1" || len(reread.DirectoryTree) != 1 {
		t.Fatalf("commit %s mutated: %+v", c1.CommitID, reread)
	}
}

// S2 / Open Question 2: branch <name> switches the current branch to the
// new branch, it does not merely create it alongside.
func TestCreateBranchSwitchesCurrent(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "a.txt", "v1")
	r.Stage("all")
	c1, err := r.Commit("v1")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := r.CreateBranch("feature"); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	cur, err := r.ReadCurrent()
	if err != nil {
		t.Fatalf("ReadCurrent: %v", err)
	}
	if cur.Name != "feature" {
		t.Fatalf("current branch = %q, want feature", cur.Name)
	}
	if cur.Head != c1.CommitID {
		t.Fatalf("feature head = %q, want %q", cur.Head, c1.CommitID)
	}
}

func TestCreateBranchRejectsDuplicate(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "a.txt", "v1")
	r.Stage("all")
	r.Commit("v1")

	if _, err := r.CreateBranch("feature"); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if _, err := r.CreateBranch("feature"); err == nil {
		t.Fatal("expected error creating duplicate branch")
	}
}

// S3: checkout restores the target branch's head tree onto the working tree.
func TestCheckoutRestoresTree(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "a.txt", "master content")
	r.Stage("all")
	r.Commit("master commit")

	r.CreateBranch("feature")
	writeWorkFile(t, r, "a.txt", "feature content")
	r.Stage("all")
	r.Commit("feature commit")

	if err := r.Checkout("master"); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(r.WorkDir, "a.txt"))
	if err != nil {
		t.Fatalf("read a.txt: %v", err)
	}
	if string(data) != "master content" {
		t.Fatalf("a.txt = %q, want %q", data, "master content")
	}
}

// S3 (literal): checkout must remove a file that exists in the working tree
// but is absent from the target branch's tree, per spec.md §4.7 steps 2/4
// and testable property 5 (the restored working tree equals the committed
// snapshot, not a superset of it).
func TestCheckoutRemovesFilesAbsentFromTargetTree(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "a.txt", "hi")
	r.Stage("all")
	if _, err := r.Commit("first"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := r.CreateBranch("feature"); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	writeWorkFile(t, r, "b.txt", "b")
	r.Stage("all")
	if _, err := r.Commit("on feature"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := r.Checkout("master"); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if _, err := os.Stat(filepath.Join(r.WorkDir, "b.txt")); !os.IsNotExist(err) {
		t.Fatalf("b.txt still present after checkout master, want removed (err=%v)", err)
	}
	data, err := os.ReadFile(filepath.Join(r.WorkDir, "a.txt"))
	if err != nil {
		t.Fatalf("read a.txt: %v", err)
	}
	if string(data) != "hi" {
		t.Fatalf("a.txt = %q, want %q", data, "hi")
	}
}

// S4 / Open Question 3: revert restores an old commit's tree and re-stages
// it, but does not truncate the branch's commit list.
func TestRevertDoesNotTruncateHistory(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "a.txt", "v1")
	r.Stage("all")
	c1, _ := r.Commit("v1")

	writeWorkFile(t, r, "a.txt", "v2")
	r.Stage("all")
	r.Commit("v2")

	if err := r.Revert(c1.CommitID); err != nil {
		t.Fatalf("Revert: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(r.WorkDir, "a.txt"))
	if err != nil {
		t.Fatalf("read a.txt: %v", err)
	}
	if string(data) != "v1" {
		t.Fatalf("a.txt = %q, want %q", data, "v1")
	}

	branch, err := r.ReadBranch("master")
	if err != nil {
		t.Fatalf("ReadBranch: %v", err)
	}
	// v1, v2, and the re-appended revert-to-v1 entry: nothing truncated, and
	// branch-head coherence (spec.md §8 property 3) holds throughout.
	if len(branch.Commits) != 3 {
		t.Fatalf("branch.Commits = %v, want 3 entries (nothing truncated)", branch.Commits)
	}
	if branch.Head != c1.CommitID {
		t.Fatalf("branch.Head = %q, want %q (current-branch coherence)", branch.Head, c1.CommitID)
	}

	// committing again should record c1 (the reverted-to commit) as parent,
	// not a truncated history.
	writeWorkFile(t, r, "a.txt", "v1")
	c3, err := r.Commit("back to v1")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if c3.Parent != c1.CommitID {
		t.Fatalf("c3.Parent = %q, want %q", c3.Parent, c1.CommitID)
	}
}

// S5 / Open Question 4 (fixed): merge leaves the current branch's head at
// the new merge commit's own ID, not the source branch's head.
func TestMergeHeadIsMergeCommit(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "base.txt", "base")
	r.Stage("all")
	r.Commit("base commit")

	r.CreateBranch("feature")
	writeWorkFile(t, r, "feature.txt", "feature content")
	r.Stage("all")
	featureCommit, err := r.Commit("feature commit")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := r.Checkout("master"); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	merged, err := r.Merge("feature")
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	cur, err := r.ReadCurrent()
	if err != nil {
		t.Fatalf("ReadCurrent: %v", err)
	}
	if cur.Head != merged.CommitID {
		t.Fatalf("current head = %q, want merge commit %q", cur.Head, merged.CommitID)
	}
	if cur.Head == featureCommit.CommitID {
		t.Fatalf("current head regressed to source branch head %q (the original bug)", featureCommit.CommitID)
	}

	if len(merged.Parents) != 1 || merged.Parents[0] != featureCommit.CommitID {
		t.Fatalf("merge commit parents = %v, want [%q]", merged.Parents, featureCommit.CommitID)
	}

	data, err := os.ReadFile(filepath.Join(r.WorkDir, "feature.txt"))
	if err != nil {
		t.Fatalf("feature.txt not materialized after merge: %v", err)
	}
	if string(data) != "feature content" {
		t.Fatalf("feature.txt = %q, want %q", data, "feature content")
	}
}

// Universal property 6: merging a branch into itself, or re-merging an
// already-merged branch, is a no-op reported as such rather than a failure.
func TestMergeAlreadyMergedIsNoOp(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "base.txt", "base")
	r.Stage("all")
	r.Commit("base commit")

	r.CreateBranch("feature")
	if err := r.Checkout("master"); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if _, err := r.Merge("feature"); err == nil {
		t.Fatal("expected AlreadyMergedError, got nil")
	} else if _, ok := err.(*vcserr.AlreadyMergedError); !ok {
		t.Fatalf("Merge error = %T (%v), want *vcserr.AlreadyMergedError", err, err)
	}
}

// S6 / Universal property 7: merging branches that changed the same path to
// different content reports a conflict and leaves every persistent record
// unchanged - no new commit, no branch head movement, no current-branch move.
func TestMergeConflictLeavesStateUnchanged(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "a.txt", "base")
	r.Stage("all")
	r.Commit("base commit")

	r.CreateBranch("feature")
	writeWorkFile(t, r, "a.txt", "feature value")
	r.Stage("all")
	if _, err := r.Commit("feature commit"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := r.Checkout("master"); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	writeWorkFile(t, r, "a.txt", "master value")
	r.Stage("all")
	masterCommit, err := r.Commit("master commit")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	beforeMaster, err := r.ReadBranch("master")
	if err != nil {
		t.Fatalf("ReadBranch: %v", err)
	}
	beforeCur, err := r.ReadCurrent()
	if err != nil {
		t.Fatalf("ReadCurrent: %v", err)
	}

	_, err = r.Merge("feature")
	if err == nil {
		t.Fatal("expected conflict error, got nil")
	}
	conflict, ok := err.(*vcserr.ConflictError)
	if !ok {
		t.Fatalf("Merge error = %T (%v), want *vcserr.ConflictError", err, err)
	}
	if len(conflict.Paths) != 1 || conflict.Paths[0] != "a.txt" {
		t.Fatalf("conflict.Paths = %v, want [a.txt]", conflict.Paths)
	}

	afterMaster, err := r.ReadBranch("master")
	if err != nil {
		t.Fatalf("ReadBranch: %v", err)
	}
	afterCur, err := r.ReadCurrent()
	if err != nil {
		t.Fatalf("ReadCurrent: %v", err)
	}
	if afterMaster.Head != beforeMaster.Head || len(afterMaster.Commits) != len(beforeMaster.Commits) {
		t.Fatalf("branch mutated on conflict: before %+v, after %+v", beforeMaster, afterMaster)
	}
	if afterCur.Head != beforeCur.Head {
		t.Fatalf("current branch mutated on conflict: before %+v, after %+v", beforeCur, afterCur)
	}
	if afterMaster.Head != masterCommit.CommitID {
		t.Fatalf("master head = %q, want unchanged %q", afterMaster.Head, masterCommit.CommitID)
	}

	data, err := os.ReadFile(filepath.Join(r.WorkDir, "a.txt"))
	if err != nil {
		t.Fatalf("read a.txt: %v", err)
	}
	if string(data) != "master value" {
		t.Fatalf("working tree mutated on conflict: a.txt = %q", data)
	}
}

func TestFindCommonAncestor(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "a.txt", "v1")
	r.Stage("all")
	base, _ := r.Commit("base")

	r.CreateBranch("feature")
	writeWorkFile(t, r, "a.txt", "v2")
	r.Stage("all")
	r.Commit("feature commit")

	ancestor, err := r.FindCommonAncestor("master", "feature")
	if err != nil {
		t.Fatalf("FindCommonAncestor: %v", err)
	}
	if ancestor != base.CommitID {
		t.Fatalf("ancestor = %q, want %q", ancestor, base.CommitID)
	}
}

func TestThreeWayMergeCleanCases(t *testing.T) {
	base := Snapshot{"a": "1", "b": "1", "c": "1"}
	ours := Snapshot{"a": "1", "b": "2", "c": "1"}     // we changed b
	theirs := Snapshot{"a": "3", "b": "1", "c": "1"}   // they changed a

	merged, err := ThreeWayMerge(base, ours, theirs)
	if err != nil {
		t.Fatalf("ThreeWayMerge: %v", err)
	}
	want := Snapshot{"a": "3", "b": "2", "c": "1"}
	if !merged.Equal(want) {
		t.Fatalf("merged = %v, want %v", merged, want)
	}
}

// A conflict still yields a usable merged snapshot defaulting to ours'
// value on the conflicted path, matching MergeHandler::threeWayMerge
// reporting the conflict without discarding the merge result.
func TestThreeWayMergeConflict(t *testing.T) {
	base := Snapshot{"a": "1"}
	ours := Snapshot{"a": "2"}
	theirs := Snapshot{"a": "3"}

	merged, err := ThreeWayMerge(base, ours, theirs)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	conflict, ok := err.(*vcserr.ConflictError)
	if !ok {
		t.Fatalf("err = %T, want *vcserr.ConflictError", err)
	}
	if len(conflict.Paths) != 1 || conflict.Paths[0] != "a" {
		t.Fatalf("conflict.Paths = %v, want [a]", conflict.Paths)
	}
	if merged["a"] != "2" {
		t.Fatalf("merged[\"a\"] = %q, want ours' value %q", merged["a"], "2")
	}
}

// Universal property: blobs are written once under their digest; staging the
// same content twice under different names does not duplicate the blob, and
// both paths resolve to the same stored file.
func TestObjectStoreDeduplicatesIdenticalContent(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "a.txt", "same content")
	writeWorkFile(t, r, "b.txt", "same content")
	r.Stage("all")
	c, err := r.Commit("dedup test")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if c.DirectoryTree["a.txt"] != c.DirectoryTree["b.txt"] {
		t.Fatalf("identical content hashed differently: %q != %q",
			c.DirectoryTree["a.txt"], c.DirectoryTree["b.txt"])
	}
	// Digest-keyed staging: one shared slot, so one stored blob and a
	// single file_names entry for the two paths.
	if len(c.FileHashes) != 1 || len(c.FileNames) != 1 {
		t.Fatalf("file_hashes = %v, file_names = %v, want one entry each", c.FileHashes, c.FileNames)
	}
}
