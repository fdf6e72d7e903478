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
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"lab.nexedi.com/kirr/vcs-go/internal/vcserr"
)

// FindCommonAncestor returns the nearest commit ID shared by both branches'
// commit lists, or "" if the branches share no history.
//
// Grounded on MergeHandler::findCommonAncestor
// (original_source/src/MergeHandler.cpp), which walks both branches'
// commit lists in reverse looking for the first match. Since commit lists
// here are flat, append-only slices rather than a hash-linked graph, a
// tail-scan against a set is sufficient and produces the same answer.
func (r *Repo) FindCommonAncestor(branch1, branch2 string) (string, error) {
	b1, err := r.ReadBranch(branch1)
	if err != nil {
		return "", err
	}
	b2, err := r.ReadBranch(branch2)
	if err != nil {
		return "", err
	}

	in2 := NewSet(b2.Commits...)
	for i := len(b1.Commits) - 1; i >= 0; i-- {
		if in2.Contains(b1.Commits[i]) {
			return b1.Commits[i], nil
		}
	}
	return "", nil
}

// Merge folds sourceBranch's tip snapshot into the current branch. It is a
// tip-only merge: the common ancestor located by FindCommonAncestor is not
// consulted for conflict resolution (see Open Question 5, spec.md §9) - only
// the two tip snapshots are compared. For every path present in both tips,
// equal digests are kept silently and differing digests are a conflict; a
// path present in only one tip is carried through unconditionally. Neither
// tip tree can contain the repository-internal directory or the tool's own
// executable - BuildWorkingTreeSnapshot excludes both when a commit is first
// recorded, so there is nothing left to filter here. If any conflict is
// found, Merge returns a *vcserr.ConflictError and leaves every persistent
// record (commits/, branches/, current_branch/) untouched, per spec.md §4.8
// step 5 and §8 property 7. If the two heads are equal, or the current head
// is a merge commit that already records the source head as a parent, Merge
// returns a *vcserr.AlreadyMergedError and writes nothing.
//
// Grounded on MergeHandler::threeWayMerge (original_source/src/MergeHandler.cpp)
// for the per-path comparison rule, simplified to two inputs because the
// wired merge command never supplies a base snapshot (see ThreeWayMerge for
// the full three-argument version, which exists but is not wired to any
// command, mirroring MergeHandler::threeWayMerge being defined but unused by
// VCSCommands::merge in the original).
//
// Per Open Question 4 (spec.md §9): the original VCSCommands::merge builds
// the merge commit correctly but then resets the current branch's head back
// to the *source* branch's head instead of the new merge commit's own ID,
// discarding the merge commit from history. That is fixed here: the branch
// head and current-branch pointer are left at the merge commit's own ID.
func (r *Repo) Merge(sourceBranch string) (*Commit, error) {
	cur, err := r.ReadCurrent()
	if err != nil {
		return nil, err
	}
	ours, err := r.ReadBranch(cur.Name)
	if err != nil {
		return nil, err
	}
	theirs, err := r.ReadBranch(sourceBranch)
	if err != nil {
		return nil, err
	}
	if theirs.Head == NullParent {
		return nil, &vcserr.NoSuchCommitError{CommitID: sourceBranch + " has no commits"}
	}
	if ours.Head == theirs.Head {
		return nil, &vcserr.AlreadyMergedError{Branch: sourceBranch}
	}

	// Computed for parity with the original's merge flow (step 2); the
	// tip-only comparison below does not consult it.
	if _, err := r.FindCommonAncestor(ours.Name, sourceBranch); err != nil {
		return nil, err
	}

	theirCommit, err := r.readCommit(theirs.Head)
	if err != nil {
		return nil, err
	}
	ourTree := Snapshot{}
	if ours.Head != NullParent {
		ourCommit, err := r.readCommit(ours.Head)
		if err != nil {
			return nil, err
		}
		if contains(ourCommit.Parents, theirs.Head) {
			return nil, &vcserr.AlreadyMergedError{Branch: sourceBranch}
		}
		ourTree = ourCommit.DirectoryTree
	}
	theirTree := theirCommit.DirectoryTree

	var conflicts []string
	merged := Snapshot{}
	for path, digest := range ourTree {
		merged[path] = digest
	}
	for path, digest := range theirTree {
		if ourDigest, ok := ourTree[path]; ok && ourDigest != digest {
			conflicts = append(conflicts, path)
			continue
		}
		merged[path] = digest
	}
	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return nil, &vcserr.ConflictError{Paths: conflicts}
	}

	id := uuid.NewString()
	for _, digestHex := range merged {
		digest, err := ParseDigest(digestHex)
		if err != nil {
			return nil, &vcserr.MalformedRecordError{Path: fmt.Sprintf("merge %s", id), Err: err}
		}
		if err := r.touchHash(digest, ours.Name, id); err != nil {
			return nil, err
		}
	}

	paths := make([]string, 0, len(merged))
	for path := range merged {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	fileNames := make([]string, 0, len(merged))
	fileHashes := make([]string, 0, len(merged))
	for _, path := range paths {
		fileNames = append(fileNames, path)
		fileHashes = append(fileHashes, merged[path])
	}

	c := &Commit{
		CommitID:      id,
		BranchName:    ours.Name,
		Parent:        ours.Head,
		Parents:       []string{theirs.Head},
		DirectoryTree: merged,
		FileNames:     fileNames,
		FileHashes:    fileHashes,
		Message:       fmt.Sprintf("Merged branch '%s' into '%s'", sourceBranch, ours.Name),
		Timestamp:     time.Now().Format(timestampLayout),
	}
	if err := r.writeCommit(c); err != nil {
		return nil, err
	}

	ours.Head = id
	ours.Commits = append(ours.Commits, id)
	if err := r.WriteBranch(ours); err != nil {
		return nil, err
	}
	if err := r.WriteCurrent(ours.Name, id); err != nil {
		return nil, err
	}
	if err := r.writeLatest(c); err != nil {
		return nil, err
	}

	return c, r.restore(id)
}

// touchHash appends branch/commitID to an already-stored digest's reverse
// index, used by Merge to credit a commit with blobs it did not Put itself.
func (r *Repo) touchHash(digest Digest, branch, commitID string) error {
	digestStr := digest.String()
	metaPath := r.hashMetaPath(digestStr)
	meta, err := r.readHashMeta(metaPath)
	if err != nil {
		return err
	}
	if !contains(meta.Branches, branch) {
		meta.Branches = append(meta.Branches, branch)
	}
	meta.CommitIDs = append(meta.CommitIDs, commitID)
	return r.writeHashMeta(metaPath, meta)
}

// ThreeWayMerge computes a merged snapshot from a common base and two
// diverged snapshots, per spec.md §4.8.
//
// Grounded on MergeHandler::threeWayMerge
// (original_source/src/MergeHandler.cpp): for every path touched by either
// side, a change relative to base wins over no change; a path changed
// identically by both sides is kept; a path changed differently by both
// sides is a conflict, reported but not fatal to the merged tree - the
// original logs the conflict and defaults `merged[key]` to branch1's value
// rather than aborting, so a conflict here still returns a usable snapshot
// (ours' value on every conflicted path) alongside the error recording
// which paths conflicted. This function is exported and tested but,
// matching the original, is not invoked by Merge or any CLI command - the
// original defines it but VCSCommands::merge never calls it, a design gap
// kept faithfully rather than silently wired up.
func ThreeWayMerge(base, ours, theirs Snapshot) (Snapshot, error) {
	paths := NewSet[string]()
	for p := range base {
		paths.Add(p)
	}
	for p := range ours {
		paths.Add(p)
	}
	for p := range theirs {
		paths.Add(p)
	}

	result := Snapshot{}
	var conflicts []string
	ordered := paths.Elements()
	sort.Strings(ordered)
	for _, p := range ordered {
		b, inBase := base[p]
		o, inOurs := ours[p]
		t, inTheirs := theirs[p]

		oursChanged := o != b || inOurs != inBase
		theirsChanged := t != b || inTheirs != inBase

		switch {
		case !oursChanged && !theirsChanged:
			if inBase {
				result[p] = b
			}
		case oursChanged && !theirsChanged:
			if inOurs {
				result[p] = o
			}
		case !oursChanged && theirsChanged:
			if inTheirs {
				result[p] = t
			}
		default: // both changed
			if inOurs == inTheirs && o == t {
				if inOurs {
					result[p] = o
				}
			} else {
				conflicts = append(conflicts, p)
				if inOurs {
					result[p] = o
				}
			}
		}
	}

	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return result, &vcserr.ConflictError{Paths: conflicts}
	}
	return result, nil
}
