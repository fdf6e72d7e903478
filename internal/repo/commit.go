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
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"lab.nexedi.com/kirr/vcs-go/internal/fsx"
	"lab.nexedi.com/kirr/vcs-go/internal/vcserr"
)

// NullParent marks a commit with no parent, i.e. a branch's first commit.
const NullParent = "null"

// timestampLayout matches getCurrentTimestamp() in
// original_source/src/Utilities.cpp ("%Y-%m-%d %H:%M:%S").
const timestampLayout = "2006-01-02 15:04:05"

// Commit is an immutable snapshot record, per spec.md §3/§6's
// commits/<id>.json. Parent is the direct predecessor on this commit's own
// branch ("null" for a branch's first commit); Parents additionally carries
// the foreign parent(s) brought in by a merge commit, so plain commits leave
// it empty and merge commits hold exactly one extra entry.
type Commit struct {
	CommitID      string            `json:"commit_id"`
	BranchName    string            `json:"branch_name"`
	Parent        string            `json:"parent"`
	Parents       []string          `json:"parents,omitempty"`
	DirectoryTree map[string]string `json:"directory_tree"`
	FileNames     []string          `json:"file_names"`
	FileHashes    []string          `json:"file_hashes"`
	Message       string            `json:"message"`
	Timestamp     string            `json:"timestamp"`
}

// ReadCommit loads a single commit record by ID, for callers (e.g. `log`)
// that need commit detail without walking the whole DAG.
func (r *Repo) ReadCommit(id string) (*Commit, error) {
	return r.readCommit(id)
}

func (r *Repo) readCommit(id string) (*Commit, error) {
	path := r.commitPath(id)
	if !fsx.Exists(path) {
		return nil, &vcserr.NoSuchCommitError{CommitID: id}
	}
	data, err := fsx.ReadFile(path)
	if err != nil {
		return nil, &vcserr.IOError{Op: "read commit " + id, Err: err}
	}
	var c Commit
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &vcserr.MalformedRecordError{Path: path, Err: err}
	}
	return &c, nil
}

func (r *Repo) writeCommit(c *Commit) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}
	return fsx.WriteFile(r.commitPath(c.CommitID), data)
}

// Commit records a new commit from the staged files plus the live working
// tree, per spec.md §4.5.
//
// Per Open Question 1 (spec.md §9): the directory_tree recorded here is the
// *current working-tree snapshot*, not the staged-files snapshot - staging
// only decides which blobs get written into the object store and credited
// with this commit's ID in their reverse index. A file edited after `add`
// but before `commit` is committed at its current, not staged, content. This
// mirrors VCSCommands::commit (original_source/src/VCSCommands.cpp) exactly
// and is kept rather than "fixed".
//
// If no branch has been created yet, a "master" branch is bootstrapped from
// this first commit, matching the original's bootstrap behavior.
//
// The new commit's Parent is the current-branch pointer's head. Checkout
// and Revert both keep the current-branch pointer and the named branch's own
// Head field in lockstep (see checkout.go), so this always agrees with
// branch.Head - using the pointer here simply names the more fundamental
// "where we are" source of truth.
func (r *Repo) Commit(message string) (*Commit, error) {
	cur, err := r.ReadCurrent()
	if err != nil {
		if _, ok := err.(*vcserr.NotInitializedError); !ok {
			return nil, err
		}
		cur = &CurrentBranch{Name: "master", Head: NullParent}
	}

	branch, err := r.ReadBranch(cur.Name)
	if err != nil {
		if _, ok := err.(*vcserr.NoSuchBranchError); !ok {
			return nil, err
		}
		branch = &Branch{Name: cur.Name, Head: NullParent, Commits: []string{}}
	}

	tree, err := BuildWorkingTreeSnapshot(r.WorkDir)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()

	digests, err := r.StagedDigests()
	if err != nil {
		return nil, err
	}
	fileNames := make([]string, 0, len(digests))
	fileHashes := make([]string, 0, len(digests))
	for _, digestHex := range digests {
		meta, err := r.StagedMeta(digestHex)
		if err != nil {
			return nil, err
		}
		srcPath := filepath.Join(r.stagingFileDir(digestHex), meta.Name)
		digest, err := ParseDigest(digestHex)
		if err != nil {
			return nil, &vcserr.MalformedRecordError{Path: srcPath, Err: err}
		}
		if err := r.Put(srcPath, digest, branch.Name, id); err != nil {
			return nil, err
		}
		fileNames = append(fileNames, meta.Name)
		fileHashes = append(fileHashes, digestHex)
	}

	c := &Commit{
		CommitID:      id,
		BranchName:    branch.Name,
		Parent:        cur.Head,
		DirectoryTree: tree,
		FileNames:     fileNames,
		FileHashes:    fileHashes,
		Message:       message,
		Timestamp:     time.Now().Format(timestampLayout),
	}
	if err := r.writeCommit(c); err != nil {
		return nil, err
	}

	branch.Head = id
	branch.Commits = append(branch.Commits, id)
	if err := r.WriteBranch(branch); err != nil {
		return nil, err
	}
	if err := r.WriteCurrent(branch.Name, id); err != nil {
		return nil, err
	}
	if err := r.writeLatest(c); err != nil {
		return nil, err
	}

	return c, r.ClearStaging()
}

// LatestCommit is the latest_commit/latest_commit.json record: a pointer at
// the most recently made commit regardless of branch, per spec.md §6.
type LatestCommit struct {
	CommitID  string `json:"commit_id"`
	Timestamp string `json:"timestamp"`
}

func (r *Repo) writeLatest(c *Commit) error {
	data, err := json.MarshalIndent(LatestCommit{CommitID: c.CommitID, Timestamp: c.Timestamp}, "", "    ")
	if err != nil {
		return err
	}
	return fsx.WriteFile(r.latestCommitPath(), data)
}
