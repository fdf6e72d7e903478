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

	"lab.nexedi.com/kirr/vcs-go/internal/fsx"
	"lab.nexedi.com/kirr/vcs-go/internal/vcserr"
)

// HashMeta is the reverse-index metadata record living next to each blob,
// at data/hash/<digest>/hash.json.
type HashMeta struct {
	FileName  string   `json:"file_name"`
	FileHash  string   `json:"file_hash"`
	Branches  []string `json:"branches"`
	CommitIDs []string `json:"commit_ids"`
}

func (r *Repo) hashMetaPath(digest string) string {
	return filepath.Join(r.hashObjDir(digest), "hash.json")
}

// Put stores a blob in the object store under its digest, recording the
// given branch and commit ID in its reverse index.
//
// If the digest directory does not yet exist, it is created, the file is
// copied in under its original basename, and metadata is initialized. If it
// already exists, the blob bytes are left untouched (blobs are immutable -
// write once) and only the reverse index is updated: the branch is unioned
// in and the commit ID appended, matching spec.md §4.3 exactly.
func (r *Repo) Put(srcPath string, digest Digest, branch, commitID string) error {
	digestStr := digest.String()
	dir := r.hashObjDir(digestStr)
	metaPath := r.hashMetaPath(digestStr)
	basename := fsx.Base(srcPath)

	if !fsx.Exists(dir) {
		if err := fsx.MkdirAll(dir); err != nil {
			return err
		}
		if err := fsx.CopyFile(srcPath, filepath.Join(dir, basename)); err != nil {
			return &vcserr.IOError{Op: "store blob " + digestStr, Err: err}
		}
		meta := HashMeta{
			FileName:  basename,
			FileHash:  digestStr,
			Branches:  []string{branch},
			CommitIDs: []string{commitID},
		}
		return r.writeHashMeta(metaPath, &meta)
	}

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

func contains(ss []string, s string) bool {
	for _, e := range ss {
		if e == s {
			return true
		}
	}
	return false
}

func (r *Repo) readHashMeta(path string) (*HashMeta, error) {
	data, err := fsx.ReadFile(path)
	if err != nil {
		return nil, &vcserr.IOError{Op: "read blob metadata", Err: err}
	}
	var meta HashMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, &vcserr.MalformedRecordError{Path: path, Err: err}
	}
	return &meta, nil
}

func (r *Repo) writeHashMeta(path string, meta *HashMeta) error {
	data, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return err
	}
	return fsx.WriteFile(path, data)
}

// Materialize copies the blob addressed by digest to destPath, creating
// parent directories as needed. Returns MissingBlobError if the digest
// directory holds no blob file (only metadata, or nothing at all).
func (r *Repo) Materialize(digest Digest, destPath string) error {
	digestStr := digest.String()
	dir := r.hashObjDir(digestStr)
	entries, err := fsx.ListEntries(dir)
	if err != nil {
		return &vcserr.MissingBlobError{Digest: digestStr}
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == "hash.json" {
			continue
		}
		return fsx.CopyFile(filepath.Join(dir, e.Name()), destPath)
	}
	return &vcserr.MissingBlobError{Digest: digestStr}
}
