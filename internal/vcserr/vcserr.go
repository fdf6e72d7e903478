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

// Package vcserr defines the error kinds the repository engine can return.
//
// Every operation returns a plain error; callers that need to distinguish
// the kind use errors.As against one of the typed errors below. This
// replaces exception-style control flow (raise/errcatch) with ordinary Go
// error returns, per the result-type re-architecture the data model calls for.
package vcserr

import "fmt"

// NotInitializedError is returned when an operation requires a current
// branch but none has been set up yet.
type NotInitializedError struct {
	Op string
}

func (e *NotInitializedError) Error() string {
	return fmt.Sprintf("%s: repository has no current branch (run init/commit first)", e.Op)
}

// NoSuchBranchError is returned when a named branch does not exist.
type NoSuchBranchError struct {
	Name string
}

func (e *NoSuchBranchError) Error() string {
	return fmt.Sprintf("branch %q does not exist", e.Name)
}

// BranchExistsError is returned when creating a branch whose name is already taken.
type BranchExistsError struct {
	Name string
}

func (e *BranchExistsError) Error() string {
	return fmt.Sprintf("branch %q already exists", e.Name)
}

// NoSuchCommitError is returned when a commit ID cannot be found in the commit log.
type NoSuchCommitError struct {
	CommitID string
}

func (e *NoSuchCommitError) Error() string {
	return fmt.Sprintf("commit %q does not exist", e.CommitID)
}

// MalformedRecordError is returned when a persisted JSON record fails to
// parse or is missing a required field.
type MalformedRecordError struct {
	Path string
	Err  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s: malformed record: %s", e.Path, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// MissingBlobError is returned when an object store directory has no blob
// file (only metadata, or nothing at all).
type MissingBlobError struct {
	Digest string
}

func (e *MissingBlobError) Error() string {
	return fmt.Sprintf("blob %s: no content file in object store", e.Digest)
}

// IOError wraps a filesystem error encountered while serving a request;
// during materialization of an individual file this is logged and skipped
// rather than aborting the whole operation.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// AlreadyMergedError is returned by the merge engine when the source and
// current branch heads already coincide, or when the current head is a merge
// commit that already lists the source head as a parent - not a failure, just a no-op to
// report and stop, per spec.md §4.8 step 1 and §8 property 6.
type AlreadyMergedError struct {
	Branch string
}

func (e *AlreadyMergedError) Error() string {
	return fmt.Sprintf("already merged: '%s' has no commits the current branch lacks", e.Branch)
}

// ConflictError is returned by the merge engine when two branches modify
// the same path to different content relative to each other (or relative
// to their common ancestor, for the full three-way path). It is a data
// result, not a panic: the caller inspects Paths and aborts before any
// state mutation.
type ConflictError struct {
	Paths []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("merge conflict on %d path(s): %v", len(e.Paths), e.Paths)
}
