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
)

// Snapshot is a (working-tree-relative path -> content digest) map, per
// spec.md §3. Paths are forward-slash normalized without a leading "./".
type Snapshot map[string]string

// Equal reports whether two snapshots have the same (path, digest) pairs.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if other[k] != v {
			return false
		}
	}
	return true
}

// BuildWorkingTreeSnapshot walks the working tree rooted at workDir and
// hashes every eligible regular file, excluding the repository-internal
// directory and the running executable (fsx.Walk encodes both exclusions).
func BuildWorkingTreeSnapshot(workDir string) (Snapshot, error) {
	paths, err := fsx.Walk(workDir)
	if err != nil {
		return nil, &vcserr.IOError{Op: "walk working tree", Err: err}
	}
	snap := make(Snapshot, len(paths))
	for _, p := range paths {
		data, err := fsx.ReadFile(filepath.Join(workDir, p))
		if err != nil {
			return nil, &vcserr.IOError{Op: "hash " + p, Err: err}
		}
		snap[p] = HashBytes(data).String()
	}
	return snap, nil
}
