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

// Package fsx is the filesystem adapter: path-normalized directory walking,
// copy, recursive create/remove. It is the single place that knows the
// repository-internal directory name and the running executable's path, so
// that exclusion logic does not leak into every caller.
package fsx

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// RepoDir is the name of the repository-internal directory, excluded from
// every working-tree walk.
const RepoDir = ".vcs"

// NormalizePath strips a leading "./" or ".\" and converts all "\" to "/",
// matching git-backup's reprefix/strip_prefix path handling in util.go,
// generalized from prefix-stripping to whole-path normalization.
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimPrefix(path, "./")
	return path
}

// IsExcluded reports whether a repo-relative, normalized path should never
// appear in a snapshot: the repository-internal directory or the running
// executable.
func IsExcluded(root, normalizedPath string) bool {
	if normalizedPath == RepoDir || strings.HasPrefix(normalizedPath, RepoDir+"/") {
		return true
	}
	if exe, err := selfExecutableRelativeTo(root); err == nil && exe != "" {
		if normalizedPath == exe {
			return true
		}
	}
	return false
}

// selfExecutableRelativeTo returns the running binary's path relative to
// root, normalized, or "" if it cannot be determined (e.g. under `go test`,
// where os.Executable() points outside the working tree).
func selfExecutableRelativeTo(root string) (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, exe)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", nil
	}
	return NormalizePath(rel), nil
}

// MkdirAll creates path and any missing parents.
func MkdirAll(path string) error {
	return os.MkdirAll(path, 0777)
}

// Exists reports whether path exists (file or directory).
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadFile reads the whole file at path.
func ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile truncates (or creates) path and writes data, creating parent
// directories as needed.
func WriteFile(path string, data []byte) error {
	if err := MkdirAll(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0666)
}

// CopyFile copies src to dst, overwriting dst if present, creating parent
// directories of dst as needed.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := MkdirAll(filepath.Dir(dst)); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

// RemoveTree removes path and everything under it. Missing path is not an error.
func RemoveTree(path string) error {
	return os.RemoveAll(path)
}

// Walk yields repo-relative, normalized paths of every regular file under
// root, excluding the repository-internal directory and the running
// executable.
func Walk(root string) ([]string, error) {
	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			rel, rerr := filepath.Rel(root, path)
			if rerr == nil && (NormalizePath(rel) == RepoDir) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = NormalizePath(rel)
		if IsExcluded(root, rel) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// ListEntries returns the immediate (non-recursive) directory entries of dir.
func ListEntries(dir string) ([]os.DirEntry, error) {
	return os.ReadDir(dir)
}

// Base returns the final path element, like filepath.Base, but operating on
// a forward-slash normalized path.
func Base(path string) string {
	return filepath.Base(path)
}

// Join joins path elements with forward slashes, matching the working
// tree's normalized path convention regardless of OS.
func Join(elem ...string) string {
	return filepath.ToSlash(filepath.Join(elem...))
}
