// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file (in go.git repository).

// Package cliutil holds small CLI plumbing shared by cmd/vcs.
package cliutil

import (
	"fmt"
	"strconv"
)

// CountFlag is both a bool and an int flag - for handling repeated -v -v -v...
// Ported from git-backup's countFlag (misc.go), itself inspired by
// cmd/dist's count flag in go.git.
type CountFlag int

func (c *CountFlag) String() string {
	return fmt.Sprint(int(*c))
}

func (c *CountFlag) Set(s string) error {
	switch s {
	case "true":
		*c++
	case "false":
		*c = 0
	default:
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid count %q", s)
		}
		*c = CountFlag(n)
	}
	return nil
}

// IsBoolFlag lets the standard flag package treat -v as a no-argument,
// repeatable switch; pflag ignores it and relies on the flag's NoOptDefVal
// instead (set by cmd/vcs).
func (c *CountFlag) IsBoolFlag() bool {
	return true
}

func (c *CountFlag) Type() string {
	return "count"
}
