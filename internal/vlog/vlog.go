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

// Package vlog is the ambient logger, ported from git-backup's verbose-gated
// infof/debugf helpers (git-backup.go), rendered through fatih/color instead
// of plain fmt.Printf.
//
// verbose levels:
//
//	0 - silent
//	1 - info
//	2 - progress of long-running operations
//	3 - debug
package vlog

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Level is the current verbosity; set once at CLI startup from -v/-q.
var Level = 1

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
	dimColor  = color.New(color.Faint)
)

// Infof prints a user-facing progress line if Level > 0.
func Infof(format string, a ...interface{}) {
	if Level > 0 {
		fmt.Println(fmt.Sprintf(format, a...))
	}
}

// Progressf prints a line only at Level > 1 - used for the noisier,
// step-by-step output of long-running operations (restore, merge scan).
func Progressf(format string, a ...interface{}) {
	if Level > 1 {
		dimColor.Println(fmt.Sprintf(format, a...))
	}
}

// Debugf prints a line only at Level > 2.
func Debugf(format string, a ...interface{}) {
	if Level > 2 {
		dimColor.Fprintln(os.Stdout, fmt.Sprintf("# "+format, a...))
	}
}

// Warnf prints a non-fatal warning to stderr regardless of verbosity - used
// e.g. when a staged path is rejected or an individual file fails to restore.
func Warnf(format string, a ...interface{}) {
	warnColor.Fprintln(os.Stderr, fmt.Sprintf("W: "+format, a...))
}

// Errorf prints a diagnostic for a command-aborting error.
func Errorf(format string, a ...interface{}) {
	errColor.Fprintln(os.Stderr, fmt.Sprintf("E: "+format, a...))
}
