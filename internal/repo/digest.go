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
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// DigestSize is the raw byte length of a Digest (SHA-256, 256 bits).
const DigestSize = sha256.Size

// Digest is a content hash in raw form.
//
// NOTE the zero value Digest{} is the null digest, mirroring git-backup's
// Sha1{} zero value convention (sha1.go), generalized from 20 to 32 bytes.
type Digest struct {
	b [DigestSize]byte
}

var _ fmt.Stringer = Digest{}

// HashBytes computes the content digest of data.
func HashBytes(data []byte) Digest {
	return Digest{b: sha256.Sum256(data)}
}

// String renders the digest as lowercase hex, per spec.md's "lowercase hex
// of a 256-bit hash" requirement.
func (d Digest) String() string {
	return hex.EncodeToString(d.b[:])
}

// ParseDigest parses a digest previously produced by String.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	if hex.DecodedLen(len(s)) != DigestSize {
		return Digest{}, fmt.Errorf("digest: %q has wrong length", s)
	}
	n, err := hex.Decode(d.b[:], []byte(s))
	if err != nil || n != DigestSize {
		return Digest{}, fmt.Errorf("digest: %q invalid: %w", s, err)
	}
	return d, nil
}

// IsNull reports whether d is the zero digest.
func (d Digest) IsNull() bool {
	return d == Digest{}
}

// ByDigest sorts a slice of Digest values for deterministic iteration, the
// same role git-backup's BySha1 plays for Sha1 (sha1.go).
type ByDigest []Digest

func (p ByDigest) Len() int           { return len(p) }
func (p ByDigest) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p ByDigest) Less(i, j int) bool { return bytes.Compare(p[i].b[:], p[j].b[:]) < 0 }

var _ sort.Interface = ByDigest(nil)
