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
	"sort"
	"testing"
)

func TestHashBytesDeterministic(t *testing.T) {
	a := HashBytes([]byte("hello"))
	b := HashBytes([]byte("hello"))
	if a != b {
		t.Fatalf("HashBytes not deterministic: %v != %v", a, b)
	}

	c := HashBytes([]byte("world"))
	if a == c {
		t.Fatalf("HashBytes collided on different input")
	}
}

func TestDigestStringRoundTrip(t *testing.T) {
	d := HashBytes([]byte("round trip me"))
	s := d.String()
	if len(s) != DigestSize*2 {
		t.Fatalf("String() length = %d, want %d", len(s), DigestSize*2)
	}

	got, err := ParseDigest(s)
	if err != nil {
		t.Fatalf("ParseDigest: %v", err)
	}
	if got != d {
		t.Fatalf("ParseDigest(String()) = %v, want %v", got, d)
	}
}

func TestParseDigestRejectsBadLength(t *testing.T) {
	if _, err := ParseDigest("deadbeef"); err == nil {
		t.Fatal("expected error for short digest")
	}
}

func TestDigestIsNull(t *testing.T) {
	var zero Digest
	if !zero.IsNull() {
		t.Fatal("zero value should be null")
	}
	if HashBytes([]byte("x")).IsNull() {
		t.Fatal("non-zero hash reported as null")
	}
}

func TestByDigestSort(t *testing.T) {
	digests := []Digest{
		HashBytes([]byte("c")),
		HashBytes([]byte("a")),
		HashBytes([]byte("b")),
	}
	sort.Sort(ByDigest(digests))
	for i := 1; i < len(digests); i++ {
		if digests[i-1].String() > digests[i].String() {
			t.Fatalf("ByDigest did not sort ascending: %v", digests)
		}
	}
}
