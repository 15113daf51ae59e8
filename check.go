// Copyright (c) 2026 The go-xz Authors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of go-xz.
//
// go-xz is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-xz is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-xz.  If not, see <https://www.gnu.org/licenses/>.

package xz

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"github.com/nmoshiri/go-xz/xzcrc"
)

// CheckType identifies the per-block integrity check a stream declares in
// its header.
type CheckType byte

// Check-type ids as they appear on the wire.
const (
	CheckNone   CheckType = 0
	CheckCRC32  CheckType = 1
	CheckCRC64  CheckType = 4
	CheckSHA256 CheckType = 10
)

// Size returns the number of bytes the check value occupies after each
// block body.
func (c CheckType) Size() int {
	switch c {
	case CheckCRC32:
		return 4
	case CheckCRC64:
		return 8
	case CheckSHA256:
		return 32
	}
	return 0
}

func (c CheckType) String() string {
	switch c {
	case CheckNone:
		return "none"
	case CheckCRC32:
		return "crc32"
	case CheckCRC64:
		return "crc64"
	case CheckSHA256:
		return "sha256"
	}
	return "unknown"
}

func parseCheckType(b byte) (CheckType, error) {
	switch CheckType(b) {
	case CheckNone, CheckCRC32, CheckCRC64, CheckSHA256:
		return CheckType(b), nil
	}
	return CheckNone, UnsupportedCheckTypeError{ID: b}
}

// checkAccumulator feeds decoded block content into whichever checksum the
// stream header selected and compares it against the stored check value.
// The sha field is created once at Decoder construction and only ever
// Reset afterward, so a zeroed-then-Reset Decoder placed in static storage
// still has a valid digest.
type checkAccumulator struct {
	kind  CheckType
	crc32 xzcrc.CRC32
	crc64 xzcrc.CRC64
	sha   hash.Hash
}

// reset installs a new check type and zeros all accumulators.
func (c *checkAccumulator) reset(kind CheckType) {
	c.kind = kind
	c.resetSums()
}

// resetSums zeros the accumulators for a new block without changing the
// check type.
func (c *checkAccumulator) resetSums() {
	c.crc32.Reset()
	c.crc64.Reset()
	c.sha.Reset()
}

func (c *checkAccumulator) update(b []byte) {
	switch c.kind {
	case CheckCRC32:
		c.crc32.Update(b)
	case CheckCRC64:
		c.crc64.Update(b)
	case CheckSHA256:
		c.sha.Write(b)
	}
}

// verify compares the accumulated check against the stored value, which
// must be exactly c.kind.Size() bytes.
func (c *checkAccumulator) verify(stored []byte) error {
	switch c.kind {
	case CheckCRC32:
		want := binary.LittleEndian.Uint32(stored)
		if got := c.crc32.Sum(); got != want {
			return CheckMismatchError{
				Kind: "crc32",
				Got:  binary.LittleEndian.AppendUint32(nil, got),
				Want: append([]byte(nil), stored...),
			}
		}
	case CheckCRC64:
		want := binary.LittleEndian.Uint64(stored)
		if got := c.crc64.Sum(); got != want {
			return CheckMismatchError{
				Kind: "crc64",
				Got:  binary.LittleEndian.AppendUint64(nil, got),
				Want: append([]byte(nil), stored...),
			}
		}
	case CheckSHA256:
		var scratch [sha256.Size]byte
		got := c.sha.Sum(scratch[:0])
		if !bytes.Equal(got, stored) {
			return CheckMismatchError{
				Kind: "sha256",
				Got:  append([]byte(nil), got...),
				Want: append([]byte(nil), stored...),
			}
		}
	}
	return nil
}
