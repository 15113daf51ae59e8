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

// Package xzcrc provides the two incremental checksums used by the XZ
// container format: CRC32 (IEEE polynomial) and CRC64 (ECMA-182
// polynomial). Both are exactly the ones the standard library ships
// precomputed tables for, so this package is a thin, allocation-free
// wrapper rather than a reimplementation.
package xzcrc

import (
	"hash/crc32"
	"hash/crc64"
)

var crc64Table = crc64.MakeTable(crc64.ECMA)

// CRC32 is an incremental CRC32/IEEE accumulator, matching XZ's 4-byte
// check value.
type CRC32 struct {
	sum uint32
}

// Update folds b into the running checksum and returns the updated value.
func (c *CRC32) Update(b []byte) uint32 {
	c.sum = crc32.Update(c.sum, crc32.IEEETable, b)
	return c.sum
}

// Sum returns the checksum of all bytes passed to Update so far.
func (c *CRC32) Sum() uint32 { return c.sum }

// Reset zeros the accumulator.
func (c *CRC32) Reset() { c.sum = 0 }

// Of returns the CRC32/IEEE of b in one call, for one-shot verification
// (e.g. the stream header's flags checksum).
func Of(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

// Update32 continues a CRC32/IEEE from a prior sum, for accumulators whose
// state lives outside this package.
func Update32(sum uint32, b []byte) uint32 {
	return crc32.Update(sum, crc32.IEEETable, b)
}

// CRC64 is an incremental CRC64/ECMA accumulator, matching XZ's 8-byte
// check value.
type CRC64 struct {
	sum uint64
}

// Update folds b into the running checksum and returns the updated value.
func (c *CRC64) Update(b []byte) uint64 {
	c.sum = crc64.Update(c.sum, crc64Table, b)
	return c.sum
}

// Sum returns the checksum of all bytes passed to Update so far.
func (c *CRC64) Sum() uint64 { return c.sum }

// Reset zeros the accumulator.
func (c *CRC64) Reset() { c.sum = 0 }
