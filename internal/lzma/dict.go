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

package lzma

import "fmt"

// DictMode selects how a Dictionary's backing storage is managed.
type DictMode int

const (
	// DictFixed uses a caller-owned slice at least as large as any
	// declared dictionary size; the decoder never allocates.
	DictFixed DictMode = iota
	// DictGrowable starts from an initial capacity and reallocates up to
	// a caller-chosen maximum as larger dictionary sizes are declared.
	DictGrowable
	// DictStatic is observably identical to DictFixed: the caller owns a
	// fixed-size backing array (e.g. a package-level or stack array) and
	// the decoder never allocates. Go has no const-generic array size, so
	// "embedded in static storage" reduces to "caller supplies the
	// backing slice up front."
	DictStatic
)

// DictionaryTooLargeError reports that a declared dictionary size exceeds
// the capacity a Dictionary was constructed to support.
type DictionaryTooLargeError struct {
	Needed int
}

func (e DictionaryTooLargeError) Error() string {
	return fmt.Sprintf("lzma: dictionary size %d exceeds configured capacity", e.Needed)
}

// ErrDictionaryOverflow indicates a back-reference pointed further back
// than any data the dictionary has ever held, or further back than the
// dictionary's window size: a corrupt-stream condition, fatal to the
// decoder.
var ErrDictionaryOverflow = fmt.Errorf("lzma: back-reference distance exceeds available history")

// Dictionary is the circular back-reference window LZMA writes decoded
// bytes into and reads match copies from.
type Dictionary struct {
	mode    DictMode
	buf     []byte
	maxSize int // only meaningful for DictGrowable

	size                    int // logical window size == len(buf) once allocated
	start, pos, full, limit int
}

// NewFixed constructs a Dictionary backed by buf, which must already be at
// least as large as any dictionary size the stream will declare.
func NewFixed(buf []byte) *Dictionary {
	return &Dictionary{mode: DictFixed, buf: buf, maxSize: len(buf)}
}

// NewGrowable constructs a Dictionary that starts with an initial-byte
// backing allocation and grows (by reallocating) up to max bytes as larger
// dictionary sizes are declared.
func NewGrowable(initial, max int) *Dictionary {
	return &Dictionary{mode: DictGrowable, buf: make([]byte, initial), maxSize: max}
}

// NewStatic constructs a Dictionary backed by buf, exactly like NewFixed;
// the distinct constructor exists to document the static-storage intent at
// call sites.
func NewStatic(buf []byte) *Dictionary {
	return &Dictionary{mode: DictStatic, buf: buf, maxSize: len(buf)}
}

// Reset zeros all cursors without touching the backing allocation's
// contents or size.
func (d *Dictionary) Reset() {
	d.start, d.pos, d.full, d.limit = 0, 0, 0, 0
}

// ResetWrap starts a fresh LZMA2 dictionary-reset epoch: the window is
// logically emptied (no back-reference may cross this boundary) without
// touching the backing allocation.
func (d *Dictionary) ResetWrap() {
	d.start, d.pos, d.full = 0, 0, 0
}

// Alloc ensures the backing allocation can hold a dictionary of the given
// logical size, growing (if DictGrowable) or validating (otherwise).
//
// Growable reallocation is only supported immediately after a dictionary
// reset (Full == 0); a mid-stream size increase without an intervening
// reset would require preserving history at the old, smaller modulus,
// which a real encoder never needs since the LZMA2 properties byte is
// fixed for the life of a stream in every encoder in practice.
func (d *Dictionary) Alloc(needed int) error {
	switch d.mode {
	case DictFixed, DictStatic:
		if needed > len(d.buf) {
			return DictionaryTooLargeError{Needed: needed}
		}
	case DictGrowable:
		if needed > d.maxSize {
			return DictionaryTooLargeError{Needed: needed}
		}
		if needed > len(d.buf) {
			if d.full != 0 {
				return DictionaryTooLargeError{Needed: needed}
			}
			d.buf = make([]byte, needed)
		}
	}
	d.size = needed
	return nil
}

// HasSpace reports whether the current decode burst may still write more
// bytes before the caller must be allowed to drain output.
func (d *Dictionary) HasSpace() bool { return d.pos < d.limit }

// SetLimit bounds how many more bytes may be written before the next
// drain.
func (d *Dictionary) SetLimit(outRemaining int) {
	limit := d.pos + outRemaining
	if limit > d.size {
		limit = d.size
	}
	d.limit = limit
}

// Put writes a single byte at the write cursor.
func (d *Dictionary) Put(b byte) {
	d.buf[d.pos] = b
	d.pos++
	if d.pos > d.full {
		d.full = d.pos
	}
}

// Get returns the byte distance+1 positions before the write cursor,
// wrapping through the circular window; it returns 0 if nothing has been
// written yet.
func (d *Dictionary) Get(distance uint32) byte {
	if d.full == 0 {
		return 0
	}
	idx := d.pos - 1 - int(distance)
	if idx < 0 {
		idx += d.size
	}
	return d.buf[idx]
}

// Repeat copies length bytes (capped by remaining output-burst room) from
// distance+1 bytes behind the write cursor, appending them at the cursor.
// distance must be less than both Full and the dictionary's logical size.
func (d *Dictionary) Repeat(distance uint32, length int) (int, error) {
	if int(distance) >= d.full || int(distance) >= d.size {
		return 0, ErrDictionaryOverflow
	}
	n := d.limit - d.pos
	if n > length {
		n = length
	}
	for i := 0; i < n; i++ {
		d.Put(d.Get(distance))
	}
	return n, nil
}

// UncompressedCopy copies up to budget bytes straight from in to out while
// also retaining them in the dictionary as history, for LZMA2's
// uncompressed chunk type. Unlike Put/Repeat it is bounded by the distance
// remaining before the write cursor reaches the physical end of the
// window rather than by SetLimit's burst cap, and it keeps the flush
// cursor caught up to the write cursor immediately (no bytes are left
// pending), since the data is already being written straight through to
// out.
func (d *Dictionary) UncompressedCopy(in, out []byte, budget int) (consumedIn, consumedOut int) {
	for budget > 0 && consumedIn < len(in) && consumedOut < len(out) {
		n := d.size - d.pos
		for _, c := range []int{len(in) - consumedIn, len(out) - consumedOut, budget} {
			if c < n {
				n = c
			}
		}
		for i := 0; i < n; i++ {
			b := in[consumedIn+i]
			d.buf[d.pos+i] = b
			out[consumedOut+i] = b
		}
		d.pos += n
		if d.pos > d.full {
			d.full = d.pos
		}
		if d.pos == d.size {
			d.pos = 0
		}
		d.start = d.pos
		consumedIn += n
		consumedOut += n
		budget -= n
	}
	return consumedIn, consumedOut
}

// Flush writes the not-yet-delivered span [start, pos) to out (as much as
// fits) and advances start past what was written. When the write cursor
// has reached the physical end of the backing allocation and the flush
// has fully caught up to it, both cursors wrap back to zero: this is the
// only place the circular buffer wraps, which keeps the
// "0 <= start <= pos <= limit <= size" invariant trivially true between
// calls.
func (d *Dictionary) Flush(out []byte) int {
	avail := d.pos - d.start
	n := avail
	if n > len(out) {
		n = len(out)
	}
	copy(out[:n], d.buf[d.start:d.start+n])
	d.start += n
	if d.start == d.pos && d.pos == d.size {
		d.start, d.pos = 0, 0
	}
	return n
}

// Pending reports how many decoded bytes are buffered but not yet flushed.
func (d *Dictionary) Pending() int { return d.pos - d.start }

// Size returns the dictionary's current logical window size.
func (d *Dictionary) Size() int { return d.size }

// Full returns the high-water mark of bytes ever written to the window,
// capped at Size.
func (d *Dictionary) Full() int { return d.full }
