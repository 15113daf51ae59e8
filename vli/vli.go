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

// Package vli decodes XZ's variable-length integers: base-128, 7 data bits per
// byte, continuation bit in the high bit, capped at 63 significant bits.
package vli

import "errors"

// ErrInvalid indicates a malformed VLI: a non-minimal encoding (a zero
// terminal byte following at least one continuation byte) or an encoding
// longer than 63 bits. It is fatal: the Decoder must be Reset before reuse.
var ErrInvalid = errors.New("vli: invalid encoding")

// Decoder is a resumable VLI parser. It may be fed byte slices of any size,
// including empty or single-byte slices, across any number of calls, and
// produces the same result as if it had seen the concatenation of all of
// them in one call. The zero value is ready to use.
type Decoder struct {
	value uint64
	bits  uint8
}

// Reset returns d to its initial state, discarding any partially-decoded
// value.
func (d *Decoder) Reset() {
	*d = Decoder{}
}

// Result is the outcome of a single Decode call.
type Result struct {
	// Done is true when a complete VLI was decoded; Value and Consumed are
	// then valid. When Done is false and Err is nil, more input is needed;
	// Consumed reports how much of input was used (always len(input) in
	// that case) and the Decoder retains state for the next call.
	Done     bool
	Value    uint64
	Consumed int
	Err      error
}

// Decode consumes as much of input as needed to complete one VLI, or all of
// input if it is not yet enough. Once Decode returns a non-nil Err, d is
// poisoned: call Reset before decoding again.
func (d *Decoder) Decode(input []byte) Result {
	pos := 0
	for pos < len(input) {
		b := input[pos]
		pos++
		d.value |= uint64(b&0x7f) << d.bits
		if b&0x80 == 0 {
			if b == 0 && d.bits != 0 {
				return Result{Consumed: pos, Err: ErrInvalid}
			}
			v := d.value
			d.value, d.bits = 0, 0
			return Result{Done: true, Value: v, Consumed: pos}
		}
		d.bits += 7
		if d.bits >= 63 {
			d.bits = 0
			return Result{Consumed: pos, Err: ErrInvalid}
		}
	}
	return Result{Consumed: pos}
}

// DecodeSingle decodes a VLI from a buffer known to hold the complete
// encoding. It returns the decoded value, the number of bytes consumed, and
// false if the buffer did not contain a complete, valid VLI.
func DecodeSingle(input []byte) (value uint64, consumed int, ok bool) {
	var d Decoder
	r := d.Decode(input)
	if r.Err != nil || !r.Done {
		return 0, 0, false
	}
	return r.Value, r.Consumed, true
}
