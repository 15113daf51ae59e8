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

package vli

import (
	"errors"
	"testing"
)

func encode(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		out = append(out, b)
		return out
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	values := []uint64{0, 1, 2, 127, 128, 129, 1 << 20, 1<<63 - 1, 1 << 62}
	for _, v := range values {
		v := v
		t.Run("", func(t *testing.T) {
			t.Parallel()
			enc := encode(v)
			got, n, ok := DecodeSingle(enc)
			if !ok {
				t.Fatalf("decode failed for %d", v)
			}
			if got != v || n != len(enc) {
				t.Fatalf("decode(%x) = (%d,%d), want (%d,%d)", enc, got, n, v, len(enc))
			}
		})
	}
}

func TestChunkedAcrossCalls(t *testing.T) {
	t.Parallel()
	enc := encode(1 << 40)
	var d Decoder
	var consumed int
	for i, b := range enc {
		r := d.Decode([]byte{b})
		consumed += r.Consumed
		if i < len(enc)-1 {
			if r.Done || r.Err != nil {
				t.Fatalf("unexpected completion at byte %d", i)
			}
			continue
		}
		if !r.Done || r.Value != 1<<40 {
			t.Fatalf("got %+v, want Done with value %d", r, uint64(1<<40))
		}
	}
	if consumed != len(enc) {
		t.Fatalf("consumed %d, want %d", consumed, len(enc))
	}
}

func TestNonMinimalEncodingRejected(t *testing.T) {
	t.Parallel()
	// 0x80, 0x00: a continuation byte followed by a zero terminator is
	// non-minimal (the value could have been encoded as a single 0x00).
	var d Decoder
	r := d.Decode([]byte{0x80, 0x00})
	if !errors.Is(r.Err, ErrInvalid) {
		t.Fatalf("got err %v, want ErrInvalid", r.Err)
	}
}

func TestTooManyBitsRejected(t *testing.T) {
	t.Parallel()
	enc := make([]byte, 10)
	for i := range enc {
		enc[i] = 0xff
	}
	var d Decoder
	r := d.Decode(enc)
	if !errors.Is(r.Err, ErrInvalid) {
		t.Fatalf("got err %v, want ErrInvalid", r.Err)
	}
}

func TestEmptyInputNeedsMore(t *testing.T) {
	t.Parallel()
	var d Decoder
	r := d.Decode(nil)
	if r.Done || r.Err != nil || r.Consumed != 0 {
		t.Fatalf("got %+v, want zero-progress need-more", r)
	}
}

func FuzzDecode(f *testing.F) {
	f.Add([]byte{0x00})
	f.Add([]byte{0x80, 0x01})
	f.Add([]byte{0x80, 0x80, 0x80, 0x00})
	f.Add([]byte{})
	f.Fuzz(func(t *testing.T, data []byte) {
		var d Decoder
		// Must never panic, and Consumed must never exceed what was given.
		r := d.Decode(data)
		if r.Consumed > len(data) {
			t.Fatalf("consumed %d > input %d", r.Consumed, len(data))
		}
	})
}
