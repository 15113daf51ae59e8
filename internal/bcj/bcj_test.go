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

package bcj

import "testing"

func TestGetFilterKnownIDs(t *testing.T) {
	t.Parallel()
	ids := []uint64{IDX86, IDPowerPC, IDIA64, IDARM, IDARMThumb, IDSparc, IDARM64, IDRiscV}
	for _, id := range ids {
		if _, err := GetFilter(id); err != nil {
			t.Errorf("GetFilter(%d): %v", id, err)
		}
	}
}

func TestGetFilterUnknownID(t *testing.T) {
	t.Parallel()
	_, err := GetFilter(255)
	if _, ok := err.(UnsupportedFilterError); !ok {
		t.Fatalf("GetFilter(255) error = %v, want UnsupportedFilterError", err)
	}
}

// TestX86CallRewrite checks that the operand of a CALL instruction is
// rewritten: after one filter pass at stream position 0 it no longer holds
// the value it had before filtering.
func TestX86CallRewrite(t *testing.T) {
	t.Parallel()
	// 0xE8 opcode (CALL rel32) followed by a 4-byte little-endian operand
	// whose top byte looks like a sign-extended small positive offset.
	buf := []byte{0xE8, 0x10, 0x00, 0x00, 0x00, 0x90, 0x90, 0x90}
	f := &x86Filter{}
	n := f.Apply(0, buf)
	if n == 0 {
		t.Fatalf("Apply processed 0 bytes, want > 0")
	}
	// The operand must have changed: a filtered stream always carries
	// stream-relative target bytes rather than the raw 0x10 that was
	// there before filtering.
	if buf[1] == 0x10 && buf[2] == 0 && buf[3] == 0 && buf[4] == 0 {
		t.Fatalf("x86 filter left the CALL operand untouched")
	}
}

// TestX86CallSignExtension pins down the exact arithmetic: a CALL with an
// absolute-form target of 0 sitting at stream position 0 must become
// call -5 (0xfffffffb), since the instruction ends 5 bytes in.
func TestX86CallSignExtension(t *testing.T) {
	t.Parallel()
	buf := []byte{0xE8, 0x00, 0x00, 0x00, 0x00, 0x90}
	f := &x86Filter{}
	n := f.Apply(0, buf)
	if n < 5 {
		t.Fatalf("Apply processed %d bytes, want >= 5", n)
	}
	want := []byte{0xE8, 0xFB, 0xFF, 0xFF, 0xFF}
	for i, b := range want {
		if buf[i] != b {
			t.Fatalf("buf = % x, want prefix % x", buf[:5], want)
		}
	}
}

func TestPowerPCBranchRewrite(t *testing.T) {
	t.Parallel()
	// 0x4800_0001: bl with a zero displacement.
	buf := []byte{0x48, 0x00, 0x00, 0x01}
	f := powerpcFilter{}
	n := f.Apply(0x100, buf)
	if n != 4 {
		t.Fatalf("Apply returned %d, want 4", n)
	}
	instr := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	if instr&0xfc000003 != 0x48000001 {
		t.Fatalf("rewritten instruction lost its opcode bits: %#08x", instr)
	}
}

// TestSparcNegativeDisplacement pins the sign re-encode: a CALL whose
// absolute target sits below the stream position must come out with the
// 0x7f-prefixed negative-displacement encoding, not a wrapped-around one.
func TestSparcNegativeDisplacement(t *testing.T) {
	t.Parallel()
	// CALL with word displacement 1 (absolute byte target 4) at stream
	// position 0x1000: target - position is negative.
	buf := []byte{0x40, 0x00, 0x00, 0x01}
	f := sparcFilter{}
	if n := f.Apply(0x1000, buf); n != 4 {
		t.Fatalf("Apply returned %d, want 4", n)
	}
	want := []byte{0x7f, 0xff, 0xfc, 0x01}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("buf = % x, want % x", buf, want)
		}
	}
}

func TestARMFilterOnlyTouchesBLOpcode(t *testing.T) {
	t.Parallel()
	buf := []byte{0x01, 0x02, 0x03, 0x00} // not 0xeb in the top byte: untouched
	f := armFilter{}
	f.Apply(0, buf)
	if buf[0] != 0x01 || buf[1] != 0x02 || buf[2] != 0x03 {
		t.Fatalf("non-BL instruction was modified: % x", buf)
	}
}

func TestNewStateRejectsUnknownID(t *testing.T) {
	t.Parallel()
	// A State with no filter registered for its id should fail fast at
	// construction rather than during Run.
	if _, err := NewState(999); err == nil {
		t.Fatalf("NewState(999) succeeded, want UnsupportedFilterError")
	}
}
