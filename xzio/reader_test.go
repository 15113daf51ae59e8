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

package xzio

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	xz "github.com/nmoshiri/go-xz"
)

const helloFixture = "fd377a585a0000016922de360200210108000000d80f231301000c48656c6c6f0a576f726c64210a0000000043a3a2150001210d75dca8d29042990d010000000001595a"

const emptyFixture = "fd377a585a000000ff12d941000000001cdf442106729e7a010000000000595a"

func fixture(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad fixture hex: %v", err)
	}
	return b
}

func TestReaderDecodesStream(t *testing.T) {
	t.Parallel()
	r := NewReader(bytes.NewReader(fixture(t, helloFixture)))
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "Hello\nWorld!\n" {
		t.Fatalf("output = %q", got)
	}
	if !r.EOS() {
		t.Fatalf("EOS() = false after a complete stream")
	}
	// Reads past the end keep reporting EOF.
	if n, err := r.Read(make([]byte, 8)); n != 0 || err != io.EOF {
		t.Fatalf("post-EOS Read = (%d, %v), want (0, io.EOF)", n, err)
	}
}

func TestReaderTinyRefillBuffer(t *testing.T) {
	t.Parallel()
	r := NewReaderSize(bytes.NewReader(fixture(t, helloFixture)), 1)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "Hello\nWorld!\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestReaderEmptyStream(t *testing.T) {
	t.Parallel()
	r := NewReader(bytes.NewReader(fixture(t, emptyFixture)))
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("output = %q, want empty", got)
	}
	if !r.EOS() {
		t.Fatalf("EOS() = false after a complete empty stream")
	}
}

func TestReaderTruncatedStream(t *testing.T) {
	t.Parallel()
	data := fixture(t, emptyFixture)
	r := NewReader(bytes.NewReader(data[:len(data)-8]))
	_, err := io.ReadAll(r)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReaderCorruptStream(t *testing.T) {
	t.Parallel()
	data := fixture(t, helloFixture)
	data[30] ^= 0x01
	r := NewReader(bytes.NewReader(data))
	_, err := io.ReadAll(r)
	var cerr xz.CheckMismatchError
	if !errors.As(err, &cerr) || cerr.Kind != "crc32" {
		t.Fatalf("err = %v, want wrapped crc32 CheckMismatchError", err)
	}
}

func TestReaderWithFixedDecoder(t *testing.T) {
	t.Parallel()
	dec := xz.NewFixed(make([]byte, 64*1024))
	r := NewReaderWithDecoder(bytes.NewReader(fixture(t, helloFixture)), 4096, dec)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "Hello\nWorld!\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestReaderReset(t *testing.T) {
	t.Parallel()
	first := fixture(t, helloFixture)
	second := fixture(t, helloFixture)
	r := NewReader(io.MultiReader(bytes.NewReader(first), bytes.NewReader(second)))

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("first stream: %v", err)
	}
	if string(got) != "Hello\nWorld!\n" {
		t.Fatalf("first output = %q", got)
	}

	r.Reset()
	got, err = io.ReadAll(r)
	if err != nil {
		t.Fatalf("second stream: %v", err)
	}
	if string(got) != "Hello\nWorld!\n" {
		t.Fatalf("second output = %q", got)
	}
}
