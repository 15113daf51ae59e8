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

// Package xzio adapts the pull-based xz.Decoder to the blocking io.Reader
// the rest of the Go ecosystem expects. The adapter owns a refill buffer
// and loops the decoder until it has produced at least one byte, so
// callers never observe the decoder's need-more-input suspensions.
package xzio

import (
	"fmt"
	"io"

	xz "github.com/nmoshiri/go-xz"
)

// defaultBufferSize is the refill buffer size used by NewReader.
const defaultBufferSize = 8192

// Reader decompresses an XZ stream read from an underlying io.Reader. It
// is not safe for concurrent use; wrap it in external locking if multiple
// goroutines must share it.
type Reader struct {
	dec *xz.Decoder
	r   io.Reader

	buf      []byte
	consumed int
	filled   int
	eos      bool
}

// NewReader returns a Reader decompressing from r, with a growable
// dictionary sized for any stream the standard presets produce.
func NewReader(r io.Reader) *Reader {
	return NewReaderSize(r, defaultBufferSize)
}

// NewReaderSize is NewReader with an explicit refill buffer size.
func NewReaderSize(r io.Reader, size int) *Reader {
	if size < 1 {
		size = 1
	}
	return NewReaderWithDecoder(r, size, xz.NewGrowable(xz.DictSizeMin, xz.DictSizePreset9))
}

// NewReaderWithDecoder wires an existing decoder (for callers that want a
// fixed or static dictionary) to r.
func NewReaderWithDecoder(r io.Reader, size int, dec *xz.Decoder) *Reader {
	return &Reader{
		dec: dec,
		r:   r,
		buf: make([]byte, size),
	}
}

// Reset re-arms the Reader for another stream, keeping the underlying
// reader and any bytes already buffered (e.g. the head of a concatenated
// follow-on stream).
func (z *Reader) Reset() {
	z.eos = false
	z.dec.Reset()
}

// EOS reports whether a complete, verified stream has been read.
func (z *Reader) EOS() bool { return z.eos }

// fill ensures at least one unconsumed byte is buffered. A clean EOF from
// the underlying reader mid-stream is an io.ErrUnexpectedEOF: a valid XZ
// stream always announces its own end.
func (z *Reader) fill() error {
	if z.consumed < z.filled {
		return nil
	}
	n, err := z.r.Read(z.buf)
	if n == 0 {
		if err == nil || err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	z.filled = n
	z.consumed = 0
	return nil
}

// Read implements io.Reader. Corruption detected by the decoder surfaces
// as a wrapped error; errors.Is/As still reach the decoder's typed errors
// through it.
func (z *Reader) Read(p []byte) (int, error) {
	if z.eos {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	for {
		if err := z.fill(); err != nil {
			return 0, err
		}
		res, err := z.dec.Decode(z.buf[z.consumed:z.filled], p)
		if err != nil {
			return 0, fmt.Errorf("xzio: decoding failed: %w", err)
		}
		z.consumed += res.InputConsumed
		if res.EndOfStream {
			z.eos = true
			if res.OutputProduced == 0 {
				return 0, io.EOF
			}
			return res.OutputProduced, nil
		}
		if res.OutputProduced > 0 {
			return res.OutputProduced, nil
		}
	}
}
