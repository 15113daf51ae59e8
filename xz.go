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

// Package xz decodes the XZ container format: LZMA2-compressed payloads
// with optional BCJ branch filters and CRC32/CRC64/SHA-256 integrity
// checks.
//
// The core type is Decoder, an incremental pull-based decoder: each Decode
// call accepts whatever input bytes and output room the caller has,
// consumes and produces as much as it can, and suspends by returning. It
// never blocks, never calls back, and (in the fixed-dictionary
// configuration) never allocates after construction, so it is usable from
// tight memory budgets and static storage. Callers that just want an
// io.Reader should use the xzio package instead.
//
// A Decoder handles exactly one XZ stream per Reset cycle and does not
// consume the zero padding that may separate concatenated streams; feeding
// multiple streams is the caller's concern.
package xz

import (
	"crypto/sha256"

	"github.com/nmoshiri/go-xz/internal/bcj"
	"github.com/nmoshiri/go-xz/internal/lzma"
	"github.com/nmoshiri/go-xz/internal/lzma2"
	"github.com/nmoshiri/go-xz/vli"
	"github.com/nmoshiri/go-xz/xzcrc"
)

// DictSizeMin is the smallest dictionary any conforming stream can
// declare; fixed buffers below this size can never decode anything.
const DictSizeMin = 4096

// DictSizeMax is the largest dictionary size the LZMA2 properties byte can
// encode (3 GiB). Typed int64 because it exceeds a 32-bit int.
const DictSizeMax int64 = 3 << 30

// Dictionary sizes used by the standard xz presets 0 through 9, for
// callers sizing a fixed buffer to a known producer.
const (
	DictSizePreset0 = 256 * 1024
	DictSizePreset1 = 1024 * 1024
	DictSizePreset2 = 2 * 1024 * 1024
	DictSizePreset3 = 4 * 1024 * 1024
	DictSizePreset4 = 4 * 1024 * 1024
	DictSizePreset5 = 8 * 1024 * 1024
	DictSizePreset6 = 8 * 1024 * 1024
	DictSizePreset7 = 16 * 1024 * 1024
	DictSizePreset8 = 32 * 1024 * 1024
	DictSizePreset9 = 64 * 1024 * 1024
)

// Result reports what a successful Decode call accomplished.
type Result struct {
	// InputConsumed is how many leading bytes of the input slice were used.
	InputConsumed int
	// OutputProduced is how many leading bytes of the output slice were
	// written.
	OutputProduced int
	// EndOfStream is true once the stream footer has been verified. The
	// decoder is then finished: further Decode calls fail with
	// ErrNeedsReset until Reset is called.
	EndOfStream bool
}

// MadeProgress reports whether the call moved any bytes in either
// direction.
func (r Result) MadeProgress() bool {
	return r.InputConsumed != 0 || r.OutputProduced != 0
}

// Decoder decodes one XZ stream incrementally. It is not safe for
// concurrent use; a single goroutine (or external locking) must own it.
type Decoder struct {
	dict  *lzma.Dictionary
	lzma2 *lzma2.Decoder

	state  streamState
	check  checkAccumulator
	vli    vli.Decoder
	temp   tempBuffer
	header blockHeader
	block  blockAccounting
	index  indexDecoder

	indexCRC xzcrc.CRC32

	bcjActive bool
	bcj       *bcj.State

	needsReset  bool
	starved     bool
	lastInSize  int
	lastOutSize int
}

// NewFixed returns a Decoder that uses buf as its dictionary and never
// allocates during decoding. buf must be at least as large as the
// dictionary size the stream's block headers declare, or Decode fails
// with DictionaryTooLargeError; DictSizePreset6 covers anything a default
// xz invocation produces. Anything beyond DictSizeMax is ignored.
func NewFixed(buf []byte) *Decoder {
	return newDecoder(lzma.NewFixed(clampDict(buf)))
}

// NewGrowable returns a Decoder whose dictionary starts at initial bytes
// and is reallocated on demand up to max bytes when a block header
// declares a larger size. Both sizes are capped at DictSizeMax.
func NewGrowable(initial, max int) *Decoder {
	if int64(initial) > DictSizeMax {
		initial = int(DictSizeMax)
	}
	if int64(max) > DictSizeMax {
		max = int(DictSizeMax)
	}
	return newDecoder(lzma.NewGrowable(initial, max))
}

// NewStatic returns a Decoder backed by caller-owned storage, exactly like
// NewFixed; the distinct constructor documents the intent of embedding the
// dictionary in a static (e.g. package-level) array. The surrounding
// memory may be zeroed; the constructor initializes everything that needs
// a non-zero starting state, including the SHA-256 digest.
func NewStatic(buf []byte) *Decoder {
	return newDecoder(lzma.NewStatic(clampDict(buf)))
}

func clampDict(buf []byte) []byte {
	if int64(len(buf)) > DictSizeMax {
		n := DictSizeMax
		buf = buf[:n]
	}
	return buf
}

func newDecoder(dict *lzma.Dictionary) *Decoder {
	d := &Decoder{
		dict:  dict,
		lzma2: lzma2.New(),
	}
	d.check.sha = sha256.New()
	d.Reset()
	return d
}

// Decode advances the decoder using up to len(input) bytes of compressed
// input and up to len(output) bytes of output room. It consumes input
// strictly in order and produces output strictly in order; how the caller
// slices its buffers across calls cannot change the decoded bytes.
//
// A nil error with Result.EndOfStream false means more input or output
// room is needed. ErrNeedsLargerInputBuffer is returned instead when two
// consecutive calls made zero progress without the caller offering bigger
// buffers in between; it is non-fatal. Every other error is fatal and
// poisons the decoder until Reset. On error the Result still reports any
// bytes moved before the failure.
func (d *Decoder) Decode(input, output []byte) (Result, error) {
	if d.needsReset {
		return Result{}, ErrNeedsReset
	}
	if len(input) == 0 {
		return Result{}, ErrNeedsLargerInputBuffer
	}

	inPos, outPos, eos, err := d.decMain(input, output)
	res := Result{InputConsumed: inPos, OutputProduced: outPos, EndOfStream: eos}
	if err != nil {
		d.needsReset = true
		return res, err
	}
	if eos {
		d.needsReset = true
		return res, nil
	}
	if d.starvedWithoutProgress(inPos, outPos, len(input), len(output)) {
		return res, ErrNeedsLargerInputBuffer
	}
	return res, nil
}

// starvedWithoutProgress implements the livelock guard: a zero-progress
// call is tolerated once, but a second one without larger buffers in
// between turns into ErrNeedsLargerInputBuffer so a caller loop cannot
// spin forever.
func (d *Decoder) starvedWithoutProgress(inPos, outPos, inLen, outLen int) bool {
	if inPos != 0 || outPos != 0 {
		d.starved = false
		d.lastInSize = 0
		d.lastOutSize = 0
		return false
	}
	if d.starved && d.lastInSize >= inLen && d.lastOutSize >= outLen {
		return true
	}
	if inLen > d.lastInSize {
		d.lastInSize = inLen
	}
	if outLen > d.lastOutSize {
		d.lastOutSize = outLen
	}
	d.starved = true
	return false
}

// Reset returns the decoder to its initial state, ready for a fresh
// stream, without touching the dictionary allocation.
func (d *Decoder) Reset() {
	d.state = stateStreamHeader
	d.needsReset = false
	d.starved = false
	d.lastInSize = 0
	d.lastOutSize = 0
	d.vli.Reset()
	d.temp.pos = 0
	d.temp.size = 12
	d.header = blockHeader{}
	d.block = blockAccounting{}
	d.index = indexDecoder{}
	d.indexCRC.Reset()
	d.check.reset(CheckNone)
	d.bcjActive = false
	d.bcj = nil
	d.dict.Reset()
}
