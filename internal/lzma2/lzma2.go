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

// Package lzma2 wraps internal/lzma's raw LZMA decoder in the chunked
// container LZMA2 actually uses on the wire: a sequence of control-byte
// headed chunks, each either a literal copy or an LZMA-coded run, with its
// own small rules for when the dictionary, LZMA properties, and LZMA
// history state get reset.
package lzma2

import (
	"errors"
	"fmt"

	"github.com/nmoshiri/go-xz/internal/lzma"
	"github.com/nmoshiri/go-xz/internal/rangecoder"
)

// stageSize is the size of the staging buffer chunk bodies are copied into
// when the caller's input doesn't offer lookaheadMargin contiguous bytes.
const stageSize = 63

// lookaheadMargin is the most input one LZMA symbol can consume: the range
// coder needs this many readable bytes ahead of its logical position at all
// times, so any input window narrower than this must be staged.
const lookaheadMargin = 21

// Result reports what Run accomplished.
type Result uint8

const (
	// NeedMoreData means Run consumed what it could and needs another
	// call with more input, more output room, or both.
	NeedMoreData Result = iota
	// EndOfChunkSequence means a control byte of 0 ended the chunk
	// sequence: the enclosing XZ block body is fully decoded.
	EndOfChunkSequence
)

// sequence is the chunk-header parser's resumption point.
type sequence uint8

const (
	seqControl sequence = iota
	seqUncompressed1
	seqUncompressed2
	seqCompressed0
	seqCompressed1
	seqProperties
	seqLZMAPrepare
	seqLZMARun
	seqCopy
)

// ErrDictionaryResetExpected indicates a control byte arrived that does not
// reset the dictionary, immediately after a chunk that required one.
var ErrDictionaryResetExpected = errors.New("lzma2: dictionary reset expected before this chunk")

// ErrPropertiesMissing indicates an LZMA chunk arrived before any chunk had
// ever supplied LZMA properties.
var ErrPropertiesMissing = errors.New("lzma2: no LZMA properties have been supplied yet")

// ErrCorruptedData indicates a malformed control byte or chunk-size field,
// or an LZMA chunk that does not end cleanly (compressed bytes left over, a
// match copy still pending, or a range coder that is not finished).
var ErrCorruptedData = errors.New("lzma2: corrupted chunk header")

// ErrChunkAccountingMismatch indicates the LZMA core consumed more bytes
// than the chunk header declared, which the wire format should make
// impossible for a well-formed stream.
var ErrChunkAccountingMismatch = errors.New("lzma2: chunk consumed more bytes than its header declared")

// UnsupportedPropertiesError reports a dictionary-size properties byte
// outside LZMA2's valid 0..=39 range.
type UnsupportedPropertiesError struct{ Value byte }

func (e UnsupportedPropertiesError) Error() string {
	return fmt.Sprintf("lzma2: unsupported properties byte %d", e.Value)
}

// Decoder holds the LZMA2 chunk-sequence state: the embedded LZMA core, the
// range coder it drives, and the small staging buffer used when contiguous
// input runs short of the range coder's lookahead requirement.
type Decoder struct {
	rc  *rangecoder.Decoder
	lz  *lzma.Decoder
	seq sequence
	// afterSize is the state to resume at once the pending chunk-size
	// field (shared by compressed and uncompressed chunks) finishes.
	afterSize sequence

	uncompressed int
	compressed   int

	needDictReset bool
	needProps     bool

	tempSize int
	temp     [stageSize]byte
}

// New constructs a Decoder with no LZMA properties yet installed; a
// properties-bearing control byte must arrive before any LZMA chunk can be
// decoded.
func New() *Decoder {
	return &Decoder{
		rc: rangecoder.New(),
		lz: lzma.New(lzma.Props{}),
	}
}

// ResetForBlock reinitializes the chunk sequence for a new XZ block: the
// dictionary's logical window is sized per the block header's LZMA2
// properties byte, and the next control byte is required to carry a
// dictionary reset.
func (d *Decoder) ResetForBlock(props byte, dict *lzma.Dictionary) error {
	if props > 39 {
		return UnsupportedPropertiesError{Value: props}
	}
	dictSize := (2 + int(props&1)) << (uint(props>>1) + 11)
	if err := dict.Alloc(dictSize); err != nil {
		return err
	}
	d.seq = seqControl
	d.needDictReset = true
	d.tempSize = 0
	return nil
}

func (d *Decoder) resetCore() {
	d.lz.ResetState()
	d.rc.Reset()
}

// Run decodes as much of input into output (via dict) as it can, resuming
// exactly where a previous call left off. It reports how much of input and
// output it used, and whether the chunk sequence ended (a 0 control byte).
func (d *Decoder) Run(input, output []byte, dict *lzma.Dictionary) (consumedIn, producedOut int, result Result, err error) {
	inPos, outPos := 0, 0
	for {
		switch d.seq {
		case seqControl:
			if inPos >= len(input) {
				return inPos, outPos, NeedMoreData, nil
			}
			tmp := input[inPos]
			inPos++

			if tmp == 0 {
				return inPos, outPos, EndOfChunkSequence, nil
			}

			if tmp >= 0xe0 || tmp == 0x01 {
				d.needProps = true
				d.needDictReset = false
				dict.ResetWrap()
			} else if d.needDictReset {
				return inPos, outPos, NeedMoreData, ErrDictionaryResetExpected
			}

			if tmp < 0x80 {
				if tmp > 0x02 {
					return inPos, outPos, NeedMoreData, ErrCorruptedData
				}
				d.seq = seqCompressed0
				d.afterSize = seqCopy
				continue
			}

			d.uncompressed = int(tmp&0x1f) << 16
			d.seq = seqUncompressed1
			if tmp >= 0xc0 {
				d.needProps = false
				d.afterSize = seqProperties
				continue
			}
			if d.needProps {
				return inPos, outPos, NeedMoreData, ErrPropertiesMissing
			}
			d.afterSize = seqLZMAPrepare
			if tmp >= 0xa0 {
				d.resetCore()
			}

		case seqUncompressed1:
			if inPos >= len(input) {
				return inPos, outPos, NeedMoreData, nil
			}
			d.uncompressed += int(input[inPos]) << 8
			inPos++
			d.seq = seqUncompressed2

		case seqUncompressed2:
			if inPos >= len(input) {
				return inPos, outPos, NeedMoreData, nil
			}
			d.uncompressed += int(input[inPos]) + 1
			inPos++
			d.seq = seqCompressed0

		case seqCompressed0:
			if inPos >= len(input) {
				return inPos, outPos, NeedMoreData, nil
			}
			d.compressed = int(input[inPos]) << 8
			inPos++
			d.seq = seqCompressed1

		case seqCompressed1:
			if inPos >= len(input) {
				return inPos, outPos, NeedMoreData, nil
			}
			d.compressed += int(input[inPos]) + 1
			inPos++
			d.seq = d.afterSize

		case seqProperties:
			if inPos >= len(input) {
				return inPos, outPos, NeedMoreData, nil
			}
			props, perr := lzma.ParseProps(input[inPos])
			inPos++
			if perr != nil {
				return inPos, outPos, NeedMoreData, perr
			}
			if err := d.lz.SetProps(props); err != nil {
				return inPos, outPos, NeedMoreData, err
			}
			d.lz.ResetState()
			d.seq = seqLZMAPrepare

		case seqLZMAPrepare:
			if d.compressed < 5 {
				return inPos, outPos, NeedMoreData, ErrCorruptedData
			}
			n, done := d.rc.ReadInit(input[inPos:])
			inPos += n
			if !done {
				return inPos, outPos, NeedMoreData, nil
			}
			d.compressed -= 5
			d.seq = seqLZMARun

		case seqLZMARun:
			remaining := len(output) - outPos
			outMax := remaining
			if d.uncompressed < outMax {
				outMax = d.uncompressed
			}
			dict.SetLimit(outMax)

			newInPos, rerr := d.runChunkBody(input, inPos, dict)
			inPos = newInPos
			if rerr != nil {
				return inPos, outPos, NeedMoreData, rerr
			}

			flushed := dict.Flush(output[outPos:])
			outPos += flushed
			d.uncompressed -= flushed

			if d.uncompressed == 0 {
				if d.compressed > 0 || d.lz.Pending() || !d.rc.IsFinished() {
					return inPos, outPos, NeedMoreData, ErrCorruptedData
				}
				d.rc.Reset()
				d.seq = seqControl
				continue
			}
			if outPos >= len(output) {
				return inPos, outPos, NeedMoreData, nil
			}
			if inPos >= len(input) && d.tempSize < d.compressed {
				return inPos, outPos, NeedMoreData, nil
			}

		case seqCopy:
			if inPos >= len(input) {
				return inPos, outPos, NeedMoreData, nil
			}
			n, nout := dict.UncompressedCopy(input[inPos:], output[outPos:], d.compressed)
			inPos += n
			outPos += nout
			d.compressed -= n
			if d.compressed > 0 {
				return inPos, outPos, NeedMoreData, nil
			}
			d.seq = seqControl
		}
	}
}

// runChunkBody drives the LZMA core across one compressed chunk's budget,
// staging input through temp whenever fewer than lookaheadMargin
// contiguous bytes are available. It returns the updated absolute position
// within input.
func (d *Decoder) runChunkBody(input []byte, inPos int, dict *lzma.Dictionary) (int, error) {
	inAvail := len(input) - inPos
	if d.tempSize > 0 || d.compressed == 0 {
		tmplen := stageSize - d.tempSize
		if v := d.compressed - d.tempSize; v < tmplen {
			tmplen = v
		}
		if inAvail < tmplen {
			tmplen = inAvail
		}
		copy(d.temp[d.tempSize:d.tempSize+tmplen], input[inPos:inPos+tmplen])

		var limit int
		switch {
		case d.tempSize+tmplen == d.compressed:
			for i := d.tempSize + tmplen; i < stageSize; i++ {
				d.temp[i] = 0
			}
			limit = d.tempSize + tmplen
		case d.tempSize+tmplen < lookaheadMargin:
			d.tempSize += tmplen
			return inPos + tmplen, nil
		default:
			limit = d.tempSize + tmplen - lookaheadMargin
		}

		d.rc.SetInput(d.temp[:stageSize], limit)
		if _, err := d.lz.Run(d.rc, dict); err != nil {
			return inPos, err
		}
		used := d.rc.Pos()
		if used > d.tempSize+tmplen {
			return inPos, ErrChunkAccountingMismatch
		}
		d.compressed -= used
		if used < d.tempSize {
			d.tempSize -= used
			copy(d.temp[:], d.temp[used:])
			return inPos, nil
		}
		inPos += used - d.tempSize
		d.tempSize = 0
	}

	inAvail = len(input) - inPos
	if inAvail >= lookaheadMargin {
		var limit int
		if inAvail >= d.compressed+lookaheadMargin {
			limit = d.compressed
		} else {
			limit = inAvail - lookaheadMargin
		}
		d.rc.SetInput(input[inPos:], limit)
		if _, err := d.lz.Run(d.rc, dict); err != nil {
			return inPos, err
		}
		used := d.rc.Pos()
		if used > d.compressed {
			return inPos, ErrChunkAccountingMismatch
		}
		d.compressed -= used
		inPos += used
	}

	inAvail = len(input) - inPos
	if inAvail < lookaheadMargin {
		n := inAvail
		if n > d.compressed {
			n = d.compressed
		}
		copy(d.temp[:n], input[inPos:inPos+n])
		d.tempSize = n
		inPos += n
	}
	return inPos, nil
}
