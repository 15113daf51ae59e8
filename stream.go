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
	"encoding/binary"
	"math"

	"github.com/nmoshiri/go-xz/internal/bcj"
	"github.com/nmoshiri/go-xz/internal/lzma2"
	"github.com/nmoshiri/go-xz/vli"
	"github.com/nmoshiri/go-xz/xzcrc"
)

// streamState is the position of the decoder within the outer XZ framing.
// Suspension is purely return-based: every state can bail out mid-fill and
// resume on the next Decode call.
type streamState uint8

const (
	stateStreamHeader streamState = iota
	stateStreamStart
	stateBlockHeader
	stateBlockUncompress
	stateBlockPadding
	stateBlockCheck
	stateIndex
	stateIndexPadding
	stateIndexCRC32
	stateStreamFooter
	stateEndOfStream
)

var streamHeaderMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// unknownSize marks a block header that did not declare a compressed or
// uncompressed size.
const unknownSize = math.MaxUint64

// tempBuffer accumulates the fixed-size framing structures (headers,
// check values, footer) across arbitrarily small Decode inputs. size is
// set before filling; pos resets to zero once the fill completes so the
// parsed structure always starts at buf[0].
type tempBuffer struct {
	pos, size int
	buf       [1024]byte
}

// fill copies input bytes into the buffer until it holds size bytes,
// advancing *inPos past what it took. It reports whether the buffer is now
// complete.
func (t *tempBuffer) fill(input []byte, inPos *int) bool {
	n := t.size - t.pos
	if avail := len(input) - *inPos; avail < n {
		n = avail
	}
	copy(t.buf[t.pos:t.pos+n], input[*inPos:*inPos+n])
	*inPos += n
	t.pos += n
	if t.pos == t.size {
		t.pos = 0
		return true
	}
	return false
}

// blockHeader carries the sizes the current block's header declared.
type blockHeader struct {
	compressed   uint64 // unknownSize if absent
	uncompressed uint64 // unknownSize if absent
	size         int    // header size in bytes, including its CRC32
}

// decoderHash is the running (unpadded, uncompressed, crc32) triple that
// both the block decoder and the index decoder accumulate; the two must
// agree at the end of the stream. The fold packs the fields little-endian;
// the value never appears on the wire, so the byte order only has to be
// the same on both sides.
type decoderHash struct {
	unpadded     uint64
	uncompressed uint64
	crc          uint32
}

func (h *decoderHash) fold() {
	var buf [20]byte
	binary.LittleEndian.PutUint64(buf[0:], h.unpadded)
	binary.LittleEndian.PutUint64(buf[8:], h.uncompressed)
	binary.LittleEndian.PutUint32(buf[16:], h.crc)
	h.crc = xzcrc.Update32(h.crc, buf[:])
}

// blockAccounting tracks actual byte counts across all blocks decoded so
// far, plus the hash the index must later reproduce.
type blockAccounting struct {
	compressed   uint64
	uncompressed uint64
	count        uint64
	hash         decoderHash
}

// indexSequence is the index decoder's resumption point within its
// repeating (count, then unpadded/uncompressed pairs) layout.
type indexSequence uint8

const (
	idxCount indexSequence = iota
	idxUnpadded
	idxUncompressed
)

type indexDecoder struct {
	seq   indexSequence
	size  uint64 // bytes of index consumed, including the leading zero byte
	count uint64
	hash  decoderHash
}

// decMain advances the framing state machine as far as the given buffers
// allow. It returns the bytes consumed and produced, and eos once the
// stream footer has been verified.
func (d *Decoder) decMain(input, output []byte) (inPos, outPos int, eos bool, err error) {
	inStart := 0
	for {
		switch d.state {
		case stateStreamHeader:
			if !d.temp.fill(input, &inPos) {
				return inPos, outPos, false, nil
			}
			if err := d.parseStreamHeader(); err != nil {
				return inPos, outPos, false, err
			}
			d.state = stateStreamStart

		case stateStreamStart:
			if inPos >= len(input) {
				return inPos, outPos, false, nil
			}
			b := input[inPos]
			if b == 0 {
				// The zero "no more blocks" byte opens the index and is
				// covered by the index CRC32, so it is consumed as part
				// of the index span.
				inStart = inPos
				inPos++
				d.state = stateIndex
				continue
			}
			d.header.size = (int(b) + 1) * 4
			d.temp.size = d.header.size
			d.temp.pos = 0
			d.state = stateBlockHeader

		case stateBlockHeader:
			if !d.temp.fill(input, &inPos) {
				return inPos, outPos, false, nil
			}
			if err := d.parseBlockHeader(); err != nil {
				return inPos, outPos, false, err
			}
			d.check.resetSums()
			d.state = stateBlockUncompress

		case stateBlockUncompress:
			done, derr := d.decBlock(input, &inPos, output, &outPos)
			if derr != nil {
				return inPos, outPos, false, derr
			}
			if !done {
				return inPos, outPos, false, nil
			}
			d.state = stateBlockPadding

		case stateBlockPadding:
			for d.block.compressed&3 != 0 {
				if inPos >= len(input) {
					return inPos, outPos, false, nil
				}
				pad := input[inPos]
				inPos++
				if pad != 0 {
					return inPos, outPos, false, ErrCorruptedData
				}
				d.block.compressed++
			}
			d.state = stateBlockCheck

		case stateBlockCheck:
			if d.check.kind != CheckNone {
				d.temp.size = d.check.kind.Size()
				if !d.temp.fill(input, &inPos) {
					return inPos, outPos, false, nil
				}
				if err := d.check.verify(d.temp.buf[:d.temp.size]); err != nil {
					return inPos, outPos, false, err
				}
			}
			d.state = stateStreamStart

		case stateIndex:
			done, ierr := d.decIndex(input, &inPos, inStart)
			if ierr != nil {
				return inPos, outPos, false, ierr
			}
			if !done {
				return inPos, outPos, false, nil
			}
			d.state = stateIndexPadding

		case stateIndexPadding:
			for (d.index.size+uint64(inPos-inStart))&3 != 0 {
				if inPos >= len(input) {
					d.indexUpdate(input, inStart, inPos)
					return inPos, outPos, false, nil
				}
				pad := input[inPos]
				inPos++
				if pad != 0 {
					return inPos, outPos, false, ErrCorruptedData
				}
			}
			d.indexUpdate(input, inStart, inPos)
			if d.block.hash != d.index.hash {
				return inPos, outPos, false, ErrCorruptedData
			}
			d.state = stateIndexCRC32

		case stateIndexCRC32:
			d.temp.size = 4
			if !d.temp.fill(input, &inPos) {
				return inPos, outPos, false, nil
			}
			want := binary.LittleEndian.Uint32(d.temp.buf[:4])
			if got := d.indexCRC.Sum(); got != want {
				return inPos, outPos, false, CheckMismatchError{
					Kind: "index crc32",
					Got:  binary.LittleEndian.AppendUint32(nil, got),
					Want: binary.LittleEndian.AppendUint32(nil, want),
				}
			}
			d.temp.size = 12
			d.state = stateStreamFooter

		case stateStreamFooter:
			if !d.temp.fill(input, &inPos) {
				return inPos, outPos, false, nil
			}
			if err := d.parseStreamFooter(); err != nil {
				return inPos, outPos, false, err
			}
			d.state = stateEndOfStream
			return inPos, outPos, true, nil

		case stateEndOfStream:
			return inPos, outPos, true, nil
		}
	}
}

// parseStreamHeader validates the 12-byte stream header sitting in temp.
func (d *Decoder) parseStreamHeader() error {
	buf := d.temp.buf[:12]
	if !bytes.Equal(buf[:6], streamHeaderMagic) {
		return ErrStreamHeaderMagicMismatch
	}
	want := binary.LittleEndian.Uint32(buf[8:12])
	got := xzcrc.Of(buf[6:8])
	if got != want {
		return CRC32MismatchError{Field: "stream header", Got: got, Want: want}
	}
	if buf[6] != 0 {
		return ErrUnsupportedStreamHeaderOption
	}
	if buf[7] > 15 {
		return ErrUnsupportedStreamHeaderOption
	}
	kind, err := parseCheckType(buf[7])
	if err != nil {
		return err
	}
	d.check.reset(kind)
	return nil
}

// parseBlockHeader validates and applies the block header sitting in temp:
// CRC32, optional size declarations, the optional BCJ filter record, and
// the mandatory LZMA2 filter record with its dictionary-size byte.
func (d *Decoder) parseBlockHeader() error {
	size := d.temp.size - 4
	want := binary.LittleEndian.Uint32(d.temp.buf[size : size+4])
	got := xzcrc.Of(d.temp.buf[:size])
	if got != want {
		return CRC32MismatchError{Field: "block header", Got: got, Want: want}
	}
	buf := d.temp.buf[:size]

	pos := 2
	if buf[1]&0x3e != 0 {
		if buf[2] == 3 {
			return ErrDeltaFilterUnsupported
		}
		return ErrUnsupportedBlockHeaderOption
	}
	if buf[1]&0x40 != 0 {
		v, n, ok := vli.DecodeSingle(buf[pos:])
		if !ok {
			return ErrCorruptedCompressedSizeVLI
		}
		pos += n
		d.header.compressed = v
	} else {
		d.header.compressed = unknownSize
	}
	if buf[1]&0x80 != 0 {
		v, n, ok := vli.DecodeSingle(buf[pos:])
		if !ok {
			return ErrCorruptedUncompressedSizeVLI
		}
		pos += n
		d.header.uncompressed = v
	} else {
		d.header.uncompressed = unknownSize
	}

	d.bcjActive = buf[1]&0x01 != 0
	if d.bcjActive {
		if size-pos < 2 {
			return ErrBlockHeaderTooSmall
		}
		id := buf[pos]
		pos++
		if id == 3 {
			return ErrDeltaFilterUnsupported
		}
		st, err := bcj.NewState(uint64(id))
		if err != nil {
			return err
		}
		d.bcj = st
		d.bcj.Reset()
		// The filter properties size must be zero: a BCJ filter with an
		// explicit start offset cannot be expressed.
		if buf[pos] != 0 {
			return ErrBCJFilterWithOffsetUnsupported
		}
		pos++
	}

	if size-pos < 2 {
		return ErrBlockHeaderTooSmall
	}
	if buf[pos] != 0x21 {
		return ErrUnsupportedBlockHeaderOption
	}
	pos++
	if buf[pos] != 0x01 {
		return ErrUnsupportedBlockHeaderOption
	}
	pos++
	if size-pos < 1 {
		return ErrBlockHeaderTooSmall
	}
	if err := d.lzma2.ResetForBlock(buf[pos], d.dict); err != nil {
		return err
	}
	pos++
	for ; pos < size; pos++ {
		if buf[pos] != 0 {
			return ErrUnsupportedBlockHeaderOption
		}
	}
	d.block.compressed = 0
	d.block.uncompressed = 0
	return nil
}

// decBlock runs one burst of block-body decoding (through the BCJ stage if
// the header declared one), updates size accounting and the content check,
// and finishes the block's hash bookkeeping once the LZMA2 chunk sequence
// ends. done is true only at that point.
func (d *Decoder) decBlock(input []byte, inPos *int, output []byte, outPos *int) (done bool, err error) {
	outStart := *outPos

	var (
		in, out int
		res     lzma2.Result
	)
	if d.bcjActive {
		in, out, res, err = d.bcj.Run(d.lzma2, input[*inPos:], output[*outPos:], d.dict)
	} else {
		in, out, res, err = d.lzma2.Run(input[*inPos:], output[*outPos:], d.dict)
	}
	*inPos += in
	*outPos += out
	if err != nil {
		return false, err
	}

	d.block.compressed += uint64(in)
	d.block.uncompressed += uint64(out)
	if d.block.compressed > d.header.compressed ||
		d.block.uncompressed > d.header.uncompressed {
		return false, ErrMoreDataThanHeaderIndicated
	}
	d.check.update(output[outStart:*outPos])

	if res != lzma2.EndOfChunkSequence {
		return false, nil
	}

	if d.header.compressed != unknownSize && d.header.compressed != d.block.compressed {
		return false, ErrLessDataThanHeaderIndicated
	}
	if d.header.uncompressed != unknownSize && d.header.uncompressed != d.block.uncompressed {
		return false, ErrLessDataThanHeaderIndicated
	}
	d.block.hash.unpadded += uint64(d.header.size) + d.block.compressed + uint64(d.check.kind.Size())
	d.block.hash.uncompressed += d.block.uncompressed
	d.block.hash.fold()
	d.block.count++
	return true, nil
}

// decIndex decodes index records until the declared record count runs out.
// Bytes consumed here are folded into the index size/CRC32 lazily, via
// indexUpdate, so a partial record interrupted by buffer exhaustion is
// still accounted for.
func (d *Decoder) decIndex(input []byte, inPos *int, inStart int) (done bool, err error) {
	for {
		r := d.vli.Decode(input[*inPos:])
		*inPos += r.Consumed
		if r.Err != nil {
			return false, ErrCorruptedDataInBlockIndex
		}
		if !r.Done {
			d.indexUpdate(input, inStart, *inPos)
			return false, nil
		}
		switch d.index.seq {
		case idxCount:
			d.index.count = r.Value
			if d.index.count != d.block.count {
				return false, ErrCorruptedDataInBlockIndex
			}
			d.index.seq = idxUnpadded
		case idxUnpadded:
			d.index.hash.unpadded += r.Value
			d.index.seq = idxUncompressed
		case idxUncompressed:
			d.index.hash.uncompressed += r.Value
			d.index.hash.fold()
			d.index.count--
			d.index.seq = idxUnpadded
		}
		if d.index.count == 0 {
			return true, nil
		}
	}
}

// indexUpdate folds input[from:to] into the index's size and CRC32.
func (d *Decoder) indexUpdate(input []byte, from, to int) {
	d.index.size += uint64(to - from)
	d.indexCRC.Update(input[from:to])
}

// parseStreamFooter validates the 12-byte stream footer sitting in temp
// against the index just decoded and the stream header's check type.
func (d *Decoder) parseStreamFooter() error {
	buf := d.temp.buf[:12]
	if buf[10] != 'Y' || buf[11] != 'Z' {
		return ErrFooterMagicMismatch
	}
	want := binary.LittleEndian.Uint32(buf[0:4])
	got := xzcrc.Of(buf[4:10])
	if got != want {
		return CRC32MismatchError{Field: "footer", Got: got, Want: want}
	}
	backward := uint64(binary.LittleEndian.Uint32(buf[4:8]))
	if d.index.size>>2 != backward {
		return ErrFooterIndexSizeMismatch
	}
	if buf[8] != 0 || CheckType(buf[9]) != d.check.kind {
		return ErrFooterCheckTypeMismatch
	}
	return nil
}
