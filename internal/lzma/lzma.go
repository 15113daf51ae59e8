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

// Package lzma implements the embedded LZMA entropy decoder: the
// probability model, the literal/match/rep decode loop, the length coder,
// and the dictionary buffer it writes into.
package lzma

import (
	"fmt"

	"github.com/nmoshiri/go-xz/internal/rangecoder"
)

// Props is a parsed LZMA properties byte.
type Props struct {
	LC, LP, PB byte
}

// ErrPropertiesInvalid indicates an LZMA properties byte whose lc+lp sum
// exceeds 4.
var ErrPropertiesInvalid = fmt.Errorf("lzma: invalid properties byte")

// ErrPropertiesTooLarge indicates an LZMA properties byte above 224, which
// no combination of lc/lp/pb can produce.
var ErrPropertiesTooLarge = fmt.Errorf("lzma: properties byte out of range")

// ParseProps decodes a properties byte: successive subtractions of 45
// yield pb, of 9 yield lp, the remainder is lc.
func ParseProps(b byte) (Props, error) {
	if b > 224 {
		return Props{}, ErrPropertiesTooLarge
	}
	pb := b / 45
	rem := b % 45
	lp := rem / 9
	lc := rem % 9
	if int(lc)+int(lp) > 4 {
		return Props{}, ErrPropertiesInvalid
	}
	return Props{LC: lc, LP: lp, PB: pb}, nil
}

// state records the kinds of the last few decoded symbols; the probability
// model is conditioned on it.
type state uint8

const (
	stLitLit state = iota
	stMatchLitLit
	stRepLitLit
	stShortRepLitLit
	stMatchLit
	stRepLit
	stShortRepLit
	stLitMatch
	stLitLongRep
	stLitShortRep
	stNonLitMatch
	stNonLitRep
)

// Transition tables, indexed by the current state.
var (
	litNext      = [12]state{stLitLit, stLitLit, stLitLit, stLitLit, stMatchLitLit, stRepLitLit, stShortRepLitLit, stMatchLit, stRepLit, stShortRepLit, stMatchLit, stRepLit}
	matchNext    = [12]state{stLitMatch, stLitMatch, stLitMatch, stLitMatch, stLitMatch, stLitMatch, stLitMatch, stNonLitMatch, stNonLitMatch, stNonLitMatch, stNonLitMatch, stNonLitMatch}
	longRepNext  = [12]state{stLitLongRep, stLitLongRep, stLitLongRep, stLitLongRep, stLitLongRep, stLitLongRep, stLitLongRep, stNonLitRep, stNonLitRep, stNonLitRep, stNonLitRep, stNonLitRep}
	shortRepNext = [12]state{stLitShortRep, stLitShortRep, stLitShortRep, stLitShortRep, stLitShortRep, stLitShortRep, stLitShortRep, stNonLitRep, stNonLitRep, stNonLitRep, stNonLitRep, stNonLitRep}
)

func isLiteralState(s state) bool { return s <= stShortRepLit }

type lengthDecoder struct {
	choice, choice2 uint16
	low, mid        [16][8]uint16
	high            [256]uint16
}

func (l *lengthDecoder) reset() {
	l.choice, l.choice2 = rangecoder.ProbInit, rangecoder.ProbInit
	for i := range l.low {
		for j := range l.low[i] {
			l.low[i][j] = rangecoder.ProbInit
			l.mid[i][j] = rangecoder.ProbInit
		}
	}
	for i := range l.high {
		l.high[i] = rangecoder.ProbInit
	}
}

func (l *lengthDecoder) decode(rc *rangecoder.Decoder, posState uint32) int {
	if rc.DecodeBit(&l.choice) == 0 {
		return 2 + int(rc.BitTree(l.low[posState][:], 3))
	}
	if rc.DecodeBit(&l.choice2) == 0 {
		return 10 + int(rc.BitTree(l.mid[posState][:], 3))
	}
	return 18 + int(rc.BitTree(l.high[:], 8))
}

// Decoder holds the LZMA probability model and rolling match-distance
// history. It decodes directly into a Dictionary, which supplies the
// back-reference window.
type Decoder struct {
	props          Props
	posMask        uint32
	literalPosMask uint32

	isMatch    [192]uint16
	isRep      [48]uint16
	isRep0Long [192]uint16
	distSlot   [386]uint16
	literal    [16][0x300]uint16

	matchLen, repLen lengthDecoder

	rep          [4]uint32
	st           state
	len          int
	processedPos uint32
}

// New constructs a Decoder for the given properties, with all state and
// probabilities at their reset values.
func New(props Props) *Decoder {
	d := &Decoder{}
	_ = d.SetProps(props)
	d.ResetState()
	return d
}

// SetProps installs new LZMA properties, as happens on an LZMA2 chunk that
// declares new properties. It does not touch rolling state.
func (d *Decoder) SetProps(props Props) error {
	if int(props.LC)+int(props.LP) > 4 {
		return ErrPropertiesInvalid
	}
	d.props = props
	d.posMask = 1<<props.PB - 1
	d.literalPosMask = 1<<props.LP - 1
	return nil
}

// ResetState reinitializes the probability model and rolling match/length
// state, as happens on an LZMA2 chunk that declares a state reset.
func (d *Decoder) ResetState() {
	d.rep = [4]uint32{}
	d.st = stLitLit
	d.len = 0
	d.processedPos = 0
	for i := range d.isMatch {
		d.isMatch[i] = rangecoder.ProbInit
		d.isRep0Long[i] = rangecoder.ProbInit
	}
	for i := range d.isRep {
		d.isRep[i] = rangecoder.ProbInit
	}
	for i := range d.distSlot {
		d.distSlot[i] = rangecoder.ProbInit
	}
	for i := range d.literal {
		for j := range d.literal[i] {
			d.literal[i][j] = rangecoder.ProbInit
		}
	}
	d.matchLen.reset()
	d.repLen.reset()
}

// Run decodes as many symbols as possible into dict using rc, stopping
// when dict's current output burst is full or when the input window's
// decode limit is crossed (returns needMore=true; the LZMA2 caller must
// stage more input before calling Run again). The limit set via SetInput
// leaves one maximum-sized symbol of headroom past it, so a symbol decode
// started just inside the limit always has the bytes it needs.
func (d *Decoder) Run(rc *rangecoder.Decoder, dict *Dictionary) (needMore bool, err error) {
	for dict.HasSpace() {
		if d.len > 0 {
			n, rerr := dict.Repeat(d.rep[0], d.len)
			if rerr != nil {
				return false, rerr
			}
			d.processedPos += uint32(n)
			d.len -= n
			if n == 0 {
				break
			}
			continue
		}
		if rc.Remaining() < 0 {
			rc.Normalize()
			return true, nil
		}
		if err := d.decodeSymbol(rc, dict); err != nil {
			return false, err
		}
	}
	rc.Normalize()
	return false, nil
}

// Pending reports whether a repeat copy is still in progress (used by
// internal/lzma2 to validate clean chunk termination).
func (d *Decoder) Pending() bool { return d.len > 0 }

func (d *Decoder) decodeSymbol(rc *rangecoder.Decoder, dict *Dictionary) error {
	posState := d.processedPos & d.posMask
	s := int(d.st)

	if rc.DecodeBit(&d.isMatch[s*16+int(posState)]) == 0 {
		b := d.decodeLiteral(rc, dict)
		dict.Put(b)
		d.processedPos++
		d.st = litNext[d.st]
		return nil
	}

	if rc.DecodeBit(&d.isRep[s]) == 0 {
		d.rep[3], d.rep[2], d.rep[1] = d.rep[2], d.rep[1], d.rep[0]
		length := d.matchLen.decode(rc, posState)
		d.rep[0] = d.decodeDistance(rc, length)
		d.st = matchNext[d.st]
		d.len = length
		return nil
	}

	if rc.DecodeBit(&d.isRep[12+s]) == 0 {
		if rc.DecodeBit(&d.isRep0Long[s*16+int(posState)]) == 0 {
			d.len = 1
			d.st = shortRepNext[d.st]
			return nil
		}
	} else {
		var dist uint32
		switch {
		case rc.DecodeBit(&d.isRep[24+s]) == 0:
			dist = d.rep[1]
		case rc.DecodeBit(&d.isRep[36+s]) == 0:
			dist = d.rep[2]
			d.rep[2] = d.rep[1]
		default:
			dist = d.rep[3]
			d.rep[3] = d.rep[2]
			d.rep[2] = d.rep[1]
		}
		d.rep[1] = d.rep[0]
		d.rep[0] = dist
	}
	length := d.repLen.decode(rc, posState)
	d.st = longRepNext[d.st]
	d.len = length
	return nil
}

func (d *Decoder) decodeLiteral(rc *rangecoder.Decoder, dict *Dictionary) byte {
	prevByte := dict.Get(0)
	posBits := d.processedPos & d.literalPosMask
	ctx := (uint32(prevByte) >> (8 - d.props.LC)) + (posBits << d.props.LC)
	probs := d.literal[ctx][:]

	sym := uint32(1)
	if isLiteralState(d.st) {
		for sym < 0x100 {
			sym = (sym << 1) | rc.DecodeBit(&probs[sym])
		}
		return byte(sym)
	}

	matchByte := dict.Get(d.rep[0])
	for sym < 0x100 {
		matchBit := uint32(matchByte>>7) & 1
		matchByte <<= 1
		bit := rc.DecodeBit(&probs[((1+matchBit)<<8)+sym])
		sym = (sym << 1) | bit
		if matchBit != bit {
			for sym < 0x100 {
				sym = (sym << 1) | rc.DecodeBit(&probs[sym])
			}
			break
		}
	}
	return byte(sym)
}

// decodeDistance decodes rep0 for a fresh match of the given length via
// the distance-slot / spec-pos / align-table scheme. distSlot
// packs three sub-tables into one 386-entry array: [0:256) four 64-entry
// slot-selector trees, [256:370) the 114-entry spec-pos table, [370:386)
// the 16-entry align table.
func (d *Decoder) decodeDistance(rc *rangecoder.Decoder, length int) uint32 {
	lenState := length - 2
	if lenState > 3 {
		lenState = 3
	}
	slot := rc.BitTree(d.distSlot[lenState*64:lenState*64+64], 6)
	if slot < 4 {
		return slot
	}
	numDirect := (slot >> 1) - 1
	dist := (2 | (slot & 1)) << numDirect
	if slot < 14 {
		off := 256 + int(dist) - int(slot) - 1
		dist += rc.BitTreeReverse(d.distSlot[off:], int(numDirect))
		return dist
	}
	dist += rc.Direct(int(numDirect-4)) << 4
	dist += rc.BitTreeReverse(d.distSlot[370:386], 4)
	return dist
}
