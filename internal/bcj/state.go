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

import (
	"github.com/nmoshiri/go-xz/internal/lzma"
	"github.com/nmoshiri/go-xz/internal/lzma2"
)

// straddleSize is the longest instruction residue any filter can leave
// unprocessed at the end of a burst, and therefore the minimum decode
// window that always lets a filter make progress.
const straddleSize = 16

// State drives one filtered block: it pulls freshly decoded bytes from an
// lzma2.Decoder and rewrites branch targets in them before handing them to
// the caller.
//
// A filter's Apply only ever fully processes a prefix of what it is given;
// the tail may be the first few bytes of an instruction that needs more
// trailing context to resolve. State never aliases the caller's output
// slice: it owns a private buffer that holds both the not-yet-delivered
// filtered bytes and the not-yet-filterable tail, contiguously, and grows
// (rarely, amortized) to fit whatever burst size the caller's output
// happens to offer.
type State struct {
	filter Filter
	pos    uint32
	done   bool

	buf         []byte
	filteredLen int // buf[:filteredLen] is filtered and owed to the caller
	size        int // buf[:size] is valid; buf[filteredLen:size] is unfiltered tail
}

// NewState constructs a State for the block header filter id.
func NewState(id uint64) (*State, error) {
	f, err := GetFilter(id)
	if err != nil {
		return nil, err
	}
	return &State{filter: f}, nil
}

// Reset starts a fresh filtered block at stream position 0, discarding any
// carried-over tail.
func (s *State) Reset() {
	s.pos = 0
	s.done = false
	s.filteredLen = 0
	s.size = 0
}

func (s *State) shiftOut(n int) {
	copy(s.buf, s.buf[n:s.size])
	s.filteredLen -= n
	s.size -= n
	s.buf = s.buf[:s.size]
}

// Run decodes through lz into dict, filters the result, and delivers
// filtered bytes into output. It mirrors lzma2.Decoder.Run's own
// (consumedIn, producedOut, result, err) signature, inserting the filter
// pass between decode and delivery.
func (s *State) Run(lz *lzma2.Decoder, input, output []byte, dict *lzma.Dictionary) (consumedIn, producedOut int, result lzma2.Result, err error) {
	if s.filteredLen > 0 {
		n := copy(output, s.buf[:s.filteredLen])
		s.shiftOut(n)
		producedOut = n
		if s.filteredLen > 0 {
			return 0, producedOut, lzma2.NeedMoreData, nil
		}
		if s.done {
			return 0, producedOut, lzma2.EndOfChunkSequence, nil
		}
	}

	avail := len(output) - producedOut
	if avail == 0 {
		return 0, producedOut, lzma2.NeedMoreData, nil
	}

	// Decode at least a straddle buffer's worth even when the caller's
	// output window is tiny: the filter needs a run of whole instructions
	// in view before it can release anything, and a window smaller than
	// one instruction would otherwise never let it advance. Excess
	// filtered bytes wait in buf for the next call.
	window := avail
	if window < straddleSize {
		window = straddleSize
	}
	need := s.size + window
	if cap(s.buf) < need {
		grown := make([]byte, s.size, need)
		copy(grown, s.buf[:s.size])
		s.buf = grown
	}
	s.buf = s.buf[:cap(s.buf)]

	in, produced, res, derr := lz.Run(input, s.buf[s.size:need], dict)
	consumedIn = in
	if derr != nil {
		return consumedIn, producedOut, res, derr
	}
	s.size += produced
	s.buf = s.buf[:s.size]

	filtered := s.filter.Apply(s.pos, s.buf)
	if res == lzma2.EndOfChunkSequence {
		filtered = s.size
		s.done = true
	}
	s.pos += uint32(filtered)
	s.filteredLen = filtered

	n := copy(output[producedOut:], s.buf[:s.filteredLen])
	s.shiftOut(n)
	producedOut += n

	if s.filteredLen > 0 {
		return consumedIn, producedOut, lzma2.NeedMoreData, nil
	}
	if s.done {
		return consumedIn, producedOut, lzma2.EndOfChunkSequence, nil
	}
	return consumedIn, producedOut, lzma2.NeedMoreData, nil
}
