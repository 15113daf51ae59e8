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

func init() { RegisterFilter(IDSparc, func() Filter { return sparcFilter{} }) }

// sparcFilter rewrites SPARC CALL instructions. It carries no state
// between calls.
type sparcFilter struct{}

func (sparcFilter) Apply(sPos uint32, buf []byte) int {
	i := 0
	size := len(buf) &^ 3
	for i < size {
		instr := uint32(buf[i])<<24 | uint32(buf[i+1])<<16 | uint32(buf[i+2])<<8 | uint32(buf[i+3])
		if instr>>22 == 0x100 || instr>>22 == 0x1ff {
			instr <<= 2
			instr -= sPos + uint32(i)
			instr >>= 2
			instr = (0x40000000 - (instr & 0x00400000)) | 0x40000000 | (instr & 0x003fffff)
			buf[i] = byte(instr >> 24)
			buf[i+1] = byte(instr >> 16)
			buf[i+2] = byte(instr >> 8)
			buf[i+3] = byte(instr)
		}
		i += 4
	}
	return i
}
