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
	"errors"
	"fmt"

	"github.com/nmoshiri/go-xz/internal/bcj"
	"github.com/nmoshiri/go-xz/internal/lzma"
	"github.com/nmoshiri/go-xz/internal/lzma2"
)

// Non-fatal errors. Every other error returned by Decode is fatal and
// poisons the Decoder until Reset is called.
var (
	// ErrNeedsLargerInputBuffer is returned when a Decode call cannot make
	// progress with the input and output it was given: the caller must
	// supply more input bytes, a larger output slice, or both, and call
	// again. It is the only error that does not poison the decoder.
	ErrNeedsLargerInputBuffer = errors.New("xz: need more input or a larger output buffer to make progress")

	// ErrNeedsReset is returned by Decode after a fatal error or after the
	// end of the stream was reached; call Reset before decoding again.
	ErrNeedsReset = errors.New("xz: decoder needs a reset before further use")
)

// Framing errors.
var (
	ErrStreamHeaderMagicMismatch      = errors.New("xz: stream header magic number mismatch")
	ErrUnsupportedStreamHeaderOption  = errors.New("xz: unsupported stream header option")
	ErrFooterMagicMismatch            = errors.New("xz: stream footer magic number mismatch")
	ErrFooterCheckTypeMismatch        = errors.New("xz: stream footer check type disagrees with stream header")
	ErrFooterIndexSizeMismatch        = errors.New("xz: stream footer backward size disagrees with decoded index size")
	ErrBlockHeaderTooSmall            = errors.New("xz: block header too small for its declared fields")
	ErrUnsupportedBlockHeaderOption   = errors.New("xz: unsupported block header option")
	ErrBCJFilterWithOffsetUnsupported = errors.New("xz: bcj filter with a start offset is not supported")
	ErrDeltaFilterUnsupported         = errors.New("xz: delta filter is not supported")
)

// Payload integrity errors.
var (
	ErrCorruptedData                = errors.New("xz: corrupted data")
	ErrCorruptedDataInBlockIndex    = errors.New("xz: corrupted data in block index")
	ErrCorruptedCompressedSizeVLI   = errors.New("xz: corrupted compressed-size field in block header")
	ErrCorruptedUncompressedSizeVLI = errors.New("xz: corrupted uncompressed-size field in block header")
	ErrMoreDataThanHeaderIndicated  = errors.New("xz: block body is larger than its header indicated")
	ErrLessDataThanHeaderIndicated  = errors.New("xz: block body is smaller than its header indicated")
)

// Errors surfaced from the inner LZMA2/LZMA layers, re-exported here so
// callers can match them without importing internal packages.
var (
	ErrCorruptedDataInLZMA         = lzma2.ErrCorruptedData
	ErrLZMADictionaryResetExpected = lzma2.ErrDictionaryResetExpected
	ErrLZMAPropertiesMissing       = lzma2.ErrPropertiesMissing
	ErrLZMAPropertiesInvalid       = lzma.ErrPropertiesInvalid
	ErrLZMAPropertiesTooLarge      = lzma.ErrPropertiesTooLarge
	ErrDictionaryOverflow          = lzma.ErrDictionaryOverflow
)

// DictionaryTooLargeError reports that a block declared a dictionary size
// beyond what the Decoder was constructed to hold.
type DictionaryTooLargeError = lzma.DictionaryTooLargeError

// UnsupportedBCJFilterError reports a block header filter id with no
// supported BCJ filter behind it.
type UnsupportedBCJFilterError = bcj.UnsupportedFilterError

// UnsupportedLZMA2PropertiesError reports an out-of-range LZMA2
// dictionary-size properties byte in a block header.
type UnsupportedLZMA2PropertiesError = lzma2.UnsupportedPropertiesError

// UnsupportedCheckTypeError reports a stream header check-type id that is
// reserved by the format but not decodable (2-3, 5-9, 11-15).
type UnsupportedCheckTypeError struct{ ID byte }

func (e UnsupportedCheckTypeError) Error() string {
	return fmt.Sprintf("xz: unsupported check type %d", e.ID)
}

// CRC32MismatchError reports a failed CRC32 over one of the framing
// structures that carry their own checksum. Field names the structure:
// "stream header", "block header", or "footer".
type CRC32MismatchError struct {
	Field string
	Got   uint32
	Want  uint32
}

func (e CRC32MismatchError) Error() string {
	return fmt.Sprintf("xz: %s crc32 mismatch: got %#08x, want %#08x", e.Field, e.Got, e.Want)
}

// CheckMismatchError reports decoded content whose integrity check value
// disagrees with the one stored in the stream. Kind is "crc32", "crc64",
// "sha256", or "index crc32"; Got and Want hold the check-sized values,
// little-endian for the CRC kinds.
type CheckMismatchError struct {
	Kind string
	Got  []byte
	Want []byte
}

func (e CheckMismatchError) Error() string {
	return fmt.Sprintf("xz: %s check mismatch: got %x, want %x", e.Kind, e.Got, e.Want)
}
