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

// Command xzconform cross-checks this module's decoder against an
// independent XZ implementation. It decodes every given .xz file twice,
// once with go-xz and once with github.com/ulikunitz/xz, and fails loudly
// on the first byte-level disagreement. With -sizes it also reports how
// the payload would fare under zstd, as a quick compression-ratio
// reference line for the corpus being checked.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	ulikunitz "github.com/ulikunitz/xz"

	goxz "github.com/nmoshiri/go-xz"
	"github.com/nmoshiri/go-xz/xzio"
)

var (
	chunkSize = flag.Int("chunk", 4096, "refill buffer size for the go-xz side")
	sizes     = flag.Bool("sizes", false, "also print xz vs zstd size comparison per file")
	quiet     = flag.Bool("q", false, "only print mismatches and errors")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <file.xz> [<file.xz> ...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Cross-checks go-xz against ulikunitz/xz on each file.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one input file required\n")
		flag.Usage()
		os.Exit(1)
	}

	failures := 0
	for _, path := range flag.Args() {
		if err := checkFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", path, err)
			failures++
			continue
		}
		if !*quiet {
			fmt.Printf("OK   %s\n", path)
		}
	}
	if failures > 0 {
		os.Exit(1)
	}
}

func checkFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := goxz.NewGrowable(goxz.DictSizeMin, goxz.DictSizePreset9)
	mine, err := io.ReadAll(xzio.NewReaderWithDecoder(f, *chunkSize, dec))
	if err != nil {
		return fmt.Errorf("go-xz: %w", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	or, err := ulikunitz.NewReader(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("ulikunitz/xz: %w", err)
	}
	theirs, err := io.ReadAll(or)
	if err != nil {
		return fmt.Errorf("ulikunitz/xz: %w", err)
	}

	if !bytes.Equal(mine, theirs) {
		n := len(mine)
		if len(theirs) < n {
			n = len(theirs)
		}
		i := 0
		for i < n && mine[i] == theirs[i] {
			i++
		}
		return fmt.Errorf("output mismatch: lengths %d vs %d, first difference at byte %d", len(mine), len(theirs), i)
	}

	if *sizes {
		zsize, err := zstdSize(mine)
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		fmt.Printf("     %s: raw %d, xz %d, zstd %d\n", path, len(mine), len(raw), zsize)
	}
	return nil
}

func zstdSize(payload []byte) (int, error) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return 0, err
	}
	if _, err := w.Write(payload); err != nil {
		w.Close()
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}
