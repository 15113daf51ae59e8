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

// Command xzdec decompresses a .xz file to stdout.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	xz "github.com/nmoshiri/go-xz"
	"github.com/nmoshiri/go-xz/xzio"
)

var (
	inputFile = flag.String("i", "", "input .xz file path (default: stdin)")
	dictMax   = flag.Int("dict-max", xz.DictSizePreset9, "largest dictionary size to allow, in bytes")
	bufSize   = flag.Int("buf", 64*1024, "refill buffer size in bytes")
	version   = flag.Bool("version", false, "print version and exit")
)

const appVersion = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-i <file.xz>] [options] > out\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Decompresses an XZ stream to stdout.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -i archive.tar.xz > archive.tar\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  curl -s https://example.com/data.xz | %s > data\n", os.Args[0])
	}
	flag.Parse()

	if *version {
		fmt.Printf("xzdec version %s\n", appVersion)
		os.Exit(0)
	}

	in := io.Reader(os.Stdin)
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	dec := xz.NewGrowable(xz.DictSizeMin, *dictMax)
	r := xzio.NewReaderWithDecoder(in, *bufSize, dec)
	if _, err := io.Copy(os.Stdout, r); err != nil {
		fmt.Fprintf(os.Stderr, "Error decompressing: %v\n", err)
		os.Exit(1)
	}
}
