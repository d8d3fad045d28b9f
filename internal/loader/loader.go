/*
 * um - Program image loader
 *
 * Copyright 2026, the um authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package loader turns a file path or a standard-input stream into
// the ordered sequence of 32-bit words that seeds segment 0. It never
// touches engine state directly.
package loader

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// wordSize is the number of bytes packed into one UM word.
const wordSize = 4

// Load reads an entire program image from r and assembles it into
// big-endian 32-bit words, with no header or trailer. The byte count
// must be a positive multiple of 4.
func Load(r io.Reader) ([]uint32, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("loader: read image: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("loader: empty program image")
	}
	if len(raw)%wordSize != 0 {
		return nil, fmt.Errorf("loader: image length %d is not a multiple of %d bytes", len(raw), wordSize)
	}
	words := make([]uint32, len(raw)/wordSize)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(raw[i*wordSize : i*wordSize+wordSize])
	}
	return words, nil
}

// LoadPath loads the program image from the named file, or from
// standard input when path is empty.
func LoadPath(path string) ([]uint32, error) {
	if path == "" {
		return Load(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}
