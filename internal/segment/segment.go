/*
 * um - Segment store
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

// Package segment owns all UM memory segments: a mapping from a 32-bit
// identifier to a zero-filled word buffer, with identifier 0 reserved
// for the executing program. It implements the map/unmap/read/write
// primitives and the bulk copy used by LoadProgram.
package segment

import "fmt"

// ProgramID is the reserved identifier of the segment holding the
// executing program. It is never issued by Allocate and never accepted
// by Free.
const ProgramID uint32 = 0

// Fault reports an invalid segment operation: an out-of-bounds offset,
// or a reference to an identifier that is not currently live.
type Fault struct {
	msg string
}

func (f *Fault) Error() string { return f.msg }

func fault(format string, args ...any) *Fault {
	return &Fault{msg: fmt.Sprintf(format, args...)}
}

// Store owns every live segment. The zero value is not ready for use;
// construct one with New. A Store is not safe for concurrent use - the
// machine is strictly single-threaded, and segment state is owned by
// the Store instance rather than kept in package-level variables.
type Store struct {
	segments map[uint32][]uint32
	free     []uint32 // stack of freed identifiers, most-recently-freed last
	maxID    uint32
}

// New creates a Store whose only live segment is segment 0, holding a
// copy of program.
func New(program []uint32) *Store {
	seg0 := make([]uint32, len(program))
	copy(seg0, program)
	return &Store{
		segments: map[uint32][]uint32{ProgramID: seg0},
	}
}

// Allocate binds a fresh or reused identifier to a new zero-filled
// segment of the given length and returns the identifier. A length of
// zero is permitted; the resulting segment has no valid offsets.
func (s *Store) Allocate(length uint32) uint32 {
	var id uint32
	if n := len(s.free); n > 0 {
		id = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.maxID++
		id = s.maxID
	}
	s.segments[id] = make([]uint32, length)
	return id
}

// Free releases id back to the store for reuse. id must be nonzero
// and currently live.
func (s *Store) Free(id uint32) error {
	if id == ProgramID {
		return fault("segment: cannot free the program segment")
	}
	if _, ok := s.segments[id]; !ok {
		return fault("segment: free of unmapped segment %d", id)
	}
	delete(s.segments, id)
	s.free = append(s.free, id)
	return nil
}

// Read returns the word at offset within segment id.
func (s *Store) Read(id, offset uint32) (uint32, error) {
	seg, ok := s.segments[id]
	if !ok {
		return 0, fault("segment: read of unmapped segment %d", id)
	}
	if offset >= uint32(len(seg)) {
		return 0, fault("segment: read offset %d out of bounds in segment %d (length %d)", offset, id, len(seg))
	}
	return seg[offset], nil
}

// Write stores value at offset within segment id.
func (s *Store) Write(id, offset, value uint32) error {
	seg, ok := s.segments[id]
	if !ok {
		return fault("segment: write of unmapped segment %d", id)
	}
	if offset >= uint32(len(seg)) {
		return fault("segment: write offset %d out of bounds in segment %d (length %d)", offset, id, len(seg))
	}
	seg[offset] = value
	return nil
}

// LoadProgram replaces segment 0's contents with an independent copy
// of segment id. id == 0 is a no-op: this is both the machine's
// semantics for LoadProgram with R[B] == 0, and the "jump within the
// running program" fast path, since segment 0 is always identical to
// itself at the moment of the call and so never needs copying onto
// itself.
func (s *Store) LoadProgram(id uint32) error {
	if id == ProgramID {
		return nil
	}
	src, ok := s.segments[id]
	if !ok {
		return fault("segment: load-program from unmapped segment %d", id)
	}
	dst := make([]uint32, len(src))
	copy(dst, src)
	s.segments[ProgramID] = dst
	return nil
}

// Len returns the length, in words, of segment 0. It is used by the
// execution engine to bounds-check the program counter on fetch.
func (s *Store) Len() uint32 {
	return uint32(len(s.segments[ProgramID]))
}
