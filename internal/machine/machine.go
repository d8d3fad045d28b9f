/*
 * um - Execution engine
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

// Package machine implements the UM's fetch/decode/execute loop: the
// program counter, the eight general registers, the fourteen opcode
// bodies, and the fault taxonomy that terminates execution. It drives
// the segment.Store for every memory access and reads/writes a pair of
// host byte streams for Input/Output.
package machine

import (
	"errors"
	"fmt"
	"io"

	"github.com/umcore/um/internal/decode"
	"github.com/umcore/um/internal/segment"
)

// NumRegisters is the number of general-purpose registers.
const NumRegisters = 8

// ErrHalted is returned internally by the Halt opcode body to unwind
// the dispatch loop; Run translates it into a nil (successful) return.
// It is never surfaced to a caller of Run.
var ErrHalted = errors.New("um: halted")

// Fault is a fatal execution fault: division by zero, output of a
// non-byte value, a failed host read or write, a fetch past the end of
// segment 0, or an opcode outside 0-13. Invalid memory operations are
// reported by the segment store as a *segment.Fault instead. Every
// fault terminates the machine; there is no recovery or UM-visible trap.
type Fault struct {
	msg string
}

func (f *Fault) Error() string { return f.msg }

func fault(format string, args ...any) *Fault {
	return &Fault{msg: fmt.Sprintf(format, args...)}
}

// Machine holds the complete state of one UM: its registers, program
// counter, owned segment store, and the host streams used by Input and
// Output. All state lives in this one aggregate; nothing here is a
// package-level singleton.
type Machine struct {
	Regs [NumRegisters]uint32
	PC   uint32

	segments *segment.Store
	in       io.Reader
	out      io.Writer

	table [decode.NumOpcodes]func(*Machine, decode.Instruction) error
}

// New creates a Machine whose segment 0 holds program, reading Input
// bytes from in and writing Output bytes to out.
func New(program []uint32, in io.Reader, out io.Writer) *Machine {
	m := &Machine{
		segments: segment.New(program),
		in:       in,
		out:      out,
	}
	m.buildTable()
	return m
}

// buildTable installs the computed dispatch table: a dense array of
// bound methods indexed by opcode, built once so the hot loop never
// branches on opcode value beyond a single array index.
func (m *Machine) buildTable() {
	m.table = [decode.NumOpcodes]func(*Machine, decode.Instruction) error{
		decode.OpConditionalMove: (*Machine).opConditionalMove,
		decode.OpSegmentedLoad:   (*Machine).opSegmentedLoad,
		decode.OpSegmentedStore:  (*Machine).opSegmentedStore,
		decode.OpAdd:             (*Machine).opAdd,
		decode.OpMultiply:        (*Machine).opMultiply,
		decode.OpDivide:          (*Machine).opDivide,
		decode.OpNotAnd:          (*Machine).opNotAnd,
		decode.OpHalt:            (*Machine).opHalt,
		decode.OpMapSegment:      (*Machine).opMapSegment,
		decode.OpUnmapSegment:    (*Machine).opUnmapSegment,
		decode.OpOutput:          (*Machine).opOutput,
		decode.OpInput:           (*Machine).opInput,
		decode.OpLoadProgram:     (*Machine).opLoadProgram,
		decode.OpLoadValue:       (*Machine).opLoadValue,
	}
}

// Run drives the fetch/decode/execute loop until Halt (returns nil) or
// a fatal fault (returns a non-nil error: a *Fault, or the
// *segment.Fault of an invalid memory operation).
func (m *Machine) Run() error {
	for {
		word, err := m.fetch()
		if err != nil {
			return err
		}
		instr := decode.Decode(word)
		if !decode.Valid(instr.Op) {
			return fault("unknown opcode %d at pc=%d", instr.Op, m.PC)
		}
		if err := m.table[instr.Op](m, instr); err != nil {
			if errors.Is(err, ErrHalted) {
				return nil
			}
			return err
		}
		if instr.Op != decode.OpLoadProgram {
			m.PC++
		}
	}
}

// fetch reads the instruction word at PC from segment 0.
func (m *Machine) fetch() (uint32, error) {
	if m.PC >= m.segments.Len() {
		return 0, fault("pc %d beyond segment 0 length %d", m.PC, m.segments.Len())
	}
	return m.segments.Read(segment.ProgramID, m.PC)
}

func (m *Machine) opConditionalMove(in decode.Instruction) error {
	if m.Regs[in.C] != 0 {
		m.Regs[in.A] = m.Regs[in.B]
	}
	return nil
}

func (m *Machine) opSegmentedLoad(in decode.Instruction) error {
	v, err := m.segments.Read(m.Regs[in.B], m.Regs[in.C])
	if err != nil {
		return err
	}
	m.Regs[in.A] = v
	return nil
}

func (m *Machine) opSegmentedStore(in decode.Instruction) error {
	return m.segments.Write(m.Regs[in.A], m.Regs[in.B], m.Regs[in.C])
}

func (m *Machine) opAdd(in decode.Instruction) error {
	m.Regs[in.A] = m.Regs[in.B] + m.Regs[in.C]
	return nil
}

func (m *Machine) opMultiply(in decode.Instruction) error {
	m.Regs[in.A] = m.Regs[in.B] * m.Regs[in.C]
	return nil
}

func (m *Machine) opDivide(in decode.Instruction) error {
	if m.Regs[in.C] == 0 {
		return fault("division by zero at pc=%d", m.PC)
	}
	m.Regs[in.A] = m.Regs[in.B] / m.Regs[in.C]
	return nil
}

func (m *Machine) opNotAnd(in decode.Instruction) error {
	m.Regs[in.A] = ^(m.Regs[in.B] & m.Regs[in.C])
	return nil
}

func (m *Machine) opHalt(decode.Instruction) error {
	return ErrHalted
}

func (m *Machine) opMapSegment(in decode.Instruction) error {
	id := m.segments.Allocate(m.Regs[in.C])
	m.Regs[in.B] = id
	return nil
}

func (m *Machine) opUnmapSegment(in decode.Instruction) error {
	return m.segments.Free(m.Regs[in.C])
}

func (m *Machine) opOutput(in decode.Instruction) error {
	v := m.Regs[in.C]
	if v > 0xFF {
		return fault("output value %d exceeds a byte at pc=%d", v, m.PC)
	}
	if _, err := m.out.Write([]byte{byte(v)}); err != nil {
		return fault("output write failed: %v", err)
	}
	return nil
}

func (m *Machine) opInput(in decode.Instruction) error {
	var b [1]byte
	_, err := io.ReadFull(m.in, b[:])
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		m.Regs[in.C] = 0xFFFFFFFF
	case err != nil:
		return fault("input read failed: %v", err)
	default:
		m.Regs[in.C] = uint32(b[0])
	}
	return nil
}

func (m *Machine) opLoadProgram(in decode.Instruction) error {
	if err := m.segments.LoadProgram(m.Regs[in.B]); err != nil {
		return err
	}
	m.PC = m.Regs[in.C]
	return nil
}

func (m *Machine) opLoadValue(in decode.Instruction) error {
	m.Regs[in.A] = in.Value
	return nil
}
