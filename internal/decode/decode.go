/*
 * um - Instruction decoder
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

// Package decode splits a 32-bit UM instruction word into an opcode and
// its operand fields. It holds no state and performs no validation
// beyond field extraction; unknown opcodes are rejected by the caller.
package decode

// Op identifies one of the fourteen UM operations.
type Op uint8

// Opcode values, high 4 bits of the instruction word (bits 28-31).
const (
	OpConditionalMove Op = 0
	OpSegmentedLoad   Op = 1
	OpSegmentedStore  Op = 2
	OpAdd             Op = 3
	OpMultiply        Op = 4
	OpDivide          Op = 5
	OpNotAnd          Op = 6
	OpHalt            Op = 7
	OpMapSegment      Op = 8
	OpUnmapSegment    Op = 9
	OpOutput          Op = 10
	OpInput           Op = 11
	OpLoadProgram     Op = 12
	OpLoadValue       Op = 13
)

// NumOpcodes is the number of valid opcode values (0-13 inclusive).
const NumOpcodes = 14

// Instruction holds the decoded fields of one instruction word. For
// standard-form opcodes (0-12), A, B and C are register indices 0-7.
// For LoadValue (opcode 13), A is the destination register and Value
// holds the 25-bit immediate; B and C are unused.
type Instruction struct {
	Op    Op
	A     uint8
	B     uint8
	C     uint8
	Value uint32
}

// Field masks and shifts, standard form: bits 6-8 = A, bits 3-5 = B,
// bits 0-2 = C.
const (
	stdAShift  = 6
	stdBShift  = 3
	stdCShift  = 0
	stdRegMask = 0x7

	opShift = 28
	opMask  = 0xF

	lvAShift  = 25
	lvAMask   = 0x7
	lvValMask = 0x1FFFFFF // 25 bits
)

// Decode extracts the opcode and fields from a raw instruction word.
// It never fails: an opcode value outside 0-13 is returned as-is in
// Instruction.Op for the caller (the execution engine) to reject as a
// fatal fault.
func Decode(word uint32) Instruction {
	op := Op((word >> opShift) & opMask)
	if op == OpLoadValue {
		return Instruction{
			Op:    op,
			A:     uint8((word >> lvAShift) & lvAMask),
			Value: word & lvValMask,
		}
	}
	return Instruction{
		Op: op,
		A:  uint8((word >> stdAShift) & stdRegMask),
		B:  uint8((word >> stdBShift) & stdRegMask),
		C:  uint8((word >> stdCShift) & stdRegMask),
	}
}

// Valid reports whether op names one of the fourteen defined operations.
func Valid(op Op) bool {
	return op < NumOpcodes
}
