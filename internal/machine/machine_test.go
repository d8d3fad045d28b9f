package machine

import (
	"bytes"
	"strings"
	"testing"
)

func word(op uint32, a, b, c uint8) uint32 {
	return op<<28 | uint32(a)<<6 | uint32(b)<<3 | uint32(c)
}

func loadValue(reg uint8, v uint32) uint32 {
	return 13<<28 | uint32(reg)<<25 | (v & 0x1FFFFFF)
}

func TestHaltAlone(t *testing.T) {
	m := New([]uint32{0x70000000}, strings.NewReader(""), &bytes.Buffer{})
	if err := m.Run(); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
}

func TestEmitAThenHalt(t *testing.T) {
	var out bytes.Buffer
	program := []uint32{
		loadValue(1, 0x41),
		word(10, 0, 0, 1), // Output R1
		0x70000000,        // Halt
	}
	m := New(program, strings.NewReader(""), &out)
	if err := m.Run(); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if out.String() != "A" {
		t.Errorf("output = %q, want %q", out.String(), "A")
	}
}

func TestArithmeticModuloAndOutputFault(t *testing.T) {
	program := []uint32{
		loadValue(0, 255),
		loadValue(1, 2),
		word(3, 2, 0, 1),  // Add R2, R0, R1 -> 257
		word(10, 0, 0, 2), // Output R2 -> fault, > 255
		0x70000000,
	}
	m := New(program, strings.NewReader(""), &bytes.Buffer{})
	err := m.Run()
	if err == nil {
		t.Fatal("Run() succeeded, want fault from Output(257)")
	}
	if m.Regs[2] != 257 {
		t.Errorf("R2 = %d, want 257", m.Regs[2])
	}
}

func TestDivideByOneLeavesOperandUnchanged(t *testing.T) {
	program := []uint32{
		loadValue(0, 42),
		loadValue(1, 1),
		word(5, 2, 0, 1), // Divide R2, R0, R1
		0x70000000,
	}
	m := New(program, strings.NewReader(""), &bytes.Buffer{})
	if err := m.Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if m.Regs[2] != 42 {
		t.Errorf("R2 = %d, want 42", m.Regs[2])
	}
}

func TestDivideByZeroFaults(t *testing.T) {
	program := []uint32{
		loadValue(0, 10),
		loadValue(1, 0),
		word(5, 2, 0, 1),
		0x70000000,
	}
	m := New(program, strings.NewReader(""), &bytes.Buffer{})
	if err := m.Run(); err == nil {
		t.Fatal("Run() succeeded, want division-by-zero fault")
	}
}

func TestNotAndSelfComplementAndInvolution(t *testing.T) {
	program := []uint32{
		loadValue(0, 0x0F0F0F),
		word(6, 1, 0, 0), // NotAnd R1, R0, R0 -> ^R0
		word(6, 2, 1, 1), // NotAnd R2, R1, R1 -> ^R1 == R0
		0x70000000,
	}
	m := New(program, strings.NewReader(""), &bytes.Buffer{})
	if err := m.Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if m.Regs[1] != ^uint32(0x0F0F0F) {
		t.Errorf("R1 = %#x, want %#x", m.Regs[1], ^uint32(0x0F0F0F))
	}
	if m.Regs[2] != 0x0F0F0F {
		t.Errorf("R2 = %#x, want 0x0F0F0F (involution)", m.Regs[2])
	}
}

func TestOutputBoundaryValues(t *testing.T) {
	var out bytes.Buffer
	program := []uint32{
		loadValue(0, 0),
		word(10, 0, 0, 0), // Output 0 -> NUL
		loadValue(1, 255),
		word(10, 0, 0, 1), // Output 255 -> 0xFF
		0x70000000,
	}
	m := New(program, strings.NewReader(""), &out)
	if err := m.Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	got := out.Bytes()
	if len(got) != 2 || got[0] != 0x00 || got[1] != 0xFF {
		t.Errorf("output = % x, want [00 ff]", got)
	}
}

func TestMapUnmapRemapCycle(t *testing.T) {
	prog := []uint32{
		loadValue(3, 3),            // R3 = 3 (length)
		word(8, 0, 1, 3),           // MapSegment: R1 = alloc(R3)
		loadValue(4, 0xDEAD),       // R4 = 0xDEAD
		loadValue(5, 0x10000),      // R5 = 0x10000
		word(4, 4, 4, 5),           // Multiply: R4 = 0xDEAD0000
		loadValue(5, 0xBEEF),       // R5 = 0xBEEF
		word(3, 4, 4, 5),           // Add: R4 = 0xDEADBEEF (value)
		loadValue(0, 0),            // R0 = 0 (offset)
		word(2, 1, 0, 4),           // SegmentedStore: M[R1][R0] = R4
		word(1, 2, 1, 0),           // SegmentedLoad: R2 = M[R1][R0]
		word(9, 0, 0, 1),           // UnmapSegment(R1)
		word(8, 0, 5, 3),           // MapSegment again -> R5 (reused id)
		0x70000000,
	}
	m := New(prog, strings.NewReader(""), &bytes.Buffer{})
	if err := m.Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if m.Regs[2] != 0xDEADBEEF {
		t.Errorf("R2 = %#x, want 0xDEADBEEF", m.Regs[2])
	}
	if m.Regs[5] != m.Regs[1] {
		t.Errorf("reused id R5 = %d, want %d (same as freed R1)", m.Regs[5], m.Regs[1])
	}
}

func TestSelfModifyingLoadProgramJump(t *testing.T) {
	// Build a fresh 1-word halting program into a mapped segment, then
	// LoadProgram from it at offset 0.
	prog := []uint32{
		loadValue(3, 1),          // R3 = 1 word
		word(8, 0, 1, 3),         // R1 = alloc(1)
		loadValue(4, 0x7000),     // R4 = 0x7000
		loadValue(5, 0x10000),    // R5 = 0x10000
		word(4, 4, 4, 5),         // R4 = 0x70000000 (Halt instruction)
		loadValue(0, 0),          // R0 = 0 (store offset)
		word(2, 1, 0, 4),         // M[R1][0] = Halt
		loadValue(2, 0),          // R2 = 0 (jump offset)
		word(12, 0, 1, 2),        // LoadProgram(R1, R2): copy R1 into seg0, PC=R2=0
	}
	m := New(prog, strings.NewReader(""), &bytes.Buffer{})
	if err := m.Run(); err != nil {
		t.Fatalf("Run() = %v, want halt from copied program", err)
	}
}

func TestInputEndOfStreamYieldsAllOnes(t *testing.T) {
	program := []uint32{
		word(11, 0, 0, 1), // Input -> R1
		0x70000000,
	}
	m := New(program, strings.NewReader(""), &bytes.Buffer{})
	if err := m.Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if m.Regs[1] != 0xFFFFFFFF {
		t.Errorf("R1 = %#x, want 0xFFFFFFFF", m.Regs[1])
	}
}

func TestInputReadsByteThenEOF(t *testing.T) {
	program := []uint32{
		word(11, 0, 0, 1), // Input -> R1 ('Z')
		word(11, 0, 0, 2), // Input -> R2 (EOF)
		0x70000000,
	}
	m := New(program, bytes.NewReader([]byte{'Z'}), &bytes.Buffer{})
	if err := m.Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if m.Regs[1] != uint32('Z') {
		t.Errorf("R1 = %#x, want 'Z'", m.Regs[1])
	}
	if m.Regs[2] != 0xFFFFFFFF {
		t.Errorf("R2 = %#x, want 0xFFFFFFFF", m.Regs[2])
	}
}

func TestConditionalMove(t *testing.T) {
	program := []uint32{
		loadValue(0, 10),
		loadValue(1, 20),
		loadValue(2, 1),
		word(0, 0, 1, 2), // ConditionalMove: R2 != 0, so R0 = R1
		0x70000000,
	}
	m := New(program, strings.NewReader(""), &bytes.Buffer{})
	if err := m.Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if m.Regs[0] != 20 {
		t.Errorf("R0 = %d, want 20", m.Regs[0])
	}
}

func TestConditionalMoveSkippedWhenZero(t *testing.T) {
	program := []uint32{
		loadValue(0, 10),
		loadValue(1, 20),
		word(0, 0, 1, 2), // R2 == 0, no move
		0x70000000,
	}
	m := New(program, strings.NewReader(""), &bytes.Buffer{})
	if err := m.Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if m.Regs[0] != 10 {
		t.Errorf("R0 = %d, want 10 (unchanged)", m.Regs[0])
	}
}

func TestUnknownOpcodeFaults(t *testing.T) {
	m := New([]uint32{14 << 28}, strings.NewReader(""), &bytes.Buffer{})
	if err := m.Run(); err == nil {
		t.Fatal("Run() succeeded on opcode 14, want fault")
	}
}

func TestFetchPastEndOfSegmentZeroFaults(t *testing.T) {
	// No Halt: PC runs off the end of a one-instruction, non-halting program.
	m := New([]uint32{loadValue(0, 1)}, strings.NewReader(""), &bytes.Buffer{})
	if err := m.Run(); err == nil {
		t.Fatal("Run() succeeded after running off the end of segment 0, want fault")
	}
}

func TestOutOfBoundsSegmentAccessFaults(t *testing.T) {
	prog := []uint32{
		loadValue(1, 0),   // R1 = 0 (segment id, the program segment)
		loadValue(2, 999), // R2 = 999 (far out of bounds offset)
		word(1, 0, 1, 2),  // SegmentedLoad R0 = M[R1][R2] -> fault
		0x70000000,
	}
	m := New(prog, strings.NewReader(""), &bytes.Buffer{})
	if err := m.Run(); err == nil {
		t.Fatal("Run() succeeded on out-of-bounds segmented load, want fault")
	}
}

func TestRegistersStayWithinWordRange(t *testing.T) {
	program := []uint32{
		loadValue(0, 0x1FFFFFF),
		loadValue(1, 0x1FFFFFF),
		word(4, 2, 0, 1), // Multiply: wraps modulo 2^32
		0x70000000,
	}
	m := New(program, strings.NewReader(""), &bytes.Buffer{})
	if err := m.Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	// (2^25 - 1)^2 = 2^50 - 2^26 + 1, which is 0xFC000001 modulo 2^32.
	want := uint32(0xFC000001)
	if m.Regs[2] != want {
		t.Errorf("R2 = %#x, want %#x", m.Regs[2], want)
	}
}
