package avr

import "testing"

func TestIncOverflowAtMax(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x9403) // INC R0
	m.SetGPReg(0, 0x7F)

	stepInstr(m)

	if got := m.GPReg(0); got != 0x80 {
		t.Fatalf("R0 = %#x, want 0x80", got)
	}
	if !m.Flag(FlagV) {
		t.Fatal("INC 0x7F must set overflow")
	}
}

func TestIncNoOverflowAfterWrap(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x9403) // INC R0
	m.SetGPReg(0, 0xFF)

	stepInstr(m)

	if got := m.GPReg(0); got != 0x00 {
		t.Fatalf("R0 = %#x, want 0x00", got)
	}
	if m.Flag(FlagV) {
		t.Fatal("INC 0xFF must not set overflow")
	}
	if !m.Flag(FlagZ) {
		t.Fatal("INC 0xFF -> 0x00 must set zero")
	}
}

func TestDecOverflowAtMin(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x940A) // DEC R0
	m.SetGPReg(0, 0x80)

	stepInstr(m)

	if got := m.GPReg(0); got != 0x7F {
		t.Fatalf("R0 = %#x, want 0x7F", got)
	}
	if !m.Flag(FlagV) {
		t.Fatal("DEC 0x80 must set overflow")
	}
}

func TestAndClearsCarryUntouched(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x2001) // AND R0, R1 (d=0, r=1)
	m.SetGPReg(0, 0xF0)
	m.SetGPReg(1, 0x0F)
	m.SetFlag(FlagC, true)

	stepInstr(m)

	if got := m.GPReg(0); got != 0x00 {
		t.Fatalf("R0 = %#x, want 0x00", got)
	}
	if !m.Flag(FlagC) {
		t.Fatal("AND must not touch carry")
	}
	if m.Flag(FlagV) {
		t.Fatal("AND must clear overflow")
	}
}

func TestComSetsCarryAlways(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x9400) // COM R0
	m.SetGPReg(0, 0x00)
	m.SetFlag(FlagC, false)

	stepInstr(m)

	if got := m.GPReg(0); got != 0xFF {
		t.Fatalf("R0 = %#x, want 0xFF", got)
	}
	if !m.Flag(FlagC) {
		t.Fatal("COM always sets carry")
	}
}

func TestNegOfZeroClearsCarry(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x9401) // NEG R0
	m.SetGPReg(0, 0x00)

	stepInstr(m)

	if got := m.GPReg(0); got != 0x00 {
		t.Fatalf("R0 = %#x, want 0x00", got)
	}
	if m.Flag(FlagC) {
		t.Fatal("NEG of 0 must clear carry")
	}
}
