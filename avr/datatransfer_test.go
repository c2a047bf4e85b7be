package avr

import "testing"

func TestMovCopiesRegister(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x2C01) // MOV R0, R1
	m.SetGPReg(1, 0x42)

	stepInstr(m)

	if got := m.GPReg(0); got != 0x42 {
		t.Fatalf("R0 = %#x, want 0x42", got)
	}
}

func TestMovwRoundTrip(t *testing.T) {
	m := newTestMachine()
	// MOVW R25:R24, R17:R16 -> d field = 12 (pair index 12*2=24), r field = 8 (16)
	loadWords(m, 0, 0x01C8)
	m.SetRegPair(16, 0xBEEF)

	stepInstr(m)

	if got := m.RegPair(24); got != 0xBEEF {
		t.Fatalf("R25:R24 = %#x, want 0xBEEF", got)
	}
}

func TestLdiLoadsImmediate(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0xEA05) // LDI R16, 0xA5
	stepInstr(m)

	if got := m.GPReg(16); got != 0xA5 {
		t.Fatalf("R16 = %#x, want 0xA5", got)
	}
}

func TestInOutRoundTrip(t *testing.T) {
	m := newTestMachine()
	// OUT 0x05, R1 ; IN R2, 0x05
	loadWords(m, 0, 0xB815, 0xB025)
	m.SetGPReg(1, 0x77)

	stepInstr(m)
	addr := uint16(m.Profile.IOStart) + 0x05
	if m.DM[addr] != 0x77 {
		t.Fatalf("DM[%#x] = %#x, want 0x77 after OUT", addr, m.DM[addr])
	}
	stepInstr(m)
	if got := m.GPReg(2); got != 0x77 {
		t.Fatalf("R2 = %#x, want 0x77 after IN", got)
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x920F, 0x901F) // PUSH R0 ; POP R1
	m.SetGPReg(0, 0x5A)
	spBefore := m.SP()

	stepInstr(m)
	if m.SP() != spBefore-1 {
		t.Fatalf("SP after PUSH = %#x, want %#x", m.SP(), spBefore-1)
	}
	stepInstr(m)
	if got := m.GPReg(1); got != 0x5A {
		t.Fatalf("R1 = %#x, want 0x5A", got)
	}
	if m.SP() != spBefore {
		t.Fatalf("SP after POP = %#x, want %#x", m.SP(), spBefore)
	}
}

func TestLdsStsRoundTrip(t *testing.T) {
	m := newTestMachine()
	// STS 0x0150, R0 ; LDS R1, 0x0150
	loadWords(m, 0, 0x9200, 0x0150, 0x9010, 0x0150)
	m.SetGPReg(0, 0x33)

	stepInstr(m)
	if m.DM[0x0150] != 0x33 {
		t.Fatalf("DM[0x150] = %#x, want 0x33", m.DM[0x0150])
	}
	stepInstr(m)
	if got := m.GPReg(1); got != 0x33 {
		t.Fatalf("R1 = %#x, want 0x33", got)
	}
}

func TestStPostIncrementAdvancesPointer(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x920D) // ST X+, R0
	m.SetGPReg(0, 0x11)
	m.SetX(0x0200)

	stepInstr(m)

	if m.DM[0x0200] != 0x11 {
		t.Fatalf("DM[0x200] = %#x, want 0x11", m.DM[0x0200])
	}
	if m.X() != 0x0201 {
		t.Fatalf("X = %#x, want 0x0201 after post-increment", m.X())
	}
}

func TestLdPreDecrementMovesFirst(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x900E) // LD R0, -X
	m.SetX(0x0201)
	m.DM[0x0200] = 0x99

	stepInstr(m)

	if got := m.GPReg(0); got != 0x99 {
		t.Fatalf("R0 = %#x, want 0x99", got)
	}
	if m.X() != 0x0200 {
		t.Fatalf("X = %#x, want 0x0200 after pre-decrement", m.X())
	}
}

func TestLddSttDisplacementRoundTrip(t *testing.T) {
	m := newTestMachine()
	// STD Z+5, R0 ; LDD R1, Z+5
	loadWords(m, 0, 0x8205, 0x8015)
	m.SetZ(0x0300)
	m.SetGPReg(0, 0x7E)

	stepInstr(m)
	if m.DM[0x0305] != 0x7E {
		t.Fatalf("DM[0x305] = %#x, want 0x7E", m.DM[0x0305])
	}
	stepInstr(m)
	if got := m.GPReg(1); got != 0x7E {
		t.Fatalf("R1 = %#x, want 0x7E", got)
	}
}

func TestLpmReadsFlash(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x95C8) // LPM (implicit R0,Z)
	m.Flash[0x40] = 0x64
	m.SetZ(0x40)

	stepInstr(m)

	if got := m.GPReg(0); got != 0x64 {
		t.Fatalf("R0 = %#x, want 0x64", got)
	}
}

func TestXchSwapsMemoryAndRegister(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x9204) // XCH Z, R0
	m.SetZ(0x0100)
	m.DM[0x0100] = 0xAA
	m.SetGPReg(0, 0x55)

	stepInstr(m)

	if m.DM[0x0100] != 0x55 {
		t.Fatalf("DM[0x100] = %#x, want 0x55", m.DM[0x0100])
	}
	if got := m.GPReg(0); got != 0xAA {
		t.Fatalf("R0 = %#x, want 0xAA", got)
	}
}
