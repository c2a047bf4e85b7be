package avr

import "testing"

func TestBsetSetsArbitraryFlag(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x9478) // BSET 7 (I flag) -- s=(w>>4)&0x07
	stepInstr(m)

	if !m.Flag(FlagI) {
		t.Fatal("BSET 7 must set the global interrupt flag")
	}
}

func TestBclrClearsArbitraryFlag(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x94F8) // BCLR 7
	m.SetFlag(FlagI, true)

	stepInstr(m)

	if m.Flag(FlagI) {
		t.Fatal("BCLR 7 must clear the global interrupt flag")
	}
}

func TestBstBldRoundTrip(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0xFA05, 0xF815) // BST R0,5 ; BLD R1,5
	m.SetGPReg(0, 1<<5)
	m.SetGPReg(1, 0x00)

	stepInstr(m)
	if !m.Flag(FlagT) {
		t.Fatal("BST should have copied bit 5 of R0 into T")
	}
	stepInstr(m)
	if got := m.GPReg(1); got != 1<<5 {
		t.Fatalf("R1 = %#x, want bit 5 set from BLD", got)
	}
}

func TestSbiCbiRoundTrip(t *testing.T) {
	m := newTestMachine()
	// PORTB is sfr(0x05) on the 328p profile; I/O instructions address
	// relative to IOStart.
	portB := uint8(0x05)
	loadWords(m, 0, 0x9A28, 0x9828) // SBI 0x05,0 ; CBI 0x05,0
	_ = portB

	stepInstr(m)
	addr := uint16(m.Profile.IOStart) + 0x05
	if m.DM[addr]&0x01 == 0 {
		t.Fatal("SBI should have set bit 0")
	}
	stepInstr(m)
	if m.DM[addr]&0x01 != 0 {
		t.Fatal("CBI should have cleared bit 0")
	}
}

func Test32BitSkipAdvancesPastFullInstruction(t *testing.T) {
	m := newTestMachine()
	// CPSE R0,R0 (always equal -> always skips) followed by a 32-bit CALL,
	// then a NOP. The skip must jump clear over both words of CALL.
	loadWords(m, 0,
		0x1000,           // CPSE R0, R0
		0x940E, 0x0000,   // CALL 0x0000 (32-bit, skipped over)
		0x0000,           // NOP, should be the one actually reached next
	)

	stepInstr(m)

	if m.PC != 6 {
		t.Fatalf("PC = %d, want 6 (skip over both words of the 32-bit CALL)", m.PC)
	}
}

func TestSbrcSkipsWhenBitClear(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0,
		0xFC00, // SBRC R0, 0
		0x0000, // NOP, skipped
		0x0000, // NOP, landing point
	)
	m.SetGPReg(0, 0x00) // bit 0 clear -> skip taken

	stepInstr(m)

	if m.PC != 4 {
		t.Fatalf("PC = %d, want 4", m.PC)
	}
}

func TestSbrcCyclesWhenNotTaken(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0xFC00, 0x0000) // SBRC R0, 0 ; NOP
	m.SetGPReg(0, 0x01)             // bit 0 set -> skip not taken

	if got := stepInstrCycles(m); got != 1 {
		t.Fatalf("SBRC not taken took %d cycles, want 1", got)
	}
}

func TestSbrcCyclesWhenTakenOverOneWord(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0xFC00, 0x0000, 0x0000) // SBRC R0, 0 ; NOP (skipped) ; NOP
	m.SetGPReg(0, 0x00)                     // bit 0 clear -> skip taken

	if got := stepInstrCycles(m); got != 2 {
		t.Fatalf("SBRC taken over a 1-word instruction took %d cycles, want 2", got)
	}
}

func TestSbrcCyclesWhenTakenOverTwoWordInstruction(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0,
		0xFC00,         // SBRC R0, 0
		0x940E, 0x0000, // CALL 0x0000 (32-bit, skipped over)
		0x0000,         // NOP, landing point
	)
	m.SetGPReg(0, 0x00) // bit 0 clear -> skip taken

	if got := stepInstrCycles(m); got != 3 {
		t.Fatalf("SBRC taken over a 32-bit instruction took %d cycles, want 3", got)
	}
}

func TestSbicCyclesMirrorSbrc(t *testing.T) {
	m := newTestMachine()
	ioAddr := uint8(0x05) // PORTB
	loadWords(m, 0,
		0x9900|(uint16(ioAddr)<<3), // SBIC 0x05, 0
		0x940E, 0x0000,             // CALL (32-bit, skipped over)
		0x0000,
	)
	addr := uint16(m.Profile.IOStart) + uint16(ioAddr)
	m.DM[addr] = 0x00 // bit 0 clear -> skip taken

	if got := stepInstrCycles(m); got != 3 {
		t.Fatalf("SBIC taken over a 32-bit instruction took %d cycles, want 3", got)
	}
}
