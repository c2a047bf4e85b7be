package avr

import "testing"

func TestAsrPreservesSign(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x9405) // ASR R0
	m.SetGPReg(0, 0x80)     // -128

	stepInstr(m)

	if got := m.GPReg(0); got != 0xC0 {
		t.Fatalf("R0 = %#x, want 0xC0 (sign-preserved shift)", got)
	}
	if !m.Flag(FlagN) {
		t.Fatal("ASR of a negative value must leave N set")
	}
}

func TestAsrSignFlagUsesThisShiftsOwnOverflowNotAStaleOne(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x9405) // ASR R0
	m.SetGPReg(0, 0x80)
	m.SetFlag(FlagV, false) // stale V left over from some earlier instruction

	stepInstr(m)

	// rd=0x80 -> r=0xC0: N=1, C=(rd&1)=0, so this shift's own V is N!=C=1,
	// and S must be N^V using that fresh V, not the stale V=0 above.
	if !m.Flag(FlagN) {
		t.Fatal("ASR of 0x80 must set N")
	}
	if !m.Flag(FlagV) {
		t.Fatal("ASR must set V from N!=C for this shift, got V clear")
	}
	if m.Flag(FlagS) {
		t.Fatal("S must be N^V using this shift's own V (1^1=0), not a stale one")
	}
}

func TestLsrShiftsInZero(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x9406) // LSR R0
	m.SetGPReg(0, 0x01)

	stepInstr(m)

	if got := m.GPReg(0); got != 0x00 {
		t.Fatalf("R0 = %#x, want 0x00", got)
	}
	if !m.Flag(FlagC) {
		t.Fatal("LSR must shift the lost bit into carry")
	}
	if !m.Flag(FlagZ) {
		t.Fatal("LSR 0x01 -> 0x00 must set zero")
	}
}

func TestRorRotatesThroughCarry(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x9407) // ROR R0
	m.SetGPReg(0, 0x00)
	m.SetFlag(FlagC, true)

	stepInstr(m)

	if got := m.GPReg(0); got != 0x80 {
		t.Fatalf("R0 = %#x, want 0x80 (incoming carry rotated into bit 7)", got)
	}
	if m.Flag(FlagC) {
		t.Fatal("ROR must move bit 0 (0) into carry")
	}
}

func TestSwapExchangesNibbles(t *testing.T) {
	m := newTestMachine()
	loadWords(m, 0, 0x9402) // SWAP R0
	m.SetGPReg(0, 0xA5)

	stepInstr(m)

	if got := m.GPReg(0); got != 0x5A {
		t.Fatalf("R0 = %#x, want 0x5A", got)
	}
}
