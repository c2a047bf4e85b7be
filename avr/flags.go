package avr

// SREGFlag is the closed set of eight status-register bits, encoded as a
// tagged variant per spec.md §9 rather than a raw bit index.
type SREGFlag uint8

const (
	FlagC SREGFlag = 1 << 0
	FlagZ SREGFlag = 1 << 1
	FlagN SREGFlag = 1 << 2
	FlagV SREGFlag = 1 << 3
	FlagS SREGFlag = 1 << 4
	FlagH SREGFlag = 1 << 5
	FlagT SREGFlag = 1 << 6
	FlagI SREGFlag = 1 << 7
)

// SREG reads the whole status byte.
func (m *Machine) SREG() byte { return m.DM[m.Profile.SREGAddr] }

func (m *Machine) SetSREG(v byte) { m.DM[m.Profile.SREGAddr] = v }

// Flag reads a single canonical status bit.
func (m *Machine) Flag(f SREGFlag) bool {
	return m.SREG()&byte(f) != 0
}

// SetFlag writes a single canonical status bit, leaving the other seven
// untouched.
func (m *Machine) SetFlag(f SREGFlag, v bool) {
	s := m.SREG()
	if v {
		s |= byte(f)
	} else {
		s &^= byte(f)
	}
	m.SetSREG(s)
}

func bit(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// addFlags applies the canonical SREG update rules for the add family
// (Rd + Rr [+ C]), per spec.md §4.1's table. carryIn is not consulted:
// for ADC the incoming carry is already part of r, and every flag is
// computed from rd, rr and r alone.
func (m *Machine) addFlags(rd, rr, r byte, carryIn bool) {
	aux := (rd&rr | rr&^r | ^r&rd)
	overflow := (rd&rr&^r | ^rd&^rr&r)
	m.setArithFlags(r, aux, overflow)
}

// subFlags applies the canonical SREG update rules for the sub family
// (Rd - Rr [- C]). clearZOnly, when true, implements the CPC/SBC
// asymmetry of spec.md §9(3): the zero flag is only ever cleared, never
// set, preserving multi-word subtract carry-chain semantics.
func (m *Machine) subFlags(rd, rr, r byte, clearZOnly bool) {
	aux := (^rd&rr | rr&r | r&^rd)
	overflow := (rd&^rr&^r | ^rd&rr&r)
	m.SetFlag(FlagC, aux&0x80 != 0)
	m.SetFlag(FlagH, aux&0x08 != 0)
	if clearZOnly {
		if r == 0 {
			// leave Z as-is (do not set)
		} else {
			m.SetFlag(FlagZ, false)
		}
	} else {
		m.SetFlag(FlagZ, r == 0)
	}
	m.SetFlag(FlagN, r&0x80 != 0)
	m.SetFlag(FlagV, overflow&0x80 != 0)
	m.updateS()
}

func (m *Machine) setArithFlags(r, aux, overflow byte) {
	m.SetFlag(FlagC, aux&0x80 != 0)
	m.SetFlag(FlagH, aux&0x08 != 0)
	m.SetFlag(FlagZ, r == 0)
	m.SetFlag(FlagN, r&0x80 != 0)
	m.SetFlag(FlagV, overflow&0x80 != 0)
	m.updateS()
}

// logicFlags applies the AND/OR common rule: C unaffected, V cleared,
// Z/N from the result.
func (m *Machine) logicFlags(r byte) {
	m.SetFlag(FlagZ, r == 0)
	m.SetFlag(FlagN, r&0x80 != 0)
	m.SetFlag(FlagV, false)
	m.updateS()
}

func (m *Machine) shiftRightFlags(rd, r byte) {
	m.SetFlag(FlagC, rd&0x01 != 0)
	m.SetFlag(FlagN, r&0x80 != 0)
	m.SetFlag(FlagZ, r == 0)
	m.SetFlag(FlagV, m.Flag(FlagN) != m.Flag(FlagC))
	m.updateS()
}

func (m *Machine) shiftLeftFlags(rd, r byte) {
	m.SetFlag(FlagC, rd&0x80 != 0)
	m.SetFlag(FlagZ, r == 0)
	m.SetFlag(FlagN, r&0x80 != 0)
	m.SetFlag(FlagV, m.Flag(FlagN) != m.Flag(FlagC))
	m.updateS()
}

func (m *Machine) incFlags(rd, r byte) {
	m.SetFlag(FlagZ, r == 0)
	m.SetFlag(FlagN, r&0x80 != 0)
	m.SetFlag(FlagV, rd == 0x7F)
	m.updateS()
}

func (m *Machine) decFlags(rd, r byte) {
	m.SetFlag(FlagZ, r == 0)
	m.SetFlag(FlagN, r&0x80 != 0)
	m.SetFlag(FlagV, rd == 0x80)
	m.updateS()
}

func (m *Machine) negFlags(rd, r, aux byte) {
	m.SetFlag(FlagC, r != 0)
	m.SetFlag(FlagH, aux&0x08 != 0)
	m.SetFlag(FlagZ, r == 0)
	m.SetFlag(FlagN, r&0x80 != 0)
	m.SetFlag(FlagV, r == 0x80)
	m.updateS()
}

func (m *Machine) comFlags(r byte) {
	m.SetFlag(FlagC, true)
	m.SetFlag(FlagZ, r == 0)
	m.SetFlag(FlagN, r&0x80 != 0)
	m.SetFlag(FlagV, false)
	m.updateS()
}

func (m *Machine) updateS() {
	m.SetFlag(FlagS, m.Flag(FlagN) != m.Flag(FlagV))
}

// widen16Flags applies the ADIW/SBIW 16-bit widened carry/overflow rule.
func (m *Machine) widen16Flags(before, after uint16, isAdd bool) {
	r := after
	m.SetFlag(FlagZ, r == 0)
	m.SetFlag(FlagN, r&0x8000 != 0)
	if isAdd {
		m.SetFlag(FlagV, before&0x8000 == 0 && after&0x8000 != 0)
		m.SetFlag(FlagC, after < before)
	} else {
		m.SetFlag(FlagV, before&0x8000 != 0 && after&0x8000 == 0)
		m.SetFlag(FlagC, after > before)
	}
	m.updateS()
}
