package avr

// ASR, LSR, ROR and SWAP. LSL and ROL are not separate opcodes: they are
// the assembler aliases ADD Rd,Rd and ADC Rd,Rd, already covered by
// tryArith's two-register ADD/ADC case.

func tryShift(c *fetchCtx) (*decoded, bool) {
	w := c.w
	d := uint8((w >> 4) & 0x1F)

	switch {
	case w&0xFE0F == 0x9405: // ASR Rd — preserves the sign bit
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			rd := m.GPReg(d)
			r := byte(int8(rd) >> 1)
			m.SetGPReg(d, r)
			m.shiftRightFlags(rd, r)
			advance(m, c.pc, 1)
		}}, true
	case w&0xFE0F == 0x9406: // LSR Rd
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			rd := m.GPReg(d)
			r := rd >> 1
			m.SetGPReg(d, r)
			m.shiftRightFlags(rd, r)
			advance(m, c.pc, 1)
		}}, true
	case w&0xFE0F == 0x9407: // ROR Rd — rotates through C
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			rd := m.GPReg(d)
			r := rd >> 1
			if m.Flag(FlagC) {
				r |= 0x80
			}
			m.SetGPReg(d, r)
			m.shiftRightFlags(rd, r)
			advance(m, c.pc, 1)
		}}, true
	case w&0xFE0F == 0x9402: // SWAP Rd
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			rd := m.GPReg(d)
			m.SetGPReg(d, (rd<<4)|(rd>>4))
			advance(m, c.pc, 1)
		}}, true
	}
	return nil, false
}
