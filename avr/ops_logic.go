package avr

// Bitwise logic and single-register family: AND, ANDI, OR, ORI, EOR,
// COM, NEG, INC, DEC.

func tryLogic(c *fetchCtx) (*decoded, bool) {
	w := c.w

	switch {
	case w&0xFC00 == 0x2000: // AND Rd, Rr
		d, r := rdRr(w)
		return logicRR(c, d, r, func(rd, rr byte) byte { return rd & rr })
	case w&0xFC00 == 0x2800: // OR Rd, Rr
		d, r := rdRr(w)
		return logicRR(c, d, r, func(rd, rr byte) byte { return rd | rr })
	case w&0xFC00 == 0x2400: // EOR Rd, Rr
		d, r := rdRr(w)
		return logicRR(c, d, r, func(rd, rr byte) byte { return rd ^ rr })

	case w&0xF000 == 0x7000: // ANDI Rd(16-31), K
		d := uint8((w>>4)&0x0F) + 16
		k := immK8(w)
		return logicImm(c, d, k, func(rd, k byte) byte { return rd & k })
	case w&0xF000 == 0x6000: // ORI Rd(16-31), K (alias SBR)
		d := uint8((w>>4)&0x0F) + 16
		k := immK8(w)
		return logicImm(c, d, k, func(rd, k byte) byte { return rd | k })

	case w&0xFE0F == 0x9400: // COM Rd
		d := uint8((w >> 4) & 0x1F)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			r := ^m.GPReg(d)
			m.SetGPReg(d, r)
			m.comFlags(r)
			advance(m, c.pc, 1)
		}}, true
	case w&0xFE0F == 0x9401: // NEG Rd
		d := uint8((w >> 4) & 0x1F)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			rd := m.GPReg(d)
			r := byte(0) - rd
			aux := r | rd
			m.SetGPReg(d, r)
			m.negFlags(rd, r, aux)
			advance(m, c.pc, 1)
		}}, true
	case w&0xFE0F == 0x9403: // INC Rd
		d := uint8((w >> 4) & 0x1F)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			rd := m.GPReg(d)
			r := rd + 1
			m.SetGPReg(d, r)
			m.incFlags(rd, r)
			advance(m, c.pc, 1)
		}}, true
	case w&0xFE0F == 0x940A: // DEC Rd
		d := uint8((w >> 4) & 0x1F)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			rd := m.GPReg(d)
			r := rd - 1
			m.SetGPReg(d, r)
			m.decFlags(rd, r)
			advance(m, c.pc, 1)
		}}, true
	}
	return nil, false
}

func logicRR(c *fetchCtx, d, r uint8, compute func(rd, rr byte) byte) (*decoded, bool) {
	return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
		res := compute(m.GPReg(d), m.GPReg(r))
		m.SetGPReg(d, res)
		m.logicFlags(res)
		advance(m, c.pc, 1)
	}}, true
}

func logicImm(c *fetchCtx, d uint8, k byte, compute func(rd, k byte) byte) (*decoded, bool) {
	return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
		res := compute(m.GPReg(d), k)
		m.SetGPReg(d, res)
		m.logicFlags(res)
		advance(m, c.pc, 1)
	}}, true
}
