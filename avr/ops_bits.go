package avr

// Bit-manipulation family: BSET/BCLR (and their SEx/CLx mnemonic
// aliases), BST/BLD, SBI/CBI, SBIS/SBIC, SBRS/SBRC.

// sregBitFlags indexes SREG bit position to the SREGFlag constant; the
// datasheet's bit order (C,Z,N,V,S,H,T,I) is exactly the order
// SREGFlag's constants were declared in, bit-for-bit.
var sregBitFlags = [8]SREGFlag{FlagC, FlagZ, FlagN, FlagV, FlagS, FlagH, FlagT, FlagI}

func tryBits(c *fetchCtx) (*decoded, bool) {
	w := c.w

	switch {
	case w&0xFF8F == 0x9408: // BSET s
		b := uint8((w >> 4) & 0x07)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			m.SetFlag(sregBitFlags[b], true)
			advance(m, c.pc, 1)
		}}, true
	case w&0xFF8F == 0x9488: // BCLR s
		b := uint8((w >> 4) & 0x07)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			m.SetFlag(sregBitFlags[b], false)
			advance(m, c.pc, 1)
		}}, true

	case w&0xFE08 == 0xFA00: // BST Rd, b
		d := uint8((w >> 4) & 0x1F)
		b := uint8(w & 0x07)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			m.SetFlag(FlagT, m.GPReg(d)&(1<<b) != 0)
			advance(m, c.pc, 1)
		}}, true
	case w&0xFE08 == 0xF800: // BLD Rd, b
		d := uint8((w >> 4) & 0x1F)
		b := uint8(w & 0x07)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			rd := m.GPReg(d)
			if m.Flag(FlagT) {
				rd |= 1 << b
			} else {
				rd &^= 1 << b
			}
			m.SetGPReg(d, rd)
			advance(m, c.pc, 1)
		}}, true

	case w&0xFF00 == 0x9A00: // SBI A, b
		return ioBitOp(c, true)
	case w&0xFF00 == 0x9800: // CBI A, b
		return ioBitOp(c, false)

	case w&0xFF00 == 0x9900: // SBIC A, b — skip if clear
		return ioSkip(c, false)
	case w&0xFF00 == 0x9B00: // SBIS A, b — skip if set
		return ioSkip(c, true)

	case w&0xFE08 == 0xFC00: // SBRC Rd, b — skip if clear
		return regSkip(c, false)
	case w&0xFE08 == 0xFE00: // SBRS Rd, b — skip if set
		return regSkip(c, true)
	}
	return nil, false
}

func ioAddr(w uint16) (addr uint8, bit uint8) {
	addr = uint8((w >> 3) & 0x1F)
	bit = uint8(w & 0x07)
	return
}

func ioBitOp(c *fetchCtx, set bool) (*decoded, bool) {
	a, b := ioAddr(c.w)
	return &decoded{words: 1, cycles: 2, run: func(m *Machine) {
		addr := uint16(m.Profile.IOStart) + uint16(a)
		v := m.DM[addr]
		if set {
			v |= 1 << b
		} else {
			v &^= 1 << b
		}
		m.DM[addr] = v
		advance(m, c.pc, 1)
	}}, true
}

func ioSkip(c *fetchCtx, skipWhenSet bool) (*decoded, bool) {
	a, b := ioAddr(c.w)
	addr := uint16(c.m.Profile.IOStart) + uint16(a)
	taken := (c.m.DM[addr]&(1<<b) != 0) == skipWhenSet
	skip := uint32(0)
	cyc := 1
	if taken {
		skip = skipWords(c.m, c.pc+2)
		cyc = 1 + int(skip)
	}
	return &decoded{words: 1, cycles: cyc, run: func(m *Machine) {
		if !taken {
			advance(m, c.pc, 1)
			return
		}
		advance(m, c.pc, 1+skip)
	}}, true
}

func regSkip(c *fetchCtx, skipWhenSet bool) (*decoded, bool) {
	d := uint8((c.w >> 4) & 0x1F)
	b := uint8(c.w & 0x07)
	taken := (c.m.GPReg(d)&(1<<b) != 0) == skipWhenSet
	skip := uint32(0)
	cyc := 1
	if taken {
		skip = skipWords(c.m, c.pc+2)
		cyc = 1 + int(skip)
	}
	return &decoded{words: 1, cycles: cyc, run: func(m *Machine) {
		if !taken {
			advance(m, c.pc, 1)
			return
		}
		advance(m, c.pc, 1+skip)
	}}, true
}
