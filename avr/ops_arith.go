package avr

// Arithmetic/logic two-register and immediate-form instructions: ADD,
// ADC, SUB, SBC (SUBC), SUBI, SBCI, CP, CPC, CPI, CPSE, ADIW, SBIW, MUL,
// MULS, MULSU, FMUL/FMULS/FMULSU. Grounded on the teacher's
// dcpu.runMainOp two-operand switch (core.go), generalized from a single
// 5-bit opcode to AVR's per-family bit layouts.

func rdRr(w uint16) (d, r uint8) {
	d = uint8((w >> 4) & 0x1F)
	r = uint8((w&0x0200)>>5) | uint8(w&0x0F)
	return
}

func tryArith(c *fetchCtx) (*decoded, bool) {
	w := c.w
	m := c.m

	switch {
	case w&0xFC00 == 0x0C00: // ADD Rd, Rr
		d, r := rdRr(w)
		return aluRR(c, "ADD", d, r, func(rd, rr byte) byte { return rd + rr }, false, false)
	case w&0xFC00 == 0x1C00: // ADC Rd, Rr
		d, r := rdRr(w)
		return aluRR(c, "ADC", d, r, func(rd, rr byte) byte { return rd + rr + bit(m.Flag(FlagC)) }, false, true)
	case w&0xFC00 == 0x1800: // SUB Rd, Rr
		d, r := rdRr(w)
		return aluRR(c, "SUB", d, r, func(rd, rr byte) byte { return rd - rr }, true, false)
	case w&0xFC00 == 0x0800: // SBC Rd, Rr
		d, r := rdRr(w)
		return aluRR(c, "SBC", d, r, func(rd, rr byte) byte { return rd - rr - bit(m.Flag(FlagC)) }, true, true)
	case w&0xFC00 == 0x1400: // CP Rd, Rr
		d, r := rdRr(w)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			rd, rr := m.GPReg(d), m.GPReg(r)
			m.subFlags(rd, rr, rd-rr, false)
			advance(m, c.pc, 1)
		}}, true
	case w&0xFC00 == 0x0400: // CPC Rd, Rr
		d, r := rdRr(w)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			rd, rr := m.GPReg(d), m.GPReg(r)
			res := rd - rr - bit(m.Flag(FlagC))
			m.subFlags(rd, rr, res, true)
			advance(m, c.pc, 1)
		}}, true
	case w&0xFC00 == 0x1000: // CPSE Rd, Rr
		d, r := rdRr(w)
		taken := c.m.GPReg(d) == c.m.GPReg(r)
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

	case w&0xF000 == 0x3000: // CPI Rd(16-31), K
		d := uint8((w>>4)&0x0F) + 16
		k := immK8(w)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			rd := m.GPReg(d)
			m.subFlags(rd, k, rd-k, false)
			advance(m, c.pc, 1)
		}}, true
	case w&0xF000 == 0x5000: // SUBI Rd, K
		d := uint8((w>>4)&0x0F) + 16
		k := immK8(w)
		return immALU(c, d, k, func(rd, k byte) byte { return rd - k }, true, false)
	case w&0xF000 == 0x4000: // SBCI Rd, K
		d := uint8((w>>4)&0x0F) + 16
		k := immK8(w)
		return immALU(c, d, k, func(rd, k byte) byte { return rd - k - bit(m.Flag(FlagC)) }, true, true)

	case w&0xFF00 == 0x9600: // ADIW Rd+1:Rd, K
		return adiwSbiw(c, true)
	case w&0xFF00 == 0x9700: // SBIW Rd+1:Rd, K
		return adiwSbiw(c, false)

	case w&0xFC00 == 0x9C00: // MUL Rd, Rr
		d, r := rdRr(w)
		return &decoded{words: 1, cycles: 2, run: func(m *Machine) {
			res := uint16(m.GPReg(d)) * uint16(m.GPReg(r))
			m.SetRegPair(0, res)
			m.SetFlag(FlagC, res&0x8000 != 0)
			m.SetFlag(FlagZ, res == 0)
			advance(m, c.pc, 1)
		}}, true
	case w&0xFF00 == 0x0200: // MULS Rd(16-31), Rr(16-31)
		d := uint8((w>>4)&0x0F) + 16
		r := uint8(w&0x0F) + 16
		return &decoded{words: 1, cycles: 2, run: func(m *Machine) {
			res := int16(int8(m.GPReg(d))) * int16(int8(m.GPReg(r)))
			m.SetRegPair(0, uint16(res))
			m.SetFlag(FlagC, uint16(res)&0x8000 != 0)
			m.SetFlag(FlagZ, res == 0)
			advance(m, c.pc, 1)
		}}, true
	case w&0xFF88 == 0x0300: // MULSU Rd(16-23), Rr(16-23)
		d := uint8((w>>4)&0x07) + 16
		r := uint8(w&0x07) + 16
		return &decoded{words: 1, cycles: 2, run: func(m *Machine) {
			res := int16(int8(m.GPReg(d))) * int16(m.GPReg(r))
			m.SetRegPair(0, uint16(res))
			m.SetFlag(FlagC, uint16(res)&0x8000 != 0)
			m.SetFlag(FlagZ, res == 0)
			advance(m, c.pc, 1)
		}}, true
	case w&0xFF88 == 0x0308: // FMUL Rd(16-23), Rr(16-23)
		d := uint8((w>>4)&0x07) + 16
		r := uint8(w&0x07) + 16
		return fmulLike(c, d, r, false, false)
	case w&0xFF88 == 0x0380: // FMULS Rd(16-23), Rr(16-23)
		d := uint8((w>>4)&0x07) + 16
		r := uint8(w&0x07) + 16
		return fmulLike(c, d, r, true, true)
	case w&0xFF88 == 0x0388: // FMULSU Rd(16-23), Rr(16-23)
		d := uint8((w>>4)&0x07) + 16
		r := uint8(w&0x07) + 16
		return fmulLike(c, d, r, true, false)
	}
	return nil, false
}

func immK8(w uint16) byte {
	return byte((w>>4)&0xF0) | byte(w&0x0F)
}

// aluRR implements the shared ADD/ADC/SUB/SBC shape: compute, write
// back, apply the add- or sub-family SREG rule. forSub selects which
// canonical rule table from spec.md §4.1 applies; withCarry on the sub
// family (SBC) makes Z clear-only, as for CPC.
func aluRR(c *fetchCtx, _ string, d, r uint8, compute func(rd, rr byte) byte, forSub, withCarry bool) (*decoded, bool) {
	return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
		rd, rr := m.GPReg(d), m.GPReg(r)
		res := compute(rd, rr)
		m.SetGPReg(d, res)
		if forSub {
			m.subFlags(rd, rr, res, withCarry)
		} else {
			m.addFlags(rd, rr, res, false)
		}
		advance(m, c.pc, 1)
	}}, true
}

func immALU(c *fetchCtx, d uint8, k byte, compute func(rd, k byte) byte, forSub, withCarry bool) (*decoded, bool) {
	return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
		rd := m.GPReg(d)
		res := compute(rd, k)
		m.SetGPReg(d, res)
		m.subFlags(rd, k, res, withCarry)
		advance(m, c.pc, 1)
	}}, true
}

var adiwPairs = [4]uint8{24, 26, 28, 30}

func adiwSbiw(c *fetchCtx, isAdd bool) (*decoded, bool) {
	w := c.w
	pairSel := uint8((w >> 4) & 0x03)
	d := adiwPairs[pairSel]
	k := uint16(((w>>6)&0x03)<<4) | uint16(w&0x0F)
	return &decoded{words: 1, cycles: 2, run: func(m *Machine) {
		before := m.RegPair(d)
		var after uint16
		if isAdd {
			after = before + k
		} else {
			after = before - k
		}
		m.SetRegPair(d, after)
		m.widen16Flags(before, after, isAdd)
		advance(m, c.pc, 1)
	}}, true
}

func fmulLike(c *fetchCtx, d, r uint8, signedD, signedR bool) (*decoded, bool) {
	return &decoded{words: 1, cycles: 2, run: func(m *Machine) {
		var res int32
		if signedD && signedR {
			res = int32(int8(m.GPReg(d))) * int32(int8(m.GPReg(r)))
		} else if signedD {
			res = int32(int8(m.GPReg(d))) * int32(m.GPReg(r))
		} else {
			res = int32(m.GPReg(d)) * int32(m.GPReg(r))
		}
		res <<= 1
		m.SetRegPair(0, uint16(res))
		m.SetFlag(FlagC, res>>16 != 0)
		m.SetFlag(FlagZ, uint16(res) == 0)
		advance(m, c.pc, 1)
	}}, true
}
