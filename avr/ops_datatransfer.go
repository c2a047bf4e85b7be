package avr

// Data-transfer family: MOV, MOVW, LDI, IN, OUT, PUSH, POP, LDS/STS (and
// their reduced-core 7-bit-direct forms), LD/ST on X/Y/Z with
// pre-decrement, post-increment and displacement, LPM/ELPM, XCH/LAS/LAC/LAT.

func tryDataTransfer(c *fetchCtx) (*decoded, bool) {
	w := c.w
	m := c.m

	switch {
	case w&0xFC00 == 0x2C00: // MOV Rd, Rr
		d, r := rdRr(w)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			m.SetGPReg(d, m.GPReg(r))
			advance(m, c.pc, 1)
		}}, true

	case w&0xFF00 == 0x0100: // MOVW Rd+1:Rd, Rr+1:Rr
		d := uint8((w>>4)&0x0F) * 2
		r := uint8(w&0x0F) * 2
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			m.SetRegPair(d, m.RegPair(r))
			advance(m, c.pc, 1)
		}}, true

	case w&0xF000 == 0xE000: // LDI Rd(16-31), K
		d := uint8((w>>4)&0x0F) + 16
		k := immK8(w)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			m.SetGPReg(d, k)
			advance(m, c.pc, 1)
		}}, true

	case w&0xF800 == 0xB000: // IN Rd, A
		a, d := inOutAddr(w)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			m.SetGPReg(d, m.DM[uint16(m.Profile.IOStart)+uint16(a)])
			advance(m, c.pc, 1)
		}}, true
	case w&0xF800 == 0xB800: // OUT A, Rd
		a, d := inOutAddr(w)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			m.DM[uint16(m.Profile.IOStart)+uint16(a)] = m.GPReg(d)
			advance(m, c.pc, 1)
		}}, true

	case w&0xFE0F == 0x920F: // PUSH Rd
		d := uint8((w >> 4) & 0x1F)
		return &decoded{words: 1, cycles: 2, run: func(m *Machine) {
			m.Push(m.GPReg(d))
			advance(m, c.pc, 1)
		}}, true
	case w&0xFE0F == 0x900F: // POP Rd
		d := uint8((w >> 4) & 0x1F)
		return &decoded{words: 1, cycles: reducedCoreDelta(m, 2), run: func(m *Machine) {
			m.SetGPReg(d, m.Pop())
			advance(m, c.pc, 1)
		}}, true

	case w&0xFE0F == 0x9000: // LDS Rd, k16 (32-bit)
		d := uint8((w >> 4) & 0x1F)
		addr := c.w2
		return &decoded{words: 2, cycles: 2, run: func(m *Machine) {
			m.SetGPReg(d, m.DM[addr])
			advance(m, c.pc, 2)
		}}, true
	case w&0xFE0F == 0x9200: // STS k16, Rr (32-bit)
		r := uint8((w >> 4) & 0x1F)
		addr := c.w2
		return &decoded{words: 2, cycles: 2, run: func(m *Machine) {
			m.DM[addr] = m.GPReg(r)
			advance(m, c.pc, 2)
		}}, true

	case w&0xF800 == 0xA000 && m.Profile.ReducedCore: // LDS16 Rd, k7 — reduced core
		d := uint8((w>>4)&0x0F) + 16
		k := reducedDirectAddr(w)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			m.SetGPReg(d, m.DM[k])
			advance(m, c.pc, 1)
		}}, true
	case w&0xF800 == 0xA800 && m.Profile.ReducedCore: // STS16 k7, Rr — reduced core
		r := uint8((w>>4)&0x0F) + 16
		k := reducedDirectAddr(w)
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			m.DM[k] = m.GPReg(r)
			advance(m, c.pc, 1)
		}}, true

	// LD/ST via X, pre-decrement and post-increment only (no displacement
	// form exists for X in hardware).
	case w&0xFE0F == 0x900C: // LD Rd, X
		return ldIndexed(c, indexX, modePlain)
	case w&0xFE0F == 0x900D: // LD Rd, X+
		return ldIndexed(c, indexX, modePostInc)
	case w&0xFE0F == 0x900E: // LD Rd, -X
		return ldIndexed(c, indexX, modePreDec)
	case w&0xFE0F == 0x920C: // ST X, Rr
		return stIndexed(c, indexX, modePlain)
	case w&0xFE0F == 0x920D: // ST X+, Rr
		return stIndexed(c, indexX, modePostInc)
	case w&0xFE0F == 0x920E: // ST -X, Rr
		return stIndexed(c, indexX, modePreDec)

	case w&0xFE0F == 0x9001: // LD Rd, Z+
		return ldIndexed(c, indexZ, modePostInc)
	case w&0xFE0F == 0x9002: // LD Rd, -Z
		return ldIndexed(c, indexZ, modePreDec)
	case w&0xFE0F == 0x9009: // LD Rd, Y+
		return ldIndexed(c, indexY, modePostInc)
	case w&0xFE0F == 0x900A: // LD Rd, -Y
		return ldIndexed(c, indexY, modePreDec)
	case w&0xFE0F == 0x9201: // ST Z+, Rr
		return stIndexed(c, indexZ, modePostInc)
	case w&0xFE0F == 0x9202: // ST -Z, Rr
		return stIndexed(c, indexZ, modePreDec)
	case w&0xFE0F == 0x9209: // ST Y+, Rr
		return stIndexed(c, indexY, modePostInc)
	case w&0xFE0F == 0x920A: // ST -Y, Rr
		return stIndexed(c, indexY, modePreDec)

	// LDD/STD Y/Z with a 6-bit displacement; q==0 is exactly "LD Rd,Y"/"LD Rd,Z".
	case w&0xD208 == 0x8008: // LDD Rd, Y+q
		return lddStd(c, indexY, true)
	case w&0xD208 == 0x8000: // LDD Rd, Z+q
		return lddStd(c, indexZ, true)
	case w&0xD208 == 0x8208: // STD Y+q, Rr
		return lddStd(c, indexY, false)
	case w&0xD208 == 0x8200: // STD Z+q, Rr
		return lddStd(c, indexZ, false)

	case w == 0x95C8: // LPM (implicit R0, Z)
		return &decoded{words: 1, cycles: 3, run: func(m *Machine) {
			m.SetGPReg(0, m.Flash[m.Z()])
			advance(m, c.pc, 1)
		}}, true
	case w&0xFE0F == 0x9004: // LPM Rd, Z
		d := uint8((w >> 4) & 0x1F)
		return &decoded{words: 1, cycles: 3, run: func(m *Machine) {
			m.SetGPReg(d, m.Flash[m.Z()])
			advance(m, c.pc, 1)
		}}, true
	case w&0xFE0F == 0x9005: // LPM Rd, Z+
		d := uint8((w >> 4) & 0x1F)
		return &decoded{words: 1, cycles: 3, run: func(m *Machine) {
			z := m.Z()
			m.SetGPReg(d, m.Flash[z])
			m.SetZ(z + 1)
			advance(m, c.pc, 1)
		}}, true

	case w == 0x95D8: // ELPM (implicit R0, RAMPZ:Z)
		return elpm(c, 0, false)
	case w&0xFE0F == 0x9006: // ELPM Rd, RAMPZ:Z
		d := uint8((w >> 4) & 0x1F)
		return elpm(c, d, false)
	case w&0xFE0F == 0x9007: // ELPM Rd, RAMPZ:Z+
		d := uint8((w >> 4) & 0x1F)
		return elpm(c, d, true)

	case w&0xFE0F == 0x9204: // XCH Z, Rd
		d := uint8((w >> 4) & 0x1F)
		return &decoded{words: 1, cycles: 2, run: func(m *Machine) {
			z := m.Z()
			old := m.DM[z]
			m.DM[z] = m.GPReg(d)
			m.SetGPReg(d, old)
			advance(m, c.pc, 1)
		}}, true
	case w&0xFE0F == 0x9205: // LAS Z, Rd — load-and-set
		d := uint8((w >> 4) & 0x1F)
		return atomicRMW(c, d, func(mem, rd byte) byte { return mem | rd })
	case w&0xFE0F == 0x9206: // LAC Z, Rd — load-and-clear
		d := uint8((w >> 4) & 0x1F)
		return atomicRMW(c, d, func(mem, rd byte) byte { return mem &^ rd })
	case w&0xFE0F == 0x9207: // LAT Z, Rd — load-and-toggle
		d := uint8((w >> 4) & 0x1F)
		return atomicRMW(c, d, func(mem, rd byte) byte { return mem ^ rd })
	}
	return nil, false
}

func inOutAddr(w uint16) (addr uint8, reg uint8) {
	addr = uint8((w>>9)&0x03)<<4 | uint8(w&0x0F)
	reg = uint8((w >> 4) & 0x1F)
	return
}

func reducedDirectAddr(w uint16) uint16 {
	return uint16((w>>8)&0x07)<<4 | uint16(w&0x0F)
}

type indexReg uint8

const (
	indexX indexReg = iota
	indexY
	indexZ
)

type indexMode uint8

const (
	modePlain indexMode = iota
	modePostInc
	modePreDec
)

func (m *Machine) readIndex(ix indexReg) uint16 {
	switch ix {
	case indexX:
		return m.X()
	case indexY:
		return m.Y()
	default:
		return m.Z()
	}
}

func (m *Machine) writeIndex(ix indexReg, v uint16) {
	switch ix {
	case indexX:
		m.SetX(v)
	case indexY:
		m.SetY(v)
	default:
		m.SetZ(v)
	}
}

// resolveAddr implements the mode-00/01/02 index side effects of
// spec.md §4.1: mode00 leaves the index unchanged, mode01 reads then
// increments, mode02 decrements then reads.
func resolveAddr(m *Machine, ix indexReg, mode indexMode) uint16 {
	v := m.readIndex(ix)
	switch mode {
	case modePostInc:
		m.writeIndex(ix, v+1)
		return v
	case modePreDec:
		v--
		m.writeIndex(ix, v)
		return v
	default:
		return v
	}
}

func ldIndexed(c *fetchCtx, ix indexReg, mode indexMode) (*decoded, bool) {
	d := uint8((c.w >> 4) & 0x1F)
	return &decoded{words: 1, cycles: reducedCoreDelta(c.m, 2), run: func(m *Machine) {
		addr := resolveAddr(m, ix, mode)
		m.SetGPReg(d, m.DM[addr])
		advance(m, c.pc, 1)
	}}, true
}

func stIndexed(c *fetchCtx, ix indexReg, mode indexMode) (*decoded, bool) {
	r := uint8((c.w >> 4) & 0x1F)
	return &decoded{words: 1, cycles: reducedCoreDelta(c.m, 2), run: func(m *Machine) {
		addr := resolveAddr(m, ix, mode)
		m.DM[addr] = m.GPReg(r)
		advance(m, c.pc, 1)
	}}, true
}

func lddStd(c *fetchCtx, ix indexReg, isLoad bool) (*decoded, bool) {
	w := c.w
	reg := uint8((w >> 4) & 0x1F)
	q := uint16((w>>13)&0x01)<<5 | uint16((w>>10)&0x03)<<3 | uint16(w&0x07)
	return &decoded{words: 1, cycles: 2, run: func(m *Machine) {
		base := m.readIndex(ix)
		addr := base + q
		if isLoad {
			m.SetGPReg(reg, m.DM[addr])
		} else {
			m.DM[addr] = m.GPReg(reg)
		}
		advance(m, c.pc, 1)
	}}, true
}

func elpm(c *fetchCtx, d uint8, postInc bool) (*decoded, bool) {
	return &decoded{words: 1, cycles: 3, run: func(m *Machine) {
		if !m.Profile.HasRAMPZ {
			m.Fail("ELPM executed on a device without RAMPZ")
			return
		}
		z := m.Z()
		addr := uint32(m.RAMPZ())<<16 | uint32(z)
		m.SetGPReg(d, m.Flash[addr])
		if postInc {
			zz := addr + 1
			m.SetZ(uint16(zz))
			m.SetRAMPZ(byte(zz >> 16))
		}
		advance(m, c.pc, 1)
	}}, true
}

func atomicRMW(c *fetchCtx, d uint8, compute func(mem, rd byte) byte) (*decoded, bool) {
	return &decoded{words: 1, cycles: 2, run: func(m *Machine) {
		z := m.Z()
		old := m.DM[z]
		m.DM[z] = compute(old, m.GPReg(d))
		m.SetGPReg(d, old)
		advance(m, c.pc, 1)
	}}, true
}
