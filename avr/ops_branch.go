package avr

import "github.com/avrsim/avrsim/device"

// Control-transfer family: RJMP, IJMP, EIJMP, JMP, RCALL, ICALL, EICALL,
// CALL, RET, RETI, and every conditional branch (all are the same
// BRBS/BRBC encoding with a different flag-bit index; spec.md §4.1 lists
// the per-flag mnemonics as aliases of this one generic instruction).

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

func tryBranch(c *fetchCtx) (*decoded, bool) {
	w := c.w

	switch {
	case w&0xF000 == 0xC000: // RJMP
		disp := signExtend(uint32(w&0x0FFF), 12)
		return &decoded{words: 1, cycles: 2, run: func(m *Machine) {
			m.PC = uint32(int64(c.pc) + 2 + int64(disp)*2)
		}}, true

	case w&0xF000 == 0xD000: // RCALL
		disp := signExtend(uint32(w&0x0FFF), 12)
		cyc := 3
		if c.m.Profile.PCWidth == device.PC22 {
			cyc = 4
		}
		return &decoded{words: 1, cycles: cyc, run: func(m *Machine) {
			m.PushPC(c.pc + 2)
			m.PC = uint32(int64(c.pc) + 2 + int64(disp)*2)
		}}, true

	case w == 0x9409: // IJMP
		return &decoded{words: 1, cycles: 2, run: func(m *Machine) {
			m.PC = uint32(m.Z()) * 2
		}}, true

	case w == 0x9419: // EIJMP
		return &decoded{words: 1, cycles: 2, run: func(m *Machine) {
			if !m.Profile.HasEIND {
				m.Fail("EIJMP executed on a device without EIND")
				return
			}
			m.PC = (uint32(m.EIND())<<16 | uint32(m.Z())) * 2
		}}, true

	case w == 0x9509: // ICALL
		cyc := 3
		if c.m.Profile.PCWidth == device.PC22 {
			cyc = 4
		}
		return &decoded{words: 1, cycles: cyc, run: func(m *Machine) {
			m.PushPC(c.pc + 2)
			m.PC = uint32(m.Z()) * 2
		}}, true

	case w == 0x9519: // EICALL
		return &decoded{words: 1, cycles: 4, run: func(m *Machine) {
			if !m.Profile.HasEIND {
				m.Fail("EICALL executed on a device without EIND")
				return
			}
			m.PushPC(c.pc + 2)
			m.PC = (uint32(m.EIND())<<16 | uint32(m.Z())) * 2
		}}, true

	case w&0xFE0E == 0x940C: // JMP (32-bit)
		k := jmpCallTarget(w, c.w2)
		return &decoded{words: 2, cycles: 3, run: func(m *Machine) {
			m.PC = k * 2
		}}, true

	case w&0xFE0E == 0x940E: // CALL (32-bit)
		k := jmpCallTarget(w, c.w2)
		cyc := 4
		if c.m.Profile.PCWidth == device.PC22 {
			cyc = 5
		}
		return &decoded{words: 2, cycles: cyc, run: func(m *Machine) {
			m.PushPC(c.pc + 4)
			m.PC = k * 2
		}}, true

	case w == 0x9508: // RET
		cyc := 4
		if c.m.Profile.PCWidth == device.PC22 {
			cyc = 5
		}
		return &decoded{words: 1, cycles: cyc, run: func(m *Machine) {
			m.PC = m.PopPC()
		}}, true

	case w == 0x9518: // RETI
		cyc := 4
		if c.m.Profile.PCWidth == device.PC22 {
			cyc = 5
		}
		return &decoded{words: 1, cycles: cyc, run: func(m *Machine) {
			m.PC = m.PopPC()
			m.SetFlag(FlagI, true)
			m.ExecMain = true
		}}, true

	case w&0xFC00 == 0xF000: // BRBS s — branch if SREG bit s set
		return condBranch(c, true)
	case w&0xFC00 == 0xF400: // BRBC s — branch if SREG bit s clear
		return condBranch(c, false)
	}
	return nil, false
}

func jmpCallTarget(w1, w2 uint16) uint32 {
	k21 := uint32((w1 >> 8) & 0x01)
	k20_17 := uint32((w1 >> 4) & 0x0F)
	k16 := uint32(w1 & 0x01)
	return k21<<21 | k20_17<<17 | k16<<16 | uint32(w2)
}

func condBranch(c *fetchCtx, wantSet bool) (*decoded, bool) {
	w := c.w
	bitIdx := uint8(w & 0x07)
	disp := signExtend(uint32((w>>3)&0x7F), 7)
	flag := sregBitFlags[bitIdx]
	taken := c.m.Flag(flag) == wantSet
	cyc := 1
	if taken {
		cyc = 2
	}
	target := uint32(int64(c.pc) + 2 + int64(disp)*2)
	return &decoded{words: 1, cycles: cyc, run: func(m *Machine) {
		if taken {
			m.PC = target
		} else {
			advance(m, c.pc, 1)
		}
	}}, true
}
