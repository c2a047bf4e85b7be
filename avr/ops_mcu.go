package avr

// MCU-control family: NOP, SLEEP, WDR, BREAK, and SPM (page-buffer fill,
// page erase, page write). SEI/CLI/SEC/CLC and the rest of the flag-mnemonic aliases are not
// separate opcodes; they decode as BSET/BCLR in tryBits.

func tryMCUControl(c *fetchCtx) (*decoded, bool) {
	w := c.w

	switch {
	case w == 0x0000: // NOP
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			advance(m, c.pc, 1)
		}}, true

	case w == 0x9588: // SLEEP
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			m.RunState = Sleeping
			advance(m, c.pc, 1)
		}}, true

	case w == 0x95A8: // WDR — watchdog reset is a no-op without a modeled watchdog
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			advance(m, c.pc, 1)
		}}, true

	case w == 0x9598: // BREAK — software breakpoint
		return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
			m.RunState = Stopped
			// The next fetch at this address must see the original
			// instruction the debugger displaced, not this BREAK, so
			// resuming steps over the trap instead of hitting it again.
			m.UseMatchPointOnce = true
			advance(m, c.pc, 1)
		}}, true

	case w == 0x95E8: // SPM — fill, erase or write, as SPMCSR selects
		return spm(c, false)
	case w == 0x95F8: // SPM Z+ — same, with RAMPZ:Z post-increment
		return spm(c, true)
	}
	return nil, false
}

// SPMCSR's low three bits select which of the three self-programming
// states this SPM executes, per the datasheet family's SPMEN/PGERS/PGWRT
// encoding.
const (
	spmcsrFillBuffer byte = 0x1
	spmcsrPageErase  byte = 0x3
	spmcsrPageWrite  byte = 0x5
)

// spm implements the three-state self-programming machine: fill writes
// R1:R0 into PageBuffer at the offset Z selects within the current page;
// erase fills the whole flash page containing Z with 0xFF; write copies
// PageBuffer to that same page in flash. On devices that post-increment
// (SPMPostIncrement), SPM Z+ advances RAMPZ:Z by 2 after any of the three so
// firmware can drive a page with a plain loop. Any other SPMCSR value
// (including 0, SPM not yet armed) leaves flash and the buffer untouched.
func spm(c *fetchCtx, postInc bool) (*decoded, bool) {
	return &decoded{words: 1, cycles: 1, run: func(m *Machine) {
		page := m.Profile.SPMPageSize
		if page == 0 {
			m.Fail("SPM executed on a device with no SPM page configured")
			return
		}
		z := uint32(m.Z())
		pageBase := z - z%page

		switch m.DM[m.Profile.SPMCSRAddr] & 0x07 {
		case spmcsrFillBuffer:
			offset := z % page
			m.PageBuffer[offset] = m.GPReg(0)
			if offset+1 < page {
				m.PageBuffer[offset+1] = m.GPReg(1)
			}
		case spmcsrPageErase:
			for i := uint32(0); i < page; i++ {
				m.Flash[pageBase+i] = 0xFF
			}
		case spmcsrPageWrite:
			copy(m.Flash[pageBase:pageBase+page], m.PageBuffer[:page])
		}

		if postInc && m.Profile.SPMPostIncrement {
			zz := uint32(m.RAMPZ())<<16 | z
			zz += 2
			m.SetZ(uint16(zz))
			m.SetRAMPZ(byte(zz >> 16))
		}
		advance(m, c.pc, 1)
	}}, true
}
