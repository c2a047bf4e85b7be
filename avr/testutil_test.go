package avr

import "github.com/avrsim/avrsim/device"

// newTestMachine builds a Machine against the ATmega328P profile, which
// is the one exercising every ordinary instruction path; the ATmega2560
// profile is exercised separately where PC22/RAMPZ/EIND specifically
// matter.
func newTestMachine() *Machine {
	return NewMachine(device.NewATmega328P())
}

func newTestMachine2560() *Machine {
	return NewMachine(device.NewATmega2560())
}

// loadWords writes one or more 16-bit instruction words little-endian
// into flash starting at byte address pc.
func loadWords(m *Machine, pc uint32, words ...uint16) {
	for i, w := range words {
		addr := pc + uint32(i)*2
		m.Flash[addr] = byte(w)
		m.Flash[addr+1] = byte(w >> 8)
	}
	copy(m.MatchPoint, m.Flash)
}

// stepInstr runs exactly one full instruction to completion, consuming
// as many clock cycles as it declares.
func stepInstr(m *Machine) {
	m.Step()
	for m.InMulti {
		m.Step()
	}
}

// stepInstrCycles is stepInstr but reports how many clock cycles the
// instruction actually consumed, for tests asserting on variable-cycle
// instructions like conditional branches and taken skips.
func stepInstrCycles(m *Machine) int {
	cycles := 1
	m.Step()
	for m.InMulti {
		m.Step()
		cycles++
	}
	return cycles
}
