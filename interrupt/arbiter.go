// Package interrupt implements the interrupt arbiter: scanning the
// vector table in priority order, dispatching the highest-priority
// pending interrupt, and the trap-at-ISR debugging aid.
package interrupt

import (
	"github.com/avrsim/avrsim/avr"
	"github.com/avrsim/avrsim/device"
)

// Arbiter holds nothing but the profile's vector table; all mutable
// interrupt state lives on the Machine (the enable/raised I/O bits and
// the Machine.ExecMain one-shot RETI latch), per spec.md §5's rule that a
// Machine owns every byte of its own simulation state.
type Arbiter struct {
	profile *device.Profile
}

func NewArbiter(p *device.Profile) *Arbiter {
	return &Arbiter{profile: p}
}

// vectorDispatchCycles mirrors a CALL to the vector's entry point: the
// same push-and-jump cost, regardless of PC width.
func vectorDispatchCycles(p *device.Profile) int {
	if p.PCWidth == device.PC22 {
		return 5
	}
	return 4
}

// Scan reports whether any vector is currently both enabled and raised,
// without dispatching it. The driver loop uses this to decide whether
// Sleeping should wake back to Running.
func (a *Arbiter) Scan(m *avr.Machine) bool {
	_, ok := a.highestPending(m)
	return ok
}

func (a *Arbiter) highestPending(m *avr.Machine) (device.VectorSlot, bool) {
	for _, v := range a.profile.Vectors {
		if v.Name == "RESET" {
			continue
		}
		if v.EnableBit.Get(m.DM) && v.RaisedBit.Get(m.DM) {
			return v, true
		}
	}
	return device.VectorSlot{}, false
}

// Dispatch runs one arbitration step: if the global interrupt flag is
// set, no main instruction is owed from a just-executed RETI, and some
// vector is enabled and raised, it clears I, clears the vector's raised
// bit, pushes the return address and jumps to the vector, exactly like a
// CALL. When TrapAtISR is set the machine instead halts into TestFail so
// a test can assert that no interrupt should have fired at this point.
func (a *Arbiter) Dispatch(m *avr.Machine) {
	if m.ExecMain {
		m.ExecMain = false
		return
	}
	if !m.Flag(avr.FlagI) {
		return
	}
	v, ok := a.highestPending(m)
	if !ok {
		return
	}
	if m.RunState == avr.Sleeping {
		m.RunState = avr.Running
	}
	if m.TrapAtISR {
		m.Fail("interrupt " + v.Name + " fired with trap_at_isr set")
		return
	}

	target := a.profile.VectorAddr(v)
	returnPC := m.PC
	m.Defer(vectorDispatchCycles(a.profile), func(m *avr.Machine) {
		v.RaisedBit.Clear(m.DM)
		m.SetFlag(avr.FlagI, false)
		m.PushPC(returnPC)
		m.PC = target
	})
}
