// Package avr implements the instruction decoder/executor and the
// machine state it operates on: general-purpose registers, the status
// register, data memory (SRAM plus memory-mapped I/O), program memory,
// the stack, and the multi-cycle bookkeeping the driver loop depends on.
//
// The design generalizes the teacher repo's dcpu.dcpu struct (a flat
// array of registers plus a "cycles" countdown checked at the top of
// every RunOp call) to AVR's stricter atomicity contract: effects of a
// multi-cycle instruction are deferred to its final cycle instead of
// applied immediately, see Step.
package avr

import "github.com/avrsim/avrsim/device"

// RunState is the closed set of states the driver loop and external
// collaborators observe and set.
type RunState uint8

const (
	Running RunState = iota
	Stopped
	Sleeping
	Step
	Stop
	TestFail
)

func (s RunState) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Sleeping:
		return "Sleeping"
	case Step:
		return "Step"
	case Stop:
		return "Stop"
	case TestFail:
		return "TestFail"
	default:
		return "Unknown"
	}
}

// StepResult is what Step reports about the cycle it just ran.
type StepResult uint8

const (
	Ok StepResult = iota
	UnknownInstruction
)

// InterruptVectorState is the per-vector internal latch the arbiter
// maintains alongside the I/O-visible enable/raised bits.
type InterruptVectorState struct {
	Pending bool
}

// Machine is the mutable world a simulation run advances one cycle at a
// time. External collaborators (trace writer, scripting host, debug
// server) receive a read-only view between cycles and may mutate it only
// while the driver is idle, per spec.md §5.
type Machine struct {
	Profile *device.Profile

	Flash      []byte // program memory, little-endian 16-bit words
	PageBuffer []byte // SPM fill-page scratch buffer, SPMPageSize bytes
	MatchPoint []byte // shadow flash for software breakpoints
	UseMatchPointOnce bool // one-shot: next fetch reads MatchPoint instead of Flash

	DM []byte // flat register + I/O + SRAM array

	PC         uint32
	CycleCount uint64

	InMulti         bool
	CyclesRemaining int
	pending         *decoded

	RunState RunState

	Interrupts  map[string]*InterruptVectorState
	ExecMain    bool // one-shot: run exactly one main instruction before the arbiter next scans
	TrapAtISR   bool

	// LastDiagnostic carries the most recent architectural-error message,
	// surfaced to the driver loop for printing when RunState becomes
	// TestFail.
	LastDiagnostic string
}

// NewMachine allocates a Machine sized for the given profile, with all
// memory zeroed and the stack pointer parked at RAMEnd as the hardware
// reset sequence leaves it.
func NewMachine(p *device.Profile) *Machine {
	m := &Machine{
		Profile:    p,
		Flash:      make([]byte, p.FlashSize),
		PageBuffer: make([]byte, p.SPMPageSize),
		MatchPoint: make([]byte, p.FlashSize),
		DM:         make([]byte, p.DMSize),
		RunState:   Running,
		Interrupts: make(map[string]*InterruptVectorState, len(p.Vectors)),
	}
	copy(m.MatchPoint, m.Flash)
	for _, v := range p.Vectors {
		m.Interrupts[v.Name] = &InterruptVectorState{}
	}
	m.SetSP(p.RAMEnd)
	return m
}

// ResetFlash fills program memory and its match-point shadow with 0xFF
// (erased flash), honoring
// the `reset_flash` configuration option before a firmware image loads.
func (m *Machine) ResetFlash() {
	for i := range m.Flash {
		m.Flash[i] = 0xFF
		m.MatchPoint[i] = 0xFF
	}
}

// GPReg reads one of R0..R31.
func (m *Machine) GPReg(r uint8) byte { return m.DM[r] }

// SetGPReg writes one of R0..R31.
func (m *Machine) SetGPReg(r uint8, v byte) { m.DM[r] = v }

// RegPair reads a 16-bit little-endian pair starting at register r (used
// for X/Y/Z and for MOVW).
func (m *Machine) RegPair(r uint8) uint16 {
	return uint16(m.DM[r]) | uint16(m.DM[r+1])<<8
}

func (m *Machine) SetRegPair(r uint8, v uint16) {
	m.DM[r] = byte(v)
	m.DM[r+1] = byte(v >> 8)
}

// X, Y, Z are the three 16-bit index-pointer register pairs: R26:R27,
// R28:R29, R30:R31.
func (m *Machine) X() uint16 { return m.RegPair(26) }
func (m *Machine) Y() uint16 { return m.RegPair(28) }
func (m *Machine) Z() uint16 { return m.RegPair(30) }

func (m *Machine) SetX(v uint16) { m.SetRegPair(26, v) }
func (m *Machine) SetY(v uint16) { m.SetRegPair(28, v) }
func (m *Machine) SetZ(v uint16) { m.SetRegPair(30, v) }

// SP reads the 16-bit stack pointer out of the SPH:SPL I/O pair.
func (m *Machine) SP() uint16 {
	return uint16(m.DM[m.Profile.SPLAddr]) | uint16(m.DM[m.Profile.SPHAddr])<<8
}

func (m *Machine) SetSP(v uint32) {
	m.DM[m.Profile.SPLAddr] = byte(v)
	m.DM[m.Profile.SPHAddr] = byte(v >> 8)
}

// RAMPZ and EIND are present only on devices that declare them; reading
// an absent one returns 0, matching how the flag's governing bit simply
// doesn't exist in silicon.
func (m *Machine) RAMPZ() byte {
	if !m.Profile.HasRAMPZ {
		return 0
	}
	return m.DM[m.Profile.RAMPZAddr]
}

func (m *Machine) SetRAMPZ(v byte) {
	if m.Profile.HasRAMPZ {
		m.DM[m.Profile.RAMPZAddr] = v
	}
}

func (m *Machine) EIND() byte {
	if !m.Profile.HasEIND {
		return 0
	}
	return m.DM[m.Profile.EINDAddr]
}

// ReadDM and WriteDM are byte accessors over this Machine's own data
// memory, used by the scripting host; instructions and peripherals index
// m.DM directly. Each Machine owns its DM slice, so a second instance
// never shares state with another (spec.md §9).
func (m *Machine) ReadDM(addr uint32) byte  { return m.DM[addr] }
func (m *Machine) WriteDM(addr uint32, v byte) { m.DM[addr] = v }

// Fail transitions the machine to TestFail with a diagnostic message,
// the architectural-error path of the error-handling design (§7(b)).
func (m *Machine) Fail(msg string) {
	m.RunState = TestFail
	m.LastDiagnostic = msg
}
