// Package driver implements the main simulation loop: advancing the
// machine one clock cycle at a time, ticking the timer subsystem every
// cycle, running the interrupt arbiter at instruction boundaries, and
// giving the trace writer and scripting host a chance to observe state
// after every cycle. Grounded on the teacher's run() loop in core.go,
// generalized from its fixed 100kHz/turbo pacing into AVR's
// cycle-per-Step model with an optional real-time pacer.
package driver

import (
	"fmt"

	"github.com/avrsim/avrsim/avr"
	"github.com/avrsim/avrsim/interrupt"
	"github.com/avrsim/avrsim/logging"
	"github.com/avrsim/avrsim/script"
	"github.com/avrsim/avrsim/timer"
	"github.com/avrsim/avrsim/trace"
)

// Driver owns everything needed to advance one Machine and the optional
// ambient collaborators wired onto it.
type Driver struct {
	Machine  *avr.Machine
	Timers   *timer.Engine
	Arbiter  *interrupt.Arbiter
	Script   *script.Host
	Logger   *logging.Logger

	// Trace, if set, samples every clock cycle's rising and falling half.
	Trace *trace.Writer
}

// New builds a Driver around m, wiring up the timer engine and interrupt
// arbiter that every simulated device needs regardless of which ambient
// features (trace, scripting) are enabled for this run.
func New(m *avr.Machine) *Driver {
	return &Driver{
		Machine: m,
		Timers:  timer.NewEngine(m.Profile),
		Arbiter: interrupt.NewArbiter(m.Profile),
		Logger:  logging.New(),
	}
}

// RunResult reports why Run stopped.
type RunResult struct {
	Cycles uint64
	Reason string
}

// Run advances the machine until it leaves the Running/Sleeping states,
// or maxCycles elapses (0 means unbounded). Each call to Machine.Step is
// one clock cycle; the timer engine, the trace writer and the scripting
// host run on every one of them, and the interrupt arbiter only runs at
// instruction boundaries (when the machine is not
// mid-multi-cycle-instruction). In the Step state Run returns once the
// current instruction has completed.
func (d *Driver) Run(maxCycles uint64) RunResult {
	var cycles uint64
	for {
		if maxCycles != 0 && cycles >= maxCycles {
			return RunResult{Cycles: cycles, Reason: "cycle limit reached"}
		}

		switch d.Machine.RunState {
		case avr.Stopped, avr.Stop:
			return RunResult{Cycles: cycles, Reason: "stopped"}
		case avr.TestFail:
			return RunResult{Cycles: cycles, Reason: d.Machine.LastDiagnostic}
		case avr.Sleeping:
			if !d.Arbiter.Scan(d.Machine) {
				d.Timers.Tick(d.Machine)
				d.sampleTrace(cycles)
				d.tickScript()
				cycles++
				continue
			}
			d.Machine.RunState = avr.Running
		}

		atBoundary := !d.Machine.InMulti
		if atBoundary {
			d.Arbiter.Dispatch(d.Machine)
		}

		d.Machine.Step()
		d.Machine.CycleCount++
		d.Timers.Tick(d.Machine)
		d.sampleTrace(cycles)
		d.tickScript()
		cycles++

		if d.Machine.RunState == avr.Step && !d.Machine.InMulti {
			d.Machine.RunState = avr.Stopped
			return RunResult{Cycles: cycles, Reason: "single step"}
		}
	}
}

func (d *Driver) tickScript() {
	if d.Script == nil {
		return
	}
	if err := d.Script.Tick(); err != nil {
		d.Logger.Once("script error: %v", err)
	}
}

func (d *Driver) sampleTrace(tick uint64) {
	if d.Trace == nil {
		return
	}
	d.Trace.Sample(tick, false, d.Machine)
	d.Trace.Sample(tick, true, d.Machine)
}

// DumpRegisters prints exactly the registers named by specs, in the
// comma-separated dump_regs format spec.md §6 defines: a bare register
// name, "nameA:nameB" for a 16-bit pair, or "name.N" for a single bit. An
// entry that doesn't resolve against this device's profile is reported
// as unresolved rather than aborting the whole dump, since the rest of
// the list may still name real registers. An empty spec list dumps
// nothing.
func (d *Driver) DumpRegisters(specs []string) {
	p := d.Machine.Profile
	dm := d.Machine.DM
	for _, token := range specs {
		reg, ok := p.ResolveRegisterSpec(token)
		if !ok {
			fmt.Printf("%s: <unresolved>\n", token)
			continue
		}
		if reg.Bit >= 0 {
			fmt.Printf("%s: %d\n", reg.Label, reg.Read(dm))
			continue
		}
		if reg.Width == 2 {
			fmt.Printf("%s: %04x\n", reg.Label, reg.Read(dm))
		} else {
			fmt.Printf("%s: %02x\n", reg.Label, reg.Read(dm))
		}
	}
}
