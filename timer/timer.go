// Package timer implements the timer/counter peripheral model: prescaled
// or external clocking, the five waveform-generation modes, double
// buffered output-compare registers, compare-match pin actions, input
// capture, and overflow/compare/capture flag raising.
package timer

import (
	"github.com/avrsim/avrsim/avr"
	"github.com/avrsim/avrsim/device"
)

// channelState is the runtime half of a ChannelConfig: the active
// (double-buffered) compare value currently being raced against the
// counter, distinct from whatever value software has most recently
// written to the OCR register in data memory.
type channelState struct {
	cfg       *device.ChannelConfig
	activeOCR uint16
}

// timerState is the runtime half of one device.TimerConfig.
type timerState struct {
	cfg       *device.TimerConfig
	prescale  int
	direction device.CountDirection
	lastExtLevel bool
	lastCapLevel bool
	channels  []*channelState

	// csKnown/lastCS track the CSn bits across ticks so a runtime change
	// (firmware writing a new prescaler/clock source) can be detected;
	// missedCompare is the per-timer latch set when that change leaves the
	// counter already past OCRnA, serviced on the very next tick.
	csKnown       bool
	lastCS        device.ClockSelect
	missedCompare bool
}

// Engine owns the runtime state for every timer a device profile
// declares. One Engine per Machine, ticked once per clock cycle by the
// driver loop.
type Engine struct {
	timers []*timerState
}

// NewEngine builds the per-timer runtime state for a profile's timers.
// Grounded on the teacher's hardware_clock.go, which likewise carries a
// small per-tick accumulator alongside the shared CPU struct; generalized
// here from a single fixed-rate clock into the full WGM/COM/CS model.
func NewEngine(p *device.Profile) *Engine {
	e := &Engine{}
	for i := range p.Timers {
		cfg := &p.Timers[i]
		ts := &timerState{cfg: cfg}
		for j := range cfg.Channels {
			ts.channels = append(ts.channels, &channelState{cfg: &cfg.Channels[j]})
		}
		e.timers = append(e.timers, ts)
	}
	return e
}

// Tick advances every timer by one CPU clock cycle. The driver loop calls
// this once per call to Machine.Step, matching spec.md §4.2's "ticked
// every clock cycle independent of instruction boundaries".
func (e *Engine) Tick(m *avr.Machine) {
	for _, ts := range e.timers {
		ts.tick(m)
	}
}

func (ts *timerState) counterMax() int {
	if ts.cfg.Width == 2 {
		return 0xFFFF
	}
	return 0xFF
}

func (ts *timerState) readWide(dm []byte, addr uint16) uint16 {
	if ts.cfg.Width == 2 {
		return uint16(dm[addr]) | uint16(dm[addr+1])<<8
	}
	return uint16(dm[addr])
}

func (ts *timerState) writeWide(dm []byte, addr uint16, v uint16) {
	dm[addr] = byte(v)
	if ts.cfg.Width == 2 {
		dm[addr+1] = byte(v >> 8)
	}
}

func (ts *timerState) tick(m *avr.Machine) {
	if ts.missedCompare {
		ts.missedCompare = false
		ts.serviceChannelACompare(m)
	}

	cs := device.ClockSelect(ts.cfg.CS.Get(m.DM))
	if ts.csKnown && cs != ts.lastCS {
		ts.onClockSelectChanged(m)
	}
	ts.lastCS = cs
	ts.csKnown = true

	if cs == device.ClockStopped {
		return
	}
	if cs.IsExternal() {
		level := ts.cfg.ExternalClockPin.Get(m.DM)
		rising := level && !ts.lastExtLevel
		falling := !level && ts.lastExtLevel
		ts.lastExtLevel = level
		wantRising := cs == device.ClockExtRise
		if (wantRising && !rising) || (!wantRising && !falling) {
			return
		}
	} else {
		div := cs.Prescaler()
		ts.prescale++
		if ts.prescale < div {
			return
		}
		ts.prescale = 0
	}
	ts.advance(m)
}

// onClockSelectChanged resets the prescaler accumulator, matching the
// datasheet's "any write to CSn restarts the prescaler" rule, and latches
// a missed compare if the counter has already run past OCRnA under the
// old clock source — that match can never fire on its own since the
// counter won't pass through that value again this cycle.
func (ts *timerState) onClockSelectChanged(m *avr.Machine) {
	ts.prescale = 0
	counter := int(ts.readWide(m.DM, ts.cfg.CounterAddr))
	for _, c := range ts.channels {
		if c.cfg.Name == "A" && counter > int(ts.readWide(m.DM, c.cfg.OCRAddr)) {
			ts.missedCompare = true
		}
	}
}

func (ts *timerState) serviceChannelACompare(m *avr.Machine) {
	for _, c := range ts.channels {
		if c.cfg.Name == "A" {
			c.cfg.CompareFlag.Set(m.DM, true)
			ts.applyCompareAction(m, c)
		}
	}
}

func (ts *timerState) modeBehavior(m *avr.Machine) device.ModeBehavior {
	wgm := device.WaveformMode(ts.cfg.WGM.Get(m.DM))
	if b, ok := ts.cfg.ModeTable[wgm]; ok {
		return b
	}
	return ts.cfg.ModeTable[device.WGMNormal]
}

func (ts *timerState) topValue(m *avr.Machine, behavior device.ModeBehavior) int {
	switch behavior.Top {
	case device.TopOCRA:
		for _, c := range ts.channels {
			if c.cfg.Name == "A" {
				return int(c.activeOCR)
			}
		}
	case device.TopICR:
		if ts.cfg.ICRAddr != 0 {
			return int(ts.readWide(m.DM, ts.cfg.ICRAddr))
		}
	}
	return ts.counterMax()
}

func (ts *timerState) updateOCR(m *avr.Machine, behavior device.ModeBehavior, counter, top int) {
	for _, c := range ts.channels {
		live := ts.readWide(m.DM, c.cfg.OCRAddr)
		switch behavior.Update {
		case device.UpdateImmediate:
			c.activeOCR = live
		case device.UpdateAtBOTTOM:
			if counter == 0 {
				c.activeOCR = live
			}
		case device.UpdateAtTOP:
			if counter == top {
				c.activeOCR = live
			}
		case device.UpdateAtMAX:
			if counter == ts.counterMax() {
				c.activeOCR = live
			}
		case device.UpdateAtCompareMatch:
			if counter == int(c.activeOCR) {
				c.activeOCR = live
			}
		}
	}
}

func (ts *timerState) advance(m *avr.Machine) {
	behavior := ts.modeBehavior(m)
	counter := int(ts.readWide(m.DM, ts.cfg.CounterAddr))
	top := ts.topValue(m, behavior)

	ts.updateOCR(m, behavior, counter, top)
	ts.checkCapture(m, counter)

	for _, c := range ts.channels {
		if counter == int(c.activeOCR) {
			c.cfg.CompareFlag.Set(m.DM, true)
			ts.applyCompareAction(m, c)
		}
	}

	switch ts.direction {
	case device.CountDown:
		counter--
		if counter <= 0 {
			counter = 0
			ts.direction = device.CountUp
			if !behavior.TOVAtTop {
				ts.cfg.OverflowFlag.Set(m.DM, true)
			}
		}
	default:
		counter++
		if counter > top {
			if behavior.Direction == device.CountDown {
				counter = top
				ts.direction = device.CountDown
			} else {
				counter = 0
			}
			if behavior.TOVAtTop {
				ts.cfg.OverflowFlag.Set(m.DM, true)
			}
		}
	}
	ts.writeWide(m.DM, ts.cfg.CounterAddr, uint16(counter))
}

func (ts *timerState) applyCompareAction(m *avr.Machine, c *channelState) {
	action := device.CompareAction(c.cfg.COM.Get(m.DM))
	switch action {
	case device.ComClearUpSetDown:
		if ts.direction == device.CountUp {
			action = device.ComClear
		} else {
			action = device.ComSet
		}
	case device.ComSetUpClearDown:
		if ts.direction == device.CountUp {
			action = device.ComSet
		} else {
			action = device.ComClear
		}
	}
	if action == device.ComDisconnected || !c.cfg.PinDDR.Get(m.DM) {
		return
	}
	switch action {
	case device.ComToggle:
		c.cfg.PinPort.Set(m.DM, !c.cfg.PinPort.Get(m.DM))
	case device.ComClear:
		c.cfg.PinPort.Set(m.DM, false)
	case device.ComSet:
		c.cfg.PinPort.Set(m.DM, true)
	}
}

func (ts *timerState) checkCapture(m *avr.Machine, counter int) {
	if ts.cfg.ICRAddr == 0 || ts.cfg.CapturePin.Mask == 0 {
		return
	}
	level := ts.cfg.CapturePin.Get(m.DM)
	rising := level && !ts.lastCapLevel
	falling := !level && ts.lastCapLevel
	ts.lastCapLevel = level
	wantRising := ts.cfg.CaptureEdgeRising.Get(m.DM)
	if (wantRising && !rising) || (!wantRising && !falling) {
		return
	}
	ts.writeWide(m.DM, ts.cfg.ICRAddr, uint16(counter))
	ts.cfg.CaptureFlag.Set(m.DM, true)
}
