package interrupt

import (
	"testing"

	"github.com/avrsim/avrsim/avr"
	"github.com/avrsim/avrsim/device"
)

func runDeferred(m *avr.Machine) {
	for m.InMulti {
		m.Step()
	}
}

func TestDispatchPushesReturnAddressAndJumpsToVector(t *testing.T) {
	p := device.NewATmega328P()
	m := avr.NewMachine(p)
	a := NewArbiter(p)

	v, ok := p.VectorByName("TIMER0_OVF")
	if !ok {
		t.Fatal("profile must define TIMER0_OVF")
	}
	v.RaisedBit.Set(m.DM, true)
	v.EnableBit.Set(m.DM, true)
	m.SetFlag(avr.FlagI, true)
	m.PC = 100

	a.Dispatch(m)
	runDeferred(m)

	want := p.VectorAddr(v)
	if m.PC != want {
		t.Fatalf("PC = %#x, want %#x (TIMER0_OVF vector)", m.PC, want)
	}
	if m.Flag(avr.FlagI) {
		t.Fatal("dispatch must clear the global interrupt flag")
	}
	if v.RaisedBit.Get(m.DM) {
		t.Fatal("dispatch must clear the vector's raised bit")
	}
	if m.PopPC() != 100 {
		t.Fatal("dispatch must push the pre-interrupt PC for RETI to restore")
	}
}

func TestDispatchLeavesFlagAndRaisedBitUntouchedUntilTheLastCycle(t *testing.T) {
	p := device.NewATmega328P()
	m := avr.NewMachine(p)
	a := NewArbiter(p)

	v, _ := p.VectorByName("TIMER0_OVF")
	v.RaisedBit.Set(m.DM, true)
	v.EnableBit.Set(m.DM, true)
	m.SetFlag(avr.FlagI, true)
	m.PC = 100

	a.Dispatch(m)
	if !m.InMulti {
		t.Fatal("dispatch of a real interrupt must leave the machine mid-instruction")
	}

	for m.InMulti {
		if !m.Flag(avr.FlagI) {
			t.Fatal("the global interrupt flag must stay set on every cycle but the last, exactly like a CALL's operands")
		}
		if !v.RaisedBit.Get(m.DM) {
			t.Fatal("the vector's raised bit must stay set on every cycle but the last")
		}
		if m.PC != 100 {
			t.Fatal("the PC must not move until the deferred jump fires on the last cycle")
		}
		m.Step() // on the final iteration this call is the one that fires the deferred closure
	}

	if m.Flag(avr.FlagI) {
		t.Fatal("the global interrupt flag must be clear once dispatch completes")
	}
	if v.RaisedBit.Get(m.DM) {
		t.Fatal("the vector's raised bit must be clear once dispatch completes")
	}
	if m.PC != p.VectorAddr(v) {
		t.Fatal("the PC must have jumped to the vector once dispatch completes")
	}
}

func TestDispatchHonorsVectorPriorityOrder(t *testing.T) {
	p := device.NewATmega328P()
	m := avr.NewMachine(p)
	a := NewArbiter(p)

	t0, _ := p.VectorByName("TIMER0_OVF") // offset 12
	t2, _ := p.VectorByName("TIMER2_OVF") // offset 5, higher priority
	for _, v := range []device.VectorSlot{t0, t2} {
		v.RaisedBit.Set(m.DM, true)
		v.EnableBit.Set(m.DM, true)
	}
	m.SetFlag(avr.FlagI, true)

	a.Dispatch(m)
	runDeferred(m)

	if m.PC != p.VectorAddr(t2) {
		t.Fatalf("PC = %#x, want TIMER2_OVF's vector (lower offset wins)", m.PC)
	}
	if !t0.RaisedBit.Get(m.DM) {
		t.Fatal("the lower-priority vector's raised bit must still be pending")
	}
}

func TestDispatchNoopsWithoutGlobalInterruptFlag(t *testing.T) {
	p := device.NewATmega328P()
	m := avr.NewMachine(p)
	a := NewArbiter(p)

	v, _ := p.VectorByName("TIMER0_OVF")
	v.RaisedBit.Set(m.DM, true)
	v.EnableBit.Set(m.DM, true)
	m.SetFlag(avr.FlagI, false)
	m.PC = 42

	a.Dispatch(m)

	if m.PC != 42 {
		t.Fatal("dispatch must not fire while the global interrupt flag is clear")
	}
}

func TestDispatchConsumesExecMainBeforeServicingAnotherInterrupt(t *testing.T) {
	p := device.NewATmega328P()
	m := avr.NewMachine(p)
	a := NewArbiter(p)

	v, _ := p.VectorByName("TIMER0_OVF")
	v.RaisedBit.Set(m.DM, true)
	v.EnableBit.Set(m.DM, true)
	m.SetFlag(avr.FlagI, true)
	m.ExecMain = true
	m.PC = 7

	a.Dispatch(m)

	if m.PC != 7 {
		t.Fatal("the instruction right after RETI must run before any new interrupt")
	}
	if m.ExecMain {
		t.Fatal("the one-shot ExecMain latch must be consumed")
	}
}

func TestDispatchTrapAtISRFailsTheMachineInstead(t *testing.T) {
	p := device.NewATmega328P()
	m := avr.NewMachine(p)
	a := NewArbiter(p)

	v, _ := p.VectorByName("TIMER0_OVF")
	v.RaisedBit.Set(m.DM, true)
	v.EnableBit.Set(m.DM, true)
	m.SetFlag(avr.FlagI, true)
	m.TrapAtISR = true

	a.Dispatch(m)

	if m.RunState != avr.TestFail {
		t.Fatal("trap_at_isr must fail the machine instead of dispatching")
	}
}
