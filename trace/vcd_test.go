package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/avrsim/avrsim/avr"
	"github.com/avrsim/avrsim/device"
)

func TestOpenWritesHeaderAndInitialDumpvars(t *testing.T) {
	m := avr.NewMachine(device.NewATmega328P())
	var buf bytes.Buffer
	w := NewWriter(&buf, []Register{{Name: "PORTB", Addr: 0x25}}, 16_000_000)

	if err := w.Open("atmega328p", m); err != nil {
		t.Fatalf("Open returned %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"$var reg 8 PORTB PORTB $end",
		"$dumpvars",
		"b0 CLK_IO",
		"$end\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("header missing %q:\n%s", want, out)
		}
	}
}

func TestSampleOmitsUnchangedRegistersAfterBaseline(t *testing.T) {
	m := avr.NewMachine(device.NewATmega328P())
	var buf bytes.Buffer
	w := NewWriter(&buf, []Register{{Name: "PORTB", Addr: 0x25}}, 16_000_000)
	_ = w.Open("atmega328p", m)

	w.Sample(1, false, m) // establishes the rising-edge baseline
	buf.Reset()

	w.Sample(2, false, m) // nothing changed: clock steady, register steady

	if buf.Len() != 0 {
		t.Fatalf("expected no output for an unchanged sample, got %q", buf.String())
	}
}

func TestSampleEmitsChangeBlockForAModifiedRegister(t *testing.T) {
	m := avr.NewMachine(device.NewATmega328P())
	var buf bytes.Buffer
	w := NewWriter(&buf, []Register{{Name: "PORTB", Addr: 0x25}}, 16_000_000)
	_ = w.Open("atmega328p", m)
	w.Sample(1, false, m)
	buf.Reset()

	m.DM[0x25] = 0x01
	w.Sample(2, false, m)

	out := buf.String()
	if !strings.Contains(out, "#2") {
		t.Fatalf("change block must be tagged with its tick: %q", out)
	}
	if !strings.Contains(out, "b00000001 PORTB") {
		t.Fatalf("change block must carry the new binary value: %q", out)
	}
}

func TestSampleIgnoresRegisterChangesOnTheFallingHalf(t *testing.T) {
	m := avr.NewMachine(device.NewATmega328P())
	var buf bytes.Buffer
	w := NewWriter(&buf, []Register{{Name: "PORTB", Addr: 0x25}}, 16_000_000)
	_ = w.Open("atmega328p", m)
	w.Sample(1, false, m)
	buf.Reset()

	m.DM[0x25] = 0xFF
	w.Sample(2, true, m) // falling half: register changes must not be sampled

	out := buf.String()
	if strings.Contains(out, "PORTB") {
		t.Fatalf("falling-edge sample must not report register changes: %q", out)
	}
}
