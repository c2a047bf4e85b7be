package device

import "testing"

func TestRegisterResolvesGPRegistersSREGAndSP(t *testing.T) {
	p := NewATmega328P()

	if r, ok := p.Register("r16"); !ok || r.Addr != 16 || r.Width != 1 {
		t.Fatalf("Register(\"r16\") = %+v, %v", r, ok)
	}
	if r, ok := p.Register("R31"); !ok || r.Addr != 31 {
		t.Fatalf("Register(\"R31\") should be case-insensitive, got %+v, %v", r, ok)
	}
	if r, ok := p.Register("sreg"); !ok || r.Addr != p.SREGAddr || r.Width != 1 {
		t.Fatalf("Register(\"sreg\") = %+v, %v", r, ok)
	}
	if r, ok := p.Register("sp"); !ok || r.Addr != p.SPLAddr || r.Width != 2 {
		t.Fatalf("Register(\"sp\") = %+v, %v", r, ok)
	}
	if _, ok := p.Register("r32"); ok {
		t.Fatal("r32 is out of range and must not resolve")
	}
	if _, ok := p.Register("portb"); ok {
		t.Fatal("names outside the general-purpose file, SREG, SP and timers are not resolvable")
	}
}

func TestRegisterResolvesTimerCounterAndCompareRegisters(t *testing.T) {
	p := NewATmega328P()

	if r, ok := p.Register("timer0_cnt"); !ok || r.Addr != p.Timers[0].CounterAddr {
		t.Fatalf("Register(\"timer0_cnt\") = %+v, %v", r, ok)
	}
	if r, ok := p.Register("TIMER0_OCRA"); !ok || r.Addr != p.Timers[0].Channels[0].OCRAddr {
		t.Fatalf("Register(\"TIMER0_OCRA\") = %+v, %v", r, ok)
	}
}

func TestResolveRegisterSpecBareName(t *testing.T) {
	p := NewATmega328P()
	s, ok := p.ResolveRegisterSpec("r16")
	if !ok || s.Bit != -1 || s.Width != 1 || s.Addr != 16 {
		t.Fatalf("ResolveRegisterSpec(\"r16\") = %+v, %v", s, ok)
	}
}

func TestResolveRegisterSpecBitSuffix(t *testing.T) {
	p := NewATmega328P()
	dm := make([]byte, 256)
	dm[16] = 0x08 // bit 3 set

	s, ok := p.ResolveRegisterSpec("r16.3")
	if !ok {
		t.Fatal("r16.3 should resolve")
	}
	if got := s.Read(dm); got != 1 {
		t.Fatalf("r16.3 read %d, want 1", got)
	}
	if s2, ok2 := p.ResolveRegisterSpec("r16.2"); !ok2 {
		t.Fatal("r16.2 should resolve")
	} else if got := s2.Read(dm); got != 0 {
		t.Fatalf("r16.2 read %d, want 0", got)
	}
	if _, ok := p.ResolveRegisterSpec("r16.8"); ok {
		t.Fatal("bit 8 is out of range for a byte register")
	}
}

func TestResolveRegisterSpecPairSyntax(t *testing.T) {
	p := NewATmega328P()
	dm := make([]byte, 256)
	dm[24] = 0x34 // r24 (low)
	dm[25] = 0x12 // r25 (high)

	s, ok := p.ResolveRegisterSpec("r24:r25")
	if !ok || s.Width != 2 || s.Addr != 24 {
		t.Fatalf("ResolveRegisterSpec(\"r24:r25\") = %+v, %v", s, ok)
	}
	if got := s.Read(dm); got != 0x1234 {
		t.Fatalf("r24:r25 read %#x, want 0x1234", got)
	}
}

func TestResolveRegisterSpecRejectsNonAdjacentPair(t *testing.T) {
	p := NewATmega328P()
	if _, ok := p.ResolveRegisterSpec("r0:r2"); ok {
		t.Fatal("r0:r2 are not adjacent and must not resolve as a pair")
	}
}

func TestResolveRegisterSpecRejectsUnknownName(t *testing.T) {
	p := NewATmega328P()
	if _, ok := p.ResolveRegisterSpec("portb"); ok {
		t.Fatal("an unresolvable name must report ok=false, not a zero-valued spec")
	}
}
