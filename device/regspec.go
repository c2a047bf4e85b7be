package device

import (
	"strconv"
	"strings"
)

// NamedRegister locates one of a profile's named registers: r0-r31 in the
// general-purpose file, the two always-present status registers, or a
// configured timer's counter/compare register.
type NamedRegister struct {
	Addr  uint16
	Width int // bytes: 1 or 2
}

// Register resolves name (case-insensitive) against the general-purpose
// register file, SREG/SP, and every configured timer's named registers
// ("<timer>_cnt", "<timer>_ocr<channel>"), matching the naming scheme the
// VCD trace writer's default register set already uses.
func (p *Profile) Register(name string) (NamedRegister, bool) {
	name = strings.ToLower(name)
	switch name {
	case "sreg":
		return NamedRegister{Addr: p.SREGAddr, Width: 1}, true
	case "sp":
		return NamedRegister{Addr: p.SPLAddr, Width: 2}, true
	}
	if len(name) > 1 && name[0] == 'r' {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 0 && n <= 31 {
			return NamedRegister{Addr: uint16(n), Width: 1}, true
		}
	}
	for i := range p.Timers {
		t := &p.Timers[i]
		prefix := strings.ToLower(t.Name) + "_"
		if name == prefix+"cnt" {
			return NamedRegister{Addr: t.CounterAddr, Width: t.Width}, true
		}
		for j := range t.Channels {
			c := &t.Channels[j]
			if name == prefix+"ocr"+strings.ToLower(c.Name) {
				return NamedRegister{Addr: c.OCRAddr, Width: c.OCRWidth}, true
			}
		}
	}
	return NamedRegister{}, false
}

// RegisterSpec is one resolved dump_regs token, spec.md §6: a byte or
// 16-bit pair (Bit == -1), or a single bit of a byte register.
type RegisterSpec struct {
	Label string
	Addr  uint16
	Width int
	Bit   int
}

// Read returns the spec's current value out of data memory.
func (s RegisterSpec) Read(dm []byte) uint16 {
	if s.Bit >= 0 {
		return uint16((dm[s.Addr] >> uint(s.Bit)) & 1)
	}
	if s.Width == 2 {
		return uint16(dm[s.Addr]) | uint16(dm[s.Addr+1])<<8
	}
	return uint16(dm[s.Addr])
}

// ResolveRegisterSpec parses one comma-separated dump_regs token: a bare
// name (byte or pair, sized by the named register itself), "nameA:nameB"
// (two adjacent byte registers read as a 16-bit pair, nameA the low
// byte), or "name.N" (bit N, 0-7, of a byte register).
func (p *Profile) ResolveRegisterSpec(token string) (RegisterSpec, bool) {
	if before, after, ok := strings.Cut(token, ":"); ok {
		lo, okLo := p.Register(before)
		hi, okHi := p.Register(after)
		if !okLo || !okHi || lo.Width != 1 || hi.Width != 1 || hi.Addr != lo.Addr+1 {
			return RegisterSpec{}, false
		}
		return RegisterSpec{Label: token, Addr: lo.Addr, Width: 2, Bit: -1}, true
	}
	if before, after, ok := strings.Cut(token, "."); ok {
		reg, okReg := p.Register(before)
		bit, err := strconv.Atoi(after)
		if !okReg || reg.Width != 1 || err != nil || bit < 0 || bit > 7 {
			return RegisterSpec{}, false
		}
		return RegisterSpec{Label: token, Addr: reg.Addr, Width: 1, Bit: bit}, true
	}
	reg, ok := p.Register(token)
	if !ok {
		return RegisterSpec{}, false
	}
	return RegisterSpec{Label: token, Addr: reg.Addr, Width: reg.Width, Bit: -1}, true
}
