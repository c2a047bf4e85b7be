// Package debugserver implements a minimal remote serial protocol (RSP)
// debug server: packet framing, register/memory access, match-point
// (software) breakpoints, continue and single-step. Grounded on
// usercorn's go/debug/gdbstub.go, generalized from its 32-bit generic-CPU
// register model to AVR's flat byte-register file and SREG.
package debugserver

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/avrsim/avrsim/avr"
)

func escape(p []byte) []byte {
	out := make([]byte, 0, len(p))
	for _, c := range p {
		if c == '#' || c == '$' || c == '}' {
			out = append(out, '}', c^0x20)
		} else {
			out = append(out, c)
		}
	}
	return out
}

func unescape(p []byte) []byte {
	out := make([]byte, 0, len(p))
	for i := 0; i < len(p); i++ {
		if p[i] == '}' && i+1 < len(p) {
			i++
			out = append(out, p[i]^0x20)
		} else {
			out = append(out, p[i])
		}
	}
	return out
}

func checksum(p []byte) []byte {
	chk := 0
	for _, c := range p {
		chk = (chk + int(c)) % 256
	}
	return []byte(fmt.Sprintf("%02x", chk))
}

func parseRange(s string) (uint64, uint64) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	a, _ := strconv.ParseUint(parts[0], 16, 64)
	b, _ := strconv.ParseUint(parts[1], 16, 64)
	return a, b
}

// Server accepts RSP connections against a single Machine. The protocol
// is inherently stop-the-world, matching spec.md §5's rule that a
// Machine may only be touched by one collaborator while Running.
type Server struct {
	m *avr.Machine
}

func NewServer(m *avr.Machine) *Server {
	return &Server{m: m}
}

// Serve accepts and handles connections on ln until it returns an error
// (including a client detach, which is treated as a normal exit of that
// session rather than the whole server).
func (s *Server) Serve(ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			return err
		}
		cl := &client{Conn: c, m: s.m, breakpoints: make(map[uint32]byte)}
		go cl.run()
	}
}

type client struct {
	net.Conn
	m           *avr.Machine
	breakpoints map[uint32]byte // flash address -> original low byte, for future exact-restore
	noAck       bool
}

func (c *client) send(s string) {
	data := escape([]byte(s))
	framed := append([]byte("$"), data...)
	framed = append(framed, '#')
	framed = append(framed, checksum(data)...)
	c.Write(framed)
}

// fmtAddr formats the program counter as eight big-endian hex digits,
// the same encoding the 'g' packet uses for pc.
func fmtAddr(v uint32) string {
	return fmt.Sprintf("%08x", v)
}

func (c *client) reportStop() {
	c.send(fmt.Sprintf("T05pc:%s;", fmtAddr(c.m.PC)))
}

func (c *client) handle(cmd []byte) error {
	if len(cmd) == 0 {
		return nil
	}
	b, rest := cmd[0], string(cmd[1:])

	switch b {
	case 'q':
		switch {
		case rest == "Supported" || strings.HasPrefix(rest, "Supported:"):
			c.send("PacketSize=4000")
		case rest == "Attached":
			c.send("1")
		case rest == "C":
			c.send("QC1")
		default:
			c.send("")
		}
	case 'Q':
		if rest == "StartNoAckMode" {
			c.noAck = true
			c.send("OK")
		} else {
			c.send("")
		}
	case 'H':
		c.send("OK")
	case '?':
		c.reportStop()
	case 'g': // read all general-purpose registers + SREG + SP + PC
		var sb strings.Builder
		for r := uint8(0); r < 32; r++ {
			fmt.Fprintf(&sb, "%02x", c.m.GPReg(r))
		}
		fmt.Fprintf(&sb, "%02x", c.m.SREG())
		fmt.Fprintf(&sb, "%04x", c.m.SP())
		fmt.Fprintf(&sb, "%08x", c.m.PC)
		c.send(sb.String())
	case 'G': // write all registers back, same layout as 'g'
		raw, err := hex.DecodeString(rest)
		if err != nil || len(raw) < 32+1+2 {
			c.send("E01")
			break
		}
		for r := uint8(0); r < 32; r++ {
			c.m.SetGPReg(r, raw[r])
		}
		c.m.SetSREG(raw[32])
		c.m.SetSP(uint32(raw[33])<<8 | uint32(raw[34]))
		if len(raw) >= 32+1+2+4 {
			c.m.PC = uint32(raw[35])<<24 | uint32(raw[36])<<16 | uint32(raw[37])<<8 | uint32(raw[38])
		}
		c.send("OK")
	case 'm': // read memory: addr,length
		addr, length := parseRange(rest)
		if addr+length > uint64(len(c.m.DM)) {
			c.send("E01")
			break
		}
		c.send(hex.EncodeToString(c.m.DM[addr : addr+length]))
	case 'M': // write memory: addr,length:data
		head, data, ok := strings.Cut(rest, ":")
		if !ok {
			c.send("E01")
			break
		}
		addr, length := parseRange(head)
		raw, err := hex.DecodeString(data)
		if err != nil || uint64(len(raw)) != length || addr+length > uint64(len(c.m.DM)) {
			c.send("E01")
			break
		}
		copy(c.m.DM[addr:addr+length], raw)
		c.send("OK")
	case 'Z': // set breakpoint: type,addr,kind
		parts := strings.Split(rest, ",")
		if len(parts) != 3 {
			c.send("E01")
			break
		}
		addr, _ := strconv.ParseUint(parts[1], 16, 32)
		// MatchPoint holds the original, displaced instruction; Flash
		// gets the BREAK opcode so a normal fetch traps there.
		c.m.MatchPoint[addr] = c.m.Flash[addr]
		c.m.MatchPoint[addr+1] = c.m.Flash[addr+1]
		c.breakpoints[uint32(addr)] = c.m.Flash[addr]
		c.m.Flash[addr] = 0x98   // BREAK opcode low byte
		c.m.Flash[addr+1] = 0x95 // BREAK opcode high byte
		c.send("OK")
	case 'z': // clear breakpoint
		parts := strings.Split(rest, ",")
		if len(parts) != 3 {
			c.send("E01")
			break
		}
		addr, _ := strconv.ParseUint(parts[1], 16, 32)
		copy(c.m.Flash[addr:addr+2], c.m.MatchPoint[addr:addr+2])
		delete(c.breakpoints, uint32(addr))
		c.send("OK")
	case 'c': // continue
		c.m.RunState = avr.Running
		c.reportStop()
	case 's': // single step
		c.m.RunState = avr.Step
		c.reportStop()
	case 'D':
		c.send("OK")
		return errDetached
	default:
		c.send("")
	}
	return nil
}

var errDetached = fmt.Errorf("debugserver: client detached")

func (c *client) run() {
	defer c.Close()
	r := bufio.NewReader(c)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		if b == '+' || b == '-' {
			continue
		}
		if b != '$' {
			continue
		}
		raw, err := r.ReadBytes('#')
		if err != nil {
			return
		}
		raw = raw[:len(raw)-1]
		// discard the two-hex-digit checksum trailer
		r.Discard(2)
		if !c.noAck {
			c.Write([]byte("+"))
		}
		if err := c.handle(unescape(raw)); err != nil {
			return
		}
	}
}
