package main

// The interactive local debug console: a small table of named commands,
// each self-describing for the help listing. Generalized from the
// teacher's debugBlob/DebugCommand map in debug.go, which dispatched on
// dcpu register names (A,B,C,X,Y,Z,I,J); here the table walks the AVR
// register file, SREG and the timer/interrupt I/O space instead.

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/avrsim/avrsim/avr"
	"github.com/avrsim/avrsim/driver"
)

type debugCommand struct {
	desc string
	run  func(d *driver.Driver, args []string)
}

var debugCommands = map[string]debugCommand{
	"r": {"Dump all registers, SREG, SP and PC", cmdRegs},
	"q": {"Quit the emulator", func(*driver.Driver, []string) {
		restoreTerminal()
		os.Exit(0)
	}},
	"c": {"Continue execution", func(d *driver.Driver, _ []string) {
		d.Machine.RunState = avr.Running
	}},
	"s": {"Step forward one instruction", func(d *driver.Driver, _ []string) {
		d.Machine.RunState = avr.Step
		d.Run(0)
	}},
	"m": {"Print a byte of data memory: m <hex addr>", cmdMem},
	"b": {"Drop a BREAK opcode at a flash address: b <hex addr>", cmdBreak},
}

// allRegsSpec names every general-purpose register plus SREG and SP, for
// the "r" command's unconditional full dump, independent of whatever the
// config file's dump_regs entry says to trace.
var allRegsSpec = func() []string {
	specs := make([]string, 0, 34)
	for i := 0; i < 32; i++ {
		specs = append(specs, fmt.Sprintf("r%d", i))
	}
	return append(specs, "sreg", "sp")
}()

func cmdRegs(d *driver.Driver, args []string) {
	d.DumpRegisters(allRegsSpec)
	fmt.Printf("PC: %06x\n", d.Machine.PC)
}

func cmdMem(d *driver.Driver, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: m <hex addr>")
		return
	}
	addr, err := strconv.ParseUint(args[1], 16, 32)
	if err != nil {
		fmt.Printf("bad address: %v\n", err)
		return
	}
	if addr >= uint64(len(d.Machine.DM)) {
		fmt.Println("address out of range")
		return
	}
	fmt.Printf("[%04x] = %02x\n", addr, d.Machine.DM[addr])
}

func cmdBreak(d *driver.Driver, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: b <hex addr>")
		return
	}
	addr, err := strconv.ParseUint(args[1], 16, 32)
	if err != nil {
		fmt.Printf("bad address: %v\n", err)
		return
	}
	// Same layout as the RSP server's Z packet: MatchPoint keeps the
	// displaced instruction, Flash gets the BREAK opcode.
	d.Machine.MatchPoint[addr] = d.Machine.Flash[addr]
	d.Machine.MatchPoint[addr+1] = d.Machine.Flash[addr+1]
	d.Machine.Flash[addr] = 0x98
	d.Machine.Flash[addr+1] = 0x95
	fmt.Printf("breakpoint set at 0x%04x\n", addr)
}

// debugConsole owns the console's stdin handling. On a real terminal it
// switches stdin into raw mode (matching terminal_host.go's
// term.MakeRaw/term.Restore pairing) so a bare "s" steps the instant it's
// typed, without waiting on Enter, the way a hardware in-circuit debugger's
// single-step key does. Piped or redirected stdin (scripted runs, tests)
// has no tty to raw-mode, so it falls back to ordinary line buffering, the
// same realInput split plainterm.go makes with term.IsTerminal.
type debugConsole struct {
	raw   bool
	fd    int
	state *term.State
	lines *bufio.Reader
}

var activeConsole *debugConsole

func newDebugConsole() *debugConsole {
	c := &debugConsole{fd: int(os.Stdin.Fd()), lines: bufio.NewReader(os.Stdin)}
	if term.IsTerminal(c.fd) {
		if state, err := term.MakeRaw(c.fd); err == nil {
			c.raw = true
			c.state = state
		}
	}
	activeConsole = c
	return c
}

// restoreTerminal puts stdin back into whatever mode it was in before
// newDebugConsole ran. Every exit path (the "q" command, os.Exit on a
// startup error) must call this first or the shell the process was
// launched from is left without line echo.
func restoreTerminal() {
	if activeConsole != nil && activeConsole.raw {
		term.Restore(activeConsole.fd, activeConsole.state)
		activeConsole.raw = false
	}
}

// readLine returns one command line's whitespace-separated fields. In raw
// mode there's no terminal driver doing echo or backspace handling anymore,
// so readLine does both itself; a lone "s" with nothing else typed yet
// completes immediately rather than waiting for a newline.
func (c *debugConsole) readLine() ([]string, error) {
	if !c.raw {
		line, err := c.lines.ReadString('\n')
		if err != nil {
			return nil, err
		}
		return strings.Fields(line), nil
	}

	var buf []byte
	b := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(b); err != nil {
			return nil, err
		}
		switch ch := b[0]; {
		case ch == '\r' || ch == '\n':
			fmt.Print("\r\n")
			return strings.Fields(string(buf)), nil
		case (ch == 0x7F || ch == 0x08) && len(buf) > 0:
			buf = buf[:len(buf)-1]
			fmt.Print("\b \b")
		case ch == 's' && len(buf) == 0:
			fmt.Print("s\r\n")
			return []string{"s"}, nil
		default:
			buf = append(buf, ch)
			fmt.Printf("%c", ch)
		}
	}
}

func runDebugConsole(d *driver.Driver, c *debugConsole) {
	fmt.Print("(avrsim) ")
	args, err := c.readLine()
	if err != nil {
		fmt.Printf("error reading input: %v\n", err)
		return
	}
	if len(args) == 0 {
		return
	}
	if cmd, ok := debugCommands[args[0]]; ok {
		cmd.run(d, args)
		return
	}
	fmt.Printf("unknown command %q; commands:\n", args[0])
	for name, cmd := range debugCommands {
		fmt.Printf("  %s\t%s\n", name, cmd.desc)
	}
}
