// Package config parses the simulator's key/value configuration file:
// which device profile to simulate, its clock rate and fuse bits, where
// to load firmware from, and which of the optional ambient features
// (VCD trace, remote debug server, Lua model, trap-at-ISR) to enable.
package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Config is the fully parsed contents of one configuration file. Zero
// values are valid defaults: no trace, no debug server, no script model.
type Config struct {
	MCU string

	MCUFreq uint64

	LFuse uint8
	HFuse uint8
	EFuse uint8
	HaveLFuse, HaveHFuse, HaveEFuse bool

	FirmwareFile string
	FirmwareTest string
	ResetFlash   bool
	LockBits     uint8

	VCDFile   string
	RSPPort   int
	TrapAtISR bool
	DumpRegs  []string
	LuaModel  string
}

// Parse reads a configuration file of "key = value" lines. Blank lines
// and lines starting with # are ignored. An unknown key or an
// unparseable value is a configuration-class error, per spec.md §7(a).
func Parse(r io.Reader) (*Config, error) {
	c := &Config{MCUFreq: 16000000}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		key, val, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("config: line %d: expected key = value, got %q", line, text)
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if err := c.set(key, val); err != nil {
			return nil, fmt.Errorf("config: line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

func (c *Config) set(key, val string) error {
	switch key {
	case "mcu":
		c.MCU = val
	case "mcu_freq":
		v, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("mcu_freq: %w", err)
		}
		c.MCUFreq = v
	case "mcu_lfuse":
		v, err := parseFuse(val)
		if err != nil {
			return fmt.Errorf("mcu_lfuse: %w", err)
		}
		c.LFuse, c.HaveLFuse = v, true
	case "mcu_hfuse":
		v, err := parseFuse(val)
		if err != nil {
			return fmt.Errorf("mcu_hfuse: %w", err)
		}
		c.HFuse, c.HaveHFuse = v, true
	case "mcu_efuse":
		v, err := parseFuse(val)
		if err != nil {
			return fmt.Errorf("mcu_efuse: %w", err)
		}
		c.EFuse, c.HaveEFuse = v, true
	case "lockbits":
		v, err := parseFuse(val)
		if err != nil {
			return fmt.Errorf("lockbits: %w", err)
		}
		c.LockBits = v
	case "firmware_file":
		c.FirmwareFile = val
	case "firmware_test":
		c.FirmwareTest = val
	case "reset_flash":
		c.ResetFlash = val == "yes" || val == "true" || val == "1"
	case "vcd_file":
		c.VCDFile = val
	case "rsp_port":
		v, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("rsp_port: %w", err)
		}
		c.RSPPort = v
	case "trap_at_isr":
		c.TrapAtISR = val == "yes" || val == "true" || val == "1"
	case "dump_regs":
		var regs []string
		for _, tok := range strings.Split(val, ",") {
			tok = strings.TrimSpace(tok)
			if tok != "" {
				regs = append(regs, tok)
			}
		}
		c.DumpRegs = regs
	case "lua_model":
		c.LuaModel = val
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

func parseFuse(s string) (uint8, error) {
	s = strings.TrimPrefix(s, "0x")
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}
