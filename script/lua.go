// Package script embeds a Lua scripting host that a firmware-test model
// can use to peek/poke machine state between driver-loop ticks, the way a
// bench test fixture drives real hardware. Grounded on the gopher-lua
// dependency the example pack's IntuitionEngine pulls in for its own
// scripting layer; this package is the AVR-side equivalent.
package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/avrsim/avrsim/avr"
)

// Host wraps one Lua state bound to a single Machine. Load a model file
// once with Load, then call Tick once per driver-loop iteration.
type Host struct {
	state *lua.LState
	m     *avr.Machine
	freq  uint64

	hasConf bool
	hasTick bool
}

// NewHost builds a Host over m. freqHz is exposed to the script through
// mcu_freq() so a model can compute baud-rate-accurate delays.
func NewHost(m *avr.Machine, freqHz uint64) *Host {
	h := &Host{state: lua.NewState(), m: m, freq: freqHz}
	h.registerBuiltins()
	return h
}

// Close releases the underlying Lua state.
func (h *Host) Close() { h.state.Close() }

// Load compiles and runs a model file's top level, then calls module_conf
// once if the model defines it. The model is expected to define
// module_tick for Tick to call afterward.
func (h *Host) Load(path string) error {
	if err := h.state.DoFile(path); err != nil {
		return fmt.Errorf("script: loading model %s: %w", path, err)
	}
	h.hasConf = h.state.GetGlobal("module_conf") != lua.LNil
	h.hasTick = h.state.GetGlobal("module_tick") != lua.LNil
	if h.hasConf {
		if err := h.state.CallByParam(lua.P{Fn: h.state.GetGlobal("module_conf"), NRet: 0, Protect: true}); err != nil {
			return fmt.Errorf("script: module_conf: %w", err)
		}
	}
	return nil
}

// Tick calls the model's module_tick function, if it defined one. The
// driver loop calls this once per main-loop iteration, per spec.md §4.5.
func (h *Host) Tick() error {
	if !h.hasTick {
		return nil
	}
	fn := h.state.GetGlobal("module_tick")
	if err := h.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
		return fmt.Errorf("script: module_tick: %w", err)
	}
	return nil
}

// registerBuiltins exposes the small fixed set of Go functions a model
// script can call to observe and drive the machine.
func (h *Host) registerBuiltins() {
	h.state.SetGlobal("read_reg", h.state.NewFunction(h.luaReadReg))
	h.state.SetGlobal("write_reg", h.state.NewFunction(h.luaWriteReg))
	h.state.SetGlobal("read_io_bit", h.state.NewFunction(h.luaReadIOBit))
	h.state.SetGlobal("write_io_bit", h.state.NewFunction(h.luaWriteIOBit))
	h.state.SetGlobal("read_byte", h.state.NewFunction(h.luaReadByte))
	h.state.SetGlobal("write_byte", h.state.NewFunction(h.luaWriteByte))
	h.state.SetGlobal("mcu_freq", h.state.NewFunction(h.luaMCUFreq))
	h.state.SetGlobal("set_run_state", h.state.NewFunction(h.luaSetRunState))
	h.state.SetGlobal("log", h.state.NewFunction(h.luaLog))
}

func (h *Host) luaReadReg(L *lua.LState) int {
	r := uint8(L.CheckInt(1))
	L.Push(lua.LNumber(h.m.GPReg(r)))
	return 1
}

func (h *Host) luaWriteReg(L *lua.LState) int {
	r := uint8(L.CheckInt(1))
	v := byte(L.CheckInt(2))
	h.m.SetGPReg(r, v)
	return 0
}

func (h *Host) luaReadIOBit(L *lua.LState) int {
	addr := uint16(L.CheckInt(1))
	bitN := uint(L.CheckInt(2))
	v := h.m.DM[addr]&(1<<bitN) != 0
	L.Push(lua.LBool(v))
	return 1
}

func (h *Host) luaWriteIOBit(L *lua.LState) int {
	addr := uint16(L.CheckInt(1))
	bitN := uint(L.CheckInt(2))
	set := L.CheckBool(3)
	if set {
		h.m.DM[addr] |= 1 << bitN
	} else {
		h.m.DM[addr] &^= 1 << bitN
	}
	return 0
}

func (h *Host) luaReadByte(L *lua.LState) int {
	addr := uint32(L.CheckInt(1))
	L.Push(lua.LNumber(h.m.ReadDM(addr)))
	return 1
}

func (h *Host) luaWriteByte(L *lua.LState) int {
	addr := uint32(L.CheckInt(1))
	v := byte(L.CheckInt(2))
	h.m.WriteDM(addr, v)
	return 0
}

func (h *Host) luaMCUFreq(L *lua.LState) int {
	L.Push(lua.LNumber(h.freq))
	return 1
}

func (h *Host) luaSetRunState(L *lua.LState) int {
	switch L.CheckString(1) {
	case "running":
		h.m.RunState = avr.Running
	case "stopped":
		h.m.RunState = avr.Stopped
	case "fail":
		h.m.Fail(L.OptString(2, "script requested TestFail"))
	}
	return 0
}

func (h *Host) luaLog(L *lua.LState) int {
	fmt.Println(L.CheckString(1))
	return 0
}
