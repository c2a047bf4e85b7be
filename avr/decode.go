package avr

// decoded is the result of decoding one instruction: how many 16-bit
// words it occupies, how many clock cycles it takes, and a closure that
// performs its full effect (memory writes, PC update, flags, stack).
//
// Step defers invoking run until the instruction's last cycle, per
// spec.md §4.1's atomicity contract — effects never appear mid-flight to
// an external observer inspecting Machine between cycles.
type decoded struct {
	words  uint32
	cycles int
	run    func(m *Machine)
}

// opcodeFamily is one layer of the decoder: given the fetched word(s) at
// pc, it either recognizes its slice of the opcode space and returns a
// populated decoded, or declines. Families are tried in order, mirroring
// the "layered decoder keyed on high nibble, then finer masks" of
// spec.md §4.1, generalized from the teacher's single flat switch
// (dcpu.runMainOp) into one function per instruction family so each
// family can live in its own file, the way mocha/ splits
// nullary_ops.go/unary_ops.go/binary_ops.go/unary_branch_ops.go.
type opcodeFamily func(c *fetchCtx) (*decoded, bool)

// fetchCtx carries the raw words and fetch address shared by every
// family's decode attempt.
type fetchCtx struct {
	m     *Machine
	pc    uint32
	w     uint16
	has32 bool
	w2    uint16
}

var families = []opcodeFamily{
	tryArith,
	tryLogic,
	tryShift,
	tryBits,
	tryBranch,
	tryDataTransfer,
	tryMCUControl,
}

// is32Bit reports whether the instruction word at pc is the first half
// of a 32-bit instruction, per spec.md §4.1's exact predicate.
func is32Bit(w uint16) bool {
	switch w & 0xFC0F {
	case 0x9000, 0x9200, 0x940C, 0x940D, 0x940E, 0x940F:
		return true
	}
	return false
}

// fetchWord reads one little-endian 16-bit instruction word from flash,
// or from the match-point shadow buffer when the one-shot breakpoint
// fetch flag is set (spec.md §3, "Match-point memory").
func (m *Machine) fetchWord(addr uint32) uint16 {
	src := m.Flash
	if m.UseMatchPointOnce {
		src = m.MatchPoint
	}
	return uint16(src[addr]) | uint16(src[addr+1])<<8
}

func (m *Machine) peekWord(addr uint32) uint16 {
	return uint16(m.Flash[addr]) | uint16(m.Flash[addr+1])<<8
}

// decode fetches and decodes one instruction at m.PC. It mutates no
// architectural state, but it does consume the one-shot
// UseMatchPointOnce fetch flag, so a second call after a BREAK fetches
// from flash rather than from the match-point buffer.
func decode(m *Machine) (*decoded, StepResult) {
	pc := m.PC
	w := m.fetchWord(pc)

	// The one-shot match-point fetch only applies to the first word; the
	// continuation word of a 32-bit instruction always comes from flash,
	// matching how a single substituted BREAK opcode can't itself be the
	// first half of a 32-bit instruction in legitimately assembled code.
	if m.UseMatchPointOnce {
		m.UseMatchPointOnce = false
	}

	has32 := is32Bit(w)
	var w2 uint16
	if has32 {
		w2 = m.peekWord(pc + 2)
	}

	c := &fetchCtx{m: m, pc: pc, w: w, has32: has32, w2: w2}
	for _, fam := range families {
		if d, ok := fam(c); ok {
			return d, Ok
		}
	}
	return nil, UnknownInstruction
}

// Step advances the simulation by exactly one clock cycle, per
// spec.md §4.1.
func (m *Machine) Step() StepResult {
	if m.InMulti {
		m.CyclesRemaining--
		if m.CyclesRemaining <= 0 {
			m.InMulti = false
			ins := m.pending
			m.pending = nil
			ins.run(m)
		}
		return Ok
	}

	ins, res := decode(m)
	if res != Ok {
		m.Fail("unknown instruction")
		return res
	}

	if ins.cycles <= 1 {
		ins.run(m)
		return Ok
	}

	m.InMulti = true
	m.CyclesRemaining = ins.cycles - 1
	m.pending = ins
	return Ok
}

// Defer runs fn after cycles-1 further calls to Step, reusing the same
// deferred-apply bookkeeping as a decoded multi-cycle instruction. The
// interrupt arbiter uses this to make vector dispatch take the same
// number of cycles as a CALL without duplicating Step's InMulti protocol.
func (m *Machine) Defer(cycles int, fn func(*Machine)) {
	if cycles <= 1 {
		fn(m)
		return
	}
	m.InMulti = true
	m.CyclesRemaining = cycles - 1
	m.pending = &decoded{cycles: cycles, run: fn}
}

// reducedCoreDelta returns the cycle-count adjustment for the reduced
// AVR core, which shaves a cycle off most multi-cycle memory operations
// (spec.md §1's "Reduced core" glossary entry).
func reducedCoreDelta(m *Machine, cycles int) int {
	if m.Profile.ReducedCore && cycles > 1 {
		return cycles - 1
	}
	return cycles
}

// advance is the default "move PC past this instruction" helper that
// every non-branching instruction's run closure calls first.
func advance(m *Machine, pc uint32, words uint32) {
	m.PC = pc + words*2
}

// skipWords looks at the instruction immediately following a skip-style
// opcode (CPSE, SBRC/SBRS, SBIC/SBIS) and reports how many 16-bit words
// to jump over: 2 if that instruction is itself 32-bit, 1 otherwise.
// This is the "32-bit instruction skip" boundary case of spec.md §8.
func skipWords(m *Machine, nextPC uint32) uint32 {
	if is32Bit(m.peekWord(nextPC)) {
		return 2
	}
	return 1
}
