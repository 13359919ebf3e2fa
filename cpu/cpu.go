package cpu

// https://gbdev.io/pandocs/
// https://gekkio.fi/files/gb-docs/gbctr.pdf
// https://rgbds.gbdev.io/docs/v0.6.1/gbz80.7

// A Cpu is the instruction-execution core of a Sharp LR35902. It owns no
// memory of its own: Step returns at most one bus operation per half-cycle,
// and the caller feeds back whatever that operation observed on the
// following call. See the package doc in regs.go and the drive protocol in
// the Step doc below.
type Cpu struct {
	regs regs
	IE   byte
	IME  bool

	state  cpuState
	mCycle mCycle
	phase  phase
}

// mCycle names the M-cycle within the current instruction or interrupt
// dispatch. M1 is never an explicit state here: it is always the previous
// instruction's final fetch, folded into that instruction's own last
// M-cycle (see executeM1 in engine.go).
type mCycle int

const (
	M2 mCycle = iota
	M3
	M4
	M5
	M6
	M7
)

func (m mCycle) next() mCycle {
	if m == M7 {
		panic("cpu: M-cycle counter advanced past M7")
	}
	return m + 1
}

// phase is the half-cycle within an M-cycle: Tick presents the bus address
// and direction, Tock latches whatever the bus returned.
type phase int

const (
	phaseTick phase = iota
	phaseTock
)

func (p phase) flip() phase {
	if p == phaseTick {
		return phaseTock
	}
	return phaseTick
}

// cpuState is the Mode/execution-state tagged union from spec §3: either a
// normal running instruction, or the fixed interrupt-dispatch sequence.
type cpuState struct {
	interrupt bool // when true, instr is unused and the CPU is in Interrupt mode
	instr     instrState
}

func newInstructionState(opcode byte) cpuState {
	return cpuState{instr: instrState{opcode: opcode, data: 0xff, addr: 0xffff}}
}

// modeTransition is requested by either engine on the Tock that ends its
// final M-cycle: either a normal handoff to the next fetched opcode, or a
// diversion into interrupt dispatch.
type modeTransition struct {
	nextOpcode byte
	interrupt  bool
}

// New constructs a Cpu in its documented default state (spec §3): all
// registers zero, PC=0, SP=0, IE=0, IME=false, with the state machine
// positioned at the start of a NOP's M2 Tick.
func New() *Cpu {
	return &Cpu{
		state:  newInstructionState(0x00),
		mCycle: M2,
		phase:  phaseTick,
	}
}

// Step advances the Cpu by exactly one half-cycle and returns at most one
// bus operation. The canonical drive loop alternates Tick and Tock calls:
//
//	for {
//	    op := cpu.Step(Input{IF: currentIF})          // Tick
//	    var data *byte
//	    if addr, ok := op.ReadOp(); ok {
//	        v := bus.Read(addr)
//	        data = &v
//	    } else if addr, v, ok := op.WriteOp(); ok {
//	        bus.Write(addr, v)
//	    }
//	    cpu.Step(Input{Data: data, IF: currentIF})     // Tock
//	}
//
// The caller must preserve this alternation: every Tick call is followed by
// exactly one Tock call before the next Tick. data must be non-nil exactly
// when responding to the most recently driven Read, and nil in every other
// case (all Tick calls, and Tocks following a Write or no bus op at all).
func (c *Cpu) Step(in Input) *BusOp {
	transition, output := c.stepState(in)

	c.phase = c.phase.flip()
	if c.phase == phaseTick {
		c.mCycle = c.mCycle.next()
	}

	if transition != nil {
		if transition.interrupt {
			c.state = cpuState{interrupt: true}
		} else {
			c.state = newInstructionState(transition.nextOpcode)
		}
		c.mCycle = M2
	}

	return output
}

func (c *Cpu) stepState(in Input) (*modeTransition, *BusOp) {
	if c.state.interrupt {
		e := interruptEngine{regs: &c.regs, ime: &c.IME, mCycle: c.mCycle, phase: c.phase}
		return e.step(in)
	}
	e := instrEngine{regs: &c.regs, ie: &c.IE, state: &c.state.instr, mCycle: c.mCycle, phase: c.phase}
	return e.step(in)
}

// The accessors below exist purely for test/debug use — pre-seeding
// register state before driving Step, and inspecting it afterward. They are
// not part of the Step contract and carry no cycle cost.

func (c *Cpu) A() byte    { return c.regs.a }
func (c *Cpu) B() byte    { return c.regs.b }
func (c *Cpu) C() byte    { return c.regs.c }
func (c *Cpu) D() byte    { return c.regs.d }
func (c *Cpu) E() byte    { return c.regs.e }
func (c *Cpu) H() byte    { return c.regs.h }
func (c *Cpu) L() byte    { return c.regs.l }
func (c *Cpu) F() byte    { return c.regs.f.toByte() }
func (c *Cpu) PC() uint16 { return c.regs.pc }
func (c *Cpu) SP() uint16 { return c.regs.sp }
func (c *Cpu) BC() uint16 { return c.regs.bc() }
func (c *Cpu) DE() uint16 { return c.regs.de() }
func (c *Cpu) HL() uint16 { return c.regs.hl() }
func (c *Cpu) AF() uint16 { return c.regs.af() }

func (c *Cpu) SetA(v byte)    { c.regs.a = v }
func (c *Cpu) SetB(v byte)    { c.regs.b = v }
func (c *Cpu) SetC(v byte)    { c.regs.c = v }
func (c *Cpu) SetD(v byte)    { c.regs.d = v }
func (c *Cpu) SetE(v byte)    { c.regs.e = v }
func (c *Cpu) SetH(v byte)    { c.regs.h = v }
func (c *Cpu) SetL(v byte)    { c.regs.l = v }
func (c *Cpu) SetF(v byte)    { c.regs.f = flagsFromByte(v) }
func (c *Cpu) SetPC(v uint16) { c.regs.pc = v }
func (c *Cpu) SetSP(v uint16) { c.regs.sp = v }

// Flags is the test/debug-facing mirror of the internal flags type.
type Flags struct {
	Zero, Subtract, HalfCarry, Carry bool
}

func (c *Cpu) GetFlags() Flags {
	return Flags{
		Zero:      c.regs.f.Zero,
		Subtract:  c.regs.f.Subtract,
		HalfCarry: c.regs.f.HalfCarry,
		Carry:     c.regs.f.Carry,
	}
}

func (c *Cpu) SetFlags(f Flags) {
	c.regs.f = flags{Zero: f.Zero, Subtract: f.Subtract, HalfCarry: f.HalfCarry, Carry: f.Carry}
}

// Opcode reports the opcode byte of the instruction currently in flight.
// Meaningless (and reports the pending NOP) while in interrupt dispatch.
func (c *Cpu) Opcode() byte { return c.state.instr.opcode }

// InInterrupt reports whether the Cpu is currently running the interrupt
// dispatch sequence rather than an ordinary instruction.
func (c *Cpu) InInterrupt() bool { return c.state.interrupt }

func panicUndefinedOpcode(opcode byte, pc uint16) {
	panic(undefinedOpcodeMessage(opcode, pc))
}

func undefinedOpcodeMessage(opcode byte, pc uint16) string {
	return "cpu: undefined opcode " + hexByte(opcode) + " encountered at pc=" + hexWord(pc)
}

func hexByte(b byte) string {
	const digits = "0123456789abcdef"
	return "0x" + string(digits[b>>4]) + string(digits[b&0x0f])
}

func hexWord(w uint16) string {
	return "0x" + hexByte(byte(w>>8))[2:] + hexByte(byte(w))[2:]
}
