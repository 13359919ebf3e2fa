package cpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gbcore/cpu"
)

// testBus is the simplest possible collaborator for Cpu.Step: a flat,
// map-backed 64 kB space. It plays the role the teacher's mem.Bus plays for
// the 6502 core, kept local to the test package so cpu never imports mem.
type testBus struct {
	mem map[uint16]byte
}

func newTestBus() *testBus { return &testBus{mem: map[uint16]byte{}} }

// drive steps c for n half-cycles, servicing whatever BusOp each Tick
// requests against bus before the matching Tock call, per the protocol
// documented on Cpu.Step.
func drive(c *cpu.Cpu, bus *testBus, n int, ifReg byte) []*cpu.BusOp {
	ops := make([]*cpu.BusOp, 0, n)
	var data *byte
	for i := 0; i < n; i++ {
		op := c.Step(cpu.Input{Data: data, IF: ifReg})
		ops = append(ops, op)
		data = nil
		if i%2 == 0 {
			if addr, ok := op.ReadOp(); ok {
				v := bus.mem[addr]
				data = &v
			} else if addr, v, ok := op.WriteOp(); ok {
				bus.mem[addr] = v
			}
		}
	}
	return ops
}

// bootOpcode runs the Cpu's implicit boot NOP, whose sole job is to fetch
// the opcode at the current PC and hand off to it. Every scenario below
// places its opcode at PC and calls this first.
func bootOpcode(c *cpu.Cpu, bus *testBus) {
	drive(c, bus, 2, 0x00)
}

func TestScenarioLdRR(t *testing.T) {
	bus := newTestBus()
	bus.mem[0] = 0x41 // LD B,C
	bus.mem[1] = 0x00 // NOP

	c := cpu.New()
	c.SetC(0x99)
	bootOpcode(c, bus)

	drive(c, bus, 2, 0x00)

	assert.Equal(t, byte(0x99), c.B())
	assert.Equal(t, uint16(2), c.PC())
}

func TestScenarioAddAB(t *testing.T) {
	bus := newTestBus()
	bus.mem[0] = 0x80 // ADD A,B
	bus.mem[1] = 0x00

	c := cpu.New()
	c.SetA(0x3a)
	c.SetB(0xc6)
	bootOpcode(c, bus)

	drive(c, bus, 2, 0x00)

	f := c.GetFlags()
	assert.Equal(t, byte(0x00), c.A())
	assert.True(t, f.Zero)
	assert.False(t, f.Subtract)
	assert.True(t, f.HalfCarry)
	assert.True(t, f.Carry)
}

func TestScenarioLdADerefHL(t *testing.T) {
	bus := newTestBus()
	bus.mem[0] = 0x7e // LD A,(HL)
	bus.mem[0x8000] = 0x5a

	c := cpu.New()
	c.SetH(0x80)
	c.SetL(0x00)
	bootOpcode(c, bus)

	drive(c, bus, 4, 0x00)

	assert.Equal(t, byte(0x5a), c.A())
}

func TestScenarioRet(t *testing.T) {
	bus := newTestBus()
	bus.mem[0] = 0xc9 // RET
	bus.mem[0xfffc] = 0x34
	bus.mem[0xfffd] = 0x12
	bus.mem[0x1234] = 0x00

	c := cpu.New()
	c.SetSP(0xfffc)
	bootOpcode(c, bus)

	drive(c, bus, 8, 0x00)

	assert.Equal(t, uint16(0x1235), c.PC())
	assert.Equal(t, uint16(0xfffe), c.SP())
}

func TestScenarioLdhlSPE(t *testing.T) {
	bus := newTestBus()
	bus.mem[0] = 0xf8 // LDHL SP,e
	bus.mem[1] = 0x02
	bus.mem[2] = 0x00

	c := cpu.New()
	c.SetSP(0xfff8)
	bootOpcode(c, bus)

	drive(c, bus, 6, 0x00)

	f := c.GetFlags()
	assert.Equal(t, uint16(0xfffa), c.HL())
	assert.False(t, f.Zero)
	assert.False(t, f.Subtract)
	assert.False(t, f.HalfCarry)
	assert.False(t, f.Carry)
}

func TestScenarioJrENegative(t *testing.T) {
	bus := newTestBus()
	bus.mem[0] = 0x18 // JR e
	bus.mem[1] = 0xfe // e = -2

	c := cpu.New()
	bootOpcode(c, bus)

	drive(c, bus, 6, 0x00)

	// PC was 2 after fetching the opcode and its operand; e=-2 sends it
	// back to 0, and the execute-M1 fetch there advances it to 1.
	assert.Equal(t, uint16(1), c.PC())
}

func TestScenarioInterruptDispatch(t *testing.T) {
	bus := newTestBus()
	bus.mem[0] = 0x00 // irrelevant: the interrupt preempts this fetch

	c := cpu.New()
	c.IE = 0x01
	c.IME = true
	c.SetSP(0xfffe)

	// The boot NOP's own execute-M1 Tock observes IE & IF != 0 and diverts
	// into interrupt dispatch instead of completing its fetch.
	drive(c, bus, 2, 0x01)
	require.True(t, c.InInterrupt())

	ops := drive(c, bus, 8, 0x01)

	assert.False(t, c.InInterrupt())
	assert.False(t, c.IME)
	assert.Equal(t, uint16(0x0040), c.PC())
	assert.Equal(t, uint16(0xfffc), c.SP())
	assert.Equal(t, byte(0x00), bus.mem[0xfffd]) // pushed PC high byte
	assert.Equal(t, byte(0x00), bus.mem[0xfffc]) // pushed PC low byte

	last := ops[len(ops)-1]
	bit, ok := last.InterruptAck()
	require.True(t, ok)
	assert.Equal(t, byte(0), bit)
}
