package cpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gbcore/cpu"
)

func TestInterruptVectorsOnLowestSetBit(t *testing.T) {
	bus := newTestBus()
	bus.mem[0] = 0x00

	c := cpu.New()
	c.IE = 0xff
	c.IME = true
	c.SetSP(0xfffe)

	// IF has bits 1 and 2 set; dispatch must service bit 1 (the lower one)
	// first and leave bit 2 for a later pass.
	const ifReg = 0b0000_0110

	drive(c, bus, 2, ifReg)
	require.True(t, c.InInterrupt())

	ops := drive(c, bus, 8, ifReg)

	assert.Equal(t, uint16(0x0040+8*1), c.PC())
	last := ops[len(ops)-1]
	bit, ok := last.InterruptAck()
	require.True(t, ok)
	assert.Equal(t, byte(1), bit)
}

func TestNoInterruptWhenIEMasksAllSetBits(t *testing.T) {
	bus := newTestBus()
	bus.mem[0] = 0x00 // NOP, fetched and executed normally
	bus.mem[1] = 0x00

	c := cpu.New()
	c.IE = 0x00
	c.IME = true

	drive(c, bus, 2, 0xff) // IF fully set, but IE masks everything

	assert.False(t, c.InInterrupt())
	assert.Equal(t, uint16(1), c.PC())
}
