package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAluAdd(t *testing.T) {
	result, f := aluAdd(0x12, 0x34, false)
	assert.Equal(t, byte(0x46), result)
	assert.Equal(t, flags{}, f)

	result, f = aluAdd(0x08, 0x08, false)
	assert.Equal(t, byte(0x10), result)
	assert.Equal(t, flags{HalfCarry: true}, f)

	result, f = aluAdd(0x80, 0x80, false)
	assert.Equal(t, byte(0x00), result)
	assert.Equal(t, flags{Zero: true, Carry: true}, f)

	result, f = aluAdd(0xff, 0x00, true)
	assert.Equal(t, byte(0x00), result)
	assert.Equal(t, flags{Zero: true, HalfCarry: true, Carry: true}, f)
}

func TestAluSub(t *testing.T) {
	result, f := aluSub(0x34, 0x12, false)
	assert.Equal(t, byte(0x22), result)
	assert.Equal(t, flags{Subtract: true}, f)

	result, f = aluSub(0x10, 0x01, false)
	assert.Equal(t, byte(0x0f), result)
	assert.Equal(t, flags{Subtract: true, HalfCarry: true}, f)

	result, f = aluSub(0x00, 0x01, false)
	assert.Equal(t, byte(0xff), result)
	assert.Equal(t, flags{Subtract: true, HalfCarry: true, Carry: true}, f)

	result, f = aluSub(0x00, 0x00, true)
	assert.Equal(t, byte(0xff), result)
	assert.Equal(t, flags{Subtract: true, HalfCarry: true, Carry: true}, f)

	result, f = aluSub(0x07, 0x07, false)
	assert.Equal(t, byte(0x00), result)
	assert.Equal(t, flags{Zero: true, Subtract: true}, f)
}

func TestAluLogic(t *testing.T) {
	result, f := aluAnd(0xf0, 0x3c)
	assert.Equal(t, byte(0x30), result)
	assert.Equal(t, flags{HalfCarry: true}, f)

	result, f = aluAnd(0x0f, 0xf0)
	assert.Equal(t, byte(0x00), result)
	assert.Equal(t, flags{Zero: true, HalfCarry: true}, f)

	result, f = aluOr(0x0f, 0xf0)
	assert.Equal(t, byte(0xff), result)
	assert.Equal(t, flags{}, f)

	result, f = aluOr(0x00, 0x00)
	assert.Equal(t, byte(0x00), result)
	assert.Equal(t, flags{Zero: true}, f)

	result, f = aluXor(0xff, 0xff)
	assert.Equal(t, byte(0x00), result)
	assert.Equal(t, flags{Zero: true}, f)
}

func TestAluCp(t *testing.T) {
	f := aluCp(0x42, 0x42)
	assert.True(t, f.Zero)
	assert.True(t, f.Subtract)

	f = aluCp(0x10, 0x20)
	assert.True(t, f.Carry)
	assert.False(t, f.Zero)
}

func TestFlagsByteRoundtrip(t *testing.T) {
	for b := 0; b < 256; b++ {
		got := flagsFromByte(byte(b)).toByte()
		assert.Equal(t, byte(b)&0xf0, got, "byte %#02x", b)
	}
}
