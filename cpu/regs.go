package cpu

import "gbcore/mask"

// Package cpu implements the instruction-execution core of a Sharp LR35902
// (the Game Boy CPU): registers, ALU, opcode decode, the per-opcode
// micro-sequencer, and interrupt dispatch. Everything here is driven one
// half machine-cycle at a time by Cpu.Step; the core never touches memory
// itself, it only emits the bus operation a real chip would drive.

// https://gbdev.io/pandocs/CPU_Registers_and_Flags.html
// https://problemkaputt.de/pandocs.htm#cpuregistersandflags

// A regSelect names one of the seven general-purpose 8-bit registers, the
// flags byte, or one of the two halves of SP. It is an abstract
// discriminator, not the numeric encoding used on the wire — that encoding
// lives in decode.go, which maps an opcode's bit-field onto a regSelect.
type regSelect int

const (
	selA regSelect = iota
	selB
	selC
	selD
	selE
	selH
	selL
	selF
	selSPHigh
	selSPLow
)

// flags holds the four architecturally meaningful status bits. Bits 3..0 of
// the F register have no meaning and are always read back as zero.
//
// 7654 3210
// ZNHC 0000
type flags struct {
	Zero      bool // Z, bit 7
	Subtract  bool // N, bit 6
	HalfCarry bool // H, bit 5
	Carry     bool // CY, bit 4
}

// toByte packs the flags into the F register's bit layout. The low nibble is
// always zero: the roundtrip flagsFromByte(f.toByte()) == f holds, but
// flagsFromByte(b).toByte() == b only when b's low nibble is already zero.
func (f flags) toByte() byte {
	var b byte
	if f.Zero {
		b = mask.Set(b, mask.I1, 1)
	}
	if f.Subtract {
		b = mask.Set(b, mask.I2, 1)
	}
	if f.HalfCarry {
		b = mask.Set(b, mask.I3, 1)
	}
	if f.Carry {
		b = mask.Set(b, mask.I4, 1)
	}
	return b
}

func flagsFromByte(b byte) flags {
	return flags{
		Zero:      b&0x80 != 0,
		Subtract:  b&0x40 != 0,
		HalfCarry: b&0x20 != 0,
		Carry:     b&0x10 != 0,
	}
}

func (f flags) and(g flags) flags {
	return flags{
		Zero:      f.Zero && g.Zero,
		Subtract:  f.Subtract && g.Subtract,
		HalfCarry: f.HalfCarry && g.HalfCarry,
		Carry:     f.Carry && g.Carry,
	}
}

func (f flags) or(g flags) flags {
	return flags{
		Zero:      f.Zero || g.Zero,
		Subtract:  f.Subtract || g.Subtract,
		HalfCarry: f.HalfCarry || g.HalfCarry,
		Carry:     f.Carry || g.Carry,
	}
}

func (f flags) not() flags {
	return flags{
		Zero:      !f.Zero,
		Subtract:  !f.Subtract,
		HalfCarry: !f.HalfCarry,
		Carry:     !f.Carry,
	}
}

// regs is the architectural register file: seven 8-bit cells, the flags
// byte, and the two 16-bit cells PC and SP. Pair views (bc, de, hl) are
// computed from the underlying cells on every read; there is no separate
// storage backing them, so they can never drift out of sync.
type regs struct {
	a, b, c, d, e, h, l byte
	f                   flags
	pc, sp              uint16
}

func (r *regs) bc() uint16 { return mask.Word(r.b, r.c) }
func (r *regs) de() uint16 { return mask.Word(r.d, r.e) }
func (r *regs) hl() uint16 { return mask.Word(r.h, r.l) }
func (r *regs) af() uint16 { return mask.Word(r.a, r.f.toByte()) }

func (r *regs) setHL(v uint16) {
	r.h = byte(v >> 8)
	r.l = byte(v)
}

func (r *regs) read(sel regSelect) byte {
	switch sel {
	case selA:
		return r.a
	case selB:
		return r.b
	case selC:
		return r.c
	case selD:
		return r.d
	case selE:
		return r.e
	case selH:
		return r.h
	case selL:
		return r.l
	case selF:
		return r.f.toByte()
	case selSPHigh:
		return byte(r.sp >> 8)
	case selSPLow:
		return byte(r.sp)
	default:
		panic("cpu: invalid register selector")
	}
}

func (r *regs) write(sel regSelect, v byte) {
	switch sel {
	case selA:
		r.a = v
	case selB:
		r.b = v
	case selC:
		r.c = v
	case selD:
		r.d = v
	case selE:
		r.e = v
	case selH:
		r.h = v
	case selL:
		r.l = v
	case selF:
		r.f = flagsFromByte(v)
	case selSPHigh:
		r.sp = r.sp&0x00ff | uint16(v)<<8
	case selSPLow:
		r.sp = r.sp&0xff00 | uint16(v)
	default:
		panic("cpu: invalid register selector")
	}
}
