package cpu

import "gbcore/mask"

// The interrupt dispatcher (component E) is entered whenever the Tock of an
// instruction's final M-cycle observes m1 && (IE & IF) != 0. It is a fixed
// five-M-cycle sequence that pushes PC onto the stack and jumps to the
// vector for the lowest set bit of IF, mirroring
// original_source/src/cpu/interrupt.rs.
//
// Per SPEC_FULL's resolution of the "interrupt-bit clearing" open question,
// M5's Tock returns a busInterruptAck alongside the PC update, naming the
// bit serviced; the core itself never mutates IF (that byte is owned by the
// caller's interrupt-flag collaborator).
type interruptEngine struct {
	regs   *regs
	ime    *bool
	mCycle mCycle
	phase  phase
}

func (e *interruptEngine) step(in Input) (*modeTransition, *BusOp) {
	switch e.mCycle {
	case M2, M3:
		return nil, nil
	case M4:
		if e.phase == phaseTick {
			e.regs.sp--
			return nil, writeOp(e.regs.sp, byte(e.regs.pc>>8))
		}
		return nil, nil
	case M5:
		if e.phase == phaseTick {
			e.regs.sp--
			return nil, writeOp(e.regs.sp, byte(e.regs.pc))
		}
		*e.ime = false
		n := lowestSetBit(in.IF)
		e.regs.pc = 0x0040 + 8*uint16(n)
		return &modeTransition{nextOpcode: 0x00}, interruptAckOp(n)
	default:
		panic("cpu: interrupt dispatch has five M-cycles")
	}
}

// lowestSetBit returns the index (0-7) of the lowest set bit of b. The
// caller only invokes this once IE & IF != 0 has already been established,
// so b is never zero here. mask.IsSet's position is 1-indexed from the MSB,
// so bit 0 (the lowest) is position I8 and bit 7 is position I1.
func lowestSetBit(b byte) byte {
	switch {
	case mask.IsSet(b, mask.I8):
		return 0
	case mask.IsSet(b, mask.I7):
		return 1
	case mask.IsSet(b, mask.I6):
		return 2
	case mask.IsSet(b, mask.I5):
		return 3
	case mask.IsSet(b, mask.I4):
		return 4
	case mask.IsSet(b, mask.I3):
		return 5
	case mask.IsSet(b, mask.I2):
		return 6
	case mask.IsSet(b, mask.I1):
		return 7
	default:
		panic("cpu: lowestSetBit called with a zero mask")
	}
}
