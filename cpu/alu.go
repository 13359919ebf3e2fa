package cpu

// The ALU is a set of pure 8-bit arithmetic/logic functions: no receiver, no
// shared state, every flag that can be derived from the operands is derived
// from the operands. Instruction handlers in engine.go call these and fold
// the result into the register file themselves.
//
// Ported from the reference core's alu module (add/sub with explicit
// carry-in, and/or/xor/cp), not from the teacher's 6502 ALU (which mutates
// c.Accumulator in place) — the spec requires pure functions here.

// aluAdd computes lhs + rhs + carryIn modulo 256, with flags for an 8-bit
// addition: Z on zero result, N always clear, H on nibble carry, CY on
// carry out of bit 7.
func aluAdd(lhs, rhs byte, carryIn bool) (byte, flags) {
	var ci byte
	if carryIn {
		ci = 1
	}
	sum := uint16(lhs) + uint16(rhs) + uint16(ci)
	result := byte(sum)
	return result, flags{
		Zero:      result == 0,
		Subtract:  false,
		HalfCarry: (lhs&0x0f)+(rhs&0x0f)+ci > 0x0f,
		Carry:     sum > 0xff,
	}
}

// aluSub computes lhs - rhs - carryIn modulo 256 (carryIn acting as a
// borrow-in), with flags for an 8-bit subtraction: Z on zero result, N
// always set, H on nibble borrow, CY on borrow out.
func aluSub(lhs, rhs byte, carryIn bool) (byte, flags) {
	var ci byte
	if carryIn {
		ci = 1
	}
	diff := int(lhs) - int(rhs) - int(ci)
	result := byte(diff)
	halfDiff := int(lhs&0x0f) - int(rhs&0x0f) - int(ci)
	return result, flags{
		Zero:      result == 0,
		Subtract:  true,
		HalfCarry: halfDiff < 0,
		Carry:     diff < 0,
	}
}

func aluAnd(lhs, rhs byte) (byte, flags) {
	result := lhs & rhs
	return result, flags{Zero: result == 0, HalfCarry: true}
}

func aluOr(lhs, rhs byte) (byte, flags) {
	result := lhs | rhs
	return result, flags{Zero: result == 0}
}

func aluXor(lhs, rhs byte) (byte, flags) {
	result := lhs ^ rhs
	return result, flags{Zero: result == 0}
}

// aluCp compares lhs against rhs: same flags as aluSub, result discarded.
func aluCp(lhs, rhs byte) flags {
	_, f := aluSub(lhs, rhs, false)
	return f
}
