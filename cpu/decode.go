package cpu

import "gbcore/mask"

// The opcode decoder maps an 8-bit opcode to the instruction handler that
// will drive it, by splitting the byte into the (xx, yyy, zzz) bit-field
// triple and pattern-matching on it — the same split the reference core
// performs in its split_opcode/match pair, expressed here as a Go switch
// (the "structural decode" option the spec allows as an alternative to a
// 256-entry function-pointer table).
//
// http://www.z80.info/decoding.htm describes the same bit-field convention
// for the Z80-derived instruction set this CPU borrows from.

// dd names a 16-bit register-pair operand as selected by the 2-bit dd field.
type dd int

const (
	ddBC dd = iota
	ddDE
	ddHL
	ddSP
)

func ddFromBits(bits byte) dd {
	switch bits {
	case 0b00:
		return ddBC
	case 0b01:
		return ddDE
	case 0b10:
		return ddHL
	case 0b11:
		return ddSP
	default:
		panic("cpu: invalid dd field")
	}
}

func (d dd) high() regSelect {
	switch d {
	case ddBC:
		return selB
	case ddDE:
		return selD
	case ddHL:
		return selH
	case ddSP:
		return selSPHigh
	default:
		panic("cpu: invalid dd")
	}
}

func (d dd) low() regSelect {
	switch d {
	case ddBC:
		return selC
	case ddDE:
		return selE
	case ddHL:
		return selL
	case ddSP:
		return selSPLow
	default:
		panic("cpu: invalid dd")
	}
}

// qq names a 16-bit register-pair operand for PUSH/POP, as selected by the
// 2-bit qq field. It differs from dd only in its last member: AF, not SP.
type qq int

const (
	qqBC qq = iota
	qqDE
	qqHL
	qqAF
)

func qqFromBits(bits byte) qq {
	switch bits {
	case 0b00:
		return qqBC
	case 0b01:
		return qqDE
	case 0b10:
		return qqHL
	case 0b11:
		return qqAF
	default:
		panic("cpu: invalid qq field")
	}
}

func (q qq) high() regSelect {
	switch q {
	case qqBC:
		return selB
	case qqDE:
		return selD
	case qqHL:
		return selH
	case qqAF:
		return selA
	default:
		panic("cpu: invalid qq")
	}
}

func (q qq) low() regSelect {
	switch q {
	case qqBC:
		return selC
	case qqDE:
		return selE
	case qqHL:
		return selL
	case qqAF:
		return selF
	default:
		panic("cpu: invalid qq")
	}
}

// cond names one of the four branch conditions tested against current
// flags by conditional jumps.
type cond int

const (
	condNZ cond = iota
	condZ
	condNC
	condC
)

func condFromBits(bits byte) cond {
	switch bits {
	case 0b00:
		return condNZ
	case 0b01:
		return condZ
	case 0b10:
		return condNC
	case 0b11:
		return condC
	default:
		panic("cpu: invalid cc field")
	}
}

// aluOp names one of the eight accumulator ALU operations selected by the
// ooo field of a 10-ooo-sss or 11-ooo-110 opcode.
type aluOp int

const (
	aluOpAdd aluOp = iota
	aluOpAdc
	aluOpSub
	aluOpSbc
	aluOpAnd
	aluOpXor
	aluOpOr
	aluOpCp
)

func aluOpFromBits(bits byte) aluOp {
	switch bits {
	case 0b000:
		return aluOpAdd
	case 0b001:
		return aluOpAdc
	case 0b010:
		return aluOpSub
	case 0b011:
		return aluOpSbc
	case 0b100:
		return aluOpAnd
	case 0b101:
		return aluOpXor
	case 0b110:
		return aluOpOr
	case 0b111:
		return aluOpCp
	default:
		panic("cpu: invalid alu op field")
	}
}

// regFromBits maps the 3-bit r field onto a register selector: 110 selects
// (HL)-indirect, which every caller of regFromBits handles as a distinct
// opcode pattern rather than a regSelect value, so it is never passed here.
func regFromBits(bits byte) regSelect {
	switch bits {
	case 0b000:
		return selB
	case 0b001:
		return selC
	case 0b010:
		return selD
	case 0b011:
		return selE
	case 0b100:
		return selH
	case 0b101:
		return selL
	case 0b111:
		return selA
	default:
		panic("cpu: invalid register field (110 is (HL)-indirect, not a register)")
	}
}

// execInstr decodes the current opcode and runs the Tick or Tock handler
// for its current M-cycle, returning the bus operation to drive (if any).
// Any opcode outside the table in spec §4.C is a specification hole: the
// implementation aborts rather than guess at behavior (see cpu.go's
// panicUndefinedOpcode).
func (e *instrEngine) execInstr() *BusOp {
	xx, yyy, zzz := mask.Split3(e.state.opcode)

	switch {
	case xx == 0b00 && yyy == 0b000 && zzz == 0b000:
		return e.nop()
	case xx == 0b00 && yyy&0b001 == 0b000 && zzz == 0b001:
		return e.ldDdNn(ddFromBits(yyy >> 1))
	case xx == 0b00 && yyy == 0b000 && zzz == 0b010:
		return e.ldDerefBCA()
	case xx == 0b00 && yyy == 0b001 && zzz == 0b010:
		return e.ldADerefBC()
	case xx == 0b00 && yyy == 0b010 && zzz == 0b010:
		return e.ldDerefDEA()
	case xx == 0b00 && yyy == 0b011 && zzz == 0b010:
		return e.ldADerefDE()
	case xx == 0b00 && yyy == 0b100 && zzz == 0b010:
		return e.ldDerefHLIA()
	case xx == 0b00 && yyy == 0b101 && zzz == 0b010:
		return e.ldADerefHLI()
	case xx == 0b00 && yyy == 0b110 && zzz == 0b010:
		return e.ldDerefHLDA()
	case xx == 0b00 && yyy == 0b111 && zzz == 0b010:
		return e.ldADerefHLD()
	case xx == 0b00 && yyy == 0b001 && zzz == 0b000:
		return e.ldDerefNnSP()
	case xx == 0b00 && yyy == 0b011 && zzz == 0b000:
		return e.jrE()
	case xx == 0b00 && yyy == 0b110 && zzz == 0b100:
		return e.incDerefHL()
	case xx == 0b00 && zzz == 0b100:
		return e.incR(regFromBits(yyy))
	case xx == 0b01 && yyy == 0b110 && zzz == 0b110:
		return e.halt()
	case xx == 0b00 && yyy == 0b110 && zzz == 0b110:
		return e.ldDerefHLN()
	case xx == 0b00 && zzz == 0b110:
		return e.ldRN(regFromBits(yyy))
	case xx == 0b01 && zzz == 0b110:
		return e.ldRDerefHL(regFromBits(yyy))
	case xx == 0b01 && yyy == 0b110:
		return e.ldDerefHLR(regFromBits(zzz))
	case xx == 0b01:
		return e.ldRR(regFromBits(yyy), regFromBits(zzz))
	case xx == 0b10 && zzz == 0b110:
		return e.aluOpDerefHL(aluOpFromBits(yyy))
	case xx == 0b10:
		return e.aluOpR(aluOpFromBits(yyy), regFromBits(zzz))
	case xx == 0b11 && yyy&0b001 == 0b000 && zzz == 0b001:
		return e.popQq(qqFromBits(yyy >> 1))
	case xx == 0b11 && yyy == 0b000 && zzz == 0b011:
		return e.jpNn()
	case xx == 0b11 && yyy <= 0b011 && zzz == 0b010:
		return e.jpCcNn(condFromBits(yyy))
	case xx == 0b11 && yyy&0b001 == 0b000 && zzz == 0b101:
		return e.pushQq(qqFromBits(yyy >> 1))
	case xx == 0b11 && zzz == 0b110:
		return e.aluOpN(aluOpFromBits(yyy))
	case xx == 0b11 && yyy == 0b001 && zzz == 0b001:
		return e.ret()
	case xx == 0b11 && yyy == 0b100 && zzz == 0b000:
		return e.ldDerefNA()
	case xx == 0b11 && yyy == 0b100 && zzz == 0b010:
		return e.ldDerefCA()
	case xx == 0b11 && yyy == 0b101 && zzz == 0b001:
		return e.jpDerefHL()
	case xx == 0b11 && yyy == 0b101 && zzz == 0b010:
		return e.ldDerefNnA()
	case xx == 0b11 && yyy == 0b110 && zzz == 0b000:
		return e.ldADerefN()
	case xx == 0b11 && yyy == 0b110 && zzz == 0b010:
		return e.ldADerefC()
	case xx == 0b11 && yyy == 0b111 && zzz == 0b000:
		return e.ldhlSPE()
	case xx == 0b11 && yyy == 0b111 && zzz == 0b001:
		return e.ldSPHL()
	case xx == 0b11 && yyy == 0b111 && zzz == 0b010:
		return e.ldADerefNn()
	default:
		panicUndefinedOpcode(e.state.opcode, e.regs.pc)
		return nil
	}
}
