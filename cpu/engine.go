package cpu

import "gbcore/mask"

// The instruction execution engine is a per-opcode micro-sequencer: each
// handler is a switch over the current M-cycle that drives the M-cycle
// progression described in spec §4.D, emitting at most one bus op per
// half-cycle. Handlers run only on Tick half-cycles, and that is where they
// update architectural state; a Tock only latches the bus data, so a byte
// read in one M-cycle reaches its register on the next M-cycle's Tick.
// Every handler's final M-cycle performs an "execute-M1": it returns
// Read(PC) on Tick and sets state.m1 so the Tock logic in step below can
// promote the latched byte into the next opcode, or divert into interrupt
// dispatch.
//
// Grounded directly on original_source/src/cpu/instruction.rs's per-opcode
// methods; the mnemonic-per-method shape and doc-comment convention (one
// line naming what the instruction does) follow the teacher's
// instructions.go.

// instrState is the scratch an in-flight instruction carries across its
// M-cycles. It is not part of the register file (see spec §9): storing a
// latched immediate byte or a two-byte address in a register would corrupt
// architectural state that the opcode may not actually touch.
type instrState struct {
	opcode  byte
	busData *byte // latched on Tock following a Read; nil otherwise
	m1      bool  // true once the handler has requested its final fetch
	data    byte  // scratch: low byte of a two-byte immediate
	addr    uint16
}

// instrEngine is the Instruction-mode view of the Cpu: the register file,
// IE, and the in-flight instruction's scratch state, plus the current
// M-cycle/phase so handlers can switch on them.
type instrEngine struct {
	regs    *regs
	ie      *byte
	state   *instrState
	mCycle  mCycle
	phase   phase
}

// step runs one half-cycle of the currently fetched instruction: Tick
// drives the bus op for this M-cycle, Tock latches the response and may
// request a mode transition (next opcode, or interrupt dispatch).
func (e *instrEngine) step(in Input) (*modeTransition, *BusOp) {
	switch e.phase {
	case phaseTick:
		return nil, e.execInstr()
	default: // phaseTock
		e.state.busData = in.Data
		if !e.state.m1 {
			return nil, nil
		}
		if in.IF&*e.ie != 0x00 {
			return &modeTransition{interrupt: true}, nil
		}
		e.regs.pc++
		return &modeTransition{nextOpcode: *e.state.busData}, nil
	}
}

func (e *instrEngine) nop() *BusOp {
	switch e.mCycle {
	case M2:
		return e.executeM1()
	default:
		panic("cpu: NOP has only one M-cycle")
	}
}

// halt — opcode 0x76 — is explicitly a non-goal: executing it is fatal.
func (e *instrEngine) halt() *BusOp {
	panic("cpu: HALT (0x76) is not implemented by this core")
}

// LD r,r' — 8-bit register-to-register load.
func (e *instrEngine) ldRR(dest, src regSelect) *BusOp {
	switch e.mCycle {
	case M2:
		e.regs.write(dest, e.regs.read(src))
		return e.executeM1()
	default:
		panic("cpu: LD r,r' has only one M-cycle")
	}
}

// LD r,n — 8-bit immediate load.
func (e *instrEngine) ldRN(dest regSelect) *BusOp {
	switch e.mCycle {
	case M2:
		return e.readImmediate()
	case M3:
		e.regs.write(dest, e.state.mustBusData())
		return e.executeM1()
	default:
		panic("cpu: LD r,n has two M-cycles")
	}
}

// LD r,(HL)
func (e *instrEngine) ldRDerefHL(dest regSelect) *BusOp {
	switch e.mCycle {
	case M2:
		return readOp(e.regs.hl())
	case M3:
		e.regs.write(dest, e.state.mustBusData())
		return e.executeM1()
	default:
		panic("cpu: LD r,(HL) has two M-cycles")
	}
}

// LD (HL),r
func (e *instrEngine) ldDerefHLR(src regSelect) *BusOp {
	switch e.mCycle {
	case M2:
		return writeOp(e.regs.hl(), e.regs.read(src))
	case M3:
		return e.executeM1()
	default:
		panic("cpu: LD (HL),r has two M-cycles")
	}
}

// LD (HL),n
func (e *instrEngine) ldDerefHLN() *BusOp {
	switch e.mCycle {
	case M2:
		return e.readImmediate()
	case M3:
		return writeOp(e.regs.hl(), e.state.mustBusData())
	case M4:
		return e.executeM1()
	default:
		panic("cpu: LD (HL),n has three M-cycles")
	}
}

// LD A,(BC)
func (e *instrEngine) ldADerefBC() *BusOp {
	switch e.mCycle {
	case M2:
		return readOp(e.regs.bc())
	case M3:
		e.regs.a = e.state.mustBusData()
		return e.executeM1()
	default:
		panic("cpu: LD A,(BC) has two M-cycles")
	}
}

// LD A,(DE)
func (e *instrEngine) ldADerefDE() *BusOp {
	switch e.mCycle {
	case M2:
		return readOp(e.regs.de())
	case M3:
		e.regs.a = e.state.mustBusData()
		return e.executeM1()
	default:
		panic("cpu: LD A,(DE) has two M-cycles")
	}
}

// LD (0xFF00+C),A
func (e *instrEngine) ldDerefCA() *BusOp {
	switch e.mCycle {
	case M2:
		return writeOp(mask.Word(0xff, e.regs.c), e.regs.a)
	case M3:
		return e.executeM1()
	default:
		panic("cpu: LD (FF00+C),A has two M-cycles")
	}
}

// LD A,(0xFF00+C)
func (e *instrEngine) ldADerefC() *BusOp {
	switch e.mCycle {
	case M2:
		return readOp(mask.Word(0xff, e.regs.c))
	case M3:
		e.regs.a = e.state.mustBusData()
		return e.executeM1()
	default:
		panic("cpu: LD A,(FF00+C) has two M-cycles")
	}
}

// LD A,(0xFF00+n)
func (e *instrEngine) ldADerefN() *BusOp {
	switch e.mCycle {
	case M2:
		return e.readImmediate()
	case M3:
		return readOp(mask.Word(0xff, e.state.mustBusData()))
	case M4:
		e.regs.a = e.state.mustBusData()
		return e.executeM1()
	default:
		panic("cpu: LD A,(FF00+n) has three M-cycles")
	}
}

// LD (0xFF00+n),A
func (e *instrEngine) ldDerefNA() *BusOp {
	switch e.mCycle {
	case M2:
		return e.readImmediate()
	case M3:
		return writeOp(mask.Word(0xff, e.state.mustBusData()), e.regs.a)
	case M4:
		return e.executeM1()
	default:
		panic("cpu: LD (FF00+n),A has three M-cycles")
	}
}

// LD A,(nn)
func (e *instrEngine) ldADerefNn() *BusOp {
	switch e.mCycle {
	case M2:
		return e.readImmediate()
	case M3:
		e.state.data = e.state.mustBusData()
		return e.readImmediate()
	case M4:
		return readOp(mask.Word(e.state.mustBusData(), e.state.data))
	case M5:
		e.regs.a = e.state.mustBusData()
		return e.executeM1()
	default:
		panic("cpu: LD A,(nn) has four M-cycles")
	}
}

// LD (nn),A
func (e *instrEngine) ldDerefNnA() *BusOp {
	switch e.mCycle {
	case M2:
		return e.readImmediate()
	case M3:
		e.state.data = e.state.mustBusData()
		return e.readImmediate()
	case M4:
		return writeOp(mask.Word(e.state.mustBusData(), e.state.data), e.regs.a)
	case M5:
		return e.executeM1()
	default:
		panic("cpu: LD (nn),A has four M-cycles")
	}
}

// LD (HLI),A — write A to (HL), then increment HL. The original HL is used
// as the address; the increment happens on the same Tick, before the write
// is observed by the caller.
func (e *instrEngine) ldDerefHLIA() *BusOp {
	switch e.mCycle {
	case M2:
		hl := e.regs.hl()
		e.regs.setHL(hl + 1)
		return writeOp(hl, e.regs.a)
	case M3:
		return e.executeM1()
	default:
		panic("cpu: LD (HLI),A has two M-cycles")
	}
}

// LD A,(HLI) — read (HL) into A, then increment HL.
func (e *instrEngine) ldADerefHLI() *BusOp {
	switch e.mCycle {
	case M2:
		hl := e.regs.hl()
		e.regs.setHL(hl + 1)
		return readOp(hl)
	case M3:
		e.regs.a = e.state.mustBusData()
		return e.executeM1()
	default:
		panic("cpu: LD A,(HLI) has two M-cycles")
	}
}

// LD (HLD),A — write A to (HL), then decrement HL.
func (e *instrEngine) ldDerefHLDA() *BusOp {
	switch e.mCycle {
	case M2:
		hl := e.regs.hl()
		e.regs.setHL(hl - 1)
		return writeOp(hl, e.regs.a)
	case M3:
		return e.executeM1()
	default:
		panic("cpu: LD (HLD),A has two M-cycles")
	}
}

// LD A,(HLD) — read (HL) into A, then decrement HL.
func (e *instrEngine) ldADerefHLD() *BusOp {
	switch e.mCycle {
	case M2:
		hl := e.regs.hl()
		e.regs.setHL(hl - 1)
		return readOp(hl)
	case M3:
		e.regs.a = e.state.mustBusData()
		return e.executeM1()
	default:
		panic("cpu: LD A,(HLD) has two M-cycles")
	}
}

// LD (BC),A
func (e *instrEngine) ldDerefBCA() *BusOp {
	switch e.mCycle {
	case M2:
		return writeOp(e.regs.bc(), e.regs.a)
	case M3:
		return e.executeM1()
	default:
		panic("cpu: LD (BC),A has two M-cycles")
	}
}

// LD (DE),A
func (e *instrEngine) ldDerefDEA() *BusOp {
	switch e.mCycle {
	case M2:
		return writeOp(e.regs.de(), e.regs.a)
	case M3:
		return e.executeM1()
	default:
		panic("cpu: LD (DE),A has two M-cycles")
	}
}

// LD dd,nn — 16-bit immediate load into a register pair.
func (e *instrEngine) ldDdNn(d dd) *BusOp {
	switch e.mCycle {
	case M2:
		return e.readImmediate()
	case M3:
		e.regs.write(d.low(), e.state.mustBusData())
		return e.readImmediate()
	case M4:
		e.regs.write(d.high(), e.state.mustBusData())
		return e.executeM1()
	default:
		panic("cpu: LD dd,nn has three M-cycles")
	}
}

// LD SP,HL
func (e *instrEngine) ldSPHL() *BusOp {
	switch e.mCycle {
	case M2:
		e.regs.sp = e.regs.hl()
		return nil
	case M3:
		return e.executeM1()
	default:
		panic("cpu: LD SP,HL has two M-cycles")
	}
}

// PUSH qq — high byte first, then low, decrementing SP before each write.
func (e *instrEngine) pushQq(q qq) *BusOp {
	switch e.mCycle {
	case M2:
		return nil
	case M3:
		return e.pushByte(e.regs.read(q.high()))
	case M4:
		return e.pushByte(e.regs.read(q.low()))
	case M5:
		return e.executeM1()
	default:
		panic("cpu: PUSH qq has four M-cycles")
	}
}

// POP qq — low byte first, then high, incrementing SP after each read.
func (e *instrEngine) popQq(q qq) *BusOp {
	switch e.mCycle {
	case M2:
		return e.popByte()
	case M3:
		e.regs.write(q.low(), e.state.mustBusData())
		return e.popByte()
	case M4:
		e.regs.write(q.high(), e.state.mustBusData())
		return e.executeM1()
	default:
		panic("cpu: POP qq has three M-cycles")
	}
}

// LDHL SP,e — HL := SP + signed immediate e. Flags come from an unsigned
// 8-bit addition on the low byte, with the carry propagated into the high
// byte via the same ALU add used everywhere else; Z and N are always
// cleared regardless of what the low-byte addition produced.
func (e *instrEngine) ldhlSPE() *BusOp {
	switch e.mCycle {
	case M2:
		return e.readImmediate()
	case M3:
		eImm := e.state.mustBusData()
		lo, f := aluAdd(byte(e.regs.sp), eImm, false)
		hi, _ := aluAdd(byte(e.regs.sp>>8), signExtend(eImm), f.Carry)
		e.regs.h = hi
		e.regs.l = lo
		f.Zero = false
		f.Subtract = false
		e.regs.f = f
		return nil
	case M4:
		return e.executeM1()
	default:
		panic("cpu: LDHL SP,e has three M-cycles")
	}
}

// LD (nn),SP — write SP's low byte to address nn, high byte to nn+1.
func (e *instrEngine) ldDerefNnSP() *BusOp {
	switch e.mCycle {
	case M2:
		return e.readImmediate()
	case M3:
		e.state.addr = uint16(e.state.mustBusData())
		return e.readImmediate()
	case M4:
		e.state.addr |= uint16(e.state.mustBusData()) << 8
		return writeOp(e.state.addr, byte(e.regs.sp))
	case M5:
		return writeOp(e.state.addr+1, byte(e.regs.sp>>8))
	case M6:
		return e.executeM1()
	default:
		panic("cpu: LD (nn),SP has five M-cycles")
	}
}

// ALU-op A,r
func (e *instrEngine) aluOpR(op aluOp, r regSelect) *BusOp {
	switch e.mCycle {
	case M2:
		result, f := e.applyAluOp(op, e.regs.a, e.regs.read(r))
		e.regs.a = result
		e.regs.f = f
		return e.executeM1()
	default:
		panic("cpu: ALU-op A,r has only one M-cycle")
	}
}

// ALU-op A,n
func (e *instrEngine) aluOpN(op aluOp) *BusOp {
	switch e.mCycle {
	case M2:
		return e.readImmediate()
	case M3:
		result, f := e.applyAluOp(op, e.regs.a, e.state.mustBusData())
		e.regs.a = result
		e.regs.f = f
		return e.executeM1()
	default:
		panic("cpu: ALU-op A,n has two M-cycles")
	}
}

// ALU-op A,(HL)
func (e *instrEngine) aluOpDerefHL(op aluOp) *BusOp {
	switch e.mCycle {
	case M2:
		return readOp(e.regs.hl())
	case M3:
		result, f := e.applyAluOp(op, e.regs.a, e.state.mustBusData())
		e.regs.a = result
		e.regs.f = f
		return e.executeM1()
	default:
		panic("cpu: ALU-op A,(HL) has two M-cycles")
	}
}

// INC r — preserves CY, the one flag ADD-style arithmetic would otherwise
// touch.
func (e *instrEngine) incR(r regSelect) *BusOp {
	switch e.mCycle {
	case M2:
		result, f := aluAdd(e.regs.read(r), 1, false)
		e.regs.write(r, result)
		e.regs.f.Zero = f.Zero
		e.regs.f.Subtract = f.Subtract
		e.regs.f.HalfCarry = f.HalfCarry
		return e.executeM1()
	default:
		panic("cpu: INC r has only one M-cycle")
	}
}

// INC (HL)
func (e *instrEngine) incDerefHL() *BusOp {
	switch e.mCycle {
	case M2:
		return readOp(e.regs.hl())
	case M3:
		result, f := aluAdd(e.state.mustBusData(), 1, false)
		e.regs.f.Zero = f.Zero
		e.regs.f.Subtract = f.Subtract
		e.regs.f.HalfCarry = f.HalfCarry
		return writeOp(e.regs.hl(), result)
	case M4:
		return e.executeM1()
	default:
		panic("cpu: INC (HL) has three M-cycles")
	}
}

// JP nn — always three M-cycles regardless of any condition.
func (e *instrEngine) jpNn() *BusOp {
	switch e.mCycle {
	case M2:
		return e.readImmediate()
	case M3:
		e.state.data = e.state.mustBusData()
		return e.readImmediate()
	case M4:
		e.regs.pc = mask.Word(e.state.mustBusData(), e.state.data)
		return e.executeM1()
	default:
		panic("cpu: JP nn has three M-cycles")
	}
}

// JP cc,nn — the condition is evaluated on the Tick of the M-cycle
// following the second immediate fetch; taking the branch costs one extra
// M-cycle (four total) over not taking it (three).
func (e *instrEngine) jpCcNn(c cond) *BusOp {
	switch e.mCycle {
	case M2:
		return e.readImmediate()
	case M3:
		e.state.data = e.state.mustBusData()
		return e.readImmediate()
	case M4:
		if e.evaluateCond(c) {
			e.regs.pc = mask.Word(e.state.mustBusData(), e.state.data)
			return nil
		}
		return e.executeM1()
	case M5:
		return e.executeM1()
	default:
		panic("cpu: JP cc,nn has three or four M-cycles")
	}
}

// JR e — PC-relative jump with a signed 8-bit displacement. Not taking the
// branch finishes in two M-cycles; taking it costs three.
func (e *instrEngine) jrE() *BusOp {
	switch e.mCycle {
	case M2:
		return e.readImmediate()
	case M3:
		eImm := int8(e.state.mustBusData())
		e.regs.pc = uint16(int32(e.regs.pc) + int32(eImm))
		return nil
	case M4:
		return e.executeM1()
	default:
		panic("cpu: JR e has two or three M-cycles")
	}
}

// JP (HL) — PC := HL and the same Tick requests execute-M1: the fetch at
// the new PC happens within this single M-cycle.
func (e *instrEngine) jpDerefHL() *BusOp {
	switch e.mCycle {
	case M2:
		e.regs.pc = e.regs.hl()
		return e.executeM1()
	default:
		panic("cpu: JP (HL) has only one M-cycle")
	}
}

// RET — two stack pops (low byte then high), an internal cycle to
// reassemble PC, then the execute-M1 fetch: always four M-cycles.
func (e *instrEngine) ret() *BusOp {
	switch e.mCycle {
	case M2:
		return e.popByte()
	case M3:
		e.state.data = e.state.mustBusData()
		return e.popByte()
	case M4:
		e.regs.pc = mask.Word(e.state.mustBusData(), e.state.data)
		return nil
	case M5:
		return e.executeM1()
	default:
		panic("cpu: RET has four M-cycles")
	}
}

// executeM1 requests the final fetch of the in-flight instruction: it
// drives Read(PC) and flags the state so the following Tock can decide,
// based on IE & IF, whether to hand off to the next opcode or to the
// interrupt dispatcher.
func (e *instrEngine) executeM1() *BusOp {
	e.state.m1 = true
	return readOp(e.regs.pc)
}

// readImmediate drives a Read at the current PC and increments PC by one,
// per spec §4.D invariant 4 (two-byte immediate fetches increment PC on the
// Tick of their Read).
func (e *instrEngine) readImmediate() *BusOp {
	pc := e.regs.pc
	e.regs.pc++
	return readOp(pc)
}

func (e *instrEngine) pushByte(v byte) *BusOp {
	e.regs.sp--
	return writeOp(e.regs.sp, v)
}

func (e *instrEngine) popByte() *BusOp {
	sp := e.regs.sp
	e.regs.sp++
	return readOp(sp)
}

func (e *instrEngine) applyAluOp(op aluOp, lhs, rhs byte) (byte, flags) {
	switch op {
	case aluOpAdd:
		return aluAdd(lhs, rhs, false)
	case aluOpAdc:
		return aluAdd(lhs, rhs, e.regs.f.Carry)
	case aluOpSub:
		return aluSub(lhs, rhs, false)
	case aluOpSbc:
		return aluSub(lhs, rhs, e.regs.f.Carry)
	case aluOpAnd:
		return aluAnd(lhs, rhs)
	case aluOpXor:
		return aluXor(lhs, rhs)
	case aluOpOr:
		return aluOr(lhs, rhs)
	case aluOpCp:
		return lhs, aluCp(lhs, rhs)
	default:
		panic("cpu: invalid ALU op")
	}
}

func (e *instrEngine) evaluateCond(c cond) bool {
	switch c {
	case condNZ:
		return !e.regs.f.Zero
	case condZ:
		return e.regs.f.Zero
	case condNC:
		return !e.regs.f.Carry
	case condC:
		return e.regs.f.Carry
	default:
		panic("cpu: invalid condition code")
	}
}

// signExtend returns the high byte of data sign-extended to 16 bits: 0xff
// for every byte with bit 7 set (0x80..0xff, i.e. -128..-1), 0x00 otherwise.
func signExtend(data byte) byte {
	if data >= 0x80 {
		return 0xff
	}
	return 0x00
}

// mustBusData asserts the protocol invariant that a Tock following a driven
// Read always observes data (spec §7: a nil here is a caller protocol
// violation, not a core bug).
func (s *instrState) mustBusData() byte {
	if s.busData == nil {
		panic("cpu: protocol violation — Tock observed no data after a Read")
	}
	return *s.busData
}
