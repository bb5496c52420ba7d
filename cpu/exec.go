package cpu

// execFunc performs one instruction's addressing-mode resolution and
// semantics, and returns the number of cycles to add to the opcode's base
// cycle count (page crosses, taken branches).
type execFunc func(c *CPU, m mode) uint32

// regSel fetches the address of a CPU register at execute time: the opcode
// table is built once at package init, before any CPU exists, so register
// access goes through these selectors instead of a captured pointer.
type regSel func(c *CPU) *uint8

func selA(c *CPU) *uint8  { return &c.A }
func selX(c *CPU) *uint8  { return &c.X }
func selY(c *CPU) *uint8  { return &c.Y }
func selSP(c *CPU) *uint8 { return &c.SP }

// load implements LDA/LDX/LDY: read the operand, store into the selected
// register, set N/Z.
func load(dst regSel) execFunc {
	return func(c *CPU, m mode) uint32 {
		v, extra := c.readOperand(m)
		*dst(c) = v
		c.P.checkNZ(v)
		return extra
	}
}

// store implements STA/STX/STY.
func store(src regSel) execFunc {
	return func(c *CPU, m mode) uint32 {
		addr := c.resolveAddr(m)
		c.Mem.Write(addr, *src(c))
		return 0
	}
}

// transfer implements TAX/TAY/TSX/TXA/TYA (flags updated on destination)
// and TXS (flags untouched).
func transfer(src, dst regSel, setFlags bool) execFunc {
	return func(c *CPU, m mode) uint32 {
		v := *src(c)
		*dst(c) = v
		if setFlags {
			c.P.checkNZ(v)
		}
		return 0
	}
}

func logical(op func(a, b uint8) uint8) execFunc {
	return func(c *CPU, m mode) uint32 {
		v, extra := c.readOperand(m)
		c.A = op(c.A, v)
		c.P.checkNZ(c.A)
		return extra
	}
}

// adc implements ADC. Decimal mode is not implemented: per spec, when D=1
// behavior silently matches binary mode.
func adc(c *CPU, m mode) uint32 {
	v, extra := c.readOperand(m)
	carry := uint16(0)
	if c.P.C() {
		carry = 1
	}
	sum := uint16(c.A) + uint16(v) + carry
	c.P.checkCV(c.A, v, sum)
	c.A = uint8(sum)
	c.P.checkNZ(c.A)
	return extra
}

// sbc is defined as ADC(m ^ $FF).
func sbc(c *CPU, m mode) uint32 {
	v, extra := c.readOperand(m)
	carry := uint16(0)
	if c.P.C() {
		carry = 1
	}
	inv := v ^ 0xFF
	sum := uint16(c.A) + uint16(inv) + carry
	c.P.checkCV(c.A, inv, sum)
	c.A = uint8(sum)
	c.P.checkNZ(c.A)
	return extra
}

// compare implements CMP/CPX/CPY against the selected register.
func compare(reg regSel) execFunc {
	return func(c *CPU, m mode) uint32 {
		v, extra := c.readOperand(m)
		r := *reg(c)
		c.P.writeBit(pbitC, r >= v)
		diff := r - v
		c.P.checkNZ(diff)
		return extra
	}
}

// bit implements BIT. On the 65C02, BIT #imm only updates Z (there is no
// memory operand to read N/V from).
func bit(c *CPU, m mode) uint32 {
	v, extra := c.readOperand(m)
	c.P.checkZ(c.A & v)
	if m != immMode {
		c.P.checkN(v)
		c.P.writeBit(pbitV, v&0x40 != 0)
	}
	return extra
}

type shiftOp func(p *P, v uint8) uint8

func asl(p *P, v uint8) uint8 {
	p.writeBit(pbitC, v&0x80 != 0)
	return v << 1
}

func lsr(p *P, v uint8) uint8 {
	p.writeBit(pbitC, v&0x01 != 0)
	return v >> 1
}

func rol(p *P, v uint8) uint8 {
	carryIn := uint8(0)
	if p.C() {
		carryIn = 1
	}
	p.writeBit(pbitC, v&0x80 != 0)
	return v<<1 | carryIn
}

func ror(p *P, v uint8) uint8 {
	carryIn := uint8(0)
	if p.C() {
		carryIn = 0x80
	}
	p.writeBit(pbitC, v&0x01 != 0)
	return v>>1 | carryIn
}

// shift implements ASL/LSR/ROL/ROR on the accumulator or on memory.
func shift(op shiftOp) execFunc {
	return func(c *CPU, m mode) uint32 {
		if m == accMode {
			c.A = op(&c.P, c.A)
			c.P.checkNZ(c.A)
			return 0
		}
		addr := c.resolveAddr(m)
		v := op(&c.P, c.Mem.Read(addr))
		c.Mem.Write(addr, v)
		c.P.checkNZ(v)
		return 0
	}
}

// incdecMem implements INC/DEC on memory, and (65C02) on the accumulator.
func incdecMem(delta uint8) execFunc {
	return func(c *CPU, m mode) uint32 {
		if m == accMode {
			c.A += delta
			c.P.checkNZ(c.A)
			return 0
		}
		addr := c.resolveAddr(m)
		v := c.Mem.Read(addr) + delta
		c.Mem.Write(addr, v)
		c.P.checkNZ(v)
		return 0
	}
}

// incdecReg implements INX/DEX/INY/DEY.
func incdecReg(reg regSel, delta uint8) execFunc {
	return func(c *CPU, m mode) uint32 {
		p := reg(c)
		*p += delta
		c.P.checkNZ(*p)
		return 0
	}
}

func setFlag(bit int, v bool) execFunc {
	return func(c *CPU, m mode) uint32 {
		c.P.writeBit(bit, v)
		return 0
	}
}

// push8/pull8 implement PHA/PHX/PHY/PLA/PLX/PLY.
func push8(reg regSel) execFunc {
	return func(c *CPU, m mode) uint32 {
		c.push(*reg(c))
		return 0
	}
}

func pull8(reg regSel) execFunc {
	return func(c *CPU, m mode) uint32 {
		p := reg(c)
		*p = c.pull()
		c.P.checkNZ(*p)
		return 0
	}
}

// php pushes P with B and U forced to 1.
func php(c *CPU, m mode) uint32 {
	c.push(uint8(c.P | flagB | flagU))
	return 0
}

// plp restores P with B cleared and U forced to 1, per pull-from-stack rule.
func plp(c *CPU, m mode) uint32 {
	v := P(c.pull())
	c.P = (v &^ flagB) | flagU
	return 0
}

// branch implements the eight Bxx conditional branches: base cycles are
// 2, +1 if taken, +1 more if the branch target crosses a page.
func branch(test func(p P) bool) execFunc {
	return func(c *CPU, m mode) uint32 {
		disp := int8(c.fetch8())
		if !test(c.P) {
			return 0
		}
		from := c.PC
		target := uint16(int32(from) + int32(disp))
		c.PC = target
		extra := uint32(1)
		if pageCrossed(from, target) {
			extra++
		}
		return extra
	}
}

// bra is the 65C02 unconditional branch: same shape as branch with an
// always-true test, kept separate so the opcode table entry reads clearly.
func bra(c *CPU, m mode) uint32 {
	return branch(func(P) bool { return true })(c, m)
}

func jmp(c *CPU, m mode) uint32 {
	switch m {
	case absMode:
		c.PC = c.fetch16()
	case indMode:
		ptr := c.fetch16()
		var hi uint8
		if c.Variant == NMOS && ptr&0xFF == 0xFF {
			// 6502 page-wrap bug: the high byte wraps within the page
			// instead of crossing into the next one.
			hi = c.Mem.Read(ptr & 0xFF00)
		} else {
			hi = c.Mem.Read(ptr + 1)
		}
		lo := c.Mem.Read(ptr)
		c.PC = uint16(hi)<<8 | uint16(lo)
	case iaxMode:
		// 65C02 JMP (abs,X): never page-wraps.
		base := c.fetch16()
		ptr := base + uint16(c.X)
		lo := c.Mem.Read(ptr)
		hi := c.Mem.Read(ptr + 1)
		c.PC = uint16(hi)<<8 | uint16(lo)
	default:
		panic("jmp: unsupported mode")
	}
	return 0
}

func jsr(c *CPU, m mode) uint32 {
	target := c.fetch16()
	c.pushWord(c.PC - 1)
	c.PC = target
	return 0
}

func rts(c *CPU, m mode) uint32 {
	c.PC = c.pullWord() + 1
	return 0
}

// brk skips the padding byte after the opcode, pushes PC and P|B|U, sets I,
// and loads PC from the IRQ/BRK vector.
func brk(c *CPU, m mode) uint32 {
	c.PC++
	c.pushWord(c.PC)
	c.push(uint8(c.P | flagB | flagU))
	c.P.setBit(pbitI)
	c.PC = c.Mem.ReadWord(IRQVector)
	return 0
}

func rti(c *CPU, m mode) uint32 {
	v := P(c.pull())
	c.P = (v &^ flagB) | flagU
	c.PC = c.pullWord()
	return 0
}

func nop(c *CPU, m mode) uint32 {
	if m == immMode || m == zpMode || m == zpxMode || m == absMode || m == abxMode {
		c.resolveRead(m)
	}
	return 0
}

// stz implements the 65C02 STZ: store zero, no flags.
func stz(c *CPU, m mode) uint32 {
	addr := c.resolveAddr(m)
	c.Mem.Write(addr, 0)
	return 0
}

// tsbTrb implements the 65C02 TSB/TRB: set (TSB) or clear (TRB) the bits of
// memory that are set in A, leaving A untouched; Z is set from (A & mem)
// as if by BIT.
func tsbTrb(set bool) execFunc {
	return func(c *CPU, m mode) uint32 {
		addr := c.resolveAddr(m)
		v := c.Mem.Read(addr)
		c.P.checkZ(c.A & v)
		if set {
			v |= c.A
		} else {
			v &^= c.A
		}
		c.Mem.Write(addr, v)
		return 0
	}
}
