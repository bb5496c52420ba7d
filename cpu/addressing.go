package cpu

// mode identifies an addressing mode. Names follow cc65/sim65 convention.
type mode int

const (
	impMode mode = iota
	accMode
	immMode
	zpMode
	zpxMode
	zpyMode
	absMode
	abxMode
	abyMode
	indMode
	izxMode
	izyMode
	izpMode // 65C02: zero-page indirect, (zp)
	iaxMode // 65C02: JMP (abs,X)
	relMode
)

func (c *CPU) fetch8() uint8 {
	v := c.Mem.Read(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

// readZPWord reads a little-endian word out of the zero page, wrapping the
// high byte's address within page 0 (used by izx/izy/izp).
func (c *CPU) readZPWord(zp uint8) uint16 {
	lo := c.Mem.Read(uint16(zp))
	hi := c.Mem.Read(uint16(zp + 1))
	return uint16(hi)<<8 | uint16(lo)
}

// pageCrossed reports whether adding an index to base moved the address
// into a different page.
func pageCrossed(base, final uint16) bool {
	return base&0xFF00 != final&0xFF00
}

// resolveRead returns the effective address for a read-class instruction
// and whether indexing crossed a page boundary (abx/aby/izy only -- the
// caller adds one cycle in that case).
func (c *CPU) resolveRead(m mode) (addr uint16, crossed bool) {
	switch m {
	case immMode:
		addr = c.PC
		c.PC++
	case zpMode:
		addr = uint16(c.fetch8())
	case zpxMode:
		addr = uint16(c.fetch8() + c.X)
	case zpyMode:
		addr = uint16(c.fetch8() + c.Y)
	case absMode:
		addr = c.fetch16()
	case abxMode:
		base := c.fetch16()
		addr = base + uint16(c.X)
		crossed = pageCrossed(base, addr)
	case abyMode:
		base := c.fetch16()
		addr = base + uint16(c.Y)
		crossed = pageCrossed(base, addr)
	case izxMode:
		zp := c.fetch8() + c.X
		addr = c.readZPWord(zp)
	case izyMode:
		zp := c.fetch8()
		base := c.readZPWord(zp)
		addr = base + uint16(c.Y)
		crossed = pageCrossed(base, addr)
	case izpMode:
		zp := c.fetch8()
		addr = c.readZPWord(zp)
	default:
		panic("resolveRead: unsupported mode")
	}
	return addr, crossed
}

// resolveAddr is resolveRead without the page-cross signal, for
// write/read-modify-write instructions whose documented cycle count is
// already worst-case and does not vary with page crossing.
func (c *CPU) resolveAddr(m mode) uint16 {
	addr, _ := c.resolveRead(m)
	return addr
}

func (c *CPU) readOperand(m mode) (val uint8, extra uint32) {
	addr, crossed := c.resolveRead(m)
	val = c.Mem.Read(addr)
	if crossed {
		extra = 1
	}
	return val, extra
}
