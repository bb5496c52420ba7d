package cpu

// opcodeInfo is one entry of the static opcode table: mnemonic and
// addressing mode for disassembly, base cycle count, the CPU variant that
// introduced it, and the execute helper that implements its semantics.
// Unfilled entries (mnemonic == "") are undefined opcodes.
type opcodeInfo struct {
	mnemonic string
	mode     mode
	cycles   uint8
	variant  Variant
	exec     execFunc
}

// Opcode returns the static table entry for a byte value, for use by the
// disassembler.
func Opcode(b uint8) opcodeInfo { return optable[b] }

func (o opcodeInfo) Mnemonic() string  { return o.mnemonic }
func (o opcodeInfo) Undefined() bool   { return o.mnemonic == "" }
func (o opcodeInfo) Is65C02Only() bool { return o.variant == CMOS }
func (o opcodeInfo) Mode() int         { return int(o.mode) }

// Mode constants re-exported for the disassembler package.
const (
	ModeImp = int(impMode)
	ModeAcc = int(accMode)
	ModeImm = int(immMode)
	ModeZp  = int(zpMode)
	ModeZpx = int(zpxMode)
	ModeZpy = int(zpyMode)
	ModeAbs = int(absMode)
	ModeAbx = int(abxMode)
	ModeAby = int(abyMode)
	ModeInd = int(indMode)
	ModeIzx = int(izxMode)
	ModeIzy = int(izyMode)
	ModeIzp = int(izpMode)
	ModeIax = int(iaxMode)
	ModeRel = int(relMode)
)

var optable = buildOptable()

func buildOptable() [256]opcodeInfo {
	var t [256]opcodeInfo

	def := func(op uint8, mnemonic string, m mode, cycles uint8, v Variant, fn execFunc) {
		t[op] = opcodeInfo{mnemonic: mnemonic, mode: m, cycles: cycles, variant: v, exec: fn}
	}

	and := func(a, b uint8) uint8 { return a & b }
	or := func(a, b uint8) uint8 { return a | b }
	xor := func(a, b uint8) uint8 { return a ^ b }

	// Loads.
	def(0xA9, "LDA", immMode, 2, NMOS, load(selA))
	def(0xA5, "LDA", zpMode, 3, NMOS, load(selA))
	def(0xB5, "LDA", zpxMode, 4, NMOS, load(selA))
	def(0xAD, "LDA", absMode, 4, NMOS, load(selA))
	def(0xBD, "LDA", abxMode, 4, NMOS, load(selA))
	def(0xB9, "LDA", abyMode, 4, NMOS, load(selA))
	def(0xA1, "LDA", izxMode, 6, NMOS, load(selA))
	def(0xB1, "LDA", izyMode, 5, NMOS, load(selA))
	def(0xB2, "LDA", izpMode, 5, CMOS, load(selA))

	def(0xA2, "LDX", immMode, 2, NMOS, load(selX))
	def(0xA6, "LDX", zpMode, 3, NMOS, load(selX))
	def(0xB6, "LDX", zpyMode, 4, NMOS, load(selX))
	def(0xAE, "LDX", absMode, 4, NMOS, load(selX))
	def(0xBE, "LDX", abyMode, 4, NMOS, load(selX))

	def(0xA0, "LDY", immMode, 2, NMOS, load(selY))
	def(0xA4, "LDY", zpMode, 3, NMOS, load(selY))
	def(0xB4, "LDY", zpxMode, 4, NMOS, load(selY))
	def(0xAC, "LDY", absMode, 4, NMOS, load(selY))
	def(0xBC, "LDY", abxMode, 4, NMOS, load(selY))

	// Stores.
	def(0x85, "STA", zpMode, 3, NMOS, store(selA))
	def(0x95, "STA", zpxMode, 4, NMOS, store(selA))
	def(0x8D, "STA", absMode, 4, NMOS, store(selA))
	def(0x9D, "STA", abxMode, 5, NMOS, store(selA))
	def(0x99, "STA", abyMode, 5, NMOS, store(selA))
	def(0x81, "STA", izxMode, 6, NMOS, store(selA))
	def(0x91, "STA", izyMode, 6, NMOS, store(selA))
	def(0x92, "STA", izpMode, 5, CMOS, store(selA))

	def(0x86, "STX", zpMode, 3, NMOS, store(selX))
	def(0x96, "STX", zpyMode, 4, NMOS, store(selX))
	def(0x8E, "STX", absMode, 4, NMOS, store(selX))

	def(0x84, "STY", zpMode, 3, NMOS, store(selY))
	def(0x94, "STY", zpxMode, 4, NMOS, store(selY))
	def(0x8C, "STY", absMode, 4, NMOS, store(selY))

	def(0x64, "STZ", zpMode, 3, CMOS, stz)
	def(0x74, "STZ", zpxMode, 4, CMOS, stz)
	def(0x9C, "STZ", absMode, 4, CMOS, stz)
	def(0x9E, "STZ", abxMode, 5, CMOS, stz)

	// Register transfers.
	def(0xAA, "TAX", impMode, 2, NMOS, transfer(selA, selX, true))
	def(0xA8, "TAY", impMode, 2, NMOS, transfer(selA, selY, true))
	def(0x8A, "TXA", impMode, 2, NMOS, transfer(selX, selA, true))
	def(0x98, "TYA", impMode, 2, NMOS, transfer(selY, selA, true))
	def(0xBA, "TSX", impMode, 2, NMOS, transfer(selSP, selX, true))
	def(0x9A, "TXS", impMode, 2, NMOS, transfer(selX, selSP, false))

	// Logical.
	def(0x29, "AND", immMode, 2, NMOS, logical(and))
	def(0x25, "AND", zpMode, 3, NMOS, logical(and))
	def(0x35, "AND", zpxMode, 4, NMOS, logical(and))
	def(0x2D, "AND", absMode, 4, NMOS, logical(and))
	def(0x3D, "AND", abxMode, 4, NMOS, logical(and))
	def(0x39, "AND", abyMode, 4, NMOS, logical(and))
	def(0x21, "AND", izxMode, 6, NMOS, logical(and))
	def(0x31, "AND", izyMode, 5, NMOS, logical(and))
	def(0x32, "AND", izpMode, 5, CMOS, logical(and))

	def(0x09, "ORA", immMode, 2, NMOS, logical(or))
	def(0x05, "ORA", zpMode, 3, NMOS, logical(or))
	def(0x15, "ORA", zpxMode, 4, NMOS, logical(or))
	def(0x0D, "ORA", absMode, 4, NMOS, logical(or))
	def(0x1D, "ORA", abxMode, 4, NMOS, logical(or))
	def(0x19, "ORA", abyMode, 4, NMOS, logical(or))
	def(0x01, "ORA", izxMode, 6, NMOS, logical(or))
	def(0x11, "ORA", izyMode, 5, NMOS, logical(or))
	def(0x12, "ORA", izpMode, 5, CMOS, logical(or))

	def(0x49, "EOR", immMode, 2, NMOS, logical(xor))
	def(0x45, "EOR", zpMode, 3, NMOS, logical(xor))
	def(0x55, "EOR", zpxMode, 4, NMOS, logical(xor))
	def(0x4D, "EOR", absMode, 4, NMOS, logical(xor))
	def(0x5D, "EOR", abxMode, 4, NMOS, logical(xor))
	def(0x59, "EOR", abyMode, 4, NMOS, logical(xor))
	def(0x41, "EOR", izxMode, 6, NMOS, logical(xor))
	def(0x51, "EOR", izyMode, 5, NMOS, logical(xor))
	def(0x52, "EOR", izpMode, 5, CMOS, logical(xor))

	// Arithmetic.
	def(0x69, "ADC", immMode, 2, NMOS, adc)
	def(0x65, "ADC", zpMode, 3, NMOS, adc)
	def(0x75, "ADC", zpxMode, 4, NMOS, adc)
	def(0x6D, "ADC", absMode, 4, NMOS, adc)
	def(0x7D, "ADC", abxMode, 4, NMOS, adc)
	def(0x79, "ADC", abyMode, 4, NMOS, adc)
	def(0x61, "ADC", izxMode, 6, NMOS, adc)
	def(0x71, "ADC", izyMode, 5, NMOS, adc)
	def(0x72, "ADC", izpMode, 5, CMOS, adc)

	def(0xE9, "SBC", immMode, 2, NMOS, sbc)
	def(0xE5, "SBC", zpMode, 3, NMOS, sbc)
	def(0xF5, "SBC", zpxMode, 4, NMOS, sbc)
	def(0xED, "SBC", absMode, 4, NMOS, sbc)
	def(0xFD, "SBC", abxMode, 4, NMOS, sbc)
	def(0xF9, "SBC", abyMode, 4, NMOS, sbc)
	def(0xE1, "SBC", izxMode, 6, NMOS, sbc)
	def(0xF1, "SBC", izyMode, 5, NMOS, sbc)
	def(0xF2, "SBC", izpMode, 5, CMOS, sbc)

	// Comparisons.
	def(0xC9, "CMP", immMode, 2, NMOS, compare(selA))
	def(0xC5, "CMP", zpMode, 3, NMOS, compare(selA))
	def(0xD5, "CMP", zpxMode, 4, NMOS, compare(selA))
	def(0xCD, "CMP", absMode, 4, NMOS, compare(selA))
	def(0xDD, "CMP", abxMode, 4, NMOS, compare(selA))
	def(0xD9, "CMP", abyMode, 4, NMOS, compare(selA))
	def(0xC1, "CMP", izxMode, 6, NMOS, compare(selA))
	def(0xD1, "CMP", izyMode, 5, NMOS, compare(selA))
	def(0xD2, "CMP", izpMode, 5, CMOS, compare(selA))

	def(0xE0, "CPX", immMode, 2, NMOS, compare(selX))
	def(0xE4, "CPX", zpMode, 3, NMOS, compare(selX))
	def(0xEC, "CPX", absMode, 4, NMOS, compare(selX))

	def(0xC0, "CPY", immMode, 2, NMOS, compare(selY))
	def(0xC4, "CPY", zpMode, 3, NMOS, compare(selY))
	def(0xCC, "CPY", absMode, 4, NMOS, compare(selY))

	// BIT.
	def(0x24, "BIT", zpMode, 3, NMOS, bit)
	def(0x2C, "BIT", absMode, 4, NMOS, bit)
	def(0x89, "BIT", immMode, 2, CMOS, bit)
	def(0x34, "BIT", zpxMode, 4, CMOS, bit)
	def(0x3C, "BIT", abxMode, 4, CMOS, bit)

	// Shifts and rotates.
	def(0x0A, "ASL", accMode, 2, NMOS, shift(asl))
	def(0x06, "ASL", zpMode, 5, NMOS, shift(asl))
	def(0x16, "ASL", zpxMode, 6, NMOS, shift(asl))
	def(0x0E, "ASL", absMode, 6, NMOS, shift(asl))
	def(0x1E, "ASL", abxMode, 7, NMOS, shift(asl))

	def(0x4A, "LSR", accMode, 2, NMOS, shift(lsr))
	def(0x46, "LSR", zpMode, 5, NMOS, shift(lsr))
	def(0x56, "LSR", zpxMode, 6, NMOS, shift(lsr))
	def(0x4E, "LSR", absMode, 6, NMOS, shift(lsr))
	def(0x5E, "LSR", abxMode, 7, NMOS, shift(lsr))

	def(0x2A, "ROL", accMode, 2, NMOS, shift(rol))
	def(0x26, "ROL", zpMode, 5, NMOS, shift(rol))
	def(0x36, "ROL", zpxMode, 6, NMOS, shift(rol))
	def(0x2E, "ROL", absMode, 6, NMOS, shift(rol))
	def(0x3E, "ROL", abxMode, 7, NMOS, shift(rol))

	def(0x6A, "ROR", accMode, 2, NMOS, shift(ror))
	def(0x66, "ROR", zpMode, 5, NMOS, shift(ror))
	def(0x76, "ROR", zpxMode, 6, NMOS, shift(ror))
	def(0x6E, "ROR", absMode, 6, NMOS, shift(ror))
	def(0x7E, "ROR", abxMode, 7, NMOS, shift(ror))

	// Increment/decrement.
	def(0xE6, "INC", zpMode, 5, NMOS, incdecMem(1))
	def(0xF6, "INC", zpxMode, 6, NMOS, incdecMem(1))
	def(0xEE, "INC", absMode, 6, NMOS, incdecMem(1))
	def(0xFE, "INC", abxMode, 7, NMOS, incdecMem(1))
	def(0x1A, "INC", accMode, 2, CMOS, incdecMem(1))

	def(0xC6, "DEC", zpMode, 5, NMOS, incdecMem(0xFF))
	def(0xD6, "DEC", zpxMode, 6, NMOS, incdecMem(0xFF))
	def(0xCE, "DEC", absMode, 6, NMOS, incdecMem(0xFF))
	def(0xDE, "DEC", abxMode, 7, NMOS, incdecMem(0xFF))
	def(0x3A, "DEC", accMode, 2, CMOS, incdecMem(0xFF))

	def(0xE8, "INX", impMode, 2, NMOS, incdecReg(selX, 1))
	def(0xC8, "INY", impMode, 2, NMOS, incdecReg(selY, 1))
	def(0xCA, "DEX", impMode, 2, NMOS, incdecReg(selX, 0xFF))
	def(0x88, "DEY", impMode, 2, NMOS, incdecReg(selY, 0xFF))

	// Flag set/clear.
	def(0x38, "SEC", impMode, 2, NMOS, setFlag(pbitC, true))
	def(0x18, "CLC", impMode, 2, NMOS, setFlag(pbitC, false))
	def(0x78, "SEI", impMode, 2, NMOS, setFlag(pbitI, true))
	def(0x58, "CLI", impMode, 2, NMOS, setFlag(pbitI, false))
	def(0xF8, "SED", impMode, 2, NMOS, setFlag(pbitD, true))
	def(0xD8, "CLD", impMode, 2, NMOS, setFlag(pbitD, false))
	def(0xB8, "CLV", impMode, 2, NMOS, setFlag(pbitV, false))

	// Branches.
	def(0x10, "BPL", relMode, 2, NMOS, branch(func(p P) bool { return !p.N() }))
	def(0x30, "BMI", relMode, 2, NMOS, branch(func(p P) bool { return p.N() }))
	def(0x50, "BVC", relMode, 2, NMOS, branch(func(p P) bool { return !p.V() }))
	def(0x70, "BVS", relMode, 2, NMOS, branch(func(p P) bool { return p.V() }))
	def(0x90, "BCC", relMode, 2, NMOS, branch(func(p P) bool { return !p.C() }))
	def(0xB0, "BCS", relMode, 2, NMOS, branch(func(p P) bool { return p.C() }))
	def(0xD0, "BNE", relMode, 2, NMOS, branch(func(p P) bool { return !p.Z() }))
	def(0xF0, "BEQ", relMode, 2, NMOS, branch(func(p P) bool { return p.Z() }))
	def(0x80, "BRA", relMode, 2, CMOS, bra)

	// Jumps and subroutines.
	def(0x4C, "JMP", absMode, 3, NMOS, jmp)
	def(0x6C, "JMP", indMode, 5, NMOS, jmp)
	def(0x7C, "JMP", iaxMode, 6, CMOS, jmp)
	def(0x20, "JSR", absMode, 6, NMOS, jsr)
	def(0x60, "RTS", impMode, 6, NMOS, rts)
	def(0x00, "BRK", impMode, 7, NMOS, brk)
	def(0x40, "RTI", impMode, 6, NMOS, rti)

	// Stack.
	def(0x48, "PHA", impMode, 3, NMOS, push8(selA))
	def(0x68, "PLA", impMode, 4, NMOS, pull8(selA))
	def(0x08, "PHP", impMode, 3, NMOS, php)
	def(0x28, "PLP", impMode, 4, NMOS, plp)
	def(0xDA, "PHX", impMode, 3, CMOS, push8(selX))
	def(0xFA, "PLX", impMode, 4, CMOS, pull8(selX))
	def(0x5A, "PHY", impMode, 3, CMOS, push8(selY))
	def(0x7A, "PLY", impMode, 4, CMOS, pull8(selY))

	// Test-and-set/reset bits.
	def(0x04, "TSB", zpMode, 5, CMOS, tsbTrb(true))
	def(0x0C, "TSB", absMode, 6, CMOS, tsbTrb(true))
	def(0x14, "TRB", zpMode, 5, CMOS, tsbTrb(false))
	def(0x1C, "TRB", absMode, 6, CMOS, tsbTrb(false))

	def(0xEA, "NOP", impMode, 2, NMOS, nop)

	return t
}
