// Package disasm renders a single 6502/65C02 instruction as text, consulting
// an optional symbol table so jump and data operands read as names instead
// of raw addresses wherever the debug info defines one.
package disasm

import (
	"fmt"

	"bug65/cpu"
	"bug65/mem"
)

// SymbolResolver is the slice of a debug-info index the disassembler needs.
// Implemented by *dbginfo.Info.
type SymbolResolver interface {
	// SymbolAt returns the preferred symbol (a label if one exists, else an
	// equate) whose value is exactly addr.
	SymbolAt(addr uint16) (name string, ok bool)
	// LabelBefore returns a label whose value is addr-1, for the "name+1"
	// rendering of a non-jump operand that has no exact match.
	LabelBefore(addr uint16) (name string, ok bool)
}

// Instruction is one disassembled instruction.
type Instruction struct {
	Mnemonic string
	Operand  string
	Bytes    []byte
	Length   int
}

// Text renders "MNEMONIC OPERAND", or just "MNEMONIC" when there is none.
func (ins Instruction) Text() string {
	if ins.Operand == "" {
		return ins.Mnemonic
	}
	return ins.Mnemonic + " " + ins.Operand
}

// Disassemble decodes the instruction at pc. sym may be nil, in which case
// every operand renders numerically. Undefined opcodes, and 65C02 opcodes
// decoded under the NMOS variant, render as "DB $xx" and occupy one byte --
// the same byte cpu.CPU.Step would refuse with a DecodeError.
func Disassemble(m *mem.Memory, pc uint16, variant cpu.Variant, sym SymbolResolver) Instruction {
	opcode := m.Read(pc)
	info := cpu.Opcode(opcode)
	if info.Undefined() || (info.Is65C02Only() && variant == cpu.NMOS) {
		return Instruction{
			Mnemonic: "DB",
			Operand:  fmt.Sprintf("$%02X", opcode),
			Bytes:    []byte{opcode},
			Length:   1,
		}
	}

	fn := modeFormatters[info.Mode()]
	r := fn(m, pc)
	r.jump = info.Mnemonic() == "JMP" || info.Mnemonic() == "JSR" || info.Mode() == cpu.ModeRel

	return Instruction{
		Mnemonic: info.Mnemonic(),
		Operand:  render(sym, r),
		Bytes:    m.Slice(pc, r.length),
		Length:   r.length,
	}
}

// fmtResult is what a per-mode formatter reports about one operand: its
// textual template (with at most one %s placeholder for the address/value
// text), the numeric key to resolve against the symbol table, and the
// instruction's total length.
type fmtResult struct {
	template string
	addr     uint16
	lookup   bool
	wide     bool // true: render as $xxxx, false: render as $xx
	jump     bool
	length   int
}

func render(sym SymbolResolver, r fmtResult) string {
	if !r.lookup {
		return r.template
	}
	text := hexOperand(r.addr, r.wide)
	if sym != nil {
		if name, ok := sym.SymbolAt(r.addr); ok {
			text = name
		} else if !r.jump {
			if name, ok := sym.LabelBefore(r.addr); ok {
				text = name + "+1"
			}
		}
	}
	return fmt.Sprintf(r.template, text)
}

func hexOperand(addr uint16, wide bool) string {
	if wide {
		return fmt.Sprintf("$%04X", addr)
	}
	return fmt.Sprintf("$%02X", uint8(addr))
}

type modeFormatter func(m *mem.Memory, pc uint16) fmtResult

var modeFormatters = [...]modeFormatter{
	cpu.ModeImp: impFmt,
	cpu.ModeAcc: accFmt,
	cpu.ModeImm: immFmt,
	cpu.ModeZp:  zpFmt,
	cpu.ModeZpx: zpxFmt,
	cpu.ModeZpy: zpyFmt,
	cpu.ModeAbs: absFmt,
	cpu.ModeAbx: abxFmt,
	cpu.ModeAby: abyFmt,
	cpu.ModeInd: indFmt,
	cpu.ModeIzx: izxFmt,
	cpu.ModeIzy: izyFmt,
	cpu.ModeIzp: izpFmt,
	cpu.ModeIax: iaxFmt,
	cpu.ModeRel: relFmt,
}

func impFmt(m *mem.Memory, pc uint16) fmtResult { return fmtResult{length: 1} }
func accFmt(m *mem.Memory, pc uint16) fmtResult { return fmtResult{template: "A", length: 1} }

func immFmt(m *mem.Memory, pc uint16) fmtResult {
	return fmtResult{template: "#%s", addr: uint16(m.Read(pc + 1)), lookup: true, length: 2}
}

func zpFmt(m *mem.Memory, pc uint16) fmtResult {
	return fmtResult{template: "%s", addr: uint16(m.Read(pc + 1)), lookup: true, length: 2}
}

func zpxFmt(m *mem.Memory, pc uint16) fmtResult {
	return fmtResult{template: "%s,X", addr: uint16(m.Read(pc + 1)), lookup: true, length: 2}
}

func zpyFmt(m *mem.Memory, pc uint16) fmtResult {
	return fmtResult{template: "%s,Y", addr: uint16(m.Read(pc + 1)), lookup: true, length: 2}
}

func absFmt(m *mem.Memory, pc uint16) fmtResult {
	return fmtResult{template: "%s", addr: m.ReadWord(pc + 1), lookup: true, wide: true, length: 3}
}

func abxFmt(m *mem.Memory, pc uint16) fmtResult {
	return fmtResult{template: "%s,X", addr: m.ReadWord(pc + 1), lookup: true, wide: true, length: 3}
}

func abyFmt(m *mem.Memory, pc uint16) fmtResult {
	return fmtResult{template: "%s,Y", addr: m.ReadWord(pc + 1), lookup: true, wide: true, length: 3}
}

func indFmt(m *mem.Memory, pc uint16) fmtResult {
	return fmtResult{template: "(%s)", addr: m.ReadWord(pc + 1), lookup: true, wide: true, length: 3}
}

func izxFmt(m *mem.Memory, pc uint16) fmtResult {
	return fmtResult{template: "(%s,X)", addr: uint16(m.Read(pc + 1)), lookup: true, length: 2}
}

func izyFmt(m *mem.Memory, pc uint16) fmtResult {
	return fmtResult{template: "(%s),Y", addr: uint16(m.Read(pc + 1)), lookup: true, length: 2}
}

func izpFmt(m *mem.Memory, pc uint16) fmtResult {
	return fmtResult{template: "(%s)", addr: uint16(m.Read(pc + 1)), lookup: true, length: 2}
}

func iaxFmt(m *mem.Memory, pc uint16) fmtResult {
	return fmtResult{template: "(%s,X)", addr: m.ReadWord(pc + 1), lookup: true, wide: true, length: 3}
}

// relFmt computes the branch target as (pc + 2 + signed_disp) & $FFFF, per
// spec: the displacement is relative to the address of the *next*
// instruction, not the branch opcode itself.
func relFmt(m *mem.Memory, pc uint16) fmtResult {
	disp := int8(m.Read(pc + 1))
	target := uint16(int32(pc) + 2 + int32(disp))
	return fmtResult{template: "%s", addr: target, lookup: true, wide: true, length: 2}
}
