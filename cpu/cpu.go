// Package cpu implements the 6502/65C02 instruction interpreter: register
// and flag state, the static opcode table, addressing-mode resolution, and
// the fetch/decode/execute loop, including breakpoint and trap-hook
// cooperation with the outside world.
package cpu

import (
	"bug65/log"
	"bug65/mem"
)

// Variant selects which opcode set is legal; 65C02-only opcodes decode-error
// when Variant is NMOS.
type Variant int

const (
	NMOS   Variant = iota // the original 6502
	CMOS                  // the 65C02
)

func (v Variant) String() string {
	if v == CMOS {
		return "65C02"
	}
	return "6502"
}

const (
	NMIVector   = 0xFFFA
	ResetVector = 0xFFFC
	IRQVector   = 0xFFFE
)

// TrapResult tells the CPU whether a trap hook consumed the instruction
// slot (Halt) or whether the CPU should continue with a normal fetch
// (Continue) -- e.g. because the hook address had no registered handler.
type TrapResult int

const (
	Continue TrapResult = iota
	Halt
)

// TrapHook is consulted before every instruction fetch. It may freely
// mutate registers and memory; returning Halt aborts the step with zero
// cycles consumed (used by the host ABI to implement program exit and
// blocking console reads).
type TrapHook func(c *CPU, pc uint16) TrapResult

// CPU holds the full machine-visible state of one interpreter instance: the
// registers, the address space, the breakpoint table and the trap hook.
type CPU struct {
	A, X, Y, SP uint8
	PC          uint16
	P           P

	Variant Variant
	Cycles  int64 // running cycle count, approximate (non cycle-exact)

	Mem *mem.Memory

	Trap TrapHook

	breakpoints map[uint16]map[string]struct{}
}

// New creates a CPU bound to the given address space, at power-up state.
func New(m *mem.Memory) *CPU {
	c := &CPU{
		Mem:         m,
		breakpoints: make(map[uint16]map[string]struct{}),
	}
	c.Reset()
	return c
}

// Reset puts the CPU in its documented reset state and loads PC from the
// reset vector.
func (c *CPU) Reset() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFF
	c.P = flagU | flagI
	c.Cycles = 0
	c.PC = c.Mem.ReadWord(ResetVector)
}

// Registers is a snapshot of CPU-visible state, returned by GetRegisters
// and consumed (partially) by SetRegisters.
type Registers struct {
	A, X, Y, SP uint8
	PC          uint16
	P           P
}

func (c *CPU) GetRegisters() Registers {
	return Registers{A: c.A, X: c.X, Y: c.Y, SP: c.SP, PC: c.PC, P: c.P}
}

// RegisterMask selects which fields of a partial Registers value to apply
// in SetRegisters.
type RegisterMask uint8

const (
	MaskA RegisterMask = 1 << iota
	MaskX
	MaskY
	MaskSP
	MaskPC
	MaskP
	MaskAll = MaskA | MaskX | MaskY | MaskSP | MaskPC | MaskP
)

// SetRegisters applies the fields named by mask from regs, masking every
// 8-bit field to 8 bits and PC to 16 bits.
func (c *CPU) SetRegisters(regs Registers, mask RegisterMask) {
	if mask&MaskA != 0 {
		c.A = regs.A
	}
	if mask&MaskX != 0 {
		c.X = regs.X
	}
	if mask&MaskY != 0 {
		c.Y = regs.Y
	}
	if mask&MaskSP != 0 {
		c.SP = regs.SP
	}
	if mask&MaskPC != 0 {
		c.PC = regs.PC
	}
	if mask&MaskP != 0 {
		c.P = regs.P | flagU
	}
}

func (c *CPU) SetVariant(v Variant) {
	c.Variant = v
}

// AddBreakpoint arms addr under the given opaque group tag.
func (c *CPU) AddBreakpoint(addr uint16, group string) {
	set, ok := c.breakpoints[addr]
	if !ok {
		set = make(map[string]struct{})
		c.breakpoints[addr] = set
	}
	set[group] = struct{}{}
}

// RemoveBreakpoint disarms addr for the given group; the address stays
// armed if other groups still reference it.
func (c *CPU) RemoveBreakpoint(addr uint16, group string) {
	set, ok := c.breakpoints[addr]
	if !ok {
		return
	}
	delete(set, group)
	if len(set) == 0 {
		delete(c.breakpoints, addr)
	}
}

// ClearBreakpoints removes every breakpoint in group, or every breakpoint
// entirely when group is empty.
func (c *CPU) ClearBreakpoints(group string) {
	if group == "" {
		c.breakpoints = make(map[uint16]map[string]struct{})
		return
	}
	for addr, set := range c.breakpoints {
		delete(set, group)
		if len(set) == 0 {
			delete(c.breakpoints, addr)
		}
	}
}

// HasBreakpoint reports whether addr is armed by any group.
func (c *CPU) HasBreakpoint(addr uint16) bool {
	set, ok := c.breakpoints[addr]
	return ok && len(set) > 0
}

// Step executes (at most) one instruction and returns the number of cycles
// consumed. See the package doc and DESIGN.md for the exact contract:
// breakpoints and the trap hook are consulted before the fetch, and either
// one can abort the step with zero cycles.
func (c *CPU) Step(ignoreBreakpoints bool) (uint32, error) {
	if !ignoreBreakpoints && c.HasBreakpoint(c.PC) {
		return 0, nil
	}
	if c.Trap != nil {
		if c.Trap(c, c.PC) == Halt {
			return 0, nil
		}
	}

	opcode := c.Mem.Read(c.PC)
	entry := optable[opcode]
	if entry.mnemonic == "" {
		return 0, &DecodeError{PC: c.PC, Opcode: opcode, Reason: "undefined opcode"}
	}
	if entry.variant == CMOS && c.Variant == NMOS {
		return 0, &DecodeError{PC: c.PC, Opcode: opcode, Reason: "65C02-only opcode under 6502 variant"}
	}

	log.ModCPU.DebugZ("step").Hex16("pc", c.PC).Hex8("opcode", opcode).String("mnemonic", entry.mnemonic).End()

	c.PC++
	extra := entry.exec(c, entry.mode)
	cycles := uint32(entry.cycles) + extra
	c.Cycles += int64(cycles)
	return cycles, nil
}

// DecodeError is returned by Step on an undefined opcode, or a 65C02-only
// opcode executed under the 6502 variant.
type DecodeError struct {
	PC     uint16
	Opcode uint8
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode error at $" + hex4(e.PC) + ": $" + hex2(e.Opcode) + ": " + e.Reason
}

const hexDigits = "0123456789ABCDEF"

func hex2(v uint8) string {
	return string([]byte{hexDigits[v>>4], hexDigits[v&0xF]})
}

func hex4(v uint16) string {
	return hex2(uint8(v>>8)) + hex2(uint8(v))
}
