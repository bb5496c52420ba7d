package debugger

import "bug65/cpu"

// StepMode is the step-mode state machine spec.md §4.H describes as a
// small closed variant: None, StepIn, Next, RunTo, and StepOut. Each
// variant implements beforeStep, consulted before the next instruction is
// fetched and executed; a mode may peek at the opcode byte at PC.
type StepMode interface {
	// beforeStep reports whether the engine should stop now, without
	// executing the instruction at PC, and which mode governs the
	// instruction after this one.
	beforeStep(c *cpu.CPU) (stop bool, next StepMode)
}

// addrRange is the half-open address range a StepIn/Next mode must stay
// within -- the current span at the PC the step started from.
type addrRange struct {
	Start, End uint16
}

func (r addrRange) contains(pc uint16) bool { return pc >= r.Start && pc < r.End }

const (
	opJSR = 0x20
	opRTS = 0x60
)

// ModeNone runs until a breakpoint, trap-halt, or suspend-for-input; it
// never itself asks the slice loop to stop.
type ModeNone struct{}

func (ModeNone) beforeStep(c *cpu.CPU) (bool, StepMode) { return false, ModeNone{} }

// ModeStepIn stops as soon as PC leaves Allowed -- which includes crossing
// into a callee, since the callee's first instruction is outside the
// caller's span.
type ModeStepIn struct{ Allowed addrRange }

func (m ModeStepIn) beforeStep(c *cpu.CPU) (bool, StepMode) {
	if !m.Allowed.contains(c.PC) {
		return true, ModeNone{}
	}
	return false, m
}

// ModeNext is ModeStepIn except a JSR is treated as one line: encountering
// one switches to running to the instruction right after it.
type ModeNext struct{ Allowed addrRange }

func (m ModeNext) beforeStep(c *cpu.CPU) (bool, StepMode) {
	if c.Mem.Read(c.PC) == opJSR {
		return false, ModeRunTo{Target: c.PC + 3, Restore: m}
	}
	if !m.Allowed.contains(c.PC) {
		return true, ModeNone{}
	}
	return false, m
}

// ModeRunTo runs until PC == Target, then applies Restore's own rule once.
// A nil Restore means the arrival itself is the stop.
type ModeRunTo struct {
	Target  uint16
	Restore StepMode
}

func (m ModeRunTo) beforeStep(c *cpu.CPU) (bool, StepMode) {
	if c.PC != m.Target {
		return false, m
	}
	if m.Restore == nil {
		return true, ModeNone{}
	}
	return m.Restore.beforeStep(c)
}

// ModeStepOut keeps running until the current function's own RTS is about
// to execute, then switches to ModeRunTo(retAddr, None) so the call
// actually returns before the engine stops.
type ModeStepOut struct{ EntrySP uint8 }

func (m ModeStepOut) beforeStep(c *cpu.CPU) (bool, StepMode) {
	if c.Mem.Read(c.PC) != opRTS {
		return false, m
	}
	if uint16(c.SP)+2 <= uint16(m.EntrySP) {
		return false, m
	}
	lo := c.Mem.Read(0x100 + uint16(c.SP) + 1)
	hi := c.Mem.Read(0x100 + uint16(c.SP) + 2)
	retAddr := uint16(hi)<<8 | uint16(lo)
	return false, ModeRunTo{Target: retAddr + 1, Restore: ModeNone{}}
}
