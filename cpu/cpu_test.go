package cpu

import (
	"testing"

	"bug65/mem"
)

func newTestCPU() (*CPU, *mem.Memory) {
	m := mem.New()
	m.WriteWord(ResetVector, 0x0200)
	c := New(m)
	return c, m
}

func TestResetState(t *testing.T) {
	c, _ := newTestCPU()
	if c.PC != 0x0200 {
		t.Fatalf("PC = $%04x, want $0200", c.PC)
	}
	if c.SP != 0xFF {
		t.Fatalf("SP = $%02x, want $ff", c.SP)
	}
	if !c.P.I() {
		t.Fatalf("I flag not set after reset")
	}
}

func TestSetRegistersMask(t *testing.T) {
	c, _ := newTestCPU()
	c.SetRegisters(Registers{A: 0x11, X: 0x22, Y: 0x33}, MaskA|MaskY)
	if c.A != 0x11 || c.Y != 0x33 {
		t.Fatalf("A/Y = %02x/%02x, want 11/33", c.A, c.Y)
	}
	if c.X != 0 {
		t.Fatalf("X = %02x, masked field should be untouched", c.X)
	}
}

func TestBreakpointGroups(t *testing.T) {
	c, _ := newTestCPU()
	c.AddBreakpoint(0x0300, "user")
	c.AddBreakpoint(0x0300, "stepper")
	if !c.HasBreakpoint(0x0300) {
		t.Fatalf("breakpoint not armed")
	}
	c.RemoveBreakpoint(0x0300, "user")
	if !c.HasBreakpoint(0x0300) {
		t.Fatalf("breakpoint disarmed while stepper group still references it")
	}
	c.RemoveBreakpoint(0x0300, "stepper")
	if c.HasBreakpoint(0x0300) {
		t.Fatalf("breakpoint still armed after last group removed")
	}
}

func TestStepStopsOnArmedBreakpoint(t *testing.T) {
	c, m := newTestCPU()
	m.Load(0x0200, []byte{0xEA}) // NOP
	c.AddBreakpoint(0x0200, "user")

	cycles, err := c.Step(false)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if cycles != 0 {
		t.Fatalf("cycles = %d, want 0 (step should not execute)", cycles)
	}
	if c.PC != 0x0200 {
		t.Fatalf("PC advanced past an armed breakpoint")
	}

	cycles, err = c.Step(true)
	if err != nil {
		t.Fatalf("Step(ignoreBreakpoints): %v", err)
	}
	if cycles != 2 {
		t.Fatalf("cycles = %d, want 2", cycles)
	}
}

func TestStepUndefinedOpcode(t *testing.T) {
	c, m := newTestCPU()
	m.Load(0x0200, []byte{0x02}) // undefined on both variants
	_, err := c.Step(true)
	if err == nil {
		t.Fatalf("expected a DecodeError")
	}
	var de *DecodeError
	if de, _ = err.(*DecodeError); de == nil {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
}

func TestStep65C02OnlyUnderNMOS(t *testing.T) {
	c, m := newTestCPU()
	m.Load(0x0200, []byte{0x80}) // BRA, 65C02-only
	c.SetVariant(NMOS)
	if _, err := c.Step(true); err == nil {
		t.Fatalf("expected a DecodeError for BRA under NMOS")
	}

	c.Reset()
	c.SetVariant(CMOS)
	cycles, err := c.Step(true)
	if err != nil {
		t.Fatalf("Step under CMOS: %v", err)
	}
	if cycles == 0 {
		t.Fatalf("BRA under CMOS consumed 0 cycles")
	}
}

func TestTrapHookHalt(t *testing.T) {
	c, m := newTestCPU()
	m.Load(0x0200, []byte{0xEA})
	called := false
	c.Trap = func(cpu *CPU, pc uint16) TrapResult {
		called = true
		return Halt
	}
	cycles, err := c.Step(true)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !called {
		t.Fatalf("trap hook not invoked")
	}
	if cycles != 0 || c.PC != 0x0200 {
		t.Fatalf("Halt from trap hook should leave PC/cycles untouched")
	}
}
