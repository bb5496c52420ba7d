package debugger

import (
	"context"
	"strings"
	"testing"
	"time"

	"bug65/cpu"
	"bug65/dbginfo"
	"bug65/host"
	"bug65/mem"
)

func waitForEvent(t *testing.T, ctl *Controller) Event {
	t.Helper()
	select {
	case ev := <-ctl.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an event")
		return nil
	}
}

func TestControllerEmitsEntryStopThenTerminatesOnHostExit(t *testing.T) {
	m := mem.New()
	c := cpu.New(m)
	h := host.New(c, 0x0080, nil)

	// LDA #$01 ; JSR HookExit
	c.PC = 0x0300
	m.Write(0x0300, 0xA9)
	m.Write(0x0301, 0x01)
	m.Write(0x0302, 0x20)
	m.WriteWord(0x0303, host.HookExit)

	ctl := New(c, nil, h, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- ctl.Run(ctx) }()

	entry := waitForEvent(t, ctl)
	se, ok := entry.(StoppedEvent)
	if !ok || se.Reason != ReasonEntry {
		t.Fatalf("first event = %#v, want entry stop", entry)
	}

	ctl.Continue()

	term := waitForEvent(t, ctl)
	te, ok := term.(TerminatedEvent)
	if !ok {
		t.Fatalf("event = %#v, want TerminatedEvent", term)
	}
	if te.ExitCode != 1 {
		t.Fatalf("ExitCode = %d, want 1", te.ExitCode)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestControllerStopsAtBreakpoint(t *testing.T) {
	m := mem.New()
	c := cpu.New(m)

	c.PC = 0x0300
	m.Write(0x0300, 0xEA) // NOP
	m.Write(0x0301, 0xEA) // NOP, breakpoint here
	m.Write(0x0302, 0x4C) // JMP $0302
	m.WriteWord(0x0303, 0x0302)

	ctl := New(c, nil, nil, "")
	ctl.CPU.AddBreakpoint(0x0301, "test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctl.Run(ctx)

	waitForEvent(t, ctl) // entry
	ctl.Continue()

	ev := waitForEvent(t, ctl)
	se, ok := ev.(StoppedEvent)
	if !ok || se.Reason != ReasonBreakpoint {
		t.Fatalf("event = %#v, want breakpoint stop", ev)
	}
	if c.PC != 0x0301 {
		t.Fatalf("PC = %#x, want %#x", c.PC, 0x0301)
	}
}

func TestControllerStepOverTreatsJSRAsOneLine(t *testing.T) {
	m := mem.New()
	c := cpu.New(m)

	// $0300: JSR $0400 ; $0303: NOP
	c.PC = 0x0300
	m.Write(0x0300, 0x20)
	m.WriteWord(0x0301, 0x0400)
	m.Write(0x0303, 0xEA)
	m.Write(0x0400, 0x60) // RTS at the callee

	ctl := New(c, nil, nil, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctl.Run(ctx)

	waitForEvent(t, ctl) // entry, PC == 0x0300
	ctl.StepOver()

	ev := waitForEvent(t, ctl)
	se, ok := ev.(StoppedEvent)
	if !ok || se.Reason != ReasonStep {
		t.Fatalf("event = %#v, want step stop", ev)
	}
	if c.PC != 0x0303 {
		t.Fatalf("PC = %#x, want %#x (call treated as one line)", c.PC, 0x0303)
	}
}

func TestControllerSetBreakpointsCleansFileGroup(t *testing.T) {
	src := `file id=0,name=foo.c,size=10
seg id=0,name=CODE,start=0x0300,size=0x10
span id=0,seg=0,start=0,size=3
line id=0,file=0,line=5,span=0
`
	dbg, err := dbginfo.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	m := mem.New()
	c := cpu.New(m)
	ctl := New(c, dbg, nil, "")

	ctl.SetBreakpoints("./foo.c", []int{5})
	if !c.HasBreakpoint(0x0300) {
		t.Fatalf("breakpoint not installed at line 5's address")
	}

	// Re-set under a spelling that cleans to the same group, with no lines:
	// the earlier breakpoint must be gone.
	ctl.SetBreakpoints("foo.c", nil)
	if c.HasBreakpoint(0x0300) {
		t.Fatalf("stale breakpoint survived a re-set under the cleaned group")
	}
}
