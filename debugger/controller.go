// Package debugger drives a CPU through instruction slices under a
// step-mode policy, reconstructs a synthetic call stack from the
// hardware stack, and exposes both as a small event/request API an
// embedder (a CLI, a DAP adapter, a test) can wrap in whatever transport
// it needs.
package debugger

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"bug65/cpu"
	"bug65/dbginfo"
	"bug65/host"
	"bug65/log"
)

// Controller owns one debugging session: a CPU, its optional debug-info
// index, and the host ABI it's paravirtualized against.
type Controller struct {
	CPU  *cpu.CPU
	Dbg  *dbginfo.Info // nil when no .dbg file was resolved
	Host *host.Host

	// CWD is the configured base directory for relative source-path
	// resolution, per spec.md §4.H.
	CWD string

	// SliceSize caps how many instructions one internal slice executes
	// before yielding, even absent a stop condition.
	SliceSize int

	// MaxFrames caps how many synthetic call-stack frames a stop
	// reconstructs.
	MaxFrames int

	status     atomic.Int32
	ignoreOnce atomic.Bool

	mu   sync.Mutex
	mode StepMode

	frames   []Frame
	rawStack []byte

	events chan Event
	wake   chan struct{}
}

// New creates a Controller around an already-loaded CPU. Dbg and Host may
// be nil (a plain sim65-less run with no debug info).
func New(c *cpu.CPU, dbg *dbginfo.Info, h *host.Host, cwd string) *Controller {
	ctl := &Controller{
		CPU:       c,
		Dbg:       dbg,
		Host:      h,
		CWD:       cwd,
		SliceSize: 1000,
		MaxFrames: 64,
		mode:      ModeNone{},
		events:    make(chan Event, 16),
		wake:      make(chan struct{}, 1),
	}
	ctl.status.Store(int32(StatusPaused))
	if h != nil {
		h.Output = func(stream, text string) {
			ctl.events <- OutputEvent{Stream: stream, Text: text}
		}
	}
	return ctl
}

// Events returns the channel Stopped/Output/Terminated/WaitingForInput
// events are delivered on.
func (ctl *Controller) Events() <-chan Event { return ctl.events }

func (ctl *Controller) getStatus() Status { return Status(ctl.status.Load()) }
func (ctl *Controller) setStatus(s Status) { ctl.status.Store(int32(s)) }

// Run drives the session goroutine until ctx is canceled. It emits the
// entry stop immediately, then blocks until ConfigurationDone or Continue
// is called.
func (ctl *Controller) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ctl.loop(gctx)
		return nil
	})
	return g.Wait()
}

func (ctl *Controller) loop(ctx context.Context) {
	ctl.stopAndEmit(ReasonEntry, nil)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if ctl.getStatus() != StatusRunning {
			select {
			case <-ctx.Done():
				return
			case <-ctl.wake:
			}
			continue
		}

		if emitted := ctl.runSlice(); !emitted && ctl.getStatus() != StatusRunning {
			ctl.stopAndEmit(ReasonPause, nil)
		}
	}
}

// runSlice executes up to SliceSize instructions, reporting whether it
// already emitted a stop/terminate/waiting event before returning.
func (ctl *Controller) runSlice() bool {
	ignoreOnce := ctl.ignoreOnce.Swap(false)

	for i := 0; i < ctl.SliceSize; i++ {
		if ctl.Host != nil {
			if exited, code := ctl.Host.Exited(); exited {
				ctl.setStatus(StatusTerminated)
				ctl.events <- TerminatedEvent{ExitCode: code}
				return true
			}
		}

		if !ignoreOnce && ctl.CPU.HasBreakpoint(ctl.CPU.PC) {
			ctl.stopAndEmit(ReasonBreakpoint, nil)
			return true
		}
		ignoreOnce = false

		ctl.mu.Lock()
		mode := ctl.mode
		ctl.mu.Unlock()

		stop, next := mode.beforeStep(ctl.CPU)
		ctl.mu.Lock()
		ctl.mode = next
		ctl.mu.Unlock()
		if stop {
			ctl.stopAndEmit(ReasonStep, nil)
			return true
		}

		_, err := ctl.CPU.Step(true)
		if err != nil {
			ctl.stopAndEmit(ReasonError, err)
			return true
		}

		if ctl.Host != nil && ctl.Host.Waiting() {
			ctl.setStatus(StatusPaused)
			ctl.refreshStack()
			ctl.events <- WaitingForInputEvent{}
			return true
		}
	}
	return false
}

func (ctl *Controller) stopAndEmit(reason StoppedReason, err error) {
	ctl.setStatus(StatusPaused)
	ctl.refreshStack()
	log.ModDebugger.DebugZ("stopped").String("reason", string(reason)).Hex16("pc", ctl.CPU.PC).End()
	ctl.events <- StoppedEvent{Reason: reason, Err: err}
}

func (ctl *Controller) refreshStack() {
	ctl.frames, ctl.rawStack = reconstructStack(ctl.CPU.Mem, ctl.CPU.SP, ctl.CPU.PC, ctl.MaxFrames)
}

func (ctl *Controller) resume(ignoreCurrentBreakpoint bool) {
	ctl.ignoreOnce.Store(ignoreCurrentBreakpoint)
	ctl.setStatus(StatusRunning)
	select {
	case ctl.wake <- struct{}{}:
	default:
	}
}

// ConfigurationDone signals the embedder has finished installing initial
// breakpoints and is ready for execution to proceed from the entry stop.
func (ctl *Controller) ConfigurationDone() { ctl.resume(false) }

// Continue resumes free execution.
func (ctl *Controller) Continue() {
	ctl.mu.Lock()
	ctl.mode = ModeNone{}
	ctl.mu.Unlock()
	ctl.resume(true)
}

// Pause asks the session to stop issuing further slices. Per spec.md §5
// there is no preemption inside a slice already in flight.
func (ctl *Controller) Pause() { ctl.setStatus(StatusPaused) }

// StepIn steps within the current source line, stopping as soon as PC
// leaves it -- including by crossing into a callee.
func (ctl *Controller) StepIn() {
	ctl.mu.Lock()
	ctl.mode = ModeStepIn{Allowed: ctl.currentSpanRange()}
	ctl.mu.Unlock()
	ctl.resume(true)
}

// StepOver is StepIn except a JSR is treated as one line.
func (ctl *Controller) StepOver() {
	ctl.mu.Lock()
	ctl.mode = ModeNext{Allowed: ctl.currentSpanRange()}
	ctl.mu.Unlock()
	ctl.resume(true)
}

// StepOut runs until the current function returns.
func (ctl *Controller) StepOut() {
	ctl.mu.Lock()
	ctl.mode = ModeStepOut{EntrySP: ctl.CPU.SP}
	ctl.mu.Unlock()
	ctl.resume(true)
}

// RunTo runs until PC == addr, then stops.
func (ctl *Controller) RunTo(addr uint16) {
	ctl.mu.Lock()
	ctl.mode = ModeRunTo{Target: addr, Restore: nil}
	ctl.mu.Unlock()
	ctl.resume(true)
}

// currentSpanRange is the allowed range for StepIn/StepOver: the span
// containing PC, or a single instruction when no debug info resolves one
// (a plain single-step).
func (ctl *Controller) currentSpanRange() addrRange {
	if ctl.Dbg != nil {
		if start, end, ok := ctl.Dbg.SpanRangeAt(ctl.CPU.PC); ok {
			return addrRange{Start: start, End: end}
		}
	}
	return addrRange{Start: ctl.CPU.PC, End: ctl.CPU.PC + 1}
}

// SetBreakpoints replaces every breakpoint previously set under file's
// group with one per address that resolves from lines, via debug-info.
// Group tags are path-cleaned so distinct spellings of the same file
// collapse to one group.
func (ctl *Controller) SetBreakpoints(file string, lines []int) {
	group := filepath.Clean(file)
	ctl.CPU.ClearBreakpoints(group)
	if ctl.Dbg == nil {
		return
	}
	fileID, ok := ctl.Dbg.FileIDByName(file)
	if !ok {
		fileID, ok = ctl.Dbg.FileIDByName(group)
	}
	if !ok {
		return
	}
	for _, line := range lines {
		for _, addr := range ctl.Dbg.AddrsForLine(fileID, line) {
			ctl.CPU.AddBreakpoint(addr, group)
		}
	}
}

// StackTrace returns up to levels frames from the last stop, starting at
// start (0 is the innermost frame, PC itself).
func (ctl *Controller) StackTrace(start, levels int) []Frame {
	if start >= len(ctl.frames) {
		return nil
	}
	end := start + levels
	if end > len(ctl.frames) {
		end = len(ctl.frames)
	}
	return ctl.frames[start:end]
}

// RawStack returns the hardware-stack bytes the last stop's synthetic
// reconstruction did not attribute to any frame.
func (ctl *Controller) RawStack() []byte { return ctl.rawStack }

// Scopes returns the scopes attached to the given frame's PC.
func (ctl *Controller) Scopes(frame int) []*dbginfo.Scope {
	if ctl.Dbg == nil || frame >= len(ctl.frames) {
		return nil
	}
	return ctl.Dbg.ScopesFor(ctl.frames[frame].PC)
}

// Variables returns the CSymbols declared in the scope named by ref (a
// scope id).
func (ctl *Controller) Variables(ref int) []*dbginfo.CSymbol {
	if ctl.Dbg == nil {
		return nil
	}
	return ctl.Dbg.VariablesFor(ref)
}

// ReadMemory reads count bytes starting at segID's base plus offset.
func (ctl *Controller) ReadMemory(segID uint16, offset, count int) []byte {
	if ctl.Dbg == nil {
		return nil
	}
	seg, ok := ctl.Dbg.Segment(int(segID))
	if !ok {
		return nil
	}
	return ctl.CPU.Mem.Slice(seg.Start+uint16(offset), count)
}
