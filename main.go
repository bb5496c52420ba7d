package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"bug65/config"
	"bug65/cpu"
	"bug65/dbginfo"
	"bug65/debugger"
	"bug65/disasm"
	"bug65/host"
	"bug65/loader"
	"bug65/mem"
)

func main() {
	cli := parseArgs(os.Args[1:])
	cfg := config.LoadOrDefault()

	if cli.Log == 0 && cfg.General.LogModules != "" {
		checkf(applyLogSpec(cfg.General.LogModules), "invalid log_modules in config")
	}

	switch cli.mode {
	case debugMode:
		runDebug(cli.Debug, cfg)
	default:
		runProgram(cli.Run, cfg)
	}
}

func loadImage(imagePath string, forced *hexAddr, cfg config.Config) (*mem.Memory, *cpu.CPU, loader.Result) {
	data, err := os.ReadFile(imagePath)
	checkf(err, "failed to read %s", imagePath)

	var forcedAddr *uint16
	if forced != nil {
		a := uint16(*forced)
		forcedAddr = &a
	}

	m := mem.New()
	res := loader.Load(m, data, forcedAddr)
	if cfg.Debugger.SPZPOverride != 0 {
		res.SPAddr = uint8(cfg.Debugger.SPZPOverride)
	}

	c := cpu.New(m)
	c.SetVariant(res.CPU)
	return m, c, res
}

func newController(c *cpu.CPU, dbg *dbginfo.Info, h *host.Host, cfg config.Config) *debugger.Controller {
	ctl := debugger.New(c, dbg, h, cfg.Debugger.SourceDir)
	if cfg.Debugger.SliceSize > 0 {
		ctl.SliceSize = cfg.Debugger.SliceSize
	}
	if cfg.Debugger.MaxFrames > 0 {
		ctl.MaxFrames = cfg.Debugger.MaxFrames
	}
	return ctl
}

func runProgram(cmd RunCmd, cfg config.Config) {
	_, c, res := loadImage(cmd.ImagePath, cmd.LoadAddr, cfg)

	h := host.New(c, uint16(res.SPAddr), append([]string{cmd.ImagePath}, cmd.Args...))
	ctl := newController(c, nil, h, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctl.Run(ctx)

	for ev := range ctl.Events() {
		switch e := ev.(type) {
		case debugger.OutputEvent:
			writeStream(e.Stream, e.Text)
		case debugger.StoppedEvent:
			if e.Reason == debugger.ReasonEntry {
				ctl.Continue()
				continue
			}
			if e.Reason == debugger.ReasonError {
				fatalf("execution error: %v", e.Err)
			}
		case debugger.WaitingForInputEvent:
			feedStdinLine(h)
			ctl.Continue()
		case debugger.TerminatedEvent:
			os.Exit(e.ExitCode)
		}
	}
}

func runDebug(cmd DebugCmd, cfg config.Config) {
	_, c, res := loadImage(cmd.ImagePath, cmd.LoadAddr, cfg)

	dbgPath := cmd.DbgPath
	if dbgPath == "" {
		if p, ok := dbginfo.ResolveDebugFile(cmd.ImagePath, fileExists); ok {
			dbgPath = p
		}
	}

	var dbg *dbginfo.Info
	if dbgPath != "" {
		f, err := os.Open(dbgPath)
		checkf(err, "failed to open %s", dbgPath)
		dbg, err = dbginfo.Parse(f)
		f.Close()
		checkf(err, "failed to parse %s", dbgPath)
	}

	h := host.New(c, uint16(res.SPAddr), append([]string{cmd.ImagePath}, cmd.Args...))
	ctl := newController(c, dbg, h, cfg)

	breaks := map[string][]int{}
	for _, spec := range cmd.Break {
		file, line, ok := parseBreakSpec(spec)
		if !ok {
			fatalf("invalid --break %q, want file:line", spec)
		}
		breaks[file] = append(breaks[file], line)
		ctl.SetBreakpoints(file, breaks[file])
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctl.Run(ctx)

	stdin := bufio.NewScanner(os.Stdin)

	ev := drainUntilStop(ctl)
	printStop(ctl, ev)
	if _, ok := ev.(debugger.TerminatedEvent); ok {
		return
	}

	for {
		fmt.Print("(bug65) ")
		if !stdin.Scan() {
			return
		}
		fields := strings.Fields(stdin.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "c", "continue":
			ctl.Continue()
		case "s", "step":
			ctl.StepIn()
		case "n", "next":
			ctl.StepOver()
		case "o", "finish":
			ctl.StepOut()
		case "bt", "backtrace":
			printBacktrace(ctl)
			continue
		case "x", "disas":
			count := 5
			if len(fields) > 1 {
				if n, err := strconv.Atoi(fields[1]); err == nil {
					count = n
				}
			}
			printDisas(ctl, count)
			continue
		case "p", "print":
			if len(fields) < 2 {
				fmt.Println("usage: print <expr>")
			} else {
				printEval(ctl, fields[1])
			}
			continue
		case "b", "break":
			if len(fields) < 2 {
				fmt.Println("usage: break file:line")
				continue
			}
			file, line, ok := parseBreakSpec(fields[1])
			if !ok {
				fmt.Println("usage: break file:line")
				continue
			}
			breaks[file] = append(breaks[file], line)
			ctl.SetBreakpoints(file, breaks[file])
			continue
		case "q", "quit":
			return
		default:
			fmt.Println("unknown command:", fields[0])
			continue
		}

		ev = drainUntilStop(ctl)
		if ev == nil {
			return
		}
		printStop(ctl, ev)
		switch ev.(type) {
		case debugger.TerminatedEvent:
			return
		case debugger.WaitingForInputEvent:
			feedStdinLineFrom(stdin, h)
			ctl.Continue()
			ev = drainUntilStop(ctl)
			printStop(ctl, ev)
		}
	}
}

// drainUntilStop prints console output as it arrives and returns the first
// event that isn't one, or nil if the events channel closed.
func drainUntilStop(ctl *debugger.Controller) debugger.Event {
	for ev := range ctl.Events() {
		out, ok := ev.(debugger.OutputEvent)
		if !ok {
			return ev
		}
		writeStream(out.Stream, out.Text)
	}
	return nil
}

func printStop(ctl *debugger.Controller, ev debugger.Event) {
	switch e := ev.(type) {
	case debugger.StoppedEvent:
		if e.Reason == debugger.ReasonError {
			fmt.Printf("stopped (error): %v\n", e.Err)
			return
		}
		frame := ctl.StackTrace(0, 1)
		if len(frame) > 0 {
			fmt.Printf("stopped (%s) at $%04x\n", e.Reason, frame[0].PC)
		} else {
			fmt.Printf("stopped (%s)\n", e.Reason)
		}
	case debugger.TerminatedEvent:
		fmt.Printf("program exited, code %d\n", e.ExitCode)
	case debugger.WaitingForInputEvent:
		fmt.Println("waiting for input")
	}
}

func printBacktrace(ctl *debugger.Controller) {
	for i, f := range ctl.StackTrace(0, 64) {
		fmt.Printf("#%d  $%04x\n", i, f.PC)
	}
}

// printDisas disassembles count instructions starting at the current PC.
func printDisas(ctl *debugger.Controller, count int) {
	pc := ctl.CPU.PC
	var sym disasm.SymbolResolver
	if ctl.Dbg != nil {
		sym = ctl.Dbg
	}
	for i := 0; i < count; i++ {
		ins := disasm.Disassemble(ctl.CPU.Mem, pc, ctl.CPU.Variant, sym)
		fmt.Printf("$%04x  %s\n", pc, ins.Text())
		pc += uint16(ins.Length)
	}
}

func printEval(ctl *debugger.Controller, expr string) {
	v, ok := ctl.Evaluate(expr)
	if !ok {
		fmt.Printf("cannot evaluate %q\n", expr)
		return
	}
	fmt.Printf("$%04x =", v.Addr)
	for _, b := range v.Bytes {
		fmt.Printf(" %02x", b)
	}
	fmt.Println()
}

func parseBreakSpec(spec string) (file string, line int, ok bool) {
	idx := strings.LastIndex(spec, ":")
	if idx < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(spec[idx+1:])
	if err != nil {
		return "", 0, false
	}
	return spec[:idx], n, true
}

func feedStdinLine(h *host.Host) {
	feedStdinLineFrom(bufio.NewScanner(os.Stdin), h)
}

func feedStdinLineFrom(s *bufio.Scanner, h *host.Host) {
	if s.Scan() {
		h.Feed(append([]byte(s.Text()), '\n'))
	}
}

func writeStream(stream, text string) {
	if stream == "stderr" {
		fmt.Fprint(os.Stderr, text)
		return
	}
	fmt.Fprint(os.Stdout, text)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
