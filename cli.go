package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"bug65/log"
)

type mode byte

const (
	runMode mode = iota
	debugMode
)

type (
	CLI struct {
		Run   RunCmd   `cmd:"" help:"Run a program to completion." default:"true"`
		Debug DebugCmd `cmd:"" help:"Debug a program interactively."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	RunCmd struct {
		ImagePath string   `arg:"" name:"image" help:"${image_help}" type:"existingfile"`
		LoadAddr  *hexAddr `name:"load-addr" help:"Override the sim65 load address."`
		Args      []string `arg:"" optional:"" help:"Arguments passed to the guest program's argv."`
	}

	DebugCmd struct {
		ImagePath string   `arg:"" name:"image" help:"${image_help}" type:"existingfile"`
		DbgPath   string   `name:"dbg" help:"Path to the cc65 debug-info file (auto-resolved if omitted)." type:"path"`
		LoadAddr  *hexAddr `name:"load-addr" help:"Override the sim65 load address."`
		Break     []string `name:"break" help:"file:line to break at before running." placeholder:"file:line"`
		Args      []string `arg:"" optional:"" help:"Arguments passed to the guest program's argv."`
	}
)

var vars = kong.Vars{
	"image_help": "sim65 image, or a raw binary loaded at $0200.",
	"log_help":   "Enable logging for specified modules.",
}

func parseArgs(args []string) CLI {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("bug65"),
		kong.Description("6502/65C02 simulator and cc65 source-level debugger."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch ctx.Command() {
	case "debug <image>":
		cli.mode = debugMode
	default:
		cli.mode = runMode
	}
	return cli
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if strings.HasPrefix(ctx.Command(), "run") || strings.HasPrefix(ctx.Command(), "debug") {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	return applyLogSpec(ctx.Scan.Pop().Value.(string))
}

// applyLogSpec parses a comma-separated module list, as accepted by --log
// or the config file's general.log_modules, and enables logging for it.
func applyLogSpec(spec string) error {
	nolog := false
	allLogs := false
	var lm log.ModuleMask

	for _, v := range strings.Split(spec, ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= log.ModuleMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = log.ModuleMaskAll
	}

	log.EnableDebugModules(lm)
	return nil
}

// hexAddr decodes a $HHHH or 0xHHHH address literal.
type hexAddr uint16

// Decode implements kong.MapperValue interface.
func (h *hexAddr) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	s := strings.TrimPrefix(strings.TrimPrefix(tok.Value.(string), "$"), "0x")
	n, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", tok.Value, err)
	}
	*h = hexAddr(n)
	return nil
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
