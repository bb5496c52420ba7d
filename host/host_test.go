package host

import (
	"os"
	"path/filepath"
	"testing"

	"bug65/cpu"
	"bug65/mem"
)

const spZP = 0x00F0

func newTestHost(argv []string) (*cpu.CPU, *mem.Memory, *Host) {
	m := mem.New()
	m.WriteWord(cpu.ResetVector, 0x0200)
	c := cpu.New(m)
	h := New(c, spZP, argv)
	return c, m, h
}

func TestHookPageIsPrefilledWithRTS(t *testing.T) {
	_, m, _ := newTestHost(nil)
	for addr := uint16(HookUnused); addr <= HookExit; addr++ {
		if got := m.Read(addr); got != 0x60 {
			t.Fatalf("$%04x = $%02x, want $60 (RTS)", addr, got)
		}
	}
}

func TestUnknownHookFallsThroughToRTS(t *testing.T) {
	c, m, _ := newTestHost(nil)
	// JSR $FFF0 then the RTS sitting at $FFF0 should return here.
	m.Load(0x0200, []byte{0x20, 0xF0, 0xFF})
	c.SP = 0xFF
	if _, err := c.Step(true); err != nil {
		t.Fatalf("JSR: %v", err)
	}
	if c.PC != 0xFFF0 {
		t.Fatalf("PC = $%04x, want $fff0", c.PC)
	}
	if _, err := c.Step(true); err != nil {
		t.Fatalf("hook+RTS step: %v", err)
	}
	if c.PC != 0x0203 {
		t.Fatalf("PC = $%04x after fall-through RTS, want $0203", c.PC)
	}
}

func TestErrnoHookReturnsZero(t *testing.T) {
	c, m, _ := newTestHost(nil)
	m.Load(0x0200, []byte{0x20, 0xF3, 0xFF}) // JSR $FFF3
	c.A, c.X = 0xAA, 0xAA
	c.Step(true)
	c.Step(true)
	if c.A != 0 || c.X != 0 {
		t.Fatalf("A/X = %02x/%02x, want 0/0", c.A, c.X)
	}
}

func TestWriteGoesToOutputCallback(t *testing.T) {
	c, m, h := newTestHost(nil)
	var gotStream, gotText string
	h.Output = func(stream, text string) { gotStream, gotText = stream, text }

	m.Load(0x0300, []byte("hi"))
	m.WriteWord(spZP, 0x0400)
	m.WriteWord(0x0400, 1)      // fd = 1 (stdout)
	m.WriteWord(0x0402, 0x0300) // buf addr
	m.Load(0x0200, []byte{0x20, 0xF7, 0xFF}) // JSR $FFF7 (write)
	setAX(c, 2)                              // count = 2, last param

	c.Step(true)
	c.Step(true)
	if gotStream != "stdout" || gotText != "hi" {
		t.Fatalf("Output callback got (%q,%q), want (stdout,hi)", gotStream, gotText)
	}
	if got := getAX(c); got != 2 {
		t.Fatalf("AX = %d after write, want 2 (bytes written)", got)
	}
}

func TestBlockingReadSuspendsThenResumes(t *testing.T) {
	c, m, h := newTestHost(nil)
	m.WriteWord(spZP, 0x0400)
	m.WriteWord(0x0400, 0)      // fd = 0 (console)
	m.WriteWord(0x0402, 0x0500) // buf addr
	m.Load(0x0200, []byte{0x20, 0xF6, 0xFF}) // JSR $FFF6 (read)
	setAX(c, 1)                              // count = 1

	c.Step(true) // JSR
	cycles, err := c.Step(true)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if cycles != 0 || !h.Waiting() {
		t.Fatalf("expected a suspended, zero-cycle read; cycles=%d waiting=%v", cycles, h.Waiting())
	}
	if c.PC != HookRead {
		t.Fatalf("PC = $%04x, want the hook address (retry on resume)", c.PC)
	}

	h.Feed([]byte{'x'})
	cycles, err = c.Step(true)
	if err != nil {
		t.Fatalf("Step after Feed: %v", err)
	}
	if cycles == 0 {
		t.Fatalf("expected the read to complete and fall through to RTS")
	}
	if got := m.Read(0x0500); got != 'x' {
		t.Fatalf("buffer = %q, want 'x'", got)
	}
	if h.Waiting() {
		t.Fatalf("still waiting after Feed")
	}
}

func TestExitHookHalts(t *testing.T) {
	c, m, h := newTestHost(nil)
	m.Load(0x0200, []byte{0x20, 0xF9, 0xFF}) // JSR $FFF9
	c.A = 7

	c.Step(true)
	cycles, err := c.Step(true)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if cycles != 0 {
		t.Fatalf("exit should consume zero cycles")
	}
	exited, code := h.Exited()
	if !exited || code != 7 {
		t.Fatalf("Exited() = (%v,%d), want (true,7)", exited, code)
	}
}

func TestArgsMarshalling(t *testing.T) {
	c, m, h := newTestHost([]string{"prog", "a"})
	m.WriteWord(spZP, 0x0600)
	setAX(c, 0x0700) // write soft-SP to $0700

	h.handleArgs(c)

	if got := getAX(c); got != 2 {
		t.Fatalf("argc = %d, want 2", got)
	}
	argvBase := m.ReadWord(0x0700)
	p0 := m.ReadWord(argvBase)
	p1 := m.ReadWord(argvBase + 2)
	null := m.ReadWord(argvBase + 4)
	if null != 0 {
		t.Fatalf("argv NULL terminator = $%04x, want 0", null)
	}
	if h.readCString(p0) != "prog" {
		t.Fatalf("argv[0] = %q, want prog", h.readCString(p0))
	}
	if h.readCString(p1) != "a" {
		t.Fatalf("argv[1] = %q, want a", h.readCString(p1))
	}
}

func TestOpenWriteCloseRoundTrip(t *testing.T) {
	c, m, h := newTestHost(nil)
	path := filepath.Join(t.TempDir(), "out.txt")

	m.WriteWord(spZP, 0x0400)
	m.Load(0x0500, append([]byte(path), 0))
	m.WriteWord(0x0400, 0x0500) // name ptr
	m.WriteWord(0x0402, OpenWRONLY|OpenCREAT|OpenTRUNC)
	setAX(c, 0o644) // mode, last param

	h.handleOpen(c)
	fd := getAX(c)
	if fd == 0xFFFF {
		t.Fatalf("open failed")
	}

	m.Load(0x0600, []byte("hello"))
	m.WriteWord(spZP, 0x0400)
	m.WriteWord(0x0400, fd)
	m.WriteWord(0x0402, 0x0600)
	setAX(c, 5)
	h.handleWrite(c)
	if got := getAX(c); got != 5 {
		t.Fatalf("write returned %d, want 5", got)
	}

	setAX(c, fd)
	h.handleClose(c)
	if got := getAX(c); got != 0 {
		t.Fatalf("close returned %d, want 0", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("file contents = %q, want hello", data)
	}
}
