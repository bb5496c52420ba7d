// Package host implements the sim65 paravirtualization ABI: a handful of
// trapped addresses that a cc65-compiled guest program calls through JSR to
// reach file I/O, argv delivery, and program exit, plus the fd table and
// software-stack calling convention those hooks share.
package host

import (
	"io"
	"os"

	"bug65/cpu"
	"bug65/log"
	"bug65/mem"
)

// Hook addresses, sim65 convention.
const (
	HookUnused = 0xFFF0
	HookLseek  = 0xFFF1
	HookRemove = 0xFFF2
	HookErrno  = 0xFFF3
	HookOpen   = 0xFFF4
	HookClose  = 0xFFF5
	HookRead   = 0xFFF6
	HookWrite  = 0xFFF7
	HookArgs   = 0xFFF8
	HookExit   = 0xFFF9

	hookFirst = HookUnused
	hookLast  = HookExit
)

// lseek whence values. sim65's own enumeration, not POSIX's.
const (
	SeekCur = 0
	SeekEnd = 1
	SeekSet = 2
)

// open() flag bits.
const (
	OpenRDONLY = 0x01
	OpenWRONLY = 0x02
	OpenRDWR   = 0x03
	OpenCREAT  = 0x10
	OpenTRUNC  = 0x20
	OpenAPPEND = 0x40
	OpenEXCL   = 0x80
)

// Strategy is the I/O backend behind one file descriptor.
type Strategy interface {
	Read(n int) ([]byte, error)
	Write(p []byte) (int, error)
	Lseek(offset int64, whence int) (int64, error)
	Close() error
}

// Host owns the fd table and the software-stack calling convention, and
// installs itself as the bound CPU's trap hook.
type Host struct {
	Mem *mem.Memory
	CPU *cpu.CPU

	// Output, when set, receives every console write. stream is "stdout"
	// or "stderr". Left nil, writes are discarded.
	Output func(stream, text string)

	// spZP is the zero-page address holding the 16-bit software-stack
	// pointer, per the sim65 header's sp-zp byte.
	spZP uint16

	argv []string

	fds    map[int]Strategy
	nextFd int

	inputQueue []byte
	waiting    bool

	exited   bool
	exitCode int
}

// New creates a Host bound to c, installs it as c's trap hook, and
// pre-fills the hook page with RTS ($60) so an unhandled or fallen-through
// hook address returns cleanly to its caller.
func New(c *cpu.CPU, spZP uint16, argv []string) *Host {
	h := &Host{
		Mem:    c.Mem,
		CPU:    c,
		spZP:   spZP,
		argv:   argv,
		fds:    make(map[int]Strategy),
		nextFd: 3,
	}
	h.fds[0] = &consoleStrategy{h: h}
	h.fds[1] = &consoleStrategy{h: h, stream: "stdout"}
	h.fds[2] = &consoleStrategy{h: h, stream: "stderr"}

	for addr := hookFirst; addr <= hookLast; addr++ {
		h.Mem.Write(uint16(addr), 0x60)
	}

	c.Trap = h.trap
	return h
}

// Feed appends bytes to the console input queue, for the embedder to
// deliver keystrokes or piped input. If the guest is blocked in a read on
// fd 0, the next Step un-suspends it.
func (h *Host) Feed(data []byte) {
	h.inputQueue = append(h.inputQueue, data...)
}

// Waiting reports whether the guest is blocked on a read from fd 0 with no
// input buffered.
func (h *Host) Waiting() bool { return h.waiting }

// Exited reports whether the guest has called the exit hook, and with what
// code.
func (h *Host) Exited() (bool, int) { return h.exited, h.exitCode }

func (h *Host) trap(c *cpu.CPU, pc uint16) cpu.TrapResult {
	switch pc {
	case HookLseek:
		h.handleLseek(c)
	case HookRemove:
		h.handleRemove(c)
	case HookErrno:
		setAX(c, 0)
	case HookOpen:
		h.handleOpen(c)
	case HookClose:
		h.handleClose(c)
	case HookRead:
		return h.handleRead(c)
	case HookWrite:
		h.handleWrite(c)
	case HookArgs:
		h.handleArgs(c)
	case HookExit:
		return h.handleExit(c)
	default:
		return cpu.Continue
	}
	return cpu.Continue
}

func getAX(c *cpu.CPU) uint16   { return uint16(c.X)<<8 | uint16(c.A) }
func setAX(c *cpu.CPU, v uint16) { c.A = uint8(v); c.X = uint8(v >> 8) }

func (h *Host) softSP() uint16      { return h.Mem.ReadWord(h.spZP) }
func (h *Host) setSoftSP(v uint16)  { h.Mem.WriteWord(h.spZP, v) }

// pop16 reads the next shallowest software-stack parameter and advances
// the stack pointer past it -- "popped by the handler" means the pointer
// moves back toward higher addresses, the opposite of a push.
func (h *Host) pop16() uint16 {
	sp := h.softSP()
	v := h.Mem.ReadWord(sp)
	h.setSoftSP(sp + 2)
	return v
}

func (h *Host) peek16() uint16 { return h.Mem.ReadWord(h.softSP()) }

func (h *Host) pop32() uint32 {
	lo := uint32(h.pop16())
	hi := uint32(h.pop16())
	return hi<<16 | lo
}

func (h *Host) readCString(addr uint16) string {
	var b []byte
	for {
		v := h.Mem.Read(addr)
		if v == 0 {
			break
		}
		b = append(b, v)
		addr++
	}
	return string(b)
}

func (h *Host) handleLseek(c *cpu.CPU) {
	fd := h.pop16()
	offset := int64(int32(h.pop32()))
	whence := int(getAX(c))

	s, ok := h.fds[int(fd)]
	if !ok {
		setAX(c, 0xFFFF)
		return
	}
	pos, err := s.Lseek(offset, whence)
	if err != nil {
		setAX(c, 0xFFFF)
		return
	}
	setAX(c, uint16(pos))
}

func (h *Host) handleRemove(c *cpu.CPU) {
	name := h.readCString(getAX(c))
	if err := os.Remove(name); err != nil {
		setAX(c, 0xFFFF)
		return
	}
	setAX(c, 0)
}

func (h *Host) handleOpen(c *cpu.CPU) {
	nameAddr := h.pop16()
	flags := h.pop16()
	mode := getAX(c)

	name := h.readCString(nameAddr)
	f, err := os.OpenFile(name, translateOpenFlags(flags), os.FileMode(mode&0o777))
	if err != nil {
		log.ModHost.DebugZ("open failed").String("name", name).Error("err", err).End()
		setAX(c, 0xFFFF)
		return
	}
	fd := h.nextFd
	h.nextFd++
	h.fds[fd] = &hostFile{f: f}
	setAX(c, uint16(fd))
}

func translateOpenFlags(flags uint16) int {
	var f int
	switch flags & OpenRDWR {
	case OpenRDONLY:
		f = os.O_RDONLY
	case OpenWRONLY:
		f = os.O_WRONLY
	case OpenRDWR:
		f = os.O_RDWR
	}
	if flags&OpenCREAT != 0 {
		f |= os.O_CREATE
	}
	if flags&OpenTRUNC != 0 {
		f |= os.O_TRUNC
	}
	if flags&OpenAPPEND != 0 {
		f |= os.O_APPEND
	}
	if flags&OpenEXCL != 0 {
		f |= os.O_EXCL
	}
	return f
}

func (h *Host) handleClose(c *cpu.CPU) {
	fd := int(getAX(c))
	s, ok := h.fds[fd]
	if !ok {
		setAX(c, 0xFFFF)
		return
	}
	if fd > 2 {
		delete(h.fds, fd)
	}
	if err := s.Close(); err != nil {
		setAX(c, 0xFFFF)
		return
	}
	setAX(c, 0)
}

// handleRead is the one hook that can suspend the slice: fd 0 with no
// buffered input sets the waiting flag and returns Halt without consuming
// the software-stack parameters, so the same call is retried verbatim once
// Feed delivers bytes.
func (h *Host) handleRead(c *cpu.CPU) cpu.TrapResult {
	count := getAX(c)
	fd := h.peek16()

	if fd == 0 && count > 0 && len(h.inputQueue) == 0 {
		h.waiting = true
		return cpu.Halt
	}
	h.waiting = false

	fd = h.pop16()
	bufAddr := h.pop16()

	s, ok := h.fds[int(fd)]
	if !ok {
		setAX(c, 0xFFFF)
		return cpu.Continue
	}
	data, err := s.Read(int(count))
	if err != nil {
		setAX(c, 0xFFFF)
		return cpu.Continue
	}
	h.Mem.Load(bufAddr, data)
	setAX(c, uint16(len(data)))
	return cpu.Continue
}

func (h *Host) handleWrite(c *cpu.CPU) {
	fd := h.pop16()
	bufAddr := h.pop16()
	count := getAX(c)

	s, ok := h.fds[int(fd)]
	if !ok {
		setAX(c, 0xFFFF)
		return
	}
	n, err := s.Write(h.Mem.Slice(bufAddr, int(count)))
	if err != nil {
		setAX(c, 0xFFFF)
		return
	}
	setAX(c, uint16(n))
}

// handleArgs pushes argv onto the software stack: each string NUL
// terminated, then a null pointer, then each string's address in reverse
// declaration order, so argv[0] ends up at the lowest (final) address.
func (h *Host) handleArgs(c *cpu.CPU) {
	argvPtrAddr := getAX(c)
	sp := h.softSP()

	addrs := make([]uint16, len(h.argv))
	for i := len(h.argv) - 1; i >= 0; i-- {
		s := h.argv[i]
		sp -= uint16(len(s) + 1)
		h.Mem.Load(sp, append([]byte(s), 0))
		addrs[i] = sp
	}

	sp -= 2
	h.Mem.WriteWord(sp, 0)

	for i := len(addrs) - 1; i >= 0; i-- {
		sp -= 2
		h.Mem.WriteWord(sp, addrs[i])
	}

	h.setSoftSP(sp)
	h.Mem.WriteWord(argvPtrAddr, sp)
	setAX(c, uint16(len(h.argv)))
}

func (h *Host) handleExit(c *cpu.CPU) cpu.TrapResult {
	h.exited = true
	h.exitCode = int(c.A)
	log.ModHost.DebugZ("exit").Int("code", h.exitCode).End()
	return cpu.Halt
}

type consoleStrategy struct {
	h      *Host
	stream string
}

func (s *consoleStrategy) Read(n int) ([]byte, error) {
	if n > len(s.h.inputQueue) {
		n = len(s.h.inputQueue)
	}
	data := s.h.inputQueue[:n]
	s.h.inputQueue = s.h.inputQueue[n:]
	return data, nil
}

func (s *consoleStrategy) Write(p []byte) (int, error) {
	if s.h.Output != nil {
		s.h.Output(s.stream, string(p))
	}
	return len(p), nil
}

func (s *consoleStrategy) Lseek(offset int64, whence int) (int64, error) {
	return 0, os.ErrInvalid
}

func (s *consoleStrategy) Close() error { return nil }

type hostFile struct {
	f      *os.File
	offset int64
}

func (h *hostFile) Read(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := h.f.Read(buf)
	h.offset += int64(got)
	if err != nil && err != io.EOF {
		return buf[:got], err
	}
	return buf[:got], nil
}

func (h *hostFile) Write(p []byte) (int, error) {
	n, err := h.f.Write(p)
	h.offset += int64(n)
	return n, err
}

func (h *hostFile) Lseek(offset int64, whence int) (int64, error) {
	var w int
	switch whence {
	case SeekSet:
		w = io.SeekStart
	case SeekCur:
		w = io.SeekCurrent
	case SeekEnd:
		w = io.SeekEnd
	default:
		return 0, os.ErrInvalid
	}
	pos, err := h.f.Seek(offset, w)
	if err == nil {
		h.offset = pos
	}
	return pos, err
}

func (h *hostFile) Close() error { return h.f.Close() }
