package debugger

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"bug65/mem"
)

func TestReconstructStackThreeFrames(t *testing.T) {
	m := mem.New()
	m.Write(0x01FC, 0x05)
	m.Write(0x01FD, 0x02)
	m.Write(0x01FE, 0x56)
	m.Write(0x01FF, 0x3D)
	m.Write(0x0203, 0x20) // JSR
	m.Write(0x3D54, 0x20) // JSR

	frames, raw := reconstructStack(m, 0xFB, 0x0300, 64)

	want := []Frame{{PC: 0x0300}, {PC: 0x0203}, {PC: 0x3D54}}
	if diff := cmp.Diff(want, frames); diff != "" {
		t.Fatalf("frames mismatch:\n%s", diff)
	}
	if len(raw) != 0 {
		t.Fatalf("raw leftover = %v, want none", raw)
	}
}

func TestReconstructStackEmpty(t *testing.T) {
	m := mem.New()
	frames, _ := reconstructStack(m, 0xFF, 0x0200, 64)
	want := []Frame{{PC: 0x0200}}
	if diff := cmp.Diff(want, frames); diff != "" {
		t.Fatalf("frames mismatch:\n%s", diff)
	}
}

func TestReconstructStackStopsAtMaxFrames(t *testing.T) {
	m := mem.New()
	// Two plausible JSR-preceded return addresses on the stack.
	m.Write(0x01FC, 0x05)
	m.Write(0x01FD, 0x02)
	m.Write(0x01FE, 0x56)
	m.Write(0x01FF, 0x3D)
	m.Write(0x0203, 0x20)
	m.Write(0x3D54, 0x20)

	frames, _ := reconstructStack(m, 0xFB, 0x0300, 1)
	if len(frames) != 2 { // frame 0 plus exactly one synthetic frame
		t.Fatalf("len(frames) = %d, want 2", len(frames))
	}
}

func TestReconstructStackUnrecognizedPairBecomesRawBytes(t *testing.T) {
	m := mem.New()
	m.Write(0x01FE, 0xAA)
	m.Write(0x01FF, 0xBB) // retAddr $BBAA, $BBA8 is not a JSR opcode

	frames, raw := reconstructStack(m, 0xFD, 0x0200, 64)
	if len(frames) != 1 {
		t.Fatalf("len(frames) = %d, want 1 (no synthetic frame found)", len(frames))
	}
	if len(raw) != 2 {
		t.Fatalf("len(raw) = %d, want 2", len(raw))
	}
}
