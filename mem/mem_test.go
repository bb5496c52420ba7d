package mem

import "testing"

func TestReadWriteWrap(t *testing.T) {
	m := New()
	m.Write(0xFFFF, 0x42)
	if got := m.Read(0xFFFF); got != 0x42 {
		t.Fatalf("Read(0xFFFF) = 0x%02x, want 0x42", got)
	}
}

func TestWordWrapsPage(t *testing.T) {
	m := New()
	m.Write(0xFFFF, 0x34)
	m.Write(0x0000, 0x12)
	if got := m.ReadWord(0xFFFF); got != 0x1234 {
		t.Fatalf("ReadWord(0xFFFF) = 0x%04x, want 0x1234", got)
	}
}

func TestWriteWord(t *testing.T) {
	m := New()
	m.WriteWord(0x2000, 0xBEEF)
	if got := m.Read(0x2000); got != 0xEF {
		t.Fatalf("low byte = 0x%02x, want 0xef", got)
	}
	if got := m.Read(0x2001); got != 0xBE {
		t.Fatalf("high byte = 0x%02x, want 0xbe", got)
	}
}

func TestLoad(t *testing.T) {
	m := New()
	m.Load(0x0200, []byte{0xA9, 0x01, 0x8D, 0x00, 0x02})
	want := []byte{0xA9, 0x01, 0x8D, 0x00, 0x02}
	got := m.Slice(0x0200, len(want))
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = 0x%02x, want 0x%02x", i, got[i], want[i])
		}
	}
}
