package cpu

import "testing"

func TestPAccessors(t *testing.T) {
	p := flagN | flagC
	if !p.N() || !p.C() {
		t.Fatalf("N/C not reported as set")
	}
	if p.V() || p.Z() {
		t.Fatalf("V/Z reported as set when clear")
	}
}

func TestCheckNZ(t *testing.T) {
	var p P
	p.checkNZ(0x00)
	if !p.Z() || p.N() {
		t.Fatalf("checkNZ(0) = %s, want Z set, N clear", p)
	}
	p.checkNZ(0x80)
	if p.Z() || !p.N() {
		t.Fatalf("checkNZ(0x80) = %s, want N set, Z clear", p)
	}
	p.checkNZ(0x01)
	if p.Z() || p.N() {
		t.Fatalf("checkNZ(1) = %s, want both clear", p)
	}
}

func TestCheckCVOverflow(t *testing.T) {
	var p P
	// 0x50 + 0x50 = 0xA0: signed overflow (positive + positive = negative).
	p.checkCV(0x50, 0x50, 0x50+0x50)
	if !p.V() {
		t.Fatalf("expected V set for 0x50+0x50")
	}
	if p.C() {
		t.Fatalf("expected C clear for 0x50+0x50")
	}

	p = 0
	// 0xFF + 0x01 = 0x100: carry out, no signed overflow.
	p.checkCV(0xFF, 0x01, 0xFF+0x01)
	if !p.C() {
		t.Fatalf("expected C set for 0xff+0x01")
	}
	if p.V() {
		t.Fatalf("expected V clear for 0xff+0x01")
	}
}

func TestPString(t *testing.T) {
	p := flagN | flagZ | flagC
	s := p.String()
	if len(s) != 8 {
		t.Fatalf("String() length = %d, want 8", len(s))
	}
	if s[0] != 'N' {
		t.Fatalf("String()[0] = %c, want N", s[0])
	}
	if s[6] != 'Z' {
		t.Fatalf("String()[6] = %c, want Z", s[6])
	}
	if s[1] != 'v' {
		t.Fatalf("String()[1] = %c, want v (clear)", s[1])
	}
}
