package loader

import (
	"testing"

	"bug65/cpu"
	"bug65/mem"
)

func TestRawBinaryDefaultsToLoadAddr0200(t *testing.T) {
	m := mem.New()
	r := Load(m, []byte{0xEA, 0xEA}, nil)
	if r.LoadAddr != 0x0200 || r.ResetAddr != 0x0200 {
		t.Fatalf("got load=$%04x reset=$%04x, want $0200/$0200", r.LoadAddr, r.ResetAddr)
	}
	if r.CPU != cpu.NMOS {
		t.Fatalf("CPU = %v, want NMOS", r.CPU)
	}
	if m.Read(0x0200) != 0xEA || m.Read(0x0201) != 0xEA {
		t.Fatalf("payload not placed at $0200")
	}
	if m.ReadWord(cpu.ResetVector) != 0x0200 {
		t.Fatalf("reset vector = $%04x, want $0200", m.ReadWord(cpu.ResetVector))
	}
}

func sim65Image(cpuType byte, spZP byte, loadAddr, resetAddr uint16, payload []byte) []byte {
	hdr := []byte{'s', 'i', 'm', '6', '5', 0, cpuType, spZP,
		byte(loadAddr), byte(loadAddr >> 8),
		byte(resetAddr), byte(resetAddr >> 8),
	}
	return append(hdr, payload...)
}

func TestSim65HeaderOverridesDefaults(t *testing.T) {
	m := mem.New()
	img := sim65Image(byte(cpu.CMOS), 0xF0, 0x8000, 0x8010, []byte{0x60})
	r := Load(m, img, nil)

	if r.CPU != cpu.CMOS {
		t.Fatalf("CPU = %v, want CMOS", r.CPU)
	}
	if r.SPAddr != 0xF0 {
		t.Fatalf("SPAddr = $%02x, want $f0", r.SPAddr)
	}
	if r.LoadAddr != 0x8000 || r.ResetAddr != 0x8010 {
		t.Fatalf("got load=$%04x reset=$%04x, want $8000/$8010", r.LoadAddr, r.ResetAddr)
	}
	if m.Read(0x8000) != 0x60 {
		t.Fatalf("payload not placed at load address")
	}
	if m.ReadWord(cpu.ResetVector) != 0x8010 {
		t.Fatalf("reset vector = $%04x, want $8010", m.ReadWord(cpu.ResetVector))
	}
}

func TestForcedLoadAddrShiftsResetByTheSameDelta(t *testing.T) {
	m := mem.New()
	img := sim65Image(byte(cpu.NMOS), 0xF0, 0x8000, 0x8010, []byte{0x60})
	forced := uint16(0x9000)
	r := Load(m, img, &forced)

	if r.LoadAddr != 0x9000 {
		t.Fatalf("LoadAddr = $%04x, want $9000", r.LoadAddr)
	}
	if r.ResetAddr != 0x9010 {
		t.Fatalf("ResetAddr = $%04x, want $9010 (same delta as load)", r.ResetAddr)
	}
}

func TestShortImageIsNotMistakenForSim65Header(t *testing.T) {
	m := mem.New()
	r := Load(m, []byte{'s', 'i', 'm'}, nil)
	if r.LoadAddr != 0x0200 {
		t.Fatalf("LoadAddr = $%04x, want default $0200", r.LoadAddr)
	}
}
