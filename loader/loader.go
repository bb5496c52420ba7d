// Package loader places a program image into memory, detecting the
// optional sim65 header that carries the load address, reset address, and
// CPU variant a plain raw binary has no way to specify.
package loader

import (
	"bug65/cpu"
	"bug65/mem"
)

const sim65Magic = "sim65"

const (
	defaultLoadAddr = 0x0200
)

// Result is what Load reports back about the image it just placed.
type Result struct {
	LoadAddr  uint16
	ResetAddr uint16
	SPAddr    uint8
	CPU       cpu.Variant
}

// Load writes image into m, honoring a sim65 header when present, and sets
// the reset vector. forcedLoadAddr, when non-nil, overrides whatever
// address the image (or the default) would otherwise use.
func Load(m *mem.Memory, image []byte, forcedLoadAddr *uint16) Result {
	var r Result
	payload := image

	if hasSim65Header(image) {
		r.CPU = cpu.Variant(image[6])
		r.SPAddr = image[7]
		r.LoadAddr = le16(image[8:10])
		r.ResetAddr = le16(image[10:12])
		payload = image[12:]
	} else {
		r.LoadAddr = defaultLoadAddr
		r.ResetAddr = r.LoadAddr
		r.CPU = cpu.NMOS
	}

	if forcedLoadAddr != nil {
		delta := *forcedLoadAddr - r.LoadAddr
		r.LoadAddr = *forcedLoadAddr
		r.ResetAddr += delta
	}

	m.Load(r.LoadAddr, payload)
	m.WriteWord(cpu.ResetVector, r.ResetAddr)
	return r
}

func hasSim65Header(image []byte) bool {
	return len(image) >= 12 && string(image[:5]) == sim65Magic
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
