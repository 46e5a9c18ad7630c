// Package rpio drives logical outputs on a Raspberry Pi through go-rpio's
// memory mapped GPIO registers.
//
// The BCM283x has a single flat bank, so only port 0 is valid and bit n is
// BCM GPIO n.
package rpio

import (
	"errors"

	"blinky/core"
)

// NumPins is the number of BCM GPIO lines on the 40-pin header
const NumPins = 28

var (
	ErrNoSuchPin   = errors.New("rpio: no such pin")
	ErrUnsupported = errors.New("rpio: not supported on this platform")
)

// line is a single GPIO output
type line interface {
	Output()
	Write(high bool)
}

// Driver implements core.PortDriver for the Raspberry Pi header
type Driver struct {
	line func(n uint8) line
}

func (d *Driver) ConfigureOutput(port core.Port, mask core.Mask) error {
	return d.each(port, mask, func(l line) {
		l.Output()
		l.Write(false)
	})
}

func (d *Driver) SetBits(port core.Port, mask core.Mask) error {
	return d.each(port, mask, func(l line) { l.Write(true) })
}

func (d *Driver) ClearBits(port core.Port, mask core.Mask) error {
	return d.each(port, mask, func(l line) { l.Write(false) })
}

func (d *Driver) each(port core.Port, mask core.Mask, fn func(line)) error {
	if port != 0 || mask>>NumPins != 0 {
		return ErrNoSuchPin
	}
	for n := uint8(0); n < NumPins; n++ {
		if mask&core.Bit(n) != 0 {
			fn(d.line(n))
		}
	}
	return nil
}
