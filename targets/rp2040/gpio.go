//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	"blinky/core"
)

// numGPIO is the RP2040 bank 0 size (GPIO0..GPIO29)
const numGPIO = 30

var errNoSuchPin = errors.New("rp2040: no such pin")

// RPPortDriver implements core.PortDriver on bank 0. Port 0 bit n is GPIOn.
type RPPortDriver struct{}

func NewRPPortDriver() *RPPortDriver {
	return &RPPortDriver{}
}

func (d *RPPortDriver) ConfigureOutput(port core.Port, mask core.Mask) error {
	return each(port, mask, func(p machine.Pin) {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
	})
}

func (d *RPPortDriver) SetBits(port core.Port, mask core.Mask) error {
	return each(port, mask, machine.Pin.High)
}

func (d *RPPortDriver) ClearBits(port core.Port, mask core.Mask) error {
	return each(port, mask, machine.Pin.Low)
}

func each(port core.Port, mask core.Mask, fn func(machine.Pin)) error {
	if port != 0 || mask>>numGPIO != 0 {
		return errNoSuchPin
	}
	for n := uint8(0); n < numGPIO; n++ {
		if mask&core.Bit(n) != 0 {
			fn(machine.Pin(n))
		}
	}
	return nil
}
