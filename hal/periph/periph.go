// Package periph drives logical outputs through periph.io GPIO pins.
//
// A (port, bit) pair maps to the pin registered as "GPIO<port*32+bit>", which
// is the naming used by the periph host drivers for flat GPIO numbering.
package periph

import (
	"errors"
	"strconv"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"blinky/core"
)

var ErrNoSuchPin = errors.New("periph: no such pin")

// Lookup resolves a pin name to a pin, nil when unknown
type Lookup func(name string) gpio.PinIO

// Driver implements core.PortDriver on top of periph.io pins
type Driver struct {
	lookup Lookup

	mu   sync.Mutex
	pins map[string]gpio.PinIO
}

// Open initializes the periph host drivers and returns a Driver backed by the
// global pin registry
func Open() (*Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	return New(gpioreg.ByName), nil
}

// New returns a Driver resolving pins with lookup
func New(lookup Lookup) *Driver {
	return &Driver{lookup: lookup, pins: make(map[string]gpio.PinIO)}
}

// PinName returns the registry name for bit of port
func PinName(port core.Port, bit uint8) string {
	return "GPIO" + strconv.Itoa(int(port)*32+int(bit))
}

func (d *Driver) ConfigureOutput(port core.Port, mask core.Mask) error {
	return d.each(port, mask, gpio.Low)
}

func (d *Driver) SetBits(port core.Port, mask core.Mask) error {
	return d.each(port, mask, gpio.High)
}

func (d *Driver) ClearBits(port core.Port, mask core.Mask) error {
	return d.each(port, mask, gpio.Low)
}

// each resolves every pin in mask before writing any of them
func (d *Driver) each(port core.Port, mask core.Mask, l gpio.Level) error {
	var pins []gpio.PinIO
	for bit := uint8(0); bit < 32; bit++ {
		if mask&core.Bit(bit) == 0 {
			continue
		}
		p, err := d.pin(PinName(port, bit))
		if err != nil {
			return err
		}
		pins = append(pins, p)
	}
	for _, p := range pins {
		if err := p.Out(l); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) pin(name string) (gpio.PinIO, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pins[name]; ok {
		return p, nil
	}
	p := d.lookup(name)
	if p == nil {
		return nil, errors.Join(ErrNoSuchPin, errors.New(name))
	}
	d.pins[name] = p
	return p, nil
}
