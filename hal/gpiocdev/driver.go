// Package gpiocdev drives logical outputs through the Linux GPIO character
// device. Port n is /dev/gpiochip<n> and bit b is line offset b on that chip.
package gpiocdev

import (
	"errors"
	"strconv"
	"sync"

	"go.uber.org/multierr"

	"blinky/core"
)

var (
	ErrNotConfigured = errors.New("gpiocdev: line not configured as output")
	ErrUnsupported   = errors.New("gpiocdev: not supported on this platform")
)

// Line is a requested output line
type Line interface {
	SetValue(value int) error
	Close() error
}

// Requester requests offset on chip as an output driven low
type Requester func(chip string, offset int) (Line, error)

type lineKey struct {
	port core.Port
	bit  uint8
}

// Driver implements core.PortDriver over requested lines
type Driver struct {
	request Requester

	mu    sync.Mutex
	lines map[lineKey]Line
}

// New returns a driver requesting lines with request
func New(request Requester) *Driver {
	return &Driver{request: request, lines: make(map[lineKey]Line)}
}

// ChipName returns the character device name for port
func ChipName(port core.Port) string {
	return "gpiochip" + strconv.Itoa(int(port))
}

// ConfigureOutput requests every line in mask. Lines already held are kept.
func (d *Driver) ConfigureOutput(port core.Port, mask core.Mask) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for bit := uint8(0); bit < 32; bit++ {
		if mask&core.Bit(bit) == 0 {
			continue
		}
		key := lineKey{port, bit}
		if _, ok := d.lines[key]; ok {
			continue
		}
		l, err := d.request(ChipName(port), int(bit))
		if err != nil {
			return err
		}
		d.lines[key] = l
	}
	return nil
}

func (d *Driver) SetBits(port core.Port, mask core.Mask) error {
	return d.write(port, mask, 1)
}

func (d *Driver) ClearBits(port core.Port, mask core.Mask) error {
	return d.write(port, mask, 0)
}

func (d *Driver) write(port core.Port, mask core.Mask, value int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var lines []Line
	for bit := uint8(0); bit < 32; bit++ {
		if mask&core.Bit(bit) == 0 {
			continue
		}
		l, ok := d.lines[lineKey{port, bit}]
		if !ok {
			return ErrNotConfigured
		}
		lines = append(lines, l)
	}
	for _, l := range lines {
		if err := l.SetValue(value); err != nil {
			return err
		}
	}
	return nil
}

// Close releases every requested line
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	for key, l := range d.lines {
		err = multierr.Append(err, l.Close())
		delete(d.lines, key)
	}
	return err
}
