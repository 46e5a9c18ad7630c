package rpio

import (
	rpio "github.com/stianeikeland/go-rpio/v4"
)

// Open maps the GPIO registers. Call Close when done.
func Open() (*Driver, error) {
	if err := rpio.Open(); err != nil {
		return nil, err
	}
	return &Driver{line: func(n uint8) line { return pin{rpio.Pin(n)} }}, nil
}

// Close unmaps the GPIO registers
func Close() error {
	return rpio.Close()
}

type pin struct {
	p rpio.Pin
}

func (p pin) Output() {
	p.p.Output()
}

func (p pin) Write(high bool) {
	if high {
		p.p.Write(rpio.High)
		return
	}
	p.p.Write(rpio.Low)
}
