package gpiocdev

import (
	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"
)

// Open returns a driver backed by the kernel GPIO character devices
func Open() (*Driver, error) {
	return New(requestLine), nil
}

func requestLine(chip string, offset int) (Line, error) {
	l, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	return revertingLine{l}, nil
}

// requestedLine is the part of *gpiocdev.Line a revertingLine drives
type requestedLine interface {
	Line
	Reconfigure(options ...gpiocdev.LineConfigOption) error
}

// revertingLine hands the line back as an input when closed
type revertingLine struct {
	requestedLine
}

func (l revertingLine) Close() error {
	return multierr.Append(
		l.requestedLine.Reconfigure(gpiocdev.AsInput),
		l.requestedLine.Close(),
	)
}
