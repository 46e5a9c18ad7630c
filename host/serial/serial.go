// Package serial opens the status link to a device.
package serial

import (
	"errors"
	"io"
	"time"
)

// Port is a byte stream to the device. NativePort is backed by tarm/serial;
// tests use net.Pipe or any other io.ReadWriteCloser wrapped with Wrap.
type Port interface {
	io.ReadWriteCloser

	// Flush discards unread input and unsent output
	Flush() error
}

// Config holds serial port settings
type Config struct {
	// Device path (e.g. "/dev/ttyACM0", "COM3")
	Device string

	// Baud is ignored by USB CDC links but matters on real UARTs
	Baud int

	// ReadTimeout bounds a single Read; zero blocks
	ReadTimeout time.Duration
}

// DefaultBaud is the rate the firmware UART runs at
const DefaultBaud = 115200

var ErrNoDevice = errors.New("serial: no device given")

// DefaultConfig returns settings for device at DefaultBaud
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// Wrap adapts a stream without buffers of its own to Port
func Wrap(rwc io.ReadWriteCloser) Port {
	return streamPort{rwc}
}

type streamPort struct {
	io.ReadWriteCloser
}

func (streamPort) Flush() error { return nil }
