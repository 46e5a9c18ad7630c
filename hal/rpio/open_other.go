//go:build !linux

package rpio

func Open() (*Driver, error) {
	return nil, ErrUnsupported
}

func Close() error {
	return nil
}
