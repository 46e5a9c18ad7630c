//go:build !linux

package gpiocdev

func Open() (*Driver, error) {
	return nil, ErrUnsupported
}
