package core

// Port identifies a hardware GPIO port (or bank) on the target
type Port uint8

// Mask selects one or more bits within a Port
type Mask uint32

// Bit returns the mask for a single bit position
func Bit(n uint8) Mask {
	return Mask(1) << n
}

// PortDriver is the hardware seam the output driver talks to.
// Platform-specific implementations perform the actual register writes.
type PortDriver interface {
	// ConfigureOutput sets the direction of every bit in mask to output
	ConfigureOutput(port Port, mask Mask) error

	// SetBits drives every bit in mask high
	SetBits(port Port, mask Mask) error

	// ClearBits drives every bit in mask low
	ClearBits(port Port, mask Mask) error
}

// Global port driver used by firmware targets that only carry one bank.
var portDriver PortDriver

// SetPortDriver is called by target-specific code to register its driver.
func SetPortDriver(d PortDriver) {
	portDriver = d
}

// MustPortDriver returns the configured driver or panics if missing.
func MustPortDriver() PortDriver {
	if portDriver == nil {
		panic("port driver not configured")
	}
	return portDriver
}
