package periph

import (
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

// periph buses plug straight into the expander driver
var _ drivers.I2C = i2c.Bus(nil)

// OpenI2C initializes the host drivers and opens the named I2C bus, or the
// first one found when name is empty. The bus can drive hal/expander.
func OpenI2C(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	return i2creg.Open(name)
}
