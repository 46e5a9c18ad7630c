//go:build rp2040 || rp2350

package main

import (
	"machine"
)

// ConfigureI2C brings up bus on its default pins (I2C0: SDA=GP4, SCL=GP5).
// machine.I2C satisfies tinygo.org/x/drivers.I2C.
func ConfigureI2C(bus *machine.I2C, frequencyHz uint32) *machine.I2C {
	if err := bus.Configure(machine.I2CConfig{Frequency: frequencyHz}); err != nil {
		DebugPrintln("i2c configure: " + err.Error())
	}
	return bus
}
