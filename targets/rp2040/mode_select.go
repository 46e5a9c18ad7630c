//go:build rp2040 || rp2350

package main

// outputMode selects the output backend at link time:
//
//	tinygo flash -target pico -ldflags "-X main.outputMode=expander" ./targets/rp2040
var outputMode = "gpio"

// ModeConfig is the firmware build configuration
type ModeConfig struct {
	// Expander drives the LEDs through an MCP23017 on I2C0 instead of bank 0
	Expander bool
}

// GetMode returns the current mode configuration
func GetMode() ModeConfig {
	return ModeConfig{
		Expander: outputMode == "expander",
	}
}
