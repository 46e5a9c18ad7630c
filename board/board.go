// Package board holds the logical output tables of supported boards.
package board

import (
	"errors"
	"sort"

	"blinky/core"
)

var ErrUnknownBoard = errors.New("board: unknown board")

// Board names a wiring of logical outputs to port bits
type Board struct {
	Name    string
	Outputs []core.LogicalOutput
}

// Table builds the board's output table
func (b Board) Table() (*core.OutputTable, error) {
	return core.NewOutputTable(b.Outputs...)
}

// MbedLPC1768 is the mbed LPC1768 module: the four user LEDs on port 1
var MbedLPC1768 = Board{
	Name: "mbed-lpc1768",
	Outputs: []core.LogicalOutput{
		{ID: 0, Port: 1, Mask: core.Bit(18), Name: "LED1"},
		{ID: 1, Port: 1, Mask: core.Bit(20), Name: "LED2"},
		{ID: 2, Port: 1, Mask: core.Bit(21), Name: "LED3"},
		{ID: 3, Port: 1, Mask: core.Bit(23), Name: "LED4"},
	},
}

// Pico is the Raspberry Pi Pico: on-board LED plus two header pins
var Pico = Board{
	Name: "pico",
	Outputs: []core.LogicalOutput{
		{ID: 0, Port: 0, Mask: core.Bit(25), Name: "LED"},
		{ID: 1, Port: 0, Mask: core.Bit(14), Name: "GP14"},
		{ID: 2, Port: 0, Mask: core.Bit(15), Name: "GP15"},
	},
}

// RaspberryPi drives LEDs on BCM GPIO 17 and 27 (header pins 11 and 13)
var RaspberryPi = Board{
	Name: "raspberrypi",
	Outputs: []core.LogicalOutput{
		{ID: 0, Port: 0, Mask: core.Bit(17), Name: "GPIO17"},
		{ID: 1, Port: 0, Mask: core.Bit(27), Name: "GPIO27"},
	},
}

// Expander is an MCP23017 with LEDs on GPA0..GPA3
var Expander = Board{
	Name: "mcp23017",
	Outputs: []core.LogicalOutput{
		{ID: 0, Port: 0, Mask: core.Bit(0), Name: "GPA0"},
		{ID: 1, Port: 0, Mask: core.Bit(1), Name: "GPA1"},
		{ID: 2, Port: 0, Mask: core.Bit(2), Name: "GPA2"},
		{ID: 3, Port: 0, Mask: core.Bit(3), Name: "GPA3"},
	},
}

var boards = map[string]Board{
	MbedLPC1768.Name: MbedLPC1768,
	Pico.Name:        Pico,
	RaspberryPi.Name: RaspberryPi,
	Expander.Name:    Expander,
}

// ByName looks up a board
func ByName(name string) (Board, error) {
	b, ok := boards[name]
	if !ok {
		return Board{}, errors.Join(ErrUnknownBoard, errors.New(name))
	}
	return b, nil
}

// Names lists the known boards in sorted order
func Names() []string {
	names := make([]string, 0, len(boards))
	for n := range boards {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
