//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"blinky/board"
	"blinky/core"
	"blinky/hal/expander"
	"blinky/protocol"
)

var (
	// Status link buffers
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	linkErrors uint32

	// USB connection state tracking
	usbWasDisconnected       bool
	consecutiveWriteFailures uint32
)

func main() {
	// Clear any watchdog state left from a previous reset
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	InitUSB()
	InitDebugUART()
	core.SetDebugWriter(DebugPrintln)
	core.SetDebugEnabled(debugEnabled)
	InitClock()

	out := outputDriver()

	// A halted kernel stops ticking; the loop below keeps serving the status link
	core.SetHaltHandler(func(reason string) {
		DebugPrintln("HALT: " + reason)
	})

	inputBuffer = protocol.NewFifoBuffer(256)
	outputBuffer = protocol.NewScratchOutput()
	transport = protocol.NewTransport(outputBuffer, core.DispatchCommand)
	transport.SetResetCallback(func() {
		inputBuffer.Reset()
		outputBuffer.Reset()
	})
	// ACKs go out ahead of any response still being built
	transport.SetFlushCallback(writeUSB)
	core.SetGlobalTransport(transport)
	go usbReaderLoop()

	d, err := core.SetupDemo(core.DemoConfig{Blinks: core.DefaultBlinks()}, out)
	if d == nil {
		DebugPrintln("setup failed: " + err.Error())
		for {
			time.Sleep(time.Second)
		}
	}
	if err := d.InitStatusCommands(); err != nil {
		DebugPrintln(err.Error())
	}
	if err := d.Start(); err != nil {
		DebugPrintln(err.Error())
	}

	// One kernel tick per millisecond of hardware uptime
	for {
		d.Kernel.AdvanceTo(core.Tick(UpdateSystemTime() / 1000))
		serviceLink()
		time.Sleep(100 * time.Microsecond)
	}
}

// outputDriver builds the output driver for the configured backend
func outputDriver() *core.OutputDriver {
	b := board.Pico
	var ports core.PortDriver = NewRPPortDriver()
	if GetMode().Expander {
		b = board.Expander
		ports = expander.New(ConfigureI2C(machine.I2C0, 400000), expander.DefaultAddress)
	}
	core.SetPortDriver(ports)

	table, err := b.Table()
	if err != nil {
		panic(err)
	}
	return core.NewOutputDriver(table, core.MustPortDriver(), core.IgnoreInvalidID)
}

// serviceLink feeds received bytes to the transport and flushes responses
func serviceLink() {
	defer func() {
		if r := recover(); r != nil {
			linkErrors++
			inputBuffer.Reset()
			outputBuffer.Reset()
		}
	}()

	if inputBuffer.Available() > 0 {
		transport.Receive(inputBuffer)
	}
	if len(outputBuffer.Result()) > 0 {
		writeUSB()
	}
}

// usbReaderLoop moves USB bytes into the input FIFO
func usbReaderLoop() {
	for {
		if USBAvailable() > 0 {
			data, err := USBRead()
			if err != nil {
				linkErrors++
				time.Sleep(time.Millisecond)
				continue
			}
			if usbWasDisconnected {
				usbWasDisconnected = false
				inputBuffer.Reset()
				outputBuffer.Reset()
				transport.Reset()
				consecutiveWriteFailures = 0
			}
			if inputBuffer.Write([]byte{data}) == 0 {
				linkErrors++
			}
			continue
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// writeUSB writes the pending output, dropping it after repeated failures
func writeUSB() {
	result := outputBuffer.Result()
	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				usbWasDisconnected = true
				consecutiveWriteFailures = 0
				outputBuffer.Reset()
				inputBuffer.Reset()
			}
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
	outputBuffer.Reset()
}
