package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"blinky/board"
	"blinky/config"
	"blinky/core"
	"blinky/hal/expander"
	"blinky/hal/gpiocdev"
	"blinky/hal/periph"
	"blinky/hal/rpio"
	"blinky/hal/sim"
	"blinky/host/link"
	"blinky/host/serial"
)

var (
	configPath = flag.String("config", "", "JSON demo configuration (default: built-in demo)")
	boardName  = flag.String("board", "", "Board output table: "+strings.Join(board.Names(), ", "))
	tick       = flag.Duration("tick", 0, "Wall clock length of one kernel tick (default: 1s / tick_rate_hz)")
	duration   = flag.Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
	serve      = flag.String("serve", "", "Serve the status link on this serial device")
	backend    = flag.String("backend", "sim", "Output backend: sim, periph, rpio, gpiocdev, expander")
	i2cBus     = flag.String("i2c", "", "I2C bus for the expander backend")
	debug      = flag.Bool("debug", true, "Print kernel events and output writes")
)

func main() {
	flag.Parse()

	core.SetDebugWriter(func(msg string) { fmt.Fprintln(os.Stderr, msg) })
	core.SetDebugEnabled(*debug)
	core.SetHaltHandler(func(reason string) {
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", reason)
		os.Exit(2)
	})

	if err := run(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.DefaultDemoConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			return err
		}
	}
	if *boardName != "" {
		cfg.Board = *boardName
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if cfg.Debug {
		core.SetDebugEnabled(true)
	}

	ports, closePorts, err := openBackend(*backend)
	if err != nil {
		return err
	}
	defer closePorts()

	out, err := cfg.OutputDriver(logWrites(ports))
	if err != nil {
		return err
	}
	d, err := core.SetupDemo(cfg.Demo(), out)
	if err != nil {
		return err
	}
	writesNow = d.Kernel.Now

	// the simulated hardware clock is wall time since start
	start := time.Now()
	d.Kernel.OnTick(func(core.Tick) {
		core.SetClock(uint32(time.Since(start).Microseconds()))
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	if *serve != "" {
		port, err := serial.Open(serial.DefaultConfig(*serve))
		if err != nil {
			return err
		}
		go func() {
			if err := link.Serve(ctx, port, d); err != nil {
				fmt.Fprintf(os.Stderr, "status link: %v\n", err)
			}
		}()
	}

	period := cfg.TickPeriod()
	if *tick > 0 {
		period = *tick
	}
	fmt.Fprintf(os.Stderr, "blinky: board=%s backend=%s tasks=%d tick=%v\n", cfg.Board, *backend, len(d.Tasks), period)
	err = d.Run(ctx, period)

	for _, st := range d.Kernel.Stats() {
		fmt.Fprintf(os.Stderr, "  %-8s %-8s wakes=%d max_late=%d\n", st.Name, st.State, st.Wakes, st.MaxLateness)
	}
	fmt.Fprintln(os.Stderr, d.Status.Get())
	return err
}

func openBackend(name string) (core.PortDriver, func(), error) {
	switch name {
	case "sim":
		return sim.New(), func() {}, nil
	case "periph":
		d, err := periph.Open()
		if err != nil {
			return nil, nil, err
		}
		return d, func() {}, nil
	case "rpio":
		d, err := rpio.Open()
		if err != nil {
			return nil, nil, err
		}
		return d, func() { _ = rpio.Close() }, nil
	case "gpiocdev":
		d, err := gpiocdev.Open()
		if err != nil {
			return nil, nil, err
		}
		return d, func() { _ = d.Close() }, nil
	case "expander":
		bus, err := periph.OpenI2C(*i2cBus)
		if err != nil {
			return nil, nil, err
		}
		return expander.New(bus, expander.DefaultAddress), func() { _ = bus.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", name)
}

// writesNow stamps logged writes once the kernel exists
var writesNow = func() core.Tick { return 0 }

type loggedPorts struct {
	core.PortDriver
	w io.Writer
}

func logWrites(p core.PortDriver) core.PortDriver {
	return loggedPorts{PortDriver: p, w: os.Stderr}
}

func (l loggedPorts) SetBits(port core.Port, mask core.Mask) error {
	l.log("set", port, mask)
	return l.PortDriver.SetBits(port, mask)
}

func (l loggedPorts) ClearBits(port core.Port, mask core.Mask) error {
	l.log("clear", port, mask)
	return l.PortDriver.ClearBits(port, mask)
}

func (l loggedPorts) log(op string, port core.Port, mask core.Mask) {
	if core.IsDebugEnabled() {
		fmt.Fprintf(l.w, "[%8d] %-5s port=%d mask=0x%08x\n", writesNow(), op, port, uint32(mask))
	}
}
