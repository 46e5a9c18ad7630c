package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"blinky/core"
	"blinky/host/monitor"
	"blinky/host/serial"
)

var (
	device   = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud     = flag.Int("baud", serial.DefaultBaud, "Baud rate (ignored for USB CDC)")
	timeout  = flag.Duration("timeout", monitor.DefaultTimeout, "Per request timeout")
	interval = flag.Duration("interval", time.Second, "Poll interval for watch")
)

func main() {
	flag.Parse()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	m, err := monitor.Connect(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()
	m.Timeout = *timeout

	fmt.Printf("Connected to %s\n", *device)

	// a single command on the command line runs once and exits
	if flag.NArg() > 0 {
		if err := run(m, flag.Args(), os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		if parts[0] == "quit" || parts[0] == "exit" || parts[0] == "q" {
			return
		}
		if err := run(m, parts, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func run(m *monitor.Monitor, args []string, w io.Writer) error {
	switch args[0] {
	case "help", "?":
		printHelp(w)

	case "status":
		s, err := m.Status()
		if err != nil {
			return err
		}
		printStatus(w, s)

	case "clock":
		c, err := m.Clock()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "clock=%d us tick=%d\n", c.Micros, c.Tick)

	case "stats":
		stats, err := m.TaskStats()
		if err != nil {
			return err
		}
		printStats(w, stats)

	case "outputs":
		outputs, err := m.Outputs()
		if err != nil {
			return err
		}
		for _, o := range outputs {
			fmt.Fprintf(w, "  [%d] %-8s port=%d mask=0x%08x\n", o.ID, o.Name, o.Port, uint32(o.Mask))
		}

	case "watch":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return m.Watch(ctx, *interval, func(c monitor.Clock, s monitor.Status) {
			fmt.Fprintf(w, "tick=%-8d ", c.Tick)
			printStatus(w, s)
		})

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", args[0])
	}
	return nil
}

func printStatus(w io.Writer, s monitor.Status) {
	if s.Halted {
		fmt.Fprintf(w, "HALTED: %s\n", s.Message)
		return
	}
	fmt.Fprintln(w, s.Message)
}

func printStats(w io.Writer, stats []core.TaskStats) {
	fmt.Fprintf(w, "  %-16s %-8s %8s %10s %8s\n", "task", "state", "wakes", "last", "late")
	for _, st := range stats {
		fmt.Fprintf(w, "  %-16s %-8s %8d %10d %8d\n", st.Name, st.State, st.Wakes, st.LastWake, st.MaxLateness)
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "\nAvailable commands:")
	fmt.Fprintln(w, "  status         - Show the status string")
	fmt.Fprintln(w, "  clock          - Show the board clock and tick count")
	fmt.Fprintln(w, "  stats          - Show per task run-time statistics")
	fmt.Fprintln(w, "  outputs        - Show the output table")
	fmt.Fprintln(w, "  watch          - Poll clock and status until interrupted")
	fmt.Fprintln(w, "  quit/exit/q    - Exit the program")
	fmt.Fprintln(w)
}
