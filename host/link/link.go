// Package link serves the status link of a simulated board over a byte stream.
package link

import (
	"context"
	"errors"
	"io"
	"time"

	"blinky/core"
	"blinky/protocol"
)

// Serve answers status commands for d on port until ctx ends.
// It closes port when ctx is done.
func Serve(ctx context.Context, port io.ReadWriteCloser, d *core.Demo) error {
	registry := core.NewCommandRegistry()
	if err := d.RegisterCommands(registry); err != nil {
		return err
	}
	out := protocol.NewScratchOutput()
	transport := protocol.NewTransport(out, registry.Dispatch)
	registry.SetTransport(transport)
	transport.SetResetCallback(func() {
		core.DebugPrintln("[LINK] host reset sequence")
	})

	stop := context.AfterFunc(ctx, func() { _ = port.Close() })
	defer stop()

	in := protocol.NewFifoBuffer(256)
	buf := make([]byte, 64)
	for {
		n, err := port.Read(buf)
		if n > 0 {
			in.Write(buf[:n])
			transport.Receive(in)
			if res := out.Result(); len(res) > 0 {
				if _, werr := port.Write(res); werr != nil {
					return done(ctx, werr)
				}
				out.Reset()
			}
		}
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		// serial ports report a read timeout as EOF
		if errors.Is(err, io.EOF) {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		return err
	}
}

func done(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}
