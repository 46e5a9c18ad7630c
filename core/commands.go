package core

import "blinky/protocol"

// String arguments are clipped so every response fits in one frame
const (
	maxStringArg = 52
	maxNameArg   = 16
)

// RegisterCommands registers the status link commands on r
func (d *Demo) RegisterCommands(r *CommandRegistry) error {
	return r.RegisterCatalog(map[string]CommandHandler{
		"get_clock": func(data *[]byte) error {
			r.SendResponse("clock", func(output protocol.OutputBuffer) {
				protocol.EncodeVLQUint(output, GetClock())
				protocol.EncodeVLQUint(output, uint32(d.Kernel.Now()))
			})
			return nil
		},

		"get_status": func(data *[]byte) error {
			r.SendResponse("status", func(output protocol.OutputBuffer) {
				protocol.EncodeVLQUint(output, boolArg(d.Kernel.Halted()))
				protocol.EncodeVLQString(output, clip(d.Status.Get(), maxStringArg))
			})
			return nil
		},

		"get_task_stats": func(data *[]byte) error {
			index, err := protocol.DecodeVLQUint(data)
			if err != nil {
				return err
			}
			stats := d.Kernel.Stats()
			var st TaskStats
			if int(index) < len(stats) {
				st = stats[index]
			}
			r.SendResponse("task_stats", func(output protocol.OutputBuffer) {
				protocol.EncodeVLQUint(output, index)
				protocol.EncodeVLQUint(output, uint32(len(stats)))
				protocol.EncodeVLQUint(output, uint32(st.State))
				protocol.EncodeVLQUint(output, st.Wakes)
				protocol.EncodeVLQUint(output, uint32(st.LastWake))
				protocol.EncodeVLQUint(output, uint32(st.MaxLateness))
				protocol.EncodeVLQString(output, clip(st.Name, maxNameArg))
			})
			return nil
		},

		"get_outputs": func(data *[]byte) error {
			outputs := d.Outputs.Table().Outputs()
			for i, o := range outputs {
				r.SendResponse("output", func(output protocol.OutputBuffer) {
					protocol.EncodeVLQUint(output, uint32(i))
					protocol.EncodeVLQUint(output, uint32(len(outputs)))
					protocol.EncodeVLQUint(output, uint32(o.ID))
					protocol.EncodeVLQUint(output, uint32(o.Port))
					protocol.EncodeVLQUint(output, uint32(o.Mask))
					protocol.EncodeVLQString(output, clip(o.Name, maxNameArg))
				})
			}
			return nil
		},
	})
}

// InitStatusCommands registers the status link commands on the global registry
func (d *Demo) InitStatusCommands() error {
	return d.RegisterCommands(globalRegistry)
}

func boolArg(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
