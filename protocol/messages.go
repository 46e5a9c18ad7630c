package protocol

// MessageDef describes one entry of the message catalog
type MessageDef struct {
	Name   string
	Format string
	// Response marks messages sent by the board
	Response bool
}

// Message ids. They index Catalog and are identical on both ends of the link.
const (
	MsgClock uint16 = iota
	MsgStatus
	MsgTaskStats
	MsgOutput
	MsgGetClock
	MsgGetStatus
	MsgGetTaskStats
	MsgGetOutputs
)

// Catalog lists every message in id order
var Catalog = [...]MessageDef{
	MsgClock:        {Name: "clock", Format: "clock=%u tick=%u", Response: true},
	MsgStatus:       {Name: "status", Format: "halted=%c msg=%*s", Response: true},
	MsgTaskStats:    {Name: "task_stats", Format: "index=%c count=%c state=%c wakes=%u last_wake=%u max_late=%u name=%*s", Response: true},
	MsgOutput:       {Name: "output", Format: "index=%c count=%c id=%c port=%c mask=%u name=%*s", Response: true},
	MsgGetClock:     {Name: "get_clock"},
	MsgGetStatus:    {Name: "get_status"},
	MsgGetTaskStats: {Name: "get_task_stats", Format: "index=%c"},
	MsgGetOutputs:   {Name: "get_outputs"},
}

// MessageID looks up a catalog entry by name
func MessageID(name string) (uint16, bool) {
	for i := range Catalog {
		if Catalog[i].Name == name {
			return uint16(i), true
		}
	}
	return 0, false
}
