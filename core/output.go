// Logical output support
// Maps small integer output ids onto (port, mask) pairs and drives them
package core

import "sync/atomic"

// MaxOutputs is the capacity of an output table
const MaxOutputs = 16

// OutputID identifies a logical output (LED, relay, ...)
type OutputID uint8

// LogicalOutput binds a logical id to the hardware bits it drives
type LogicalOutput struct {
	ID   OutputID
	Port Port
	Mask Mask
	Name string
}

// OutputTable is the fixed id -> (port, mask) mapping.
// It is immutable once built and safe for concurrent readers.
type OutputTable struct {
	entries [MaxOutputs]LogicalOutput
	valid   [MaxOutputs]bool
	count   int
}

// NewOutputTable builds a table from the given outputs.
// Duplicate ids, ids beyond MaxOutputs and empty masks are rejected.
func NewOutputTable(outputs ...LogicalOutput) (*OutputTable, error) {
	t := &OutputTable{}
	for _, o := range outputs {
		if int(o.ID) >= MaxOutputs || o.Mask == 0 || t.valid[o.ID] {
			return nil, &OutputError{Op: "table", ID: o.ID, Err: ErrInvalidOutputTable}
		}
		t.entries[o.ID] = o
		t.valid[o.ID] = true
		t.count++
	}
	return t, nil
}

// Lookup returns the entry for id
func (t *OutputTable) Lookup(id OutputID) (LogicalOutput, bool) {
	if int(id) >= MaxOutputs || !t.valid[id] {
		return LogicalOutput{}, false
	}
	return t.entries[id], true
}

// Len returns the number of mapped outputs
func (t *OutputTable) Len() int {
	return t.count
}

// Outputs returns the mapped outputs in id order
func (t *OutputTable) Outputs() []LogicalOutput {
	out := make([]LogicalOutput, 0, t.count)
	for i := range t.entries {
		if t.valid[i] {
			out = append(out, t.entries[i])
		}
	}
	return out
}

// InvalidIDPolicy selects how Set and Clear treat ids with no table entry
type InvalidIDPolicy uint8

const (
	// IgnoreInvalidID makes unknown ids a silent no-op
	IgnoreInvalidID InvalidIDPolicy = iota
	// RejectInvalidID reports unknown ids with ErrInvalidOutputID
	RejectInvalidID
)

func (p InvalidIDPolicy) String() string {
	switch p {
	case IgnoreInvalidID:
		return "ignore"
	case RejectInvalidID:
		return "reject"
	default:
		return "unknown"
	}
}

// OutputDriver drives logical outputs through a PortDriver
type OutputDriver struct {
	table       *OutputTable
	ports       PortDriver
	policy      InvalidIDPolicy
	initialized atomic.Bool
}

// NewOutputDriver creates a driver over table and ports
func NewOutputDriver(table *OutputTable, ports PortDriver, policy InvalidIDPolicy) *OutputDriver {
	return &OutputDriver{
		table:  table,
		ports:  ports,
		policy: policy,
	}
}

// Table returns the driver's output table
func (d *OutputDriver) Table() *OutputTable {
	return d.table
}

// Policy returns the invalid id policy
func (d *OutputDriver) Policy() InvalidIDPolicy {
	return d.policy
}

// Init configures every mapped output as a digital output.
// A second call after a successful one does nothing.
func (d *OutputDriver) Init() error {
	if d.initialized.Load() {
		return nil
	}

	var first error
	for _, o := range d.table.Outputs() {
		if err := d.ports.ConfigureOutput(o.Port, o.Mask); err != nil {
			DebugPrintln("[OUT] configure id=" + utoa(uint32(o.ID)) + " failed: " + err.Error())
			if first == nil {
				first = &OutputError{Op: "init", ID: o.ID, Err: err}
			}
		}
	}
	if first == nil {
		d.initialized.Store(true)
	}
	return first
}

// Set asserts output id
func (d *OutputDriver) Set(id OutputID) error {
	o, ok := d.table.Lookup(id)
	if !ok {
		return d.invalid("set", id)
	}
	if err := d.ports.SetBits(o.Port, o.Mask); err != nil {
		return &OutputError{Op: "set", ID: id, Err: err}
	}
	return nil
}

// Clear deasserts output id
func (d *OutputDriver) Clear(id OutputID) error {
	o, ok := d.table.Lookup(id)
	if !ok {
		return d.invalid("clear", id)
	}
	if err := d.ports.ClearBits(o.Port, o.Mask); err != nil {
		return &OutputError{Op: "clear", ID: id, Err: err}
	}
	return nil
}

func (d *OutputDriver) invalid(op string, id OutputID) error {
	if d.policy == RejectInvalidID {
		return &OutputError{Op: op, ID: id, Err: ErrInvalidOutputID}
	}
	return nil
}
