package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type portWrite struct {
	Op   string
	Port Port
	Mask Mask
}

// recordingPorts is a PortDriver that logs every call
type recordingPorts struct {
	writes  []portWrite
	failCfg error
}

func (p *recordingPorts) ConfigureOutput(port Port, mask Mask) error {
	p.writes = append(p.writes, portWrite{"dir", port, mask})
	return p.failCfg
}

func (p *recordingPorts) SetBits(port Port, mask Mask) error {
	p.writes = append(p.writes, portWrite{"set", port, mask})
	return nil
}

func (p *recordingPorts) ClearBits(port Port, mask Mask) error {
	p.writes = append(p.writes, portWrite{"clear", port, mask})
	return nil
}

func (p *recordingPorts) dataWrites() []portWrite {
	var out []portWrite
	for _, w := range p.writes {
		if w.Op != "dir" {
			out = append(out, w)
		}
	}
	return out
}

func ledTable(t *testing.T) *OutputTable {
	t.Helper()
	table, err := NewOutputTable(
		LogicalOutput{ID: 0, Port: 1, Mask: Bit(18), Name: "LED0"},
		LogicalOutput{ID: 1, Port: 1, Mask: Bit(20), Name: "LED1"},
		LogicalOutput{ID: 2, Port: 1, Mask: Bit(21), Name: "LED2"},
		LogicalOutput{ID: 3, Port: 1, Mask: Bit(23), Name: "LED3"},
	)
	require.NoError(t, err)
	return table
}

func TestOutputTableRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name    string
		outputs []LogicalOutput
	}{
		{"duplicate id", []LogicalOutput{{ID: 0, Mask: 1}, {ID: 0, Mask: 2}}},
		{"id out of range", []LogicalOutput{{ID: MaxOutputs, Mask: 1}}},
		{"empty mask", []LogicalOutput{{ID: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOutputTable(tt.outputs...)
			assert.ErrorIs(t, err, ErrInvalidOutputTable)
		})
	}
}

func TestOutputTableLookup(t *testing.T) {
	table := ledTable(t)
	assert.Equal(t, 4, table.Len())

	o, ok := table.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, Port(1), o.Port)
	assert.Equal(t, Mask(1<<21), o.Mask)

	_, ok = table.Lookup(4)
	assert.False(t, ok)
	_, ok = table.Lookup(255)
	assert.False(t, ok)
}

func TestOutputInitConfiguresEveryOutput(t *testing.T) {
	ports := &recordingPorts{}
	d := NewOutputDriver(ledTable(t), ports, IgnoreInvalidID)

	require.NoError(t, d.Init())
	require.NoError(t, d.Init())

	assert.Equal(t, []portWrite{
		{"dir", 1, Bit(18)},
		{"dir", 1, Bit(20)},
		{"dir", 1, Bit(21)},
		{"dir", 1, Bit(23)},
	}, ports.writes)
}

func TestOutputInitReportsPortError(t *testing.T) {
	ports := &recordingPorts{failCfg: errors.New("bus fault")}
	d := NewOutputDriver(ledTable(t), ports, IgnoreInvalidID)

	err := d.Init()
	var oerr *OutputError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, OutputID(0), oerr.ID)

	// not latched as initialized, so a retry configures again
	ports.failCfg = nil
	require.NoError(t, d.Init())
	assert.Len(t, ports.writes, 8)
}

func TestOutputSetClearSequence(t *testing.T) {
	ports := &recordingPorts{}
	d := NewOutputDriver(ledTable(t), ports, IgnoreInvalidID)

	require.NoError(t, d.Init())
	require.NoError(t, d.Set(0))
	require.NoError(t, d.Clear(0))

	assert.Equal(t, []portWrite{
		{"set", 1, Bit(18)},
		{"clear", 1, Bit(18)},
	}, ports.dataWrites())
}

func TestOutputUnknownIDTouchesNothing(t *testing.T) {
	for _, policy := range []InvalidIDPolicy{IgnoreInvalidID, RejectInvalidID} {
		t.Run(policy.String(), func(t *testing.T) {
			ports := &recordingPorts{}
			d := NewOutputDriver(ledTable(t), ports, policy)
			require.NoError(t, d.Init())

			setErr := d.Set(9)
			clearErr := d.Clear(200)

			assert.Empty(t, ports.dataWrites())
			if policy == IgnoreInvalidID {
				assert.NoError(t, setErr)
				assert.NoError(t, clearErr)
				return
			}
			assert.ErrorIs(t, setErr, ErrInvalidOutputID)
			assert.ErrorIs(t, clearErr, ErrInvalidOutputID)

			var oerr *OutputError
			require.ErrorAs(t, setErr, &oerr)
			assert.Equal(t, OutputID(9), oerr.ID)
			assert.Equal(t, "output set id=9: invalid output id", setErr.Error())
		})
	}
}
