package expander

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blinky/core"
)

type txn struct {
	addr uint16
	reg  uint8
	val  uint8
}

type fakeBus struct {
	txns []txn
	fail error
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	if b.fail != nil {
		return b.fail
	}
	b.txns = append(b.txns, txn{addr, w[0], w[1]})
	return nil
}

func TestConfigureWritesLatchThenDirection(t *testing.T) {
	bus := &fakeBus{}
	m := New(bus, DefaultAddress)

	require.NoError(t, m.ConfigureOutput(0, core.Bit(0)|core.Bit(1)))
	assert.Equal(t, []txn{
		{DefaultAddress, regOLATA, 0x00},
		{DefaultAddress, regIODIRA, 0xFC},
	}, bus.txns)

	require.NoError(t, m.ConfigureOutput(1, core.Bit(7)))
	assert.Equal(t, txn{DefaultAddress, regIODIRB, 0x7F}, bus.txns[len(bus.txns)-1])
}

func TestSetClearUseCachedLatch(t *testing.T) {
	bus := &fakeBus{}
	m := New(bus, 0x21)

	require.NoError(t, m.SetBits(0, core.Bit(0)))
	require.NoError(t, m.SetBits(0, core.Bit(3)))
	require.NoError(t, m.ClearBits(0, core.Bit(0)))

	assert.Equal(t, []txn{
		{0x21, regOLATA, 0x01},
		{0x21, regOLATA, 0x09},
		{0x21, regOLATA, 0x08},
	}, bus.txns)
	assert.Equal(t, uint8(0x08), m.Latch(0))
}

func TestBusErrorKeepsCache(t *testing.T) {
	bus := &fakeBus{}
	m := New(bus, DefaultAddress)
	require.NoError(t, m.SetBits(1, core.Bit(2)))

	bus.fail = errors.New("nack")
	assert.Error(t, m.SetBits(1, core.Bit(5)))
	assert.Equal(t, uint8(0x04), m.Latch(1))
}

func TestRejectsOutOfRange(t *testing.T) {
	bus := &fakeBus{}
	m := New(bus, DefaultAddress)
	assert.ErrorIs(t, m.SetBits(2, core.Bit(0)), ErrNoSuchPort)
	assert.ErrorIs(t, m.SetBits(0, core.Bit(8)), ErrNoSuchPort)
	assert.Empty(t, bus.txns)
}
