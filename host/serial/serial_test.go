package serial

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyACM0")
	assert.Equal(t, "/dev/ttyACM0", cfg.Device)
	assert.Equal(t, DefaultBaud, cfg.Baud)
	assert.Equal(t, 100*time.Millisecond, cfg.ReadTimeout)
}

func TestOpenWithoutDevice(t *testing.T) {
	_, err := Open(nil)
	assert.ErrorIs(t, err, ErrNoDevice)
	_, err = Open(&Config{})
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestWrapPassesBytes(t *testing.T) {
	a, b := net.Pipe()
	port := Wrap(a)
	defer port.Close()
	defer b.Close()

	go func() { _, _ = b.Write([]byte("ok")) }()
	buf := make([]byte, 2)
	_, err := io.ReadFull(port, buf)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(buf))
	assert.NoError(t, port.Flush())
}
