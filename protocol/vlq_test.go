package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVLQEncodeDecodeInt(t *testing.T) {
	values := []int32{0, 1, -1, 31, -32, 95, 96, 127, -127, 128, -128, 1000, -1000,
		65535, -65535, 1000000, -1000000, 1 << 30, -(1 << 30)}

	for _, want := range values {
		out := NewScratchOutput()
		EncodeVLQInt(out, want)
		encoded := append([]byte(nil), out.Result()...)

		data := encoded
		got, err := DecodeVLQInt(&data)
		require.NoError(t, err, "value %d", want)
		assert.Equal(t, want, got, "encoded as %v", encoded)
		assert.Empty(t, data, "value %d left bytes behind", want)
	}
}

func TestVLQEncodedLength(t *testing.T) {
	tests := []struct {
		v    int32
		size int
	}{
		{0, 1},
		{-32, 1},
		{95, 1},
		{96, 2},
		{-33, 2},
		{3<<12 - 1, 2},
		{3 << 12, 3},
		{3<<26 - 1, 4},
		{3 << 26, 5},
	}
	for _, tt := range tests {
		out := NewScratchOutput()
		EncodeVLQInt(out, tt.v)
		assert.Len(t, out.Result(), tt.size, "value %d", tt.v)
	}
}

func TestVLQEncodeDecodeUint(t *testing.T) {
	for _, want := range []uint32{0, 1, 127, 128, 255, 1000, 65535, 1000000, 0xFFFFFFFF} {
		out := NewScratchOutput()
		EncodeVLQUint(out, want)
		data := append([]byte(nil), out.Result()...)
		got, err := DecodeVLQUint(&data)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestVLQString(t *testing.T) {
	for _, want := range []string{"", "hello", "All tasks are executing without error."} {
		out := NewScratchOutput()
		EncodeVLQString(out, want)
		data := append([]byte(nil), out.Result()...)
		got, err := DecodeVLQString(&data)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestVLQBufferTooSmall(t *testing.T) {
	data := []byte{0x80}
	_, err := DecodeVLQInt(&data)
	assert.ErrorIs(t, err, ErrBufferTooSmall)

	data = []byte{0x05, 'a', 'b'}
	_, err = DecodeVLQBytes(&data)
	assert.ErrorIs(t, err, ErrBufferTooSmall)
}
