package protocol

import "sync/atomic"

// CommandHandler handles one decoded message; it consumes its arguments from data
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the board side of the link: it parses host frames, dispatches
// the messages they carry and frames the responses.
type Transport struct {
	reader  frameReader
	nextSeq atomic.Uint32 // sequence expected from the host

	output        OutputBuffer
	handler       CommandHandler
	resetCallback func() // host restarted its sequence
	flushCallback func() // push pending output to the wire now
}

// NewTransport creates a Transport writing frames to output
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	t := &Transport{
		output:  output,
		handler: handler,
	}
	t.nextSeq.Store(SeqDest)
	t.reader.onResync = t.encodeAckNak
	return t
}

// Receive consumes every complete frame in input. Partial frames stay buffered.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()
	total := len(data)

	for {
		msg, rest, ok := t.reader.next(data)
		data = rest
		if !ok {
			break
		}

		seq := msg[posSeq]
		expected := uint8(t.nextSeq.Load())
		if seq == SeqDest && expected != SeqDest {
			// host reset its sequence
			t.nextSeq.Store(SeqDest)
			expected = SeqDest
			if t.resetCallback != nil {
				t.resetCallback()
			}
		}

		// Out of order frames are dropped; the ACK below then acts as a NAK.
		if seq == expected {
			t.nextSeq.Store(uint32(nextSeq(seq)))
			t.parseFrame(msg[HeaderSize : len(msg)-TrailerSize])
		}
		t.encodeAckNak()
	}

	if consumed := total - len(data); consumed > 0 {
		input.Pop(consumed)
	}
}

// parseFrame dispatches every message in a frame payload
func (t *Transport) parseFrame(frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			t.reader.desynced.Store(true)
		}
	}()

	for len(frame) > 0 {
		cmdID, err := DecodeVLQUint(&frame)
		if err != nil {
			t.reader.desynced.Store(true)
			return
		}
		if t.handler == nil {
			return
		}
		// A handler error leaves the remaining arguments undecodable
		if err := t.handler(uint16(cmdID), &frame); err != nil {
			return
		}
	}
}

// encodeAckNak sends an empty frame carrying the next expected sequence
func (t *Transport) encodeAckNak() {
	t.output.Output(EncodeMessage(uint8(t.nextSeq.Load()), nil))
	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// EncodeFrame frames whatever frameData writes
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	start := t.output.CurPosition()
	t.output.Output([]byte{0, uint8(t.nextSeq.Load())})
	frameData(t.output)

	t.output.Update(start+posLen, uint8(len(t.output.DataSince(start))+TrailerSize))
	crc := CRC16(t.output.DataSince(start))
	t.output.Output([]byte{byte(crc >> 8), byte(crc), SyncByte})
}

// SendCommand frames a single message with its arguments
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset returns the transport to its power-on state
func (t *Transport) Reset() {
	t.reader.reset()
	t.nextSeq.Store(SeqDest)
	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// SetResetCallback sets the callback run when the host restarts its sequence
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// SetFlushCallback sets the callback used to push ACKs out immediately
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}
