package protocol

import (
	"bytes"
	"sync/atomic"
)

// frameReader splits a byte stream into frames. After a corrupt frame it
// drops bytes up to the next sync byte before accepting frames again.
type frameReader struct {
	desynced atomic.Bool
	onResync func()
}

// next returns the first complete frame in data and the bytes after it.
// When no complete frame is available it returns ok=false and the bytes
// that must be kept for the next call.
func (r *frameReader) next(data []byte) (msg, rest []byte, ok bool) {
	for len(data) > 0 {
		if r.desynced.Load() {
			i := bytes.IndexByte(data, SyncByte)
			if i < 0 {
				return nil, nil, false
			}
			data = data[i+1:]
			r.desynced.Store(false)
			if r.onResync != nil {
				r.onResync()
			}
			continue
		}

		if data[0] == SyncByte {
			data = data[1:]
			continue
		}
		if len(data) < FrameMin {
			break
		}

		n := int(data[posLen])
		if n < FrameMin || n > FrameMax || data[posSeq]&^SeqMask != SeqDest {
			r.desynced.Store(true)
			continue
		}
		if len(data) < n {
			break
		}
		if data[n-1] != SyncByte || frameCRC(data[:n]) != CRC16(data[:n-TrailerSize]) {
			r.desynced.Store(true)
			continue
		}
		return data[:n], data[n:], true
	}
	return nil, data, false
}

func (r *frameReader) reset() {
	r.desynced.Store(false)
}

// EncodeMessage builds a complete frame carrying payload
func EncodeMessage(seq uint8, payload []byte) []byte {
	msg := make([]byte, 0, len(payload)+FrameMin)
	msg = append(msg, byte(len(payload)+FrameMin), seq)
	msg = append(msg, payload...)
	return appendTrailer(msg)
}
