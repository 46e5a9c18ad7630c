package protocol

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var ErrTransportClosed = errors.New("transport closed")

// ResponseHandler is called for every response frame received by the host
type ResponseHandler func(cmdID uint16, data *[]byte) error

// Message is a received frame
type Message struct {
	Sequence uint8
	Payload  []byte // frame data without header and trailer
}

// HostTransport is the host side of the link: it frames commands, waits for
// the board's ACK and queues the responses.
type HostTransport struct {
	port io.ReadWriteCloser

	seq    atomic.Uint32 // sequence of the next command
	reader frameReader

	writeMu sync.Mutex
	handler atomic.Pointer[ResponseHandler]

	acks      chan *Message
	responses chan *Message

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewHostTransport starts a transport reading from port
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:      port,
		acks:      make(chan *Message, 1),
		responses: make(chan *Message, 16),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	t.seq.Store(SeqDest)
	go t.readLoop()
	return t
}

// SendCommand sends a message and waits up to two seconds for its ACK
func (t *HostTransport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	return t.SendCommandWithTimeout(cmdID, args, 2*time.Second)
}

// SendCommandWithTimeout sends a message and waits for its ACK
func (t *HostTransport) SendCommandWithTimeout(cmdID uint16, args func(output OutputBuffer), timeout time.Duration) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	scratch := NewScratchOutput()
	EncodeVLQUint(scratch, uint32(cmdID))
	if args != nil {
		args(scratch)
	}
	payload := scratch.Result()
	if len(payload)+FrameMin > FrameMax {
		return fmt.Errorf("message too long: %d bytes (max %d)", len(payload)+FrameMin, FrameMax)
	}

	t.drainAcks()
	seq := uint8(t.seq.Load())
	msg := EncodeMessage(seq, payload)
	if n, err := t.port.Write(msg); err != nil {
		return fmt.Errorf("write: %w", err)
	} else if n != len(msg) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(msg))
	}

	return t.waitForAck(nextSeq(seq), timeout)
}

func (t *HostTransport) waitForAck(expected uint8, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ack := <-t.acks:
		if ack.Sequence != expected {
			return fmt.Errorf("NAK: expected sequence 0x%02x, got 0x%02x", expected, ack.Sequence)
		}
		t.seq.Store(uint32(expected))
		return nil
	case <-timer.C:
		return fmt.Errorf("ACK timeout after %v", timeout)
	case <-t.stop:
		return ErrTransportClosed
	}
}

// drainAcks drops ACK/NAK frames that arrived while no command was pending,
// such as the NAK a board sends after resynchronising on a corrupt frame
func (t *HostTransport) drainAcks() {
	for {
		select {
		case <-t.acks:
		default:
			return
		}
	}
}

// ReceiveResponse returns the next queued response
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (*Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-t.responses:
		return resp, nil
	case <-timer.C:
		return nil, fmt.Errorf("response timeout after %v", timeout)
	case <-t.stop:
		return nil, ErrTransportClosed
	}
}

// SetResponseHandler installs a callback run for every response as it arrives
func (t *HostTransport) SetResponseHandler(handler ResponseHandler) {
	t.handler.Store(&handler)
}

// CurrentSequence returns the sequence the next command will carry
func (t *HostTransport) CurrentSequence() uint8 {
	return uint8(t.seq.Load())
}

// Reset drops queued frames and restarts the sequence
func (t *HostTransport) Reset() {
	t.seq.Store(SeqDest)
	t.reader.reset()
	for {
		select {
		case <-t.acks:
		case <-t.responses:
		default:
			return
		}
	}
}

// Close closes the port and waits for the reader to exit
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stop)
		err = t.port.Close()
		<-t.done
	})
	return err
}

func (t *HostTransport) readLoop() {
	defer close(t.done)

	var pending []byte
	buf := make([]byte, 256)
	for {
		n, err := t.port.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			pending = t.processMessages(pending)
		}
		if err != nil {
			select {
			case <-t.stop:
				return
			default:
			}
			if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
				return
			}
			// serial ports report an expired read timeout as EOF
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// processMessages dispatches every complete frame and returns the leftover bytes
func (t *HostTransport) processMessages(data []byte) []byte {
	for {
		raw, rest, ok := t.reader.next(data)
		data = rest
		if !ok {
			break
		}
		payload := make([]byte, len(raw)-FrameMin)
		copy(payload, raw[HeaderSize:len(raw)-TrailerSize])
		t.dispatchMessage(&Message{Sequence: raw[posSeq], Payload: payload})
	}
	return append([]byte(nil), data...)
}

func (t *HostTransport) dispatchMessage(msg *Message) {
	if len(msg.Payload) == 0 {
		select {
		case t.acks <- msg:
		default:
		}
		return
	}

	if h := t.handler.Load(); h != nil {
		data := msg.Payload
		if cmdID, err := DecodeVLQUint(&data); err == nil {
			_ = (*h)(uint16(cmdID), &data)
		}
	}

	// keep the newest responses when nobody is draining the queue
	for {
		select {
		case t.responses <- msg:
			return
		default:
		}
		select {
		case <-t.responses:
		default:
		}
	}
}
