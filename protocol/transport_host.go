package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var (
	ErrTimeout = errors.New("protocol: timeout")
	ErrClosed  = errors.New("protocol: transport closed")
)

// DefaultTimeout bounds the wait for an ACK or a response.
const DefaultTimeout = 2 * time.Second

// Message is a frame received by the host. Payload is owned by the message.
type Message struct {
	Seq     uint8
	Payload []byte
}

// ID decodes the message ID at the front of the payload.
func (m *Message) ID() (uint16, []byte, error) {
	p := m.Payload
	id, err := DecodeVLQUint(&p)
	return uint16(id), p, err
}

// HostTransport is the host side of the link: it frames commands, waits for
// their ACK and queues the response frames read from the port.
type HostTransport struct {
	port io.ReadWriteCloser

	mu  sync.Mutex // Serialises SendCommand
	seq uint8

	acks      chan uint8
	responses chan *Message

	stop chan struct{}
	done chan struct{}
	once sync.Once

	errMu   sync.Mutex
	readErr error
}

// NewHostTransport starts reading from port.
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:      port,
		seq:       MessageDest,
		acks:      make(chan uint8, 4),
		responses: make(chan *Message, 32),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// SendCommand sends one message and waits for its ACK.
func (t *HostTransport) SendCommand(cmdID uint16, args func(out OutputBuffer)) error {
	return t.SendCommandWithTimeout(cmdID, args, DefaultTimeout)
}

func (t *HostTransport) SendCommandWithTimeout(cmdID uint16, args func(out OutputBuffer), timeout time.Duration) error {
	payload := NewScratchOutput()
	EncodeVLQUint(payload, uint32(cmdID))
	if args != nil {
		args(payload)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	frame, err := AppendFrame(nil, t.seq, payload.Result())
	if err != nil {
		return fmt.Errorf("command %d: %w", cmdID, err)
	}
	for len(t.acks) > 0 {
		<-t.acks
	}
	if _, err := t.port.Write(frame); err != nil {
		return fmt.Errorf("write command %d: %w", cmdID, err)
	}

	sent := t.seq
	want := NextSeq(sent)
	deadline := time.After(timeout)
	for {
		select {
		case seq := <-t.acks:
			if seq != want {
				// NAK or a stale ACK; the MCU tells us what it expects
				t.seq = seq
				return fmt.Errorf("command %d: sequence %#02x rejected, mcu expects %#02x", cmdID, sent, seq)
			}
			t.seq = want
			return nil
		case <-deadline:
			return fmt.Errorf("command %d: ack: %w", cmdID, ErrTimeout)
		case <-t.done:
			return t.closedErr()
		}
	}
}

// ReceiveResponse returns the next response frame.
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (*Message, error) {
	select {
	case m := <-t.responses:
		return m, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("response: %w", ErrTimeout)
	case <-t.done:
		// Drain what arrived before the port went away
		select {
		case m := <-t.responses:
			return m, nil
		default:
		}
		return nil, t.closedErr()
	}
}

// Drain discards queued responses.
func (t *HostTransport) Drain() {
	for {
		select {
		case <-t.responses:
		default:
			return
		}
	}
}

func (t *HostTransport) readLoop() {
	defer close(t.done)

	var scan scanner
	fifo := NewFifoBuffer(1024)
	buf := make([]byte, 256)
	for {
		n, err := t.port.Read(buf)
		if n > 0 {
			fifo.Write(buf[:n])
			t.process(&scan, fifo)
		}
		// Serial ports opened with a read timeout report an idle line as EOF
		if err != nil && !errors.Is(err, io.EOF) {
			t.errMu.Lock()
			t.readErr = err
			t.errMu.Unlock()
			return
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
		select {
		case <-t.stop:
			return
		default:
		}
	}
}

func (t *HostTransport) process(scan *scanner, fifo *FifoBuffer) {
	data := fifo.Data()
	consumed := 0
	for {
		f, n, ok, _ := scan.next(data[consumed:])
		consumed += n
		if !ok {
			break
		}
		if f.IsAck() {
			select {
			case t.acks <- f.Seq:
			default:
			}
			continue
		}
		msg := &Message{Seq: f.Seq, Payload: append([]byte(nil), f.Payload...)}
		select {
		case t.responses <- msg:
		default:
			// Full: drop the oldest so the newest state wins
			select {
			case <-t.responses:
			default:
			}
			t.responses <- msg
		}
	}
	fifo.Pop(consumed)
}

func (t *HostTransport) closedErr() error {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	if t.readErr != nil && !errors.Is(t.readErr, io.ErrClosedPipe) {
		return fmt.Errorf("%w: %v", ErrClosed, t.readErr)
	}
	return ErrClosed
}

// Close stops the read loop and closes the port.
func (t *HostTransport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.stop)
		err = t.port.Close()
		<-t.done
	})
	return err
}

// Sequence returns the sequence number of the next command.
func (t *HostTransport) Sequence() uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}
