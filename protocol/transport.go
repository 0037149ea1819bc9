package protocol

import "sync/atomic"

// CommandHandler decodes the arguments of message cmdID from the front of
// *data and consumes them.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the firmware side of the link. It validates incoming frames,
// dispatches their messages in order, acknowledges every frame and encodes
// responses into an OutputBuffer drained by the serial driver.
type Transport struct {
	scan    scanner
	nextSeq atomic.Uint32 // Sequence expected from the host

	output  OutputBuffer
	handler CommandHandler

	onReset func()
	onFlush func()
	onError func(cmdID uint16, err error)
}

func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	t := &Transport{output: output, handler: handler}
	t.nextSeq.Store(MessageDest)
	return t
}

// Receive consumes every complete frame in input. Partial frames are left
// for the next call.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()
	consumed := 0
	for {
		f, n, ok, resynced := t.scan.next(data[consumed:])
		consumed += n
		if resynced {
			t.encodeAckNak()
		}
		if !ok {
			break
		}

		expected := uint8(t.nextSeq.Load())
		if f.Seq == MessageDest && expected != MessageDest {
			// The host restarted its sequence
			expected = MessageDest
			t.nextSeq.Store(MessageDest)
			if t.onReset != nil {
				t.onReset()
			}
		}
		if f.Seq == expected {
			t.nextSeq.Store(uint32(NextSeq(f.Seq)))
			t.dispatch(f.Payload)
		}
		// Sent for out of order frames too, where it acts as a NAK
		// carrying the expected sequence.
		t.encodeAckNak()
	}
	input.Pop(consumed)
}

func (t *Transport) dispatch(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			t.scan.lost = true
		}
	}()
	for len(payload) > 0 {
		id, err := DecodeVLQUint(&payload)
		if err != nil {
			t.scan.lost = true
			return
		}
		if t.handler == nil {
			return
		}
		if err := t.handler(uint16(id), &payload); err != nil {
			// The rest of the frame can't be trusted once a handler
			// stopped consuming its arguments.
			if t.onError != nil {
				t.onError(uint16(id), err)
			}
			return
		}
	}
}

func (t *Transport) encodeAckNak() {
	t.EncodeFrame(nil)
	if t.onFlush != nil {
		t.onFlush()
	}
}

// EncodeFrame writes one frame whose payload is produced by body. Responses
// carry the sequence of the next expected host frame, as the ACK does.
func (t *Transport) EncodeFrame(body func(out OutputBuffer)) {
	start := t.output.CurPosition()
	t.output.Output([]byte{0, uint8(t.nextSeq.Load())})
	if body != nil {
		body(t.output)
	}
	n := len(t.output.DataSince(start))
	t.output.Update(start+MessagePositionLen, uint8(n+MessageTrailerSize))
	crc := CRC16(t.output.DataSince(start))
	t.output.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})
}

// SendCommand encodes message cmdID followed by the arguments from args.
func (t *Transport) SendCommand(cmdID uint16, args func(out OutputBuffer)) {
	t.EncodeFrame(func(out OutputBuffer) {
		EncodeVLQUint(out, uint32(cmdID))
		if args != nil {
			args(out)
		}
	})
}

// Reset returns to the power-on state, as after a reconnect.
func (t *Transport) Reset() {
	t.scan.lost = false
	t.nextSeq.Store(MessageDest)
	if t.onReset != nil {
		t.onReset()
	}
}

// SetResetCallback sets the function called when the host restarts the
// sequence or Reset is called.
func (t *Transport) SetResetCallback(fn func()) { t.onReset = fn }

// SetFlushCallback sets the function called after each ACK so the driver
// can push it out ahead of the main loop.
func (t *Transport) SetFlushCallback(fn func()) { t.onFlush = fn }

// SetErrorCallback sets the function told about handler errors.
func (t *Transport) SetErrorCallback(fn func(cmdID uint16, err error)) { t.onError = fn }
