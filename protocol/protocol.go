// Package protocol implements the framed serial protocol spoken between the
// host tools and the firmware.
//
// Every frame is laid out as
//
//	len | seq | payload... | crc_hi | crc_lo | 0x7E
//
// where len counts the whole frame, the high nibble of seq is always 0x10
// and the payload is a sequence of VLQ-encoded messages, each starting with
// its message ID. A frame with an empty payload is an ACK (or a NAK when the
// sequence is not the one the sender expected).
package protocol

import "errors"

// Frame layout
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin

	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3 // Offset of the CRC from the end of the frame
	MessageTrailerSync = 1 // Offset of the sync byte from the end of the frame

	MessageValueSync = 0x7E
	MessageDest      = 0x10
	MessageSeqMask   = 0x0F
)

var (
	// ErrFrameShort means more bytes are needed before a frame can be decided on.
	ErrFrameShort = errors.New("protocol: incomplete frame")
	// ErrFrameInvalid means the bytes at the head of the stream are not a frame.
	ErrFrameInvalid = errors.New("protocol: invalid frame")
	ErrFrameTooLong = errors.New("protocol: payload exceeds frame size")
)

// Frame is a decoded frame. Payload aliases the input it was parsed from.
type Frame struct {
	Seq     uint8
	Payload []byte
	CRC     uint16
}

// IsAck reports whether f carries no messages.
func (f Frame) IsAck() bool { return len(f.Payload) == 0 }

// NextSeq returns the sequence number following seq.
func NextSeq(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}

// ParseFrame decodes the frame at the start of data and returns the number
// of bytes it occupies. Leading sync bytes must already be stripped.
func ParseFrame(data []byte) (Frame, int, error) {
	if len(data) < MessageLengthMin {
		return Frame{}, 0, ErrFrameShort
	}
	n := int(data[MessagePositionLen])
	if n < MessageLengthMin || n > MessageLengthMax {
		return Frame{}, 0, ErrFrameInvalid
	}
	seq := data[MessagePositionSeq]
	if seq&^MessageSeqMask != MessageDest {
		return Frame{}, 0, ErrFrameInvalid
	}
	if len(data) < n {
		return Frame{}, 0, ErrFrameShort
	}
	if data[n-MessageTrailerSync] != MessageValueSync {
		return Frame{}, 0, ErrFrameInvalid
	}
	crc := uint16(data[n-MessageTrailerCRC])<<8 | uint16(data[n-MessageTrailerCRC+1])
	if crc != CRC16(data[:n-MessageTrailerSize]) {
		return Frame{}, 0, ErrFrameInvalid
	}
	return Frame{
		Seq:     seq,
		Payload: data[MessageHeaderSize : n-MessageTrailerSize],
		CRC:     crc,
	}, n, nil
}

// AppendFrame appends a complete frame carrying payload to dst.
func AppendFrame(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	if len(payload) > MessagePayloadMax {
		return dst, ErrFrameTooLong
	}
	start := len(dst)
	dst = append(dst, uint8(len(payload)+MessageLengthMin), seq)
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, uint8(crc>>8), uint8(crc), MessageValueSync), nil
}

// scanner tracks stream synchronisation for the two transports. After a bad
// frame everything up to the next sync byte is discarded.
type scanner struct {
	lost bool
}

// next returns the next frame in data, the number of bytes consumed, and
// whether a frame was found. resynced is set when a sync byte ended a
// period of lost synchronisation.
func (s *scanner) next(data []byte) (f Frame, consumed int, ok, resynced bool) {
	for consumed < len(data) {
		rest := data[consumed:]
		if s.lost {
			i := indexSync(rest)
			if i < 0 {
				return Frame{}, len(data), false, resynced
			}
			consumed += i + 1
			s.lost = false
			resynced = true
			continue
		}
		if rest[0] == MessageValueSync {
			consumed++
			continue
		}
		frame, n, err := ParseFrame(rest)
		switch err {
		case nil:
			return frame, consumed + n, true, resynced
		case ErrFrameShort:
			return Frame{}, consumed, false, resynced
		default:
			s.lost = true
		}
	}
	return Frame{}, consumed, false, resynced
}

func indexSync(data []byte) int {
	for i, b := range data {
		if b == MessageValueSync {
			return i
		}
	}
	return -1
}
