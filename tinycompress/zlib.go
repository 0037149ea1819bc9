// Package tinycompress writes zlib streams without compressing them.
//
// Every Write becomes one or more stored DEFLATE blocks, so the encoder
// needs no window or tables and its output inflates with any zlib reader.
// The firmware uses it to ship its data dictionary in the format the host
// expects.
package tinycompress

import (
	"errors"
	"hash"
	"hash/adler32"
	"io"
)

const (
	zlibCMF = 0x78 // Deflate, 32K window
	zlibFLG = 0x01 // Fastest, no dictionary; (CMF<<8|FLG) % 31 == 0

	storedMax = 0xFFFF // Largest stored block payload
)

var ErrClosed = errors.New("tinycompress: write after close")

// Writer is an io.WriteCloser producing a zlib stream.
type Writer struct {
	w      io.Writer
	adler  hash.Hash32
	header bool
	closed bool
	hdr    [5]byte
}

// NewWriter returns a Writer emitting to w. Nothing is written until the
// first Write or Close.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, adler: adler32.New()}
}

func (z *Writer) writeHeader() error {
	if z.header {
		return nil
	}
	z.header = true
	_, err := z.w.Write([]byte{zlibCMF, zlibFLG})
	return err
}

// stored emits one stored block holding p.
func (z *Writer) stored(p []byte, final bool) error {
	z.hdr[0] = 0x00
	if final {
		z.hdr[0] = 0x01
	}
	n := uint16(len(p))
	z.hdr[1], z.hdr[2] = byte(n), byte(n>>8)
	z.hdr[3], z.hdr[4] = byte(^n), byte(^n>>8)
	if _, err := z.w.Write(z.hdr[:]); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	_, err := z.w.Write(p)
	return err
}

func (z *Writer) Write(p []byte) (int, error) {
	if z.closed {
		return 0, ErrClosed
	}
	if err := z.writeHeader(); err != nil {
		return 0, err
	}
	written := 0
	for len(p) > 0 {
		chunk := p[:min(len(p), storedMax)]
		if err := z.stored(chunk, false); err != nil {
			return written, err
		}
		z.adler.Write(chunk)
		written += len(chunk)
		p = p[len(chunk):]
	}
	return written, nil
}

// Close terminates the stream with an empty final block and the Adler-32
// trailer. It does not close the underlying writer.
func (z *Writer) Close() error {
	if z.closed {
		return nil
	}
	z.closed = true
	if err := z.writeHeader(); err != nil {
		return err
	}
	if err := z.stored(nil, true); err != nil {
		return err
	}
	sum := z.adler.Sum32()
	_, err := z.w.Write([]byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)})
	return err
}

// Compress returns data wrapped as a complete zlib stream.
func Compress(data []byte) []byte {
	var out sliceWriter
	out.b = make([]byte, 0, len(data)+len(data)/storedMax*5+16)
	z := NewWriter(&out)
	z.Write(data)
	z.Close()
	return out.b
}

type sliceWriter struct{ b []byte }

func (s *sliceWriter) Write(p []byte) (int, error) {
	s.b = append(s.b, p...)
	return len(p), nil
}
