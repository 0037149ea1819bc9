package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestVLQRoundTrip(t *testing.T) {
	testCases := []int32{
		0, 1, -1, 31, -32, 95, 96, -33,
		127, -127, 128, 1000, -1000, 65535, -65535,
		1000000, -1000000, 1 << 30, -(1 << 31), 1<<31 - 1,
	}

	for _, want := range testCases {
		enc := EncodeVLQ(want)
		data := enc
		got, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("%d: decode: %v", want, err)
			continue
		}
		if got != want {
			t.Errorf("%d: decoded %d from % x", want, got, enc)
		}
		if len(data) != 0 {
			t.Errorf("%d: %d bytes left over", want, len(data))
		}
	}
}

func TestVLQEncodingLength(t *testing.T) {
	testCases := []struct {
		v   int32
		len int
	}{
		{0, 1},
		{95, 1},
		{-32, 1},
		{96, 2},
		{-33, 2},
		{12287, 2},
		{12288, 3},
		{-1, 1},
		{1 << 28, 5},
	}
	for _, tc := range testCases {
		if got := len(EncodeVLQ(tc.v)); got != tc.len {
			t.Errorf("EncodeVLQ(%d) is %d bytes, want %d", tc.v, got, tc.len)
		}
	}

	// Known encodings
	if got := EncodeVLQ(1000); !bytes.Equal(got, []byte{0x87, 0x68}) {
		t.Errorf("EncodeVLQ(1000) = % x", got)
	}
}

func TestVLQUint(t *testing.T) {
	for _, want := range []uint32{0, 127, 128, 999, 0x3FF, 0x05122506, 0xFFFFFFFF} {
		out := NewScratchOutput()
		EncodeVLQUint(out, want)
		data := out.Result()
		got, err := DecodeVLQUint(&data)
		if err != nil || got != want {
			t.Errorf("%#x: got %#x, %v", want, got, err)
		}
	}
}

func TestVLQErrors(t *testing.T) {
	empty := []byte{}
	if _, err := DecodeVLQInt(&empty); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("empty: %v", err)
	}

	truncated := []byte{0x87}
	if _, err := DecodeVLQInt(&truncated); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("truncated: %v", err)
	}

	endless := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQInt(&endless); !errors.Is(err, ErrInvalidVLQ) {
		t.Errorf("six byte encoding: %v", err)
	}
}

func TestVLQBytes(t *testing.T) {
	testCases := [][]byte{
		{},
		{0x42},
		[]byte("identify"),
		bytes.Repeat([]byte{0xAA}, 40),
	}

	for _, want := range testCases {
		out := NewScratchOutput()
		EncodeVLQBytes(out, want)
		EncodeVLQUint(out, 7)

		data := out.Result()
		got, err := DecodeVLQBytes(&data)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("got % x, want % x", got, want)
		}
		if v, _ := DecodeVLQUint(&data); v != 7 {
			t.Errorf("trailing value = %d", v)
		}
	}

	short := []byte{5, 1, 2}
	if _, err := DecodeVLQBytes(&short); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("short string: %v", err)
	}
}

func TestVLQString(t *testing.T) {
	out := NewScratchOutput()
	EncodeVLQString(out, "tcpwm")
	data := out.Result()
	s, err := DecodeVLQString(&data)
	if err != nil || s != "tcpwm" {
		t.Errorf("got %q, %v", s, err)
	}
}
