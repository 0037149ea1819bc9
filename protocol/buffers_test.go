package protocol

import (
	"bytes"
	"testing"
)

func TestSliceInputBuffer(t *testing.T) {
	buf := NewSliceInputBuffer([]byte{1, 2, 3, 4, 5})

	buf.Pop(2)
	if buf.Available() != 3 || buf.Data()[0] != 3 {
		t.Errorf("after Pop(2): %v", buf.Data())
	}
	buf.Pop(10)
	if buf.Available() != 0 {
		t.Errorf("Pop past the end left %d bytes", buf.Available())
	}
}

func TestScratchOutput(t *testing.T) {
	s := NewScratchOutput()
	s.Output([]byte{1, 2, 3})
	s.Output([]byte{4, 5})

	if s.CurPosition() != 5 {
		t.Errorf("position = %d", s.CurPosition())
	}
	s.Update(0, 99)
	s.Update(7, 1) // Past the end, ignored
	if !bytes.Equal(s.Result(), []byte{99, 2, 3, 4, 5}) {
		t.Errorf("result = %v", s.Result())
	}
	if !bytes.Equal(s.DataSince(3), []byte{4, 5}) {
		t.Errorf("DataSince(3) = %v", s.DataSince(3))
	}
	if s.DataSince(6) != nil {
		t.Error("DataSince past the end should be nil")
	}

	s.Reset()
	if len(s.Result()) != 0 {
		t.Error("Reset left data behind")
	}

	s.Output(make([]byte, scratchSize+10))
	if s.CurPosition() != scratchSize {
		t.Errorf("overflowing write: position %d", s.CurPosition())
	}
}

func TestFifoBufferWrap(t *testing.T) {
	f := NewFifoBuffer(8)

	if n := f.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9}); n != 7 {
		t.Fatalf("wrote %d bytes into a ring of 8, want 7", n)
	}
	if f.Free() != 0 {
		t.Errorf("free = %d", f.Free())
	}

	out := make([]byte, 5)
	if n := f.Read(out); n != 5 || !bytes.Equal(out, []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("read %d: %v", n, out)
	}

	f.Write([]byte{10, 11, 12})
	if got := f.Data(); !bytes.Equal(got, []byte{6, 7, 10, 11, 12}) {
		t.Errorf("wrapped Data() = %v", got)
	}

	f.Pop(3)
	if got := f.Data(); !bytes.Equal(got, []byte{11, 12}) {
		t.Errorf("after Pop(3): %v", got)
	}
	f.Pop(5)
	if !f.IsEmpty() {
		t.Error("ring not empty")
	}

	f.Write([]byte{1})
	f.Reset()
	if f.Available() != 0 {
		t.Error("Reset left data behind")
	}
}
