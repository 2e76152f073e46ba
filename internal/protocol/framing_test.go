package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		[]byte(`{}`),
		[]byte(`{"cmd":"status"}`),
		bytes.Repeat([]byte("x"), MaxFrameSize),
	}

	for _, payload := range payloads {
		var buf bytes.Buffer
		if err := WriteFrame(&buf, payload); err != nil {
			t.Fatalf("WriteFrame(%d bytes): %v", len(payload), err)
		}
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame(%d bytes): %v", len(payload), err)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("round trip mismatch for %d-byte payload", len(payload))
		}
	}
}

func TestWriteFrame_RejectsOversize(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, bytes.Repeat([]byte("x"), MaxFrameSize+1))
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing must be written for an oversize frame")
	}
}

func TestReadFrame_RejectsOversizeDeclaration(t *testing.T) {
	// A header declaring one byte over the ceiling, with no payload at
	// all: the reader must fail on the declaration, not attempt a read.
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], MaxFrameSize+1)

	_, err := ReadFrame(bytes.NewReader(header[:]))
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestReadFrame_ShortPayload(t *testing.T) {
	var buf bytes.Buffer
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], 100)
	buf.Write(header[:])
	buf.WriteString("only a few bytes")

	if _, err := ReadFrame(&buf); err == nil {
		t.Fatal("expected error for truncated payload")
	}
}

func TestReadFrame_EmptyStream(t *testing.T) {
	if _, err := ReadFrame(strings.NewReader("")); err == nil {
		t.Fatal("expected error reading from empty stream")
	}
}
