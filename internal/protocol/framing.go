// Package protocol defines the agent's wire format: length-prefixed JSON
// frames over a local stream socket, and the request/response envelopes
// exchanged one pair per round trip.
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize is the maximum accepted message body. A peer declaring a
// larger frame is disconnected; this bounds memory per in-flight message.
const MaxFrameSize = 64 * 1024

// headerLength is the fixed frame header size: a 4-byte big-endian
// payload length.
const headerLength = 4

// ErrFrameTooLarge is returned when a declared length exceeds
// MaxFrameSize. The connection carrying it must be closed: the payload
// is never read.
var ErrFrameTooLarge = fmt.Errorf("frame exceeds maximum size %d", MaxFrameSize)

// WriteFrame writes one framed message: [4 bytes payload length,
// big-endian uint32] [payload].
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	var header [headerLength]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("write frame payload: %w", err)
		}
	}
	return nil
}

// ReadFrame reads one framed message. It returns ErrFrameTooLarge for a
// declared length over the ceiling without reading the payload, and an
// error for a short read.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [headerLength]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("read frame payload: %w", err)
		}
	}
	return payload, nil
}
