// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"encoding/binary"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// Frame layout: [4 len][1 version][4 tag][body]. The body is a protobuf wire
// encoding, so decoders skip fields they do not know.
const (
	// WireVersion is written into every frame and into the connection
	// handshake. Peers with a different version are rejected.
	WireVersion byte = 1

	// MaxFrameSize bounds a single frame, excluding the length prefix
	MaxFrameSize = 64 * 1024 * 1024

	headerLen = 4
	metaLen   = 1 + 4
)

// Buffer is a reusable encode/decode buffer. It only ever grows.
type Buffer struct {
	hdr [headerLen]byte
	b   []byte
}

// NewBuffer creates a buffer with the given initial capacity
func NewBuffer(capacity int) *Buffer {
	return &Buffer{b: make([]byte, 0, capacity)}
}

// Reset empties the buffer, keeping its capacity
func (b *Buffer) Reset() {
	b.b = b.b[:0]
}

// Bytes returns the most recently written or read frame
func (b *Buffer) Bytes() []byte {
	return b.b
}

// Cap returns the current capacity
func (b *Buffer) Cap() int {
	return cap(b.b)
}

// ProtocolError reports a message that violates the static request/response
// pairing. It is raised as a panic, never returned.
type ProtocolError struct {
	Channel string
	Want    Tag
	Got     Tag
	Reason  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("rpc: protocol violation on %q: %s (want tag %d, got %d)", e.Channel, e.Reason, e.Want, e.Got)
}

// writeFrame encodes msg into buf and writes it with a single Write call
func writeFrame(w io.Writer, buf *Buffer, msg Message) error {
	p := append(buf.b[:0], 0, 0, 0, 0, WireVersion)
	p = binary.BigEndian.AppendUint32(p, uint32(msg.Tag()))
	p = msg.AppendWire(p)
	if len(p)-headerLen > MaxFrameSize {
		buf.b = p[:0]
		return fmt.Errorf("%w: frame of %d bytes exceeds limit", ErrMalformed, len(p)-headerLen)
	}
	binary.BigEndian.PutUint32(p[:headerLen], uint32(len(p)-headerLen))
	buf.b = p

	_, err := w.Write(p)
	return err
}

// readFrame reads a single frame into buf. The returned body aliases buf and
// is only valid until the next use of buf.
func readFrame(r io.Reader, buf *Buffer) (Tag, []byte, error) {
	if _, err := io.ReadFull(r, buf.hdr[:]); err != nil {
		return 0, nil, err
	}

	n := binary.BigEndian.Uint32(buf.hdr[:])
	if n < metaLen || n > MaxFrameSize {
		return 0, nil, fmt.Errorf("%w: frame length %d", ErrMalformed, n)
	}

	if cap(buf.b) < int(n) {
		buf.b = make([]byte, n)
	} else {
		buf.b = buf.b[:n]
	}
	if _, err := io.ReadFull(r, buf.b); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, nil, err
	}

	if v := buf.b[0]; v != WireVersion {
		return 0, nil, fmt.Errorf("%w: wire version %d, want %d", ErrMalformed, v, WireVersion)
	}
	return Tag(binary.BigEndian.Uint32(buf.b[1:metaLen])), buf.b[metaLen:], nil
}

// decodeInto checks the received tag against resp's type before decoding.
// A mismatch means the peers disagree about the request/response pairing.
func decodeInto(channel string, resp Message, tag Tag, body []byte) error {
	if want := resp.Tag(); tag != want {
		panic(&ProtocolError{Channel: channel, Want: want, Got: tag, Reason: "unexpected response kind"})
	}
	if err := resp.ConsumeWire(body); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// ConsumeFields walks the protobuf wire fields in b. For each field fn
// receives the field number, its wire type, and the remaining input starting
// at the field's value; it returns the number of bytes the value occupied, or
// a negative protowire error code. Unknown fields should be skipped with
// SkipField.
func ConsumeFields(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) int) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m := fn(num, typ, b)
		if m < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}

// SkipField consumes a field value without interpreting it
func SkipField(num protowire.Number, typ protowire.Type, v []byte) int {
	return protowire.ConsumeFieldValue(num, typ, v)
}
