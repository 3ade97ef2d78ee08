// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestFrameOverPipe(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	errc := make(chan error, 1)
	go func() {
		errc <- writeFrame(a, NewBuffer(0), &ping{Seq: 42, Payload: []byte("hello")})
	}()

	buf := NewBuffer(0)
	tag, body, err := readFrame(b, buf)
	require.NoError(t, err)
	require.NoError(t, <-errc)
	require.Equal(t, tagPing, tag)

	var req ping
	require.NoError(t, req.ConsumeWire(body))
	assert.Equal(t, uint64(42), req.Seq)
	assert.Equal(t, []byte("hello"), req.Payload)
}

func TestFrameLayout(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeFrame(&out, NewBuffer(0), &pong{Seq: 1}))

	frame := out.Bytes()
	require.Len(t, frame, headerLen+metaLen+2)
	assert.Equal(t, uint32(metaLen+2), binary.BigEndian.Uint32(frame))
	assert.Equal(t, WireVersion, frame[4])
	assert.Equal(t, uint32(tagPong), binary.BigEndian.Uint32(frame[5:]))
}

func TestReadFrameRejectsLength(t *testing.T) {
	for _, n := range []uint32{0, metaLen - 1, MaxFrameSize + 1} {
		var hdr [4]byte
		binary.BigEndian.PutUint32(hdr[:], n)
		_, _, err := readFrame(bytes.NewReader(hdr[:]), NewBuffer(0))
		require.ErrorIs(t, err, ErrMalformed, "length %d", n)
	}
}

func TestReadFrameRejectsVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeFrame(&out, NewBuffer(0), &pong{}))
	frame := out.Bytes()
	frame[4] = WireVersion + 1

	_, _, err := readFrame(bytes.NewReader(frame), NewBuffer(0))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestReadFrameTruncated(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeFrame(&out, NewBuffer(0), &pong{Seq: 300}))
	frame := out.Bytes()

	_, _, err := readFrame(bytes.NewReader(frame[:len(frame)-1]), NewBuffer(0))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeIntoUnexpectedTagPanics(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		perr, ok := r.(*ProtocolError)
		require.True(t, ok, "panic value %T", r)
		assert.Equal(t, tagPong, perr.Want)
		assert.Equal(t, tagOdd, perr.Got)
	}()
	_ = decodeInto("test", &pong{}, tagOdd, nil)
}

func TestDecodeIntoMalformedBody(t *testing.T) {
	body := protowire.AppendTag(nil, 1, protowire.VarintType)
	err := decodeInto("test", &pong{}, tagPong, body)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestConsumeFieldsSkipsUnknown(t *testing.T) {
	b := protowire.AppendTag(nil, 9, protowire.BytesType)
	b = protowire.AppendString(b, "from a newer peer")
	b = appendSeq(b, 5, []byte("x"))

	var resp pong
	require.NoError(t, resp.ConsumeWire(b))
	assert.Equal(t, uint64(5), resp.Seq)
	assert.Equal(t, []byte("x"), resp.Payload)
}

func TestBufferOnlyGrows(t *testing.T) {
	buf := NewBuffer(8)
	var out bytes.Buffer

	require.NoError(t, writeFrame(&out, buf, &ping{Payload: make([]byte, 1024)}))
	grown := buf.Cap()
	require.GreaterOrEqual(t, grown, 1024)

	buf.Reset()
	require.NoError(t, writeFrame(&out, buf, &ping{}))
	assert.Equal(t, grown, buf.Cap())
	assert.Less(t, len(buf.Bytes()), 16)
}

func TestUnknownRequestPanics(t *testing.T) {
	ch, err := NewChannel("x.sock", false, WithUnion(testUnion))
	require.NoError(t, err)
	require.Panics(t, func() { ch.newRequest(nil, tagOdd) })
}

func TestPersistentRequests(t *testing.T) {
	ch, err := NewChannel("x.sock", false, WithUnion(testUnion))
	require.NoError(t, err)

	cache := make(map[Tag]Request)
	first := ch.newRequest(cache, tagPing)
	assert.Same(t, first, ch.newRequest(cache, tagPing))
	assert.NotSame(t, first, ch.newRequest(nil, tagPing))
}
