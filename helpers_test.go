// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	tagPing  Tag = 1
	tagPong  Tag = 2
	tagBlock Tag = 3
	tagOdd   Tag = 4
)

// ping is answered with a pong carrying the same sequence number
type ping struct {
	Seq     uint64
	Payload []byte
}

func (*ping) Tag() Tag                     { return tagPing }
func (*ping) ResponseTag() Tag             { return tagPong }
func (m *ping) AppendWire(b []byte) []byte { return appendSeq(b, m.Seq, m.Payload) }
func (m *ping) ConsumeWire(b []byte) error { return consumeSeq(b, &m.Seq, &m.Payload) }

type pong struct {
	Seq     uint64
	Payload []byte
}

func (*pong) Tag() Tag                     { return tagPong }
func (m *pong) AppendWire(b []byte) []byte { return appendSeq(b, m.Seq, m.Payload) }
func (m *pong) ConsumeWire(b []byte) error { return consumeSeq(b, &m.Seq, &m.Payload) }

// block is held by the test handlers until the test releases it
type block struct {
	Seq uint64
}

func (*block) Tag() Tag                     { return tagBlock }
func (*block) ResponseTag() Tag             { return tagPong }
func (m *block) AppendWire(b []byte) []byte { return appendSeq(b, m.Seq, nil) }
func (m *block) ConsumeWire(b []byte) error {
	var payload []byte
	return consumeSeq(b, &m.Seq, &payload)
}

// odd is a response no request is paired with
type odd struct{}

func (*odd) Tag() Tag                   { return tagOdd }
func (*odd) AppendWire(b []byte) []byte { return b }
func (*odd) ConsumeWire([]byte) error   { return nil }

var testUnion = UnionFunc(func(tag Tag) Request {
	switch tag {
	case tagPing:
		return &ping{}
	case tagBlock:
		return &block{}
	}
	return nil
})

func appendSeq(b []byte, seq uint64, payload []byte) []byte {
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, seq)
	if payload != nil {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, payload)
	}
	return b
}

func consumeSeq(b []byte, seq *uint64, payload *[]byte) error {
	*seq = 0
	*payload = (*payload)[:0]
	return ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch {
		case num == 1 && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(v)
			*seq = x
			return n
		case num == 2 && typ == protowire.BytesType:
			x, n := protowire.ConsumeBytes(v)
			*payload = append(*payload, x...)
			return n
		}
		return SkipField(num, typ, v)
	})
}

// echo answers ping with pong and holds block requests until release is
// closed, signalling entered first
type echo struct {
	entered chan uint64
	release chan struct{}
}

func newEcho() *echo {
	return &echo{
		entered: make(chan uint64, 16),
		release: make(chan struct{}),
	}
}

func (e *echo) Handle(_ context.Context, req Request) Message {
	switch req := req.(type) {
	case *ping:
		return &pong{Seq: req.Seq, Payload: append([]byte(nil), req.Payload...)}
	case *block:
		e.entered <- req.Seq
		<-e.release
		return &pong{Seq: req.Seq}
	}
	return nil
}

func testContext(t testing.TB) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// socketDir returns a short lived directory for endpoints. Unix socket paths
// are limited to about a hundred bytes, which t.TempDir can exceed.
func socketDir(t testing.TB) string {
	dir, err := os.MkdirTemp("", "vrpc")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// channelPair connects a listening sender to a dialing server and serves h
// until the test ends
func channelPair(t testing.TB, h Handler, opts ...ChannelOption) (sender, server *Channel) {
	t.Helper()
	ctx := testContext(t)
	endpoint := filepath.Join(socketDir(t), "test.sock")

	sender, err := NewChannel(endpoint, true, opts...)
	require.NoError(t, err)
	server, err = NewChannel(endpoint, false, append([]ChannelOption{WithUnion(testUnion)}, opts...)...)
	require.NoError(t, err)

	var g errgroup.Group
	g.Go(func() error { return sender.Connect(ctx) })
	g.Go(func() error { return server.Connect(ctx) })
	require.NoError(t, g.Wait())

	done := make(chan error, 1)
	go func() { done <- server.Serve(context.Background(), h) }()
	t.Cleanup(func() {
		sender.Close()
		server.Close()
		<-done
	})

	require.Eventually(t, func() bool { return server.Stats().Serving }, time.Second, time.Millisecond)
	return sender, server
}

// registryPair connects a listening and a dialing registry sharing a
// directory
func registryPair(t testing.TB) (native, remote *Registry) {
	t.Helper()
	ctx := testContext(t)
	dir := socketDir(t)

	native, err := NewRegistry(dir, true, WithCallbackOptions(WithUnion(testUnion)))
	require.NoError(t, err)
	remote, err = NewRegistry(dir, false,
		WithControlOptions(WithUnion(testUnion)),
		WithInstanceOptions(WithUnion(testUnion)),
	)
	require.NoError(t, err)

	var g errgroup.Group
	g.Go(func() error { return native.Connect(ctx) })
	g.Go(func() error { return remote.Connect(ctx) })
	require.NoError(t, g.Wait())

	t.Cleanup(func() {
		native.Close()
		remote.Close()
	})
	return native, remote
}

// serve runs ch.Serve until the test ends
func serve(t testing.TB, ch *Channel, h Handler) {
	done := make(chan error, 1)
	go func() { done <- ch.Serve(context.Background(), h) }()
	t.Cleanup(func() {
		ch.Close()
		<-done
	})
}
