// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	catrate "github.com/joeycumines/go-catrate"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	ErrClosed           = errors.New("rpc: channel closed")
	ErrDisconnected     = errors.New("rpc: disconnected")
	ErrMalformed        = errors.New("rpc: malformed frame")
	ErrNotConnected     = errors.New("rpc: channel not connected")
	ErrServing          = errors.New("rpc: cannot send on a serving channel")
	ErrHandshake        = errors.New("rpc: handshake failed")
	ErrUnknownTransport = errors.New("rpc: unknown transport")
)

// log categories, throttled independently per channel
const (
	logAdHoc  = "adhoc"
	logServe  = "serve"
	logAccept = "accept"
)

// Channel is a request/response primitive bound to one local endpoint. One
// peer sends, the other serves. Each connection carries at most one request
// at a time, so responses can never be attributed to the wrong request.
type Channel struct {
	endpoint string
	name     string
	listen   bool
	opts     channelOptions
	tr       transport
	log      zerolog.Logger
	limiter  *catrate.Limiter

	// primaryMu is held for the full round trip of a request on the primary
	// connection
	primaryMu sync.Mutex
	primary   net.Conn

	connMu   sync.Mutex
	conns    map[net.Conn]struct{}
	acceptor net.Listener

	leases [numRoles]leasePool

	// lifetime is cancelled by Close and bounds ad-hoc dialing
	lifetime context.Context
	cancel   context.CancelFunc

	closed    atomic.Bool
	serving   atomic.Bool
	connected atomic.Bool

	sent   atomic.Uint64
	served atomic.Uint64
	adHoc  atomic.Uint64
}

// ChannelStats is a point in time view of a channel's counters
type ChannelStats struct {
	Name      string `json:"name"`
	Endpoint  string `json:"endpoint"`
	Listen    bool   `json:"listen"`
	Connected bool   `json:"connected"`
	Serving   bool   `json:"serving"`
	Open      int    `json:"open"`
	Sent      uint64 `json:"sent"`
	Served    uint64 `json:"served"`
	AdHoc     uint64 `json:"adHoc"`
}

// NewChannel creates an unconnected channel for endpoint. If listen is true
// the channel binds the endpoint and waits for its peer in Connect, otherwise
// it dials the peer.
func NewChannel(endpoint string, listen bool, opts ...ChannelOption) (*Channel, error) {
	o := defaultChannelOptions()
	for _, opt := range opts {
		opt(&o)
	}

	tr, err := lookupTransport(o.transport)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(endpoint)
	lifetime, cancel := context.WithCancel(context.Background())
	return &Channel{
		endpoint: endpoint,
		name:     name,
		listen:   listen,
		opts:     o,
		tr:       tr,
		log:      o.logger.With().Str("channel", name).Logger(),
		limiter: catrate.NewLimiter(map[time.Duration]int{
			time.Second: 5,
			time.Minute: 60,
		}),
		conns:    make(map[net.Conn]struct{}),
		lifetime: lifetime,
		cancel:   cancel,
	}, nil
}

// Endpoint returns the path the channel is bound to
func (c *Channel) Endpoint() string {
	return c.endpoint
}

// Send writes req and blocks until the matching response has been decoded
// into resp. If the primary connection is in use, by a concurrent caller or
// further up the current call chain, an ad-hoc channel dials a transient
// connection for just this call instead of waiting. Channels with ad-hoc
// connections disabled wait for the primary connection.
//
// There is no mid-call cancellation; ctx only bounds dialing.
func (c *Channel) Send(ctx context.Context, req Request, resp Message) error {
	if want, got := req.ResponseTag(), resp.Tag(); want != got {
		panic(&ProtocolError{Channel: c.name, Want: want, Got: got, Reason: "response type does not match request"})
	}
	if c.closed.Load() {
		return ErrClosed
	}
	if c.serving.Load() {
		return ErrServing
	}

	c.sent.Add(1)
	obs := c.opts.observer
	if obs != nil {
		obs.ObserveRequest(c.name, req)
	}

	l := c.leases[roleSend].lease()
	err := c.send(ctx, l.Buf, req, resp)
	l.Release()
	if err != nil {
		return err
	}

	if obs != nil {
		obs.ObserveResponse(c.name, req, resp)
	}
	return nil
}

func (c *Channel) send(ctx context.Context, buf *Buffer, req Request, resp Message) error {
	if !c.opts.adHoc {
		c.primaryMu.Lock()
		defer c.primaryMu.Unlock()
		return c.roundTrip(c.primary, buf, req, resp)
	}

	// never wait on a connection someone is already blocked on
	if c.primaryMu.TryLock() {
		defer c.primaryMu.Unlock()
		return c.roundTrip(c.primary, buf, req, resp)
	}
	return c.sendAdHoc(ctx, buf, req, resp)
}

// adHocDialTimeout bounds how long an ad-hoc dial waits for the peer to bind
// the endpoint after the handshake. A peer that is gone never binds it.
const adHocDialTimeout = time.Second

func (c *Channel) sendAdHoc(ctx context.Context, buf *Buffer, req Request, resp Message) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.connected.Load() {
		return ErrNotConnected
	}

	dialCtx, cancel := context.WithTimeout(ctx, adHocDialTimeout)
	defer cancel()
	stop := context.AfterFunc(c.lifetime, cancel)
	defer stop()

	conn, err := c.tr.dial(dialCtx, c.endpoint)
	if err != nil {
		if c.closed.Load() {
			return fmt.Errorf("%w: %w", ErrDisconnected, ErrClosed)
		}
		return fmt.Errorf("%w: ad-hoc dial: %v", ErrDisconnected, err)
	}
	if !c.track(conn) {
		conn.Close()
		return ErrClosed
	}
	defer c.untrack(conn)

	if n := c.adHoc.Add(1); c.allow(logAdHoc) {
		c.log.Debug().Uint64("count", n).Msg("primary connection busy, using ad-hoc connection")
	}
	return c.roundTrip(conn, buf, req, resp)
}

// roundTrip performs one request/response exchange. Any failure leaves the
// stream in an unknown state, so the connection is closed.
func (c *Channel) roundTrip(conn net.Conn, buf *Buffer, req Request, resp Message) error {
	if conn == nil {
		return ErrNotConnected
	}

	if err := writeFrame(conn, buf, req); err != nil {
		conn.Close()
		return c.transportError(err)
	}
	tag, body, err := readFrame(conn, buf)
	if err != nil {
		conn.Close()
		return c.transportError(err)
	}
	if err := decodeInto(c.name, resp, tag, body); err != nil {
		conn.Close()
		return err
	}
	return nil
}

func (c *Channel) transportError(err error) error {
	switch {
	case errors.Is(err, ErrMalformed):
		return err
	case c.closed.Load():
		return fmt.Errorf("%w: %w", ErrDisconnected, ErrClosed)
	default:
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
}

// Serve answers requests until the primary connection is closed by the peer,
// the channel is closed, or ctx is done (which closes the channel). Ad-hoc
// channels additionally accept transient connections on the endpoint, each
// served on its own goroutine with the same read, dispatch, write loop.
//
// A serving channel must not be used to Send.
func (c *Channel) Serve(ctx context.Context, h Handler) error {
	if c.opts.union == nil {
		return errors.New("rpc: serve requires a request union")
	}
	if !c.connected.Load() {
		return ErrNotConnected
	}
	if !c.serving.CompareAndSwap(false, true) {
		return errors.New("rpc: channel is already serving")
	}

	c.primaryMu.Lock()
	primary := c.primary
	c.primaryMu.Unlock()

	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	var g errgroup.Group

	var ln net.Listener
	if c.opts.adHoc {
		var err error
		if ln, err = c.tr.listen(c.endpoint); err != nil {
			return fmt.Errorf("rpc: bind %s: %w", c.endpoint, err)
		}
		if !c.setAcceptor(ln) {
			ln.Close()
			return ErrClosed
		}
		g.Go(func() error {
			c.acceptLoop(ctx, &g, ln, h)
			return nil
		})
	}

	g.Go(func() error {
		if ln != nil {
			defer ln.Close()
		}
		return c.serveConn(ctx, primary, h)
	})

	return g.Wait()
}

func (c *Channel) acceptLoop(ctx context.Context, g *errgroup.Group, ln net.Listener, h Handler) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || c.closed.Load() {
				return
			}
			if c.allow(logAccept) {
				c.log.Warn().Err(err).Msg("accept failed")
			}
			continue
		}
		if !c.track(conn) {
			conn.Close()
			return
		}

		g.Go(func() error {
			defer c.untrack(conn)
			if err := c.serveConn(ctx, conn, h); err != nil && c.allow(logServe) {
				c.log.Warn().Err(err).Msg("ad-hoc connection failed")
			}
			return nil
		})
	}
}

// serveConn runs the read, dispatch, write loop for one connection. The
// connection's buffer is leased for the lifetime of the loop.
func (c *Channel) serveConn(ctx context.Context, conn net.Conn, h Handler) error {
	l := c.leases[roleServe].lease()
	defer l.Release()

	var cache map[Tag]Request
	if c.opts.persistent {
		cache = make(map[Tag]Request)
	}

	for {
		tag, body, err := readFrame(conn, l.Buf)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || c.closed.Load() {
				return nil
			}
			conn.Close()
			if errors.Is(err, ErrMalformed) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrDisconnected, err)
		}

		req := c.newRequest(cache, tag)
		if err := req.ConsumeWire(body); err != nil {
			conn.Close()
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		c.served.Add(1)

		obs := c.opts.observer
		if obs != nil {
			obs.ObserveRequest(c.name, req)
		}

		resp := h.Handle(ctx, req)
		if resp == nil {
			panic(&ProtocolError{Channel: c.name, Want: req.ResponseTag(), Reason: "handler returned no response"})
		}
		if want, got := req.ResponseTag(), resp.Tag(); want != got {
			panic(&ProtocolError{Channel: c.name, Want: want, Got: got, Reason: "handler returned the wrong response kind"})
		}

		if obs != nil {
			obs.ObserveResponse(c.name, req, resp)
		}

		if err := writeFrame(conn, l.Buf, resp); err != nil {
			if c.closed.Load() {
				return nil
			}
			conn.Close()
			return fmt.Errorf("%w: %v", ErrDisconnected, err)
		}
	}
}

func (c *Channel) newRequest(cache map[Tag]Request, tag Tag) Request {
	if req, ok := cache[tag]; ok {
		return req
	}
	req := c.opts.union.NewRequest(tag)
	if req == nil {
		panic(&ProtocolError{Channel: c.name, Got: tag, Reason: "unknown request kind"})
	}
	if cache != nil {
		cache[tag] = req
	}
	return req
}

// Close closes every socket owned by the channel, which aborts all blocked
// reads and writes. It is safe to call from any goroutine, more than once.
func (c *Channel) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.connected.Store(false)
	c.cancel()

	c.connMu.Lock()
	conns, ln := c.conns, c.acceptor
	c.conns, c.acceptor = nil, nil
	c.connMu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	for conn := range conns {
		conn.Close()
	}
	return err
}

// Stats returns the channel's counters
func (c *Channel) Stats() ChannelStats {
	c.connMu.Lock()
	open := len(c.conns)
	c.connMu.Unlock()

	return ChannelStats{
		Name:      c.name,
		Endpoint:  c.endpoint,
		Listen:    c.listen,
		Connected: c.connected.Load(),
		Serving:   c.serving.Load(),
		Open:      open,
		Sent:      c.sent.Load(),
		Served:    c.served.Load(),
		AdHoc:     c.adHoc.Load(),
	}
}

func (c *Channel) track(conn net.Conn) bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.closed.Load() {
		return false
	}
	c.conns[conn] = struct{}{}
	return true
}

func (c *Channel) untrack(conn net.Conn) {
	c.connMu.Lock()
	if c.conns != nil {
		delete(c.conns, conn)
	}
	c.connMu.Unlock()
	conn.Close()
}

func (c *Channel) setAcceptor(ln net.Listener) bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.closed.Load() {
		return false
	}
	c.acceptor = ln
	return true
}

func (c *Channel) clearAcceptor(ln net.Listener) {
	c.connMu.Lock()
	if c.acceptor == ln {
		c.acceptor = nil
	}
	c.connMu.Unlock()
}

func (c *Channel) allow(category string) bool {
	_, ok := c.limiter.Allow(category)
	return ok
}
