// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
)

// Connect establishes the primary connection. A listening channel binds its
// endpoint, accepts exactly one connection, unbinds and writes the handshake;
// a dialing channel connects (retrying until the peer is listening or ctx is
// done) and verifies the handshake.
func (c *Channel) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}

	var (
		conn net.Conn
		err  error
	)
	if c.listen {
		conn, err = c.acceptPrimary(ctx)
	} else {
		conn, err = c.dialPrimary(ctx)
	}
	if err != nil {
		return err
	}
	if !c.track(conn) {
		conn.Close()
		return ErrClosed
	}

	c.primaryMu.Lock()
	c.primary = conn
	c.primaryMu.Unlock()
	c.connected.Store(true)

	c.log.Debug().Bool("listen", c.listen).Msg("connected")
	return nil
}

// Listen binds the endpoint without waiting for the peer. The following
// Connect accepts on the bound endpoint. This lets a listening side signal
// readiness before it blocks.
func (c *Channel) Listen() error {
	if !c.listen {
		return errors.New("rpc: Listen on a dialing channel")
	}
	ln, err := c.tr.listen(c.endpoint)
	if err != nil {
		return fmt.Errorf("rpc: bind %s: %w", c.endpoint, err)
	}
	if !c.setAcceptor(ln) {
		ln.Close()
		return ErrClosed
	}
	return nil
}

func (c *Channel) acceptPrimary(ctx context.Context) (net.Conn, error) {
	c.connMu.Lock()
	ln := c.acceptor
	c.connMu.Unlock()

	if ln == nil {
		if err := c.Listen(); err != nil {
			return nil, err
		}
		c.connMu.Lock()
		ln = c.acceptor
		c.connMu.Unlock()
		if ln == nil {
			return nil, ErrClosed
		}
	}
	// the endpoint is only needed for the primary connection, the serving
	// side binds it again for ad-hoc connections
	defer func() {
		c.clearAcceptor(ln)
		ln.Close()
	}()

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	conn, err := ln.Accept()
	stop()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if c.closed.Load() {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("rpc: accept %s: %w", c.endpoint, err)
	}

	// unbind before the peer can observe the handshake
	c.clearAcceptor(ln)
	ln.Close()

	handshake := [1]byte{WireVersion}
	if _, err := conn.Write(handshake[:]); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	return conn, nil
}

func (c *Channel) dialPrimary(ctx context.Context) (net.Conn, error) {
	conn, err := c.tr.dial(ctx, c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("rpc: dial %s: %w", c.endpoint, err)
	}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	var handshake [1]byte
	_, err = io.ReadFull(conn, handshake[:])
	if !stop() {
		conn.Close()
		return nil, ctx.Err()
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if handshake[0] != WireVersion {
		conn.Close()
		return nil, fmt.Errorf("%w: peer wire version %d, want %d", ErrHandshake, handshake[0], WireVersion)
	}
	return conn, nil
}
