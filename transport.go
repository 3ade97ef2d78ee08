// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"syscall"
	"time"
)

// Transport types
const (
	TransportUnix = "unix" // Unix domain stream sockets, default
)

// DefaultTransport is the default transport type
const DefaultTransport = TransportUnix

type dialFunc func(ctx context.Context, endpoint string) (net.Conn, error)
type listenFunc func(endpoint string) (net.Listener, error)

type transport struct {
	dial   dialFunc
	listen listenFunc
}

var (
	transportsMu sync.RWMutex
	transports   = map[string]transport{
		TransportUnix: {dialUnix, listenUnix},
	}
)

// RegisterTransport registers a named transport. Registering an existing name
// replaces it.
func RegisterTransport(name string, dial func(ctx context.Context, endpoint string) (net.Conn, error), listen func(endpoint string) (net.Listener, error)) {
	transportsMu.Lock()
	defer transportsMu.Unlock()
	transports[name] = transport{dial, listen}
}

// AvailableTransports returns list of available transport types
func AvailableTransports() []string {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	result := make([]string, 0, len(transports))
	for name := range transports {
		result = append(result, name)
	}
	return result
}

// HasTransport checks if a transport is available
func HasTransport(name string) bool {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	_, ok := transports[name]
	return ok
}

func lookupTransport(name string) (transport, error) {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	t, ok := transports[name]
	if !ok {
		return transport{}, fmt.Errorf("%w: %s", ErrUnknownTransport, name)
	}
	return t, nil
}

const (
	dialRetryBase = time.Millisecond
	dialRetryMax  = 50 * time.Millisecond
)

// dialUnix connects to a unix socket endpoint. The peer may not have bound
// the endpoint yet, so missing or refusing endpoints are retried until ctx
// is done.
func dialUnix(ctx context.Context, endpoint string) (net.Conn, error) {
	var d net.Dialer
	wait := dialRetryBase
	for {
		conn, err := d.DialContext(ctx, "unix", endpoint)
		if err == nil {
			return conn, nil
		}
		if !errors.Is(err, syscall.ENOENT) && !errors.Is(err, syscall.ECONNREFUSED) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(wait):
		}
		if wait *= 2; wait > dialRetryMax {
			wait = dialRetryMax
		}
	}
}

// listenUnix binds a unix socket endpoint, replacing a stale socket file. The
// file is unlinked again when the listener is closed.
func listenUnix(endpoint string) (net.Listener, error) {
	if err := os.Remove(endpoint); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return net.Listen("unix", endpoint)
}
