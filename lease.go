// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import "sync"

// role distinguishes the buffers a channel hands out for sending from the
// ones its serving connections hold for their whole lifetime.
type role uint8

const (
	roleSend role = iota
	roleServe
	numRoles
)

const defaultBufferSize = 256

// leasePool is a free list of buffers for one (channel, role) pair. Buffers
// that went back to the pool keep their grown capacity, so a steady stream
// of same sized calls stops allocating after the first one.
type leasePool struct {
	mu   sync.Mutex
	free []*Buffer
}

// Lease is exclusive use of a buffer by a single goroutine. It must be
// released exactly once and the buffer must not be used afterwards.
type Lease struct {
	pool *leasePool
	Buf  *Buffer
}

func (p *leasePool) lease() Lease {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		b := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return Lease{pool: p, Buf: b}
	}
	p.mu.Unlock()
	return Lease{pool: p, Buf: NewBuffer(defaultBufferSize)}
}

// Release hands the buffer back to its pool
func (l Lease) Release() {
	if l.pool == nil || l.Buf == nil {
		return
	}
	l.Buf.Reset()
	l.pool.mu.Lock()
	l.pool.free = append(l.pool.free, l.Buf)
	l.pool.mu.Unlock()
}

func (p *leasePool) idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
