// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	rpc "github.com/luxfi/vst3rpc"
	"github.com/luxfi/vst3rpc/vst3"
)

var ErrDestroyed = errors.New("proxy: object destroyed")

// Proxy stands in for one remote object. It answers capability queries from
// the object's descriptor and routes every operation to the remote side.
//
// The capability table is immutable once published; re-discovery after
// Initialize builds a new one and swaps it in whole, so readers never see a
// half updated set.
type Proxy struct {
	b  *Bridge
	id vst3.InstanceID

	table atomic.Pointer[facetTable]
	// initMu serializes table replacement
	initMu sync.Mutex

	refs         atomic.Int32
	destroyed    atomic.Bool
	destructOnce sync.Once
	destructErr  error

	// processMu guards the reusable process request and response
	processMu   sync.Mutex
	process     vst3.Process
	processResp vst3.ProcessResponse
}

type facetTable struct {
	desc vst3.Descriptor
	// fast is set once the instance channel is connected
	fast   bool
	facets [vst3.NumCapabilities]Facet
}

func newProxy(b *Bridge, desc vst3.Descriptor, fast bool) *Proxy {
	p := &Proxy{b: b, id: desc.InstanceID}
	p.refs.Store(1)
	p.table.Store(p.buildTable(desc, fast))
	return p
}

func (p *Proxy) buildTable(desc vst3.Descriptor, fast bool) *facetTable {
	t := &facetTable{desc: desc, fast: fast}
	for _, c := range vst3.Catalogue() {
		base := facet{p: p, c: c, supported: desc.Has(c)}
		switch c {
		case vst3.PluginBase:
			t.facets[c] = &PluginBase{base}
		case vst3.Component:
			t.facets[c] = &Component{base}
		case vst3.AudioProcessor:
			t.facets[c] = &AudioProcessor{base}
		case vst3.EditController:
			t.facets[c] = &EditController{base}
		case vst3.ConnectionPoint:
			t.facets[c] = &ConnectionPoint{base}
		default:
			t.facets[c] = &base
		}
	}
	return t
}

// ID returns the remote instance id
func (p *Proxy) ID() vst3.InstanceID {
	return p.id
}

// Query returns the facet for c if the remote object supports it
func (p *Proxy) Query(c vst3.Capability) (Facet, bool) {
	if !c.Valid() {
		return nil, false
	}
	f := p.table.Load().facets[c]
	if !f.Supported() {
		return nil, false
	}
	return f, true
}

// Descriptor returns the descriptor the current capability table was built
// from
func (p *Proxy) Descriptor() vst3.Descriptor {
	return p.table.Load().desc
}

// Supported returns the current capability set
func (p *Proxy) Supported() vst3.CapabilitySet {
	return p.table.Load().desc.Supported
}

// PluginBase returns the plugin base facet, inert if unsupported
func (p *Proxy) PluginBase() *PluginBase {
	return p.table.Load().facets[vst3.PluginBase].(*PluginBase)
}

// Component returns the component facet, inert if unsupported
func (p *Proxy) Component() *Component {
	return p.table.Load().facets[vst3.Component].(*Component)
}

// AudioProcessor returns the audio processor facet, inert if unsupported
func (p *Proxy) AudioProcessor() *AudioProcessor {
	return p.table.Load().facets[vst3.AudioProcessor].(*AudioProcessor)
}

// EditController returns the edit controller facet, inert if unsupported
func (p *Proxy) EditController() *EditController {
	return p.table.Load().facets[vst3.EditController].(*EditController)
}

// ConnectionPoint returns the connection point facet, inert if unsupported
func (p *Proxy) ConnectionPoint() *ConnectionPoint {
	return p.table.Load().facets[vst3.ConnectionPoint].(*ConnectionPoint)
}

// AddRef adds a reference and returns the new count. A destroyed proxy
// cannot be revived.
func (p *Proxy) AddRef() int32 {
	for {
		n := p.refs.Load()
		if n <= 0 {
			return 0
		}
		if p.refs.CompareAndSwap(n, n+1) {
			return n + 1
		}
	}
}

// Release drops a reference. Dropping the last one destroys the remote
// object before Release returns.
func (p *Proxy) Release(ctx context.Context) (int32, error) {
	for {
		n := p.refs.Load()
		if n <= 0 {
			return 0, ErrDestroyed
		}
		if !p.refs.CompareAndSwap(n, n-1) {
			continue
		}
		if n > 1 {
			return n - 1, nil
		}
		return 0, p.destroy(ctx)
	}
}

// destroy tears down the fast channel and sends Destruct, exactly once
func (p *Proxy) destroy(ctx context.Context) error {
	p.destructOnce.Do(func() {
		p.destroyed.Store(true)
		p.b.setHandler(p.id, nil)
		p.b.reg.RemoveInstance(uint64(p.id))

		var ack vst3.Ack
		if err := p.b.reg.Control.Send(ctx, &vst3.Destruct{InstanceID: p.id}, &ack); err != nil {
			p.destructErr = fmt.Errorf("destruct %d: %w", p.id, err)
		}
		p.b.log.Debug().Uint64("instance", uint64(p.id)).Msg("destroyed instance")
	})
	return p.destructErr
}

// Destroyed reports whether the remote object has been destroyed
func (p *Proxy) Destroyed() bool {
	return p.destroyed.Load()
}

// rediscover publishes a capability table for desc, connecting the fast
// channel first if the object newly needs one. Callers hold initMu.
func (p *Proxy) rediscover(ctx context.Context, desc vst3.Descriptor) error {
	cur := p.table.Load()
	fast := cur.fast
	if !fast && desc.NeedsInstanceChannel() {
		if err := p.b.reg.AddInstance(ctx, uint64(p.id)); err != nil {
			return fmt.Errorf("instance channel %d: %w", p.id, err)
		}
		fast = true
	}
	p.table.Store(p.buildTable(desc, fast))

	if cur.desc.Supported != desc.Supported {
		p.b.log.Debug().
			Uint64("instance", uint64(p.id)).
			Stringer("before", cur.desc.Supported).
			Stringer("after", desc.Supported).
			Msg("capabilities changed")
	}
	return nil
}

// sendControl sends a call bound to this object over the control channel
func (p *Proxy) sendControl(ctx context.Context, req rpc.Request, resp rpc.Message) error {
	if p.destroyed.Load() {
		return ErrDestroyed
	}
	return p.b.reg.Control.Send(ctx, req, resp)
}

// sendInstance sends a latency sensitive call over the fast channel
func (p *Proxy) sendInstance(ctx context.Context, req rpc.Request, resp rpc.Message) error {
	if p.destroyed.Load() {
		return ErrDestroyed
	}
	return p.b.reg.SendInstance(ctx, uint64(p.id), req, resp)
}

// sendState picks the fast channel when the object has one
func (p *Proxy) sendState(ctx context.Context, req rpc.Request, resp rpc.Message) error {
	if p.table.Load().fast {
		return p.sendInstance(ctx, req, resp)
	}
	return p.sendControl(ctx, req, resp)
}
