// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	rpc "github.com/luxfi/vst3rpc"
	"github.com/luxfi/vst3rpc/vst3"
)

// Bridge is the remote end: it owns the real plugin objects, serves the
// native host's control calls and sends callbacks.
type Bridge struct {
	factory Factory
	reg     *rpc.Registry
	log     zerolog.Logger

	// lastID is the most recently minted instance id
	lastID atomic.Uint64

	mu        sync.Mutex
	instances map[vst3.InstanceID]*instance
}

// NewBridge creates a bridge dialing the endpoints in baseDir and creating
// objects with factory
func NewBridge(baseDir string, factory Factory, opts ...Option) (*Bridge, error) {
	o := options{log: zerolog.Nop(), firstID: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.firstID == 0 {
		o.firstID = 1
	}
	log := o.log.With().Str("side", "remote").Logger()

	chOpts := []rpc.ChannelOption{rpc.WithLogger(log)}
	if o.observer != nil {
		chOpts = append(chOpts, rpc.WithObserver(o.observer))
	}
	reg, err := rpc.NewRegistry(baseDir, false,
		rpc.WithControlOptions(append(chOpts, rpc.WithUnion(vst3.ControlUnion))...),
		rpc.WithCallbackOptions(chOpts...),
		rpc.WithInstanceOptions(append(chOpts, rpc.WithUnion(vst3.InstanceUnion))...),
		rpc.WithRegistryLogger(log),
	)
	if err != nil {
		return nil, err
	}

	b := &Bridge{
		factory:   factory,
		reg:       reg,
		log:       log,
		instances: make(map[vst3.InstanceID]*instance),
	}
	b.lastID.Store(o.firstID - 1)
	return b, nil
}

// Registry returns the bridge's channels
func (b *Bridge) Registry() *rpc.Registry {
	return b.reg
}

// Run connects to the native host and serves control calls until the host
// disconnects, the bridge is closed or ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.reg.Connect(ctx); err != nil {
		return err
	}
	b.log.Debug().Str("dir", b.reg.BaseDir()).Msg("connected to host")

	err := b.reg.Control.Serve(ctx, rpc.HandlerFunc(b.handleControl))
	if errors.Is(err, rpc.ErrClosed) {
		return nil
	}
	return err
}

// Close closes every channel and drops every object
func (b *Bridge) Close() error {
	b.mu.Lock()
	clear(b.instances)
	b.mu.Unlock()
	return b.reg.Close()
}

// Instances returns the ids of the live objects in ascending order
func (b *Bridge) Instances() []vst3.InstanceID {
	b.mu.Lock()
	ids := make([]vst3.InstanceID, 0, len(b.instances))
	for id := range b.instances {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	slices.Sort(ids)
	return ids
}

func (b *Bridge) instance(id vst3.InstanceID) *instance {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.instances[id]
}

func (b *Bridge) add(inst *instance) {
	b.mu.Lock()
	b.instances[inst.id] = inst
	b.mu.Unlock()
}

func (b *Bridge) remove(id vst3.InstanceID) bool {
	b.mu.Lock()
	_, ok := b.instances[id]
	delete(b.instances, id)
	b.mu.Unlock()

	b.reg.RemoveInstance(uint64(id))
	return ok
}

// instance is one live object. The scratch responses are only used by the
// instance's fast channel, which serves one call at a time.
type instance struct {
	id  vst3.InstanceID
	obj Object

	mu   sync.Mutex
	desc vst3.Descriptor

	result  vst3.ResultResponse
	count   vst3.CountResponse
	state   vst3.GetStateResponse
	process vst3.ProcessResponse
}

func (inst *instance) descriptor() vst3.Descriptor {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.desc
}

func (inst *instance) setDescriptor(desc vst3.Descriptor) {
	inst.mu.Lock()
	inst.desc = desc
	inst.mu.Unlock()
}

// setState applies state to the component if the object is one, otherwise
// to its edit controller. The fast channel decodes into the same request
// every call, so implementations get their own copy.
func (inst *instance) setState(ctx context.Context, state []byte) vst3.Result {
	state = slices.Clone(state)
	if comp, ok := lookup[Component](inst.obj, vst3.Component); ok {
		return comp.SetState(ctx, state)
	}
	if ctrl, ok := lookup[EditController](inst.obj, vst3.EditController); ok {
		return ctrl.SetState(ctx, state)
	}
	return vst3.ResultNoInterface
}

func (inst *instance) getState(ctx context.Context, resp *vst3.GetStateResponse) *vst3.GetStateResponse {
	if comp, ok := lookup[Component](inst.obj, vst3.Component); ok {
		resp.State, resp.Result = comp.GetState(ctx)
		return resp
	}
	if ctrl, ok := lookup[EditController](inst.obj, vst3.EditController); ok {
		resp.State, resp.Result = ctrl.GetState(ctx)
		return resp
	}
	resp.State, resp.Result = nil, vst3.ResultNoInterface
	return resp
}
