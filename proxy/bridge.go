// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	rpc "github.com/luxfi/vst3rpc"
	"github.com/luxfi/vst3rpc/inspect"
	"github.com/luxfi/vst3rpc/vst3"
)

// Bridge is the native end of a plugin process. It binds every endpoint in
// its directory, sends control and instance calls, and answers the plugin's
// callbacks.
type Bridge struct {
	reg  *rpc.Registry
	log  zerolog.Logger
	opts options

	supervisor *inspect.Supervisor

	mu       sync.Mutex
	handlers map[vst3.InstanceID]vst3.ComponentHandler

	// ctx bounds callback serving and is cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc

	started   atomic.Bool
	serveDone chan struct{}
}

// NewBridge creates a bridge for the endpoints in baseDir. The remote process
// may be started as soon as Connect is running.
func NewBridge(baseDir string, opts ...Option) (*Bridge, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log.With().Str("side", "native").Logger()

	chOpts := []rpc.ChannelOption{rpc.WithLogger(log)}
	if o.observer != nil {
		chOpts = append(chOpts, rpc.WithObserver(o.observer))
	}
	reg, err := rpc.NewRegistry(baseDir, true,
		rpc.WithControlOptions(chOpts...),
		rpc.WithCallbackOptions(append(chOpts, rpc.WithUnion(vst3.CallbackUnion))...),
		rpc.WithInstanceOptions(chOpts...),
		rpc.WithRegistryLogger(log),
	)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		ctx:       ctx,
		cancel:    cancel,
		reg:       reg,
		log:       log,
		opts:      o,
		handlers:  make(map[vst3.InstanceID]vst3.ComponentHandler),
		serveDone: make(chan struct{}),
	}
	if o.inspect {
		if b.supervisor, err = inspect.NewSupervisor(baseDir, reg, log); err != nil {
			cancel()
			return nil, err
		}
	}
	return b, nil
}

// Registry returns the bridge's channels
func (b *Bridge) Registry() *rpc.Registry {
	return b.reg
}

// Connect waits for the remote process to connect, giving up when ctx is
// done. Callbacks are then answered in the background until the bridge is
// closed.
func (b *Bridge) Connect(ctx context.Context) error {
	if b.supervisor != nil {
		if err := b.supervisor.Start(); err != nil {
			return err
		}
	}
	if err := b.reg.Connect(ctx); err != nil {
		return err
	}
	b.setHealth(true)

	b.started.Store(true)
	go func() {
		defer close(b.serveDone)
		err := b.reg.Callback.Serve(b.ctx, rpc.HandlerFunc(b.handleCallback))
		if err != nil && !errors.Is(err, rpc.ErrClosed) {
			b.log.Warn().Err(err).Msg("callback channel stopped")
		}
		b.setHealth(false)
	}()
	return nil
}

// Factory returns the proxy for the remote plugin factory
func (b *Bridge) Factory() *Factory {
	return &Factory{b: b}
}

// Close closes every channel and waits for callback handling to stop
func (b *Bridge) Close() error {
	b.cancel()
	err := b.reg.Close()
	if b.started.Load() {
		<-b.serveDone
	}
	if b.supervisor != nil {
		err = errors.Join(err, b.supervisor.Close())
	}
	return err
}

func (b *Bridge) setHealth(serving bool) {
	if b.supervisor == nil {
		return
	}
	b.supervisor.Health.SetServing(inspect.ServiceControl, serving)
	b.supervisor.Health.SetServing(inspect.ServiceCallback, serving)
}

func (b *Bridge) setHandler(id vst3.InstanceID, h vst3.ComponentHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if h == nil {
		delete(b.handlers, id)
		return
	}
	b.handlers[id] = h
}

func (b *Bridge) handler(id vst3.InstanceID) vst3.ComponentHandler {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handlers[id]
}
