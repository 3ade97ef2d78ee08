// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
)

var (
	ErrInstanceExists = errors.New("rpc: instance channel already exists")
	ErrNoInstance     = errors.New("rpc: no instance channel")
)

// Endpoint file names inside a registry's base directory
const (
	ControlEndpoint  = "control.sock"
	CallbackEndpoint = "callback.sock"
)

// InstanceEndpoint returns the endpoint of the per-instance channel for id.
// Both peers derive it independently.
func InstanceEndpoint(baseDir string, id uint64) string {
	return filepath.Join(baseDir, "instance_"+strconv.FormatUint(id, 10)+".sock")
}

// Registry owns the two long lived channels, one per call direction, and the
// per-instance channels used for latency sensitive calls.
//
// The side constructed with listen set binds every endpoint and sends on
// Control; its peer dials and sends on Callback. Per-instance channels are
// bound by the serving peer (ListenInstance) and dialed by the sender
// (AddInstance).
type Registry struct {
	baseDir string
	listen  bool
	opts    registryOptions

	// Control carries host to remote calls
	Control *Channel
	// Callback carries remote to host callbacks
	Callback *Channel

	mu        sync.Mutex
	instances map[uint64]*Channel
}

// RegistryStats is a point in time view of every channel in a registry
type RegistryStats struct {
	BaseDir   string         `json:"baseDir"`
	Control   ChannelStats   `json:"control"`
	Callback  ChannelStats   `json:"callback"`
	Instances []ChannelStats `json:"instances"`
}

// NewRegistry creates the channels for baseDir. Nothing is connected until
// Connect is called.
func NewRegistry(baseDir string, listen bool, opts ...RegistryOption) (*Registry, error) {
	var o registryOptions
	for _, opt := range opts {
		opt(&o)
	}

	control, err := NewChannel(filepath.Join(baseDir, ControlEndpoint), listen, o.control...)
	if err != nil {
		return nil, err
	}
	callback, err := NewChannel(filepath.Join(baseDir, CallbackEndpoint), listen, o.callback...)
	if err != nil {
		return nil, err
	}

	return &Registry{
		baseDir:   baseDir,
		listen:    listen,
		opts:      o,
		Control:   control,
		Callback:  callback,
		instances: make(map[uint64]*Channel),
	}, nil
}

// BaseDir returns the directory holding the registry's endpoints
func (r *Registry) BaseDir() string {
	return r.baseDir
}

// Connect connects the control channel, then the callback channel. Both
// peers connect in the same order.
func (r *Registry) Connect(ctx context.Context) error {
	if r.listen {
		// bind both up front so the peer never races a missing endpoint
		if err := r.Control.Listen(); err != nil {
			return err
		}
		if err := r.Callback.Listen(); err != nil {
			return err
		}
	}
	if err := r.Control.Connect(ctx); err != nil {
		return fmt.Errorf("control: %w", err)
	}
	if err := r.Callback.Connect(ctx); err != nil {
		return fmt.Errorf("callback: %w", err)
	}
	return nil
}

// Close closes every channel. Any goroutine blocked on one of them is
// released with a disconnect error.
func (r *Registry) Close() error {
	err := errors.Join(r.Control.Close(), r.Callback.Close())

	r.mu.Lock()
	instances := r.instances
	r.instances = make(map[uint64]*Channel)
	r.mu.Unlock()

	for _, ch := range instances {
		err = errors.Join(err, ch.Close())
	}
	return err
}

// AddInstance creates and connects the dedicated channel for id. It is used
// by the sending peer after the serving peer called ListenInstance.
func (r *Registry) AddInstance(ctx context.Context, id uint64) error {
	ch, err := r.reserve(id, false)
	if err != nil {
		return err
	}
	if err := ch.Connect(ctx); err != nil {
		r.drop(id, ch)
		return err
	}
	return nil
}

// ListenInstance binds the dedicated channel for id and returns as soon as
// the endpoint is bound, so the sending peer may connect right away. The
// primary connection is then accepted and served on a new goroutine until
// the channel is removed.
func (r *Registry) ListenInstance(id uint64, h Handler) error {
	ch, err := r.reserve(id, true)
	if err != nil {
		return err
	}
	if err := ch.Listen(); err != nil {
		r.drop(id, ch)
		return err
	}

	go func() {
		ctx := context.Background()
		if err := ch.Connect(ctx); err != nil {
			if !errors.Is(err, ErrClosed) {
				ch.log.Warn().Err(err).Uint64("instance", id).Msg("instance channel connect failed")
			}
			r.drop(id, ch)
			return
		}
		if err := ch.Serve(ctx, h); err != nil {
			ch.log.Warn().Err(err).Uint64("instance", id).Msg("instance channel stopped")
		}
	}()
	return nil
}

// RemoveInstance closes and forgets the channel for id, reporting whether
// there was one
func (r *Registry) RemoveInstance(id uint64) bool {
	r.mu.Lock()
	ch, ok := r.instances[id]
	delete(r.instances, id)
	r.mu.Unlock()

	if ok {
		ch.Close()
	}
	return ok
}

// HasInstance reports whether a channel exists for id
func (r *Registry) HasInstance(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.instances[id]
	return ok
}

// Instances returns the ids with a live channel, in ascending order
func (r *Registry) Instances() []uint64 {
	r.mu.Lock()
	ids := make([]uint64, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	slices.Sort(ids)
	return ids
}

// SendInstance sends req over the dedicated channel of id. Calls for one
// instance are serialized, calls for different instances never wait on each
// other.
func (r *Registry) SendInstance(ctx context.Context, id uint64, req Request, resp Message) error {
	r.mu.Lock()
	ch, ok := r.instances[id]
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrNoInstance, id)
	}
	return ch.Send(ctx, req, resp)
}

// Stats returns the counters of every channel
func (r *Registry) Stats() RegistryStats {
	r.mu.Lock()
	chans := make([]*Channel, 0, len(r.instances))
	for _, ch := range r.instances {
		chans = append(chans, ch)
	}
	r.mu.Unlock()

	stats := RegistryStats{
		BaseDir:   r.baseDir,
		Control:   r.Control.Stats(),
		Callback:  r.Callback.Stats(),
		Instances: make([]ChannelStats, 0, len(chans)),
	}
	for _, ch := range chans {
		stats.Instances = append(stats.Instances, ch.Stats())
	}
	slices.SortFunc(stats.Instances, func(a, b ChannelStats) int {
		return compareEndpoints(a.Endpoint, b.Endpoint)
	})
	return stats
}

func compareEndpoints(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (r *Registry) reserve(id uint64, listen bool) (*Channel, error) {
	opts := append([]ChannelOption{WithAdHoc(false), WithPersistentRequests(true)}, r.opts.instance...)
	ch, err := NewChannel(InstanceEndpoint(r.baseDir, id), listen, opts...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[id]; ok {
		return nil, fmt.Errorf("%w: %d", ErrInstanceExists, id)
	}
	r.instances[id] = ch
	return ch, nil
}

// drop removes ch for id if it is still the registered channel
func (r *Registry) drop(id uint64, ch *Channel) {
	r.mu.Lock()
	if r.instances[id] == ch {
		delete(r.instances, id)
	}
	r.mu.Unlock()
	ch.Close()
}
