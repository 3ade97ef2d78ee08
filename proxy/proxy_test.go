// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/vst3rpc/vst3"
)

func detachedProxy(set vst3.CapabilitySet) *Proxy {
	b := &Bridge{log: zerolog.Nop(), handlers: make(map[vst3.InstanceID]vst3.ComponentHandler)}
	return newProxy(b, vst3.Descriptor{InstanceID: 1, Supported: set}, false)
}

func randomSet(r *rand.Rand) vst3.CapabilitySet {
	var s vst3.CapabilitySet
	for _, c := range vst3.Catalogue() {
		if r.IntN(2) == 0 {
			s = s.With(c)
		}
	}
	return s
}

func TestQueryMatchesDescriptor(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 7))
	for range 500 {
		set := randomSet(r)
		p := detachedProxy(set)

		for _, c := range vst3.Catalogue() {
			f, ok := p.Query(c)
			require.Equal(t, set.Has(c), ok, c.String())
			if ok {
				assert.Equal(t, c, f.Capability())
				assert.Same(t, p, f.Proxy())
			}
		}
		_, ok := p.Query(vst3.NumCapabilities)
		require.False(t, ok)

		assert.Equal(t, set.Has(vst3.PluginBase), p.PluginBase().Supported())
		assert.Equal(t, set.Has(vst3.Component), p.Component().Supported())
		assert.Equal(t, set.Has(vst3.AudioProcessor), p.AudioProcessor().Supported())
		assert.Equal(t, set.Has(vst3.EditController), p.EditController().Supported())
		assert.Equal(t, set.Has(vst3.ConnectionPoint), p.ConnectionPoint().Supported())
	}
}

func TestInertFacetsDoNotSend(t *testing.T) {
	// a detached proxy has no channels, so any send would fail
	p := detachedProxy(vst3.NewCapabilitySet(vst3.UnitInfo))
	ctx := context.Background()

	res, err := p.EditController().SetParamNormalized(ctx, 1, 0.5)
	require.NoError(t, err)
	assert.Equal(t, vst3.ResultNotImplemented, res)

	res, err = p.AudioProcessor().Process(ctx, &vst3.ProcessData{})
	require.NoError(t, err)
	assert.Equal(t, vst3.ResultNotImplemented, res)

	_, res, err = p.Component().GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, vst3.ResultNotImplemented, res)

	n, err := p.EditController().ParameterCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, ok := p.Component().ControllerClassID()
	assert.False(t, ok)
}

func TestTableSwapIsAtomic(t *testing.T) {
	a := vst3.NewCapabilitySet(vst3.PluginBase, vst3.EditController, vst3.UnitInfo)
	b := vst3.NewCapabilitySet(vst3.PluginBase, vst3.MidiMapping, vst3.ProgramListData, vst3.InfoListener)
	p := detachedProxy(a)
	ctx := context.Background()

	var stop atomic.Bool
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				table := p.table.Load()
				set := table.desc.Supported
				if set != a && set != b {
					t.Errorf("torn capability set %v", set)
					return
				}
				for _, c := range vst3.Catalogue() {
					if table.facets[c].Supported() != set.Has(c) {
						t.Errorf("facet %v disagrees with %v", c, set)
						return
					}
				}
			}
		}()
	}

	for i := range 2000 {
		next := a
		if i%2 == 0 {
			next = b
		}
		p.initMu.Lock()
		err := p.rediscover(ctx, vst3.Descriptor{InstanceID: 1, Supported: next})
		p.initMu.Unlock()
		require.NoError(t, err)
	}
	stop.Store(true)
	wg.Wait()
}

func TestAddRefRelease(t *testing.T) {
	p := detachedProxy(0)
	assert.Equal(t, int32(2), p.AddRef())
	assert.Equal(t, int32(3), p.AddRef())

	n, err := p.Release(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), n)
	assert.False(t, p.Destroyed())
}
