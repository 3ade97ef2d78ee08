// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vst3

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogue(t *testing.T) {
	all := Catalogue()
	require.Len(t, all, 22)

	seen := make(map[string]bool)
	for i, c := range all {
		assert.Equal(t, Capability(i), c)
		name := c.String()
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
		assert.Equal(t, byte('I'), name[0])
	}
	assert.Equal(t, "Capability(22)", NumCapabilities.String())
	assert.False(t, NumCapabilities.Valid())
}

func TestParseCapability(t *testing.T) {
	for _, in := range []string{"IEditController", "EditController", "ieditcontroller"} {
		c, ok := ParseCapability(in)
		require.True(t, ok, in)
		assert.Equal(t, EditController, c)
	}
	_, ok := ParseCapability("IPlugView")
	assert.False(t, ok)
}

func TestCapabilitySet(t *testing.T) {
	s := NewCapabilitySet(Component, AudioProcessor, PluginBase)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has(Component))
	assert.False(t, s.Has(EditController))
	assert.False(t, s.Has(NumCapabilities))
	assert.Equal(t, []Capability{AudioProcessor, Component, PluginBase}, s.Slice())
	assert.Equal(t, "{IAudioProcessor,IComponent,IPluginBase}", s.String())

	s = s.Without(Component).With(NumCapabilities)
	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Has(Component))
}

func TestCapabilitySetRandom(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 200 {
		want := make(map[Capability]bool)
		var s CapabilitySet
		for _, c := range Catalogue() {
			if r.IntN(2) == 0 {
				want[c] = true
				s = s.With(c)
			}
		}
		for _, c := range Catalogue() {
			assert.Equal(t, want[c], s.Has(c), c.String())
		}
		assert.Equal(t, len(want), s.Len())
	}
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "kResultOk", ResultOK.String())
	assert.Equal(t, "kNoInterface", ResultNoInterface.String())
	assert.Equal(t, "Result(99)", Result(99).String())
	assert.Equal(t, "Result(-7)", Result(-7).String())
	assert.True(t, ResultOK.OK())
	assert.False(t, ResultFalse.OK())
}
