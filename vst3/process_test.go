// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vst3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func block(channels, samples int, base float32) [][]float32 {
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, samples)
		for i := range out[c] {
			out[c][i] = base + float32(c*samples+i)/1024
		}
	}
	return out
}

func TestProcessEncoding(t *testing.T) {
	req := Process{
		InstanceID: 7,
		Data: ProcessData{
			NumSamples:     64,
			OutputChannels: 2,
			Inputs:         block(2, 64, -0.5),
			Outputs:        block(2, 64, 0),
		},
	}

	var got Process
	require.NoError(t, got.ConsumeWire(req.AppendWire(nil)))
	assert.Equal(t, req.InstanceID, got.InstanceID)
	assert.Equal(t, req.Data.NumSamples, got.Data.NumSamples)
	assert.Equal(t, req.Data.OutputChannels, got.Data.OutputChannels)
	assert.Equal(t, req.Data.Inputs, got.Data.Inputs)
	// outputs travel in the response only
	assert.Empty(t, got.Data.Outputs)
}

func TestProcessDecodeReusesBuffers(t *testing.T) {
	wire := (&Process{InstanceID: 1, Data: ProcessData{NumSamples: 128, Inputs: block(2, 128, 0.25)}}).AppendWire(nil)

	var req Process
	require.NoError(t, req.ConsumeWire(wire))
	first := &req.Data.Inputs[1][0]

	allocs := testing.AllocsPerRun(100, func() {
		if err := req.ConsumeWire(wire); err != nil {
			panic(err)
		}
	})
	assert.Zero(t, allocs)
	assert.Same(t, first, &req.Data.Inputs[1][0])
}

func TestProcessResponseDecodeReusesBuffers(t *testing.T) {
	wire := (&ProcessResponse{Result: ResultOK, Outputs: block(2, 256, 1)}).AppendWire(nil)

	var resp ProcessResponse
	require.NoError(t, resp.ConsumeWire(wire))
	require.Len(t, resp.Outputs, 2)

	allocs := testing.AllocsPerRun(100, func() {
		if err := resp.ConsumeWire(wire); err != nil {
			panic(err)
		}
	})
	assert.Zero(t, allocs)
	assert.Equal(t, block(2, 256, 1), resp.Outputs)
}

func TestPrepareOutputs(t *testing.T) {
	d := ProcessData{NumSamples: 4, OutputChannels: 2}
	d.PrepareOutputs()
	require.Len(t, d.Outputs, 2)
	d.Outputs[0][0] = 1
	first := &d.Outputs[0][0]

	d.PrepareOutputs()
	assert.Same(t, first, &d.Outputs[0][0])
	assert.Zero(t, d.Outputs[0][0])

	d.NumSamples, d.OutputChannels = 8, 3
	d.PrepareOutputs()
	require.Len(t, d.Outputs, 3)
	for _, ch := range d.Outputs {
		assert.Len(t, ch, 8)
	}

	d.OutputChannels = 1
	d.PrepareOutputs()
	assert.Len(t, d.Outputs, 1)
}

func TestSetupProcessingEncoding(t *testing.T) {
	req := SetupProcessing{
		InstanceID: 3,
		Setup: ProcessSetup{
			ProcessMode:        ProcessModeOffline,
			SymbolicSampleSize: SampleSize32,
			MaxSamplesPerBlock: 1024,
			SampleRate:         48000,
		},
	}
	var got SetupProcessing
	require.NoError(t, got.ConsumeWire(req.AppendWire(nil)))
	assert.Equal(t, req, got)
}
