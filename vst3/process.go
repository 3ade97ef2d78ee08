// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vst3

import (
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/encoding/protowire"

	rpc "github.com/luxfi/vst3rpc"
)

// Process modes
const (
	ProcessModeRealtime int32 = iota
	ProcessModePrefetch
	ProcessModeOffline
)

// Sample sizes
const (
	SampleSize32 int32 = iota
	SampleSize64
)

// ProcessSetup configures an audio processor before activation
type ProcessSetup struct {
	ProcessMode        int32
	SymbolicSampleSize int32
	MaxSamplesPerBlock int32
	SampleRate         float64
}

func (s *ProcessSetup) AppendWire(b []byte) []byte {
	b = appendInt(b, 1, s.ProcessMode)
	b = appendInt(b, 2, s.SymbolicSampleSize)
	b = appendInt(b, 3, s.MaxSamplesPerBlock)
	return appendDouble(b, 4, s.SampleRate)
}

func (s *ProcessSetup) ConsumeWire(b []byte) error {
	*s = ProcessSetup{}
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch num {
		case 1:
			return consumeInt(num, typ, v, &s.ProcessMode)
		case 2:
			return consumeInt(num, typ, v, &s.SymbolicSampleSize)
		case 3:
			return consumeInt(num, typ, v, &s.MaxSamplesPerBlock)
		case 4:
			return consumeDouble(num, typ, v, &s.SampleRate)
		}
		return rpc.SkipField(num, typ, v)
	})
}

func (s *ProcessSetup) MarshalZerologObject(e *zerolog.Event) {
	e.Int32("mode", s.ProcessMode).
		Int32("sampleSize", s.SymbolicSampleSize).
		Int32("maxBlock", s.MaxSamplesPerBlock).
		Float64("sampleRate", s.SampleRate)
}

// ProcessData is one block of audio. Inputs holds one slice of NumSamples
// samples per input channel. Outputs receives the processed block and is
// sized by the processor to OutputChannels channels.
type ProcessData struct {
	NumSamples     int32
	OutputChannels int32
	Inputs         [][]float32
	Outputs        [][]float32
}

// Reset empties the block while keeping every buffer for reuse
func (d *ProcessData) Reset() {
	d.NumSamples = 0
	d.OutputChannels = 0
	d.Inputs = d.Inputs[:0]
	d.Outputs = d.Outputs[:0]
}

// PrepareOutputs sizes Outputs to OutputChannels channels of NumSamples zeroed
// samples, reusing existing buffers
func (d *ProcessData) PrepareOutputs() {
	d.Outputs = resizeChannels(d.Outputs, int(d.OutputChannels), int(d.NumSamples))
}

func resizeChannels(chs [][]float32, n, samples int) [][]float32 {
	if n < 0 {
		n = 0
	}
	if samples < 0 {
		samples = 0
	}
	if cap(chs) < n {
		grown := make([][]float32, n)
		copy(grown, chs[:cap(chs)])
		chs = grown
	}
	chs = chs[:n]
	for i, ch := range chs {
		if cap(ch) < samples {
			ch = make([]float32, samples)
		} else {
			ch = ch[:samples]
			clear(ch)
		}
		chs[i] = ch
	}
	return chs
}

// Process runs one audio block on the remote processor. Outputs of Data are
// not sent; the processor fills them in ProcessResponse.
type Process struct {
	InstanceID
	Data ProcessData
}

func (*Process) Tag() rpc.Tag         { return TagProcess }
func (*Process) ResponseTag() rpc.Tag { return TagProcessResponse }

func (m *Process) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, m.InstanceID)
	b = appendInt(b, 2, m.Data.NumSamples)
	b = appendInt(b, 3, m.Data.OutputChannels)
	for _, ch := range m.Data.Inputs {
		b = appendSamples(b, 4, ch)
	}
	return b
}

func (m *Process) ConsumeWire(b []byte) error {
	m.InstanceID = 0
	m.Data.Reset()
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch num {
		case 1:
			return consumeUint(num, typ, v, &m.InstanceID)
		case 2:
			return consumeInt(num, typ, v, &m.Data.NumSamples)
		case 3:
			return consumeInt(num, typ, v, &m.Data.OutputChannels)
		case 4:
			return consumeSamples(num, typ, v, &m.Data.Inputs)
		}
		return rpc.SkipField(num, typ, v)
	})
}

// ProcessResponse carries the processed output channels
type ProcessResponse struct {
	Result  Result
	Outputs [][]float32
}

func (*ProcessResponse) Tag() rpc.Tag { return TagProcessResponse }

func (m *ProcessResponse) AppendWire(b []byte) []byte {
	b = appendInt(b, 1, m.Result)
	for _, ch := range m.Outputs {
		b = appendSamples(b, 2, ch)
	}
	return b
}

func (m *ProcessResponse) ConsumeWire(b []byte) error {
	m.Result = 0
	m.Outputs = m.Outputs[:0]
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch num {
		case 1:
			return consumeInt(num, typ, v, &m.Result)
		case 2:
			return consumeSamples(num, typ, v, &m.Outputs)
		}
		return rpc.SkipField(num, typ, v)
	})
}
