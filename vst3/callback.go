// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vst3

import (
	"context"

	rpc "github.com/luxfi/vst3rpc"
)

// ComponentHandler receives parameter edits and restart requests from an
// edit controller. The native host supplies one per controller; the remote
// side reaches it through the callback channel.
type ComponentHandler interface {
	BeginEdit(ctx context.Context, param uint32) Result
	PerformEdit(ctx context.Context, param uint32, value float64) Result
	EndEdit(ctx context.Context, param uint32) Result
	RestartComponent(ctx context.Context, flags int32) Result
}

// Restart flags
const (
	RestartReloadComponent    int32 = 1 << 0
	RestartIoChanged          int32 = 1 << 1
	RestartParamValuesChanged int32 = 1 << 2
	RestartLatencyChanged     int32 = 1 << 3
	RestartParamTitlesChanged int32 = 1 << 4
)

// GetHostName asks the native host for its name
type GetHostName struct{}

func (*GetHostName) Tag() rpc.Tag               { return TagGetHostName }
func (*GetHostName) ResponseTag() rpc.Tag       { return TagStringResponse }
func (*GetHostName) AppendWire(b []byte) []byte { return b }
func (*GetHostName) ConsumeWire(b []byte) error {
	return rpc.ConsumeFields(b, rpc.SkipField)
}

type RestartComponent struct {
	InstanceID
	Flags int32
}

func (*RestartComponent) Tag() rpc.Tag         { return TagRestartComponent }
func (*RestartComponent) ResponseTag() rpc.Tag { return TagResultResponse }

func (m *RestartComponent) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, m.InstanceID)
	return appendUint(b, 2, uint32(m.Flags))
}

func (m *RestartComponent) ConsumeWire(b []byte) error {
	var flags uint32
	if err := consumeParam(b, &m.InstanceID, &flags, nil); err != nil {
		return err
	}
	m.Flags = int32(flags)
	return nil
}

type BeginEdit struct {
	InstanceID
	ParamID uint32
}

func (*BeginEdit) Tag() rpc.Tag         { return TagBeginEdit }
func (*BeginEdit) ResponseTag() rpc.Tag { return TagResultResponse }

func (m *BeginEdit) AppendWire(b []byte) []byte {
	return appendParam(b, m.InstanceID, m.ParamID, 0)
}

func (m *BeginEdit) ConsumeWire(b []byte) error {
	return consumeParam(b, &m.InstanceID, &m.ParamID, nil)
}

type PerformEdit struct {
	InstanceID
	ParamID uint32
	Value   float64
}

func (*PerformEdit) Tag() rpc.Tag         { return TagPerformEdit }
func (*PerformEdit) ResponseTag() rpc.Tag { return TagResultResponse }

func (m *PerformEdit) AppendWire(b []byte) []byte {
	return appendParam(b, m.InstanceID, m.ParamID, m.Value)
}

func (m *PerformEdit) ConsumeWire(b []byte) error {
	return consumeParam(b, &m.InstanceID, &m.ParamID, &m.Value)
}

type EndEdit struct {
	InstanceID
	ParamID uint32
}

func (*EndEdit) Tag() rpc.Tag         { return TagEndEdit }
func (*EndEdit) ResponseTag() rpc.Tag { return TagResultResponse }

func (m *EndEdit) AppendWire(b []byte) []byte {
	return appendParam(b, m.InstanceID, m.ParamID, 0)
}

func (m *EndEdit) ConsumeWire(b []byte) error {
	return consumeParam(b, &m.InstanceID, &m.ParamID, nil)
}
