// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vst3

import (
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/encoding/protowire"

	rpc "github.com/luxfi/vst3rpc"
)

// Requests carried by per instance fast channels. SetState and GetState are
// shared with the control union.

type SetupProcessing struct {
	InstanceID
	Setup ProcessSetup
}

func (*SetupProcessing) Tag() rpc.Tag         { return TagSetupProcessing }
func (*SetupProcessing) ResponseTag() rpc.Tag { return TagResultResponse }

func (m *SetupProcessing) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, m.InstanceID)
	return appendNested(b, 2, m.Setup.AppendWire)
}

func (m *SetupProcessing) ConsumeWire(b []byte) error {
	*m = SetupProcessing{}
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch num {
		case 1:
			return consumeUint(num, typ, v, &m.InstanceID)
		case 2:
			return consumeNested(num, typ, v, m.Setup.ConsumeWire)
		}
		return rpc.SkipField(num, typ, v)
	})
}

func (m *SetupProcessing) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("instance", uint64(m.InstanceID)).Object("setup", &m.Setup)
}

// SetActive activates or deactivates the component
type SetActive struct {
	InstanceID
	State bool
}

func (*SetActive) Tag() rpc.Tag                 { return TagSetActive }
func (*SetActive) ResponseTag() rpc.Tag         { return TagResultResponse }
func (m *SetActive) AppendWire(b []byte) []byte { return appendFlag(b, m.InstanceID, m.State) }
func (m *SetActive) ConsumeWire(b []byte) error { return consumeFlag(b, &m.InstanceID, &m.State) }

// SetProcessing starts or stops processing
type SetProcessing struct {
	InstanceID
	State bool
}

func (*SetProcessing) Tag() rpc.Tag                 { return TagSetProcessing }
func (*SetProcessing) ResponseTag() rpc.Tag         { return TagResultResponse }
func (m *SetProcessing) AppendWire(b []byte) []byte { return appendFlag(b, m.InstanceID, m.State) }
func (m *SetProcessing) ConsumeWire(b []byte) error { return consumeFlag(b, &m.InstanceID, &m.State) }

type GetLatencySamples struct {
	InstanceID
}

func (*GetLatencySamples) Tag() rpc.Tag                 { return TagGetLatencySamples }
func (*GetLatencySamples) ResponseTag() rpc.Tag         { return TagCountResponse }
func (m *GetLatencySamples) AppendWire(b []byte) []byte { return appendID(b, m.InstanceID) }
func (m *GetLatencySamples) ConsumeWire(b []byte) error { return consumeID(b, &m.InstanceID) }

type GetTailSamples struct {
	InstanceID
}

func (*GetTailSamples) Tag() rpc.Tag                 { return TagGetTailSamples }
func (*GetTailSamples) ResponseTag() rpc.Tag         { return TagCountResponse }
func (m *GetTailSamples) AppendWire(b []byte) []byte { return appendID(b, m.InstanceID) }
func (m *GetTailSamples) ConsumeWire(b []byte) error { return consumeID(b, &m.InstanceID) }

func appendFlag(b []byte, id InstanceID, v bool) []byte {
	b = appendUint(b, 1, id)
	return appendBool(b, 2, v)
}

func consumeFlag(b []byte, id *InstanceID, state *bool) error {
	*id, *state = 0, false
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch num {
		case 1:
			return consumeUint(num, typ, v, id)
		case 2:
			return consumeBool(num, typ, v, state)
		}
		return rpc.SkipField(num, typ, v)
	})
}
