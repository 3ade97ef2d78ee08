// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vst3

import (
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/encoding/protowire"

	rpc "github.com/luxfi/vst3rpc"
)

// Construct asks the remote factory to create an object of class CID,
// queried for the Requested capability
type Construct struct {
	CID       ClassID
	Requested Capability
}

func (*Construct) Tag() rpc.Tag         { return TagConstruct }
func (*Construct) ResponseTag() rpc.Tag { return TagConstructResponse }

func (m *Construct) AppendWire(b []byte) []byte {
	b = appendBytes(b, 1, m.CID[:])
	return appendUint(b, 2, m.Requested)
}

func (m *Construct) ConsumeWire(b []byte) error {
	*m = Construct{}
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch num {
		case 1:
			return consumeClassID(num, typ, v, &m.CID)
		case 2:
			return consumeUint(num, typ, v, &m.Requested)
		}
		return rpc.SkipField(num, typ, v)
	})
}

func (m *Construct) MarshalZerologObject(e *zerolog.Event) {
	e.Stringer("cid", m.CID).Stringer("requested", m.Requested)
}

// Destruct drops the remote object. It is sent exactly once per instance.
type Destruct struct {
	InstanceID
}

func (*Destruct) Tag() rpc.Tag                 { return TagDestruct }
func (*Destruct) ResponseTag() rpc.Tag         { return TagAck }
func (m *Destruct) AppendWire(b []byte) []byte { return appendID(b, m.InstanceID) }
func (m *Destruct) ConsumeWire(b []byte) error { return consumeID(b, &m.InstanceID) }

func (m *Destruct) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("instance", uint64(m.InstanceID))
}

// Initialize initializes the remote object with a host context that calls
// back over the callback channel
type Initialize struct {
	InstanceID
}

func (*Initialize) Tag() rpc.Tag                 { return TagInitialize }
func (*Initialize) ResponseTag() rpc.Tag         { return TagInitializeResponse }
func (m *Initialize) AppendWire(b []byte) []byte { return appendID(b, m.InstanceID) }
func (m *Initialize) ConsumeWire(b []byte) error { return consumeID(b, &m.InstanceID) }

func (m *Initialize) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("instance", uint64(m.InstanceID))
}

type Terminate struct {
	InstanceID
}

func (*Terminate) Tag() rpc.Tag                 { return TagTerminate }
func (*Terminate) ResponseTag() rpc.Tag         { return TagResultResponse }
func (m *Terminate) AppendWire(b []byte) []byte { return appendID(b, m.InstanceID) }
func (m *Terminate) ConsumeWire(b []byte) error { return consumeID(b, &m.InstanceID) }

// SetState restores a state blob. The remote applies it to the component if
// the object has one, otherwise to the edit controller.
type SetState struct {
	InstanceID
	State []byte
}

func (*SetState) Tag() rpc.Tag         { return TagSetState }
func (*SetState) ResponseTag() rpc.Tag { return TagResultResponse }

func (m *SetState) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, m.InstanceID)
	return appendBytes(b, 2, m.State)
}

func (m *SetState) ConsumeWire(b []byte) error {
	return consumeIDAndBytes(b, &m.InstanceID, &m.State)
}

type GetState struct {
	InstanceID
}

func (*GetState) Tag() rpc.Tag                 { return TagGetState }
func (*GetState) ResponseTag() rpc.Tag         { return TagGetStateResponse }
func (m *GetState) AppendWire(b []byte) []byte { return appendID(b, m.InstanceID) }
func (m *GetState) ConsumeWire(b []byte) error { return consumeID(b, &m.InstanceID) }

// SetComponentState hands the component's state to its edit controller
type SetComponentState struct {
	InstanceID
	State []byte
}

func (*SetComponentState) Tag() rpc.Tag         { return TagSetComponentState }
func (*SetComponentState) ResponseTag() rpc.Tag { return TagResultResponse }

func (m *SetComponentState) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, m.InstanceID)
	return appendBytes(b, 2, m.State)
}

func (m *SetComponentState) ConsumeWire(b []byte) error {
	return consumeIDAndBytes(b, &m.InstanceID, &m.State)
}

// SetComponentHandler installs or clears the edit controller's handler. When
// Present, the remote routes handler calls back over the callback channel.
type SetComponentHandler struct {
	InstanceID
	Present bool
}

func (*SetComponentHandler) Tag() rpc.Tag         { return TagSetComponentHandler }
func (*SetComponentHandler) ResponseTag() rpc.Tag { return TagResultResponse }

func (m *SetComponentHandler) AppendWire(b []byte) []byte {
	return appendFlag(b, m.InstanceID, m.Present)
}

func (m *SetComponentHandler) ConsumeWire(b []byte) error {
	return consumeFlag(b, &m.InstanceID, &m.Present)
}

type GetParameterCount struct {
	InstanceID
}

func (*GetParameterCount) Tag() rpc.Tag                 { return TagGetParameterCount }
func (*GetParameterCount) ResponseTag() rpc.Tag         { return TagCountResponse }
func (m *GetParameterCount) AppendWire(b []byte) []byte { return appendID(b, m.InstanceID) }
func (m *GetParameterCount) ConsumeWire(b []byte) error { return consumeID(b, &m.InstanceID) }

type GetParamNormalized struct {
	InstanceID
	ParamID uint32
}

func (*GetParamNormalized) Tag() rpc.Tag         { return TagGetParamNormalized }
func (*GetParamNormalized) ResponseTag() rpc.Tag { return TagValueResponse }

func (m *GetParamNormalized) AppendWire(b []byte) []byte {
	return appendParam(b, m.InstanceID, m.ParamID, 0)
}

func (m *GetParamNormalized) ConsumeWire(b []byte) error {
	return consumeParam(b, &m.InstanceID, &m.ParamID, nil)
}

type SetParamNormalized struct {
	InstanceID
	ParamID uint32
	Value   float64
}

func (*SetParamNormalized) Tag() rpc.Tag         { return TagSetParamNormalized }
func (*SetParamNormalized) ResponseTag() rpc.Tag { return TagResultResponse }

func (m *SetParamNormalized) AppendWire(b []byte) []byte {
	return appendParam(b, m.InstanceID, m.ParamID, m.Value)
}

func (m *SetParamNormalized) ConsumeWire(b []byte) error {
	return consumeParam(b, &m.InstanceID, &m.ParamID, &m.Value)
}

// Connect joins two remote connection points, typically a component and its
// edit controller
type Connect struct {
	InstanceID
	Other InstanceID
}

func (*Connect) Tag() rpc.Tag         { return TagConnect }
func (*Connect) ResponseTag() rpc.Tag { return TagResultResponse }

func (m *Connect) AppendWire(b []byte) []byte {
	return appendPair(b, m.InstanceID, m.Other)
}

func (m *Connect) ConsumeWire(b []byte) error {
	return consumePair(b, &m.InstanceID, &m.Other)
}

type Disconnect struct {
	InstanceID
	Other InstanceID
}

func (*Disconnect) Tag() rpc.Tag         { return TagDisconnect }
func (*Disconnect) ResponseTag() rpc.Tag { return TagResultResponse }

func (m *Disconnect) AppendWire(b []byte) []byte {
	return appendPair(b, m.InstanceID, m.Other)
}

func (m *Disconnect) ConsumeWire(b []byte) error {
	return consumePair(b, &m.InstanceID, &m.Other)
}

type CountClasses struct{}

func (*CountClasses) Tag() rpc.Tag               { return TagCountClasses }
func (*CountClasses) ResponseTag() rpc.Tag       { return TagCountResponse }
func (*CountClasses) AppendWire(b []byte) []byte { return b }
func (*CountClasses) ConsumeWire(b []byte) error {
	return rpc.ConsumeFields(b, rpc.SkipField)
}

type GetClassInfo struct {
	Index int32
}

func (*GetClassInfo) Tag() rpc.Tag         { return TagGetClassInfo }
func (*GetClassInfo) ResponseTag() rpc.Tag { return TagClassInfoResponse }

func (m *GetClassInfo) AppendWire(b []byte) []byte {
	return appendInt(b, 1, m.Index)
}

func (m *GetClassInfo) ConsumeWire(b []byte) error {
	*m = GetClassInfo{}
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		if num == 1 {
			return consumeInt(num, typ, v, &m.Index)
		}
		return rpc.SkipField(num, typ, v)
	})
}

// shapes shared by many requests

func appendID(b []byte, id InstanceID) []byte {
	return appendUint(b, 1, id)
}

func consumeID(b []byte, id *InstanceID) error {
	*id = 0
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		if num == 1 {
			return consumeUint(num, typ, v, id)
		}
		return rpc.SkipField(num, typ, v)
	})
}

func consumeIDAndBytes(b []byte, id *InstanceID, dst *[]byte) error {
	*id = 0
	*dst = (*dst)[:0]
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch num {
		case 1:
			return consumeUint(num, typ, v, id)
		case 2:
			return consumeBytes(num, typ, v, dst)
		}
		return rpc.SkipField(num, typ, v)
	})
}

func appendPair(b []byte, id, other InstanceID) []byte {
	b = appendUint(b, 1, id)
	return appendUint(b, 2, other)
}

func consumePair(b []byte, id, other *InstanceID) error {
	*id, *other = 0, 0
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch num {
		case 1:
			return consumeUint(num, typ, v, id)
		case 2:
			return consumeUint(num, typ, v, other)
		}
		return rpc.SkipField(num, typ, v)
	})
}

func appendParam(b []byte, id InstanceID, param uint32, value float64) []byte {
	b = appendUint(b, 1, id)
	b = appendUint(b, 2, param)
	return appendDouble(b, 3, value)
}

// consumeParam decodes an instance, a parameter id and, when value is not
// nil, a normalized value
func consumeParam(b []byte, id *InstanceID, param *uint32, value *float64) error {
	*id, *param = 0, 0
	if value != nil {
		*value = 0
	}
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch {
		case num == 1:
			return consumeUint(num, typ, v, id)
		case num == 2:
			return consumeUint(num, typ, v, param)
		case num == 3 && value != nil:
			return consumeDouble(num, typ, v, value)
		}
		return rpc.SkipField(num, typ, v)
	})
}
