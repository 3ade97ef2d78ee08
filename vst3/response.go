// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vst3

import (
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/encoding/protowire"

	rpc "github.com/luxfi/vst3rpc"
)

// Ack answers requests that have no result
type Ack struct{}

func (*Ack) Tag() rpc.Tag               { return TagAck }
func (*Ack) AppendWire(b []byte) []byte { return b }
func (*Ack) ConsumeWire(b []byte) error {
	return rpc.ConsumeFields(b, rpc.SkipField)
}

// ResultResponse carries a bare status code
type ResultResponse struct {
	Result Result
}

func (*ResultResponse) Tag() rpc.Tag { return TagResultResponse }

func (m *ResultResponse) AppendWire(b []byte) []byte {
	return appendInt(b, 1, m.Result)
}

func (m *ResultResponse) ConsumeWire(b []byte) error {
	*m = ResultResponse{}
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		if num == 1 {
			return consumeInt(num, typ, v, &m.Result)
		}
		return rpc.SkipField(num, typ, v)
	})
}

// ConstructResponse is either a failed result or the descriptor of the newly
// created object
type ConstructResponse struct {
	Result     Result
	Descriptor Descriptor
}

func (*ConstructResponse) Tag() rpc.Tag { return TagConstructResponse }

func (m *ConstructResponse) AppendWire(b []byte) []byte {
	b = appendInt(b, 1, m.Result)
	if m.Result.OK() {
		b = appendNested(b, 2, m.Descriptor.AppendWire)
	}
	return b
}

func (m *ConstructResponse) ConsumeWire(b []byte) error {
	*m = ConstructResponse{}
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch num {
		case 1:
			return consumeInt(num, typ, v, &m.Result)
		case 2:
			return consumeNested(num, typ, v, m.Descriptor.ConsumeWire)
		}
		return rpc.SkipField(num, typ, v)
	})
}

func (m *ConstructResponse) MarshalZerologObject(e *zerolog.Event) {
	e.Stringer("result", m.Result)
	if m.Result.OK() {
		e.Object("descriptor", &m.Descriptor)
	}
}

// InitializeResponse returns the initialization result together with a fresh
// descriptor, since initializing may change what the object supports
type InitializeResponse struct {
	Result     Result
	Descriptor Descriptor
}

func (*InitializeResponse) Tag() rpc.Tag { return TagInitializeResponse }

func (m *InitializeResponse) AppendWire(b []byte) []byte {
	b = appendInt(b, 1, m.Result)
	return appendNested(b, 2, m.Descriptor.AppendWire)
}

func (m *InitializeResponse) ConsumeWire(b []byte) error {
	*m = InitializeResponse{}
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch num {
		case 1:
			return consumeInt(num, typ, v, &m.Result)
		case 2:
			return consumeNested(num, typ, v, m.Descriptor.ConsumeWire)
		}
		return rpc.SkipField(num, typ, v)
	})
}

func (m *InitializeResponse) MarshalZerologObject(e *zerolog.Event) {
	e.Stringer("result", m.Result).Object("descriptor", &m.Descriptor)
}

// GetStateResponse carries a serialized state blob
type GetStateResponse struct {
	Result Result
	State  []byte
}

func (*GetStateResponse) Tag() rpc.Tag { return TagGetStateResponse }

func (m *GetStateResponse) AppendWire(b []byte) []byte {
	b = appendInt(b, 1, m.Result)
	return appendBytes(b, 2, m.State)
}

func (m *GetStateResponse) ConsumeWire(b []byte) error {
	m.Result = 0
	m.State = m.State[:0]
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch num {
		case 1:
			return consumeInt(num, typ, v, &m.Result)
		case 2:
			return consumeBytes(num, typ, v, &m.State)
		}
		return rpc.SkipField(num, typ, v)
	})
}

// CountResponse carries a non negative count: parameters, classes, or
// samples of latency or tail
type CountResponse struct {
	Count uint64
}

func (*CountResponse) Tag() rpc.Tag { return TagCountResponse }

func (m *CountResponse) AppendWire(b []byte) []byte {
	return appendUint(b, 1, m.Count)
}

func (m *CountResponse) ConsumeWire(b []byte) error {
	*m = CountResponse{}
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		if num == 1 {
			return consumeUint(num, typ, v, &m.Count)
		}
		return rpc.SkipField(num, typ, v)
	})
}

// ValueResponse carries a normalized parameter value
type ValueResponse struct {
	Value float64
}

func (*ValueResponse) Tag() rpc.Tag { return TagValueResponse }

func (m *ValueResponse) AppendWire(b []byte) []byte {
	return appendDouble(b, 1, m.Value)
}

func (m *ValueResponse) ConsumeWire(b []byte) error {
	*m = ValueResponse{}
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		if num == 1 {
			return consumeDouble(num, typ, v, &m.Value)
		}
		return rpc.SkipField(num, typ, v)
	})
}

// StringResponse carries a result and a string
type StringResponse struct {
	Result Result
	Value  string
}

func (*StringResponse) Tag() rpc.Tag { return TagStringResponse }

func (m *StringResponse) AppendWire(b []byte) []byte {
	b = appendInt(b, 1, m.Result)
	return appendString(b, 2, m.Value)
}

func (m *StringResponse) ConsumeWire(b []byte) error {
	*m = StringResponse{}
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch num {
		case 1:
			return consumeInt(num, typ, v, &m.Result)
		case 2:
			return consumeString(num, typ, v, &m.Value)
		}
		return rpc.SkipField(num, typ, v)
	})
}

// ClassInfo describes one class exported by the remote factory
type ClassInfo struct {
	CID         ClassID
	Cardinality int32
	Category    string
	Name        string
}

func (c *ClassInfo) AppendWire(b []byte) []byte {
	b = appendBytes(b, 1, c.CID[:])
	b = appendInt(b, 2, c.Cardinality)
	b = appendString(b, 3, c.Category)
	return appendString(b, 4, c.Name)
}

func (c *ClassInfo) ConsumeWire(b []byte) error {
	*c = ClassInfo{}
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch num {
		case 1:
			return consumeClassID(num, typ, v, &c.CID)
		case 2:
			return consumeInt(num, typ, v, &c.Cardinality)
		case 3:
			return consumeString(num, typ, v, &c.Category)
		case 4:
			return consumeString(num, typ, v, &c.Name)
		}
		return rpc.SkipField(num, typ, v)
	})
}

type ClassInfoResponse struct {
	Result Result
	Info   ClassInfo
}

func (*ClassInfoResponse) Tag() rpc.Tag { return TagClassInfoResponse }

func (m *ClassInfoResponse) AppendWire(b []byte) []byte {
	b = appendInt(b, 1, m.Result)
	if m.Result.OK() {
		b = appendNested(b, 2, m.Info.AppendWire)
	}
	return b
}

func (m *ClassInfoResponse) ConsumeWire(b []byte) error {
	*m = ClassInfoResponse{}
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch num {
		case 1:
			return consumeInt(num, typ, v, &m.Result)
		case 2:
			return consumeNested(num, typ, v, m.Info.ConsumeWire)
		}
		return rpc.SkipField(num, typ, v)
	})
}
