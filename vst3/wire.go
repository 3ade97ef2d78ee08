// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vst3

import (
	"encoding/binary"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	rpc "github.com/luxfi/vst3rpc"
)

// Zero values are omitted on the wire; decoders reset the receiver first so
// absent fields read back as zero.

type varint interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

type sint interface {
	~int32 | ~int64
}

func appendUint[T varint](b []byte, num protowire.Number, v T) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendInt[T sint](b []byte, num protowire.Number, v T) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v)))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendSamples(b []byte, num protowire.Number, v []float32) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(len(v))*4)
	for _, s := range v {
		b = protowire.AppendFixed32(b, math.Float32bits(s))
	}
	return b
}

// appendNested appends a length delimited field whose body is produced by
// fn, shifting the body right once its size is known.
func appendNested(b []byte, num protowire.Number, fn func([]byte) []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	start := len(b)
	b = fn(b)
	n := len(b) - start
	size := protowire.SizeVarint(uint64(n))
	for range size {
		b = append(b, 0)
	}
	copy(b[start+size:], b[start:start+n])
	protowire.AppendVarint(b[start:start], uint64(n))
	return b
}

func consumeUint[T varint](num protowire.Number, typ protowire.Type, v []byte, dst *T) int {
	if typ != protowire.VarintType {
		return rpc.SkipField(num, typ, v)
	}
	x, n := protowire.ConsumeVarint(v)
	if n >= 0 {
		*dst = T(x)
	}
	return n
}

func consumeInt[T sint](num protowire.Number, typ protowire.Type, v []byte, dst *T) int {
	if typ != protowire.VarintType {
		return rpc.SkipField(num, typ, v)
	}
	x, n := protowire.ConsumeVarint(v)
	if n >= 0 {
		*dst = T(protowire.DecodeZigZag(x))
	}
	return n
}

func consumeBool(num protowire.Number, typ protowire.Type, v []byte, dst *bool) int {
	if typ != protowire.VarintType {
		return rpc.SkipField(num, typ, v)
	}
	x, n := protowire.ConsumeVarint(v)
	if n >= 0 {
		*dst = x != 0
	}
	return n
}

func consumeDouble(num protowire.Number, typ protowire.Type, v []byte, dst *float64) int {
	if typ != protowire.Fixed64Type {
		return rpc.SkipField(num, typ, v)
	}
	x, n := protowire.ConsumeFixed64(v)
	if n >= 0 {
		*dst = math.Float64frombits(x)
	}
	return n
}

// consumeBytes copies the field into dst, reusing its capacity. The frame
// buffer is recycled after decoding so the value must never alias it.
func consumeBytes(num protowire.Number, typ protowire.Type, v []byte, dst *[]byte) int {
	if typ != protowire.BytesType {
		return rpc.SkipField(num, typ, v)
	}
	x, n := protowire.ConsumeBytes(v)
	if n >= 0 {
		*dst = append((*dst)[:0], x...)
	}
	return n
}

func consumeString(num protowire.Number, typ protowire.Type, v []byte, dst *string) int {
	if typ != protowire.BytesType {
		return rpc.SkipField(num, typ, v)
	}
	x, n := protowire.ConsumeBytes(v)
	if n >= 0 {
		*dst = string(x)
	}
	return n
}

func consumeClassID(num protowire.Number, typ protowire.Type, v []byte, dst *ClassID) int {
	if typ != protowire.BytesType {
		return rpc.SkipField(num, typ, v)
	}
	x, n := protowire.ConsumeBytes(v)
	if n >= 0 {
		*dst = ClassID{}
		copy(dst[:], x)
	}
	return n
}

func consumeNested(num protowire.Number, typ protowire.Type, v []byte, fn func([]byte) error) int {
	if typ != protowire.BytesType {
		return rpc.SkipField(num, typ, v)
	}
	x, n := protowire.ConsumeBytes(v)
	if n < 0 {
		return n
	}
	if err := fn(x); err != nil {
		return errNested
	}
	return n
}

// errNested is reported for a malformed nested message. protowire maps any
// code it does not know to a generic parse error.
const errNested = -100

// consumeSamples appends one channel of samples to dst. Slots beyond len(dst)
// but within its capacity are reused along with their sample buffers.
func consumeSamples(num protowire.Number, typ protowire.Type, v []byte, dst *[][]float32) int {
	if typ != protowire.BytesType {
		return rpc.SkipField(num, typ, v)
	}
	raw, n := protowire.ConsumeBytes(v)
	if n < 0 {
		return n
	}
	i := len(*dst)
	if i < cap(*dst) {
		*dst = (*dst)[:i+1]
	} else {
		*dst = append(*dst, nil)
	}
	ch := (*dst)[i][:0]
	for j := 0; j+4 <= len(raw); j += 4 {
		ch = append(ch, math.Float32frombits(binary.LittleEndian.Uint32(raw[j:])))
	}
	(*dst)[i] = ch
	return n
}
