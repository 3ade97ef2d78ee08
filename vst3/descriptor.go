// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vst3

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/protobuf/encoding/protowire"

	rpc "github.com/luxfi/vst3rpc"
)

// InstanceID names a remote plugin object. IDs are minted by the remote side
// and never reused while the object lives.
type InstanceID uint64

// Instance returns id. Messages embed InstanceID so that every request bound
// to an object can be routed by it.
func (id InstanceID) Instance() InstanceID {
	return id
}

var errClassIDLength = errors.New("class id must be 16 bytes")

// ClassID is a 16 byte plugin class identifier
type ClassID [16]byte

// ParseClassID parses 32 hex digits, ignoring dashes
func ParseClassID(s string) (ClassID, error) {
	var cid ClassID
	raw, err := hex.DecodeString(strings.ReplaceAll(s, "-", ""))
	if err != nil {
		return cid, err
	}
	if len(raw) != len(cid) {
		return cid, errClassIDLength
	}
	copy(cid[:], raw)
	return cid, nil
}

func (c ClassID) String() string {
	return strings.ToUpper(hex.EncodeToString(c[:]))
}

// Descriptor is the snapshot of a remote object's supported capabilities plus
// the metadata a proxy needs to build itself around them.
type Descriptor struct {
	InstanceID InstanceID
	Supported  CapabilitySet

	// ControllerClassID is the class of the companion edit controller, when
	// the component reports one
	ControllerClassID    ClassID
	HasControllerClassID bool
}

// Has reports whether the object supports c
func (d *Descriptor) Has(c Capability) bool {
	return d.Supported.Has(c)
}

// NeedsInstanceChannel reports whether the object takes part in audio
// processing and so gets a dedicated fast channel
func (d *Descriptor) NeedsInstanceChannel() bool {
	return d.Has(Component) || d.Has(AudioProcessor)
}

func (d *Descriptor) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, d.InstanceID)
	b = appendUint(b, 2, d.Supported)
	if d.HasControllerClassID {
		b = appendBytes(b, 3, d.ControllerClassID[:])
	}
	return b
}

func (d *Descriptor) ConsumeWire(b []byte) error {
	*d = Descriptor{}
	return rpc.ConsumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch num {
		case 1:
			return consumeUint(num, typ, v, &d.InstanceID)
		case 2:
			return consumeUint(num, typ, v, &d.Supported)
		case 3:
			d.HasControllerClassID = true
			return consumeClassID(num, typ, v, &d.ControllerClassID)
		}
		return rpc.SkipField(num, typ, v)
	})
}

func (d *Descriptor) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("instance", uint64(d.InstanceID)).
		Stringer("supported", d.Supported)
	if d.HasControllerClassID {
		e.Stringer("controller", d.ControllerClassID)
	}
}
