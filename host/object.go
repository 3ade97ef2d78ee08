// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"context"

	"github.com/luxfi/vst3rpc/vst3"
)

// Object is a real plugin object living in this process
type Object interface {
	// QueryInterface returns the implementation of c, if the object has one
	QueryInterface(c vst3.Capability) (any, bool)
}

// Factory creates plugin objects by class
type Factory interface {
	CountClasses() int
	ClassInfo(index int) (vst3.ClassInfo, bool)
	CreateInstance(cid vst3.ClassID, requested vst3.Capability) (Object, vst3.Result)
}

// HostApplication is the context handed to Initialize. Calls go back to the
// native host.
type HostApplication interface {
	Name(ctx context.Context) (string, vst3.Result)
}

type PluginBase interface {
	Initialize(ctx context.Context, host HostApplication) vst3.Result
	Terminate(ctx context.Context) vst3.Result
}

type Component interface {
	ControllerClassID() (vst3.ClassID, bool)
	SetActive(ctx context.Context, state bool) vst3.Result
	// SetState may keep state, it is not reused by the caller
	SetState(ctx context.Context, state []byte) vst3.Result
	GetState(ctx context.Context) ([]byte, vst3.Result)
}

// AudioProcessor processes audio blocks. Process must size data.Outputs with
// data.PrepareOutputs before writing to it.
type AudioProcessor interface {
	SetupProcessing(ctx context.Context, setup vst3.ProcessSetup) vst3.Result
	SetProcessing(ctx context.Context, state bool) vst3.Result
	Process(ctx context.Context, data *vst3.ProcessData) vst3.Result
	LatencySamples() uint32
	TailSamples() uint32
}

type EditController interface {
	SetComponentState(ctx context.Context, state []byte) vst3.Result
	// SetState may keep state, it is not reused by the caller
	SetState(ctx context.Context, state []byte) vst3.Result
	GetState(ctx context.Context) ([]byte, vst3.Result)
	ParameterCount() int
	ParamNormalized(param uint32) float64
	SetParamNormalized(ctx context.Context, param uint32, value float64) vst3.Result
	// SetComponentHandler installs h, or clears the handler when h is nil
	SetComponentHandler(h vst3.ComponentHandler) vst3.Result
}

type ConnectionPoint interface {
	Connect(ctx context.Context, other Object) vst3.Result
	Disconnect(ctx context.Context, other Object) vst3.Result
}

// lookup returns obj's implementation of c as T
func lookup[T any](obj Object, c vst3.Capability) (T, bool) {
	var zero T
	iface, ok := obj.QueryInterface(c)
	if !ok {
		return zero, false
	}
	t, ok := iface.(T)
	return t, ok
}

// Probe builds the descriptor of obj by querying every capability in the
// catalogue. Modelled capabilities only count when the returned value
// implements the matching interface.
func Probe(obj Object, id vst3.InstanceID) vst3.Descriptor {
	desc := vst3.Descriptor{InstanceID: id}
	for _, c := range vst3.Catalogue() {
		var ok bool
		switch c {
		case vst3.PluginBase:
			_, ok = lookup[PluginBase](obj, c)
		case vst3.Component:
			var comp Component
			if comp, ok = lookup[Component](obj, c); ok {
				desc.ControllerClassID, desc.HasControllerClassID = comp.ControllerClassID()
			}
		case vst3.AudioProcessor:
			_, ok = lookup[AudioProcessor](obj, c)
		case vst3.EditController:
			_, ok = lookup[EditController](obj, c)
		case vst3.ConnectionPoint:
			_, ok = lookup[ConnectionPoint](obj, c)
		default:
			_, ok = obj.QueryInterface(c)
		}
		if ok {
			desc.Supported = desc.Supported.With(c)
		}
	}
	return desc
}
