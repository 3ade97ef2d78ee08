// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"context"

	rpc "github.com/luxfi/vst3rpc"
	"github.com/luxfi/vst3rpc/vst3"
)

// handleControl answers the native host's calls. It runs concurrently for
// reentrant calls, each on its own connection.
func (b *Bridge) handleControl(ctx context.Context, req rpc.Request) rpc.Message {
	switch req := req.(type) {
	case *vst3.Construct:
		return b.construct(req)
	case *vst3.Destruct:
		if !b.remove(req.Instance()) {
			b.log.Debug().Uint64("instance", uint64(req.InstanceID)).Msg("destruct of unknown instance")
		}
		return &vst3.Ack{}
	case *vst3.Initialize:
		return b.initialize(ctx, req.Instance())

	case *vst3.Terminate:
		return result(b, req.Instance(), vst3.PluginBase, func(pb PluginBase) vst3.Result {
			return pb.Terminate(ctx)
		})
	case *vst3.SetState:
		inst := b.instance(req.Instance())
		if inst == nil {
			return &vst3.ResultResponse{Result: vst3.ResultInvalidArgument}
		}
		return &vst3.ResultResponse{Result: inst.setState(ctx, req.State)}
	case *vst3.GetState:
		inst := b.instance(req.Instance())
		if inst == nil {
			return &vst3.GetStateResponse{Result: vst3.ResultInvalidArgument}
		}
		return inst.getState(ctx, &vst3.GetStateResponse{})

	case *vst3.SetComponentState:
		return result(b, req.Instance(), vst3.EditController, func(ctrl EditController) vst3.Result {
			return ctrl.SetComponentState(ctx, req.State)
		})
	case *vst3.SetComponentHandler:
		var h vst3.ComponentHandler
		if req.Present {
			h = &componentHandler{b: b, id: req.InstanceID}
		}
		return result(b, req.Instance(), vst3.EditController, func(ctrl EditController) vst3.Result {
			return ctrl.SetComponentHandler(h)
		})
	case *vst3.GetParameterCount:
		ctrl, ok := find[EditController](b, req.Instance(), vst3.EditController)
		if !ok {
			return &vst3.CountResponse{}
		}
		return &vst3.CountResponse{Count: uint64(max(ctrl.ParameterCount(), 0))}
	case *vst3.GetParamNormalized:
		ctrl, ok := find[EditController](b, req.Instance(), vst3.EditController)
		if !ok {
			return &vst3.ValueResponse{}
		}
		return &vst3.ValueResponse{Value: ctrl.ParamNormalized(req.ParamID)}
	case *vst3.SetParamNormalized:
		return result(b, req.Instance(), vst3.EditController, func(ctrl EditController) vst3.Result {
			return ctrl.SetParamNormalized(ctx, req.ParamID, req.Value)
		})

	case *vst3.Connect:
		return b.connect(ctx, req.Instance(), req.Other, ConnectionPoint.Connect)
	case *vst3.Disconnect:
		return b.connect(ctx, req.Instance(), req.Other, ConnectionPoint.Disconnect)

	case *vst3.CountClasses:
		return &vst3.CountResponse{Count: uint64(max(b.factory.CountClasses(), 0))}
	case *vst3.GetClassInfo:
		info, ok := b.factory.ClassInfo(int(req.Index))
		if !ok {
			return &vst3.ClassInfoResponse{Result: vst3.ResultInvalidArgument}
		}
		return &vst3.ClassInfoResponse{Result: vst3.ResultOK, Info: info}
	}
	panic(&rpc.ProtocolError{Channel: rpc.ControlEndpoint, Got: req.Tag(), Reason: "unhandled control request"})
}

// construct creates an object, binds its fast channel when it needs one and
// only then replies, so the host can connect right away
func (b *Bridge) construct(req *vst3.Construct) rpc.Message {
	obj, res := b.factory.CreateInstance(req.CID, req.Requested)
	if obj == nil || !res.OK() {
		if res.OK() {
			res = vst3.ResultInternalError
		}
		b.log.Debug().Object("request", req).Stringer("result", res).Msg("construct failed")
		return &vst3.ConstructResponse{Result: res}
	}

	id := vst3.InstanceID(b.lastID.Add(1))
	inst := &instance{id: id, obj: obj}
	inst.desc = Probe(obj, id)
	b.add(inst)

	if inst.desc.NeedsInstanceChannel() {
		if err := b.reg.ListenInstance(uint64(id), rpc.HandlerFunc(inst.handle)); err != nil {
			b.log.Error().Err(err).Uint64("instance", uint64(id)).Msg("failed to bind instance channel")
			b.remove(id)
			return &vst3.ConstructResponse{Result: vst3.ResultInternalError}
		}
	}

	b.log.Debug().Object("descriptor", &inst.desc).Msg("constructed instance")
	return &vst3.ConstructResponse{Result: vst3.ResultOK, Descriptor: inst.desc}
}

// initialize initializes the object and probes it again, since initializing
// may change what it supports
func (b *Bridge) initialize(ctx context.Context, id vst3.InstanceID) rpc.Message {
	inst := b.instance(id)
	if inst == nil {
		return &vst3.InitializeResponse{Result: vst3.ResultInvalidArgument}
	}

	res := vst3.ResultNotImplemented
	if pb, ok := lookup[PluginBase](inst.obj, vst3.PluginBase); ok {
		res = pb.Initialize(ctx, &hostApplication{b: b})
	}

	desc := Probe(inst.obj, id)
	if desc.NeedsInstanceChannel() && !b.reg.HasInstance(uint64(id)) {
		if err := b.reg.ListenInstance(uint64(id), rpc.HandlerFunc(inst.handle)); err != nil {
			b.log.Error().Err(err).Uint64("instance", uint64(id)).Msg("failed to bind instance channel")
			return &vst3.InitializeResponse{Result: vst3.ResultInternalError, Descriptor: inst.descriptor()}
		}
	}
	inst.setDescriptor(desc)
	return &vst3.InitializeResponse{Result: res, Descriptor: desc}
}

func (b *Bridge) connect(ctx context.Context, id, other vst3.InstanceID, fn func(ConnectionPoint, context.Context, Object) vst3.Result) rpc.Message {
	peer := b.instance(other)
	if peer == nil {
		return &vst3.ResultResponse{Result: vst3.ResultInvalidArgument}
	}
	return result(b, id, vst3.ConnectionPoint, func(cp ConnectionPoint) vst3.Result {
		return fn(cp, ctx, peer.obj)
	})
}

// find returns the implementation of c by the object id
func find[T any](b *Bridge, id vst3.InstanceID, c vst3.Capability) (T, bool) {
	inst := b.instance(id)
	if inst == nil {
		var zero T
		return zero, false
	}
	return lookup[T](inst.obj, c)
}

// result runs fn against the object's implementation of c
func result[T any](b *Bridge, id vst3.InstanceID, c vst3.Capability, fn func(T) vst3.Result) *vst3.ResultResponse {
	if b.instance(id) == nil {
		return &vst3.ResultResponse{Result: vst3.ResultInvalidArgument}
	}
	impl, ok := find[T](b, id, c)
	if !ok {
		return &vst3.ResultResponse{Result: vst3.ResultNoInterface}
	}
	return &vst3.ResultResponse{Result: fn(impl)}
}
