// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"context"

	rpc "github.com/luxfi/vst3rpc"
	"github.com/luxfi/vst3rpc/vst3"
)

// handleCallback answers requests the plugin sends to the host. Handlers may
// call back into the plugin; those calls take a transient connection on the
// control channel.
func (b *Bridge) handleCallback(ctx context.Context, req rpc.Request) rpc.Message {
	switch req := req.(type) {
	case *vst3.GetHostName:
		return &vst3.StringResponse{Result: vst3.ResultOK, Value: b.opts.hostName}

	case *vst3.RestartComponent:
		return b.withHandler(req.Instance(), func(h vst3.ComponentHandler) vst3.Result {
			return h.RestartComponent(ctx, req.Flags)
		})
	case *vst3.BeginEdit:
		return b.withHandler(req.Instance(), func(h vst3.ComponentHandler) vst3.Result {
			return h.BeginEdit(ctx, req.ParamID)
		})
	case *vst3.PerformEdit:
		return b.withHandler(req.Instance(), func(h vst3.ComponentHandler) vst3.Result {
			return h.PerformEdit(ctx, req.ParamID, req.Value)
		})
	case *vst3.EndEdit:
		return b.withHandler(req.Instance(), func(h vst3.ComponentHandler) vst3.Result {
			return h.EndEdit(ctx, req.ParamID)
		})
	}
	// the union only yields the kinds above
	panic(&rpc.ProtocolError{Channel: rpc.CallbackEndpoint, Got: req.Tag(), Reason: "unhandled callback"})
}

func (b *Bridge) withHandler(id vst3.InstanceID, fn func(vst3.ComponentHandler) vst3.Result) rpc.Message {
	h := b.handler(id)
	if h == nil {
		b.log.Debug().Uint64("instance", uint64(id)).Msg("callback for instance without component handler")
		return &vst3.ResultResponse{Result: vst3.ResultNoInterface}
	}
	return &vst3.ResultResponse{Result: fn(h)}
}
