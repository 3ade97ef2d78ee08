// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"context"

	rpc "github.com/luxfi/vst3rpc"
	"github.com/luxfi/vst3rpc/vst3"
)

// hostApplication is the host context handed to plugins on Initialize
type hostApplication struct {
	b *Bridge
}

func (h *hostApplication) Name(ctx context.Context) (string, vst3.Result) {
	resp, err := rpc.Call[vst3.StringResponse](ctx, h.b.reg.Callback, &vst3.GetHostName{})
	if err != nil {
		h.b.log.Warn().Err(err).Msg("host name callback failed")
		return "", vst3.ResultInternalError
	}
	return resp.Value, resp.Result
}

// componentHandler forwards an edit controller's notifications to the
// handler installed by the native host
type componentHandler struct {
	b  *Bridge
	id vst3.InstanceID
}

func (h *componentHandler) BeginEdit(ctx context.Context, param uint32) vst3.Result {
	return h.b.callback(ctx, &vst3.BeginEdit{InstanceID: h.id, ParamID: param})
}

func (h *componentHandler) PerformEdit(ctx context.Context, param uint32, value float64) vst3.Result {
	return h.b.callback(ctx, &vst3.PerformEdit{InstanceID: h.id, ParamID: param, Value: value})
}

func (h *componentHandler) EndEdit(ctx context.Context, param uint32) vst3.Result {
	return h.b.callback(ctx, &vst3.EndEdit{InstanceID: h.id, ParamID: param})
}

func (h *componentHandler) RestartComponent(ctx context.Context, flags int32) vst3.Result {
	return h.b.callback(ctx, &vst3.RestartComponent{InstanceID: h.id, Flags: flags})
}

func (b *Bridge) callback(ctx context.Context, req rpc.Request) vst3.Result {
	var resp vst3.ResultResponse
	if err := b.reg.Callback.Send(ctx, req, &resp); err != nil {
		b.log.Warn().Err(err).Str("request", vst3.TagName(req.Tag())).Msg("callback failed")
		return vst3.ResultInternalError
	}
	return resp.Result
}
