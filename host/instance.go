// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"context"

	rpc "github.com/luxfi/vst3rpc"
	"github.com/luxfi/vst3rpc/vst3"
)

// handle answers calls on the instance's fast channel. Requests and
// responses are reused from call to call, so steady state processing does
// not allocate.
func (inst *instance) handle(ctx context.Context, req rpc.Request) rpc.Message {
	switch req := req.(type) {
	case *vst3.Process:
		resp := &inst.process
		proc, ok := lookup[AudioProcessor](inst.obj, vst3.AudioProcessor)
		if !ok {
			resp.Result, resp.Outputs = vst3.ResultNoInterface, resp.Outputs[:0]
			return resp
		}
		resp.Result = proc.Process(ctx, &req.Data)
		resp.Outputs = req.Data.Outputs
		return resp

	case *vst3.SetupProcessing:
		return inst.processor(func(proc AudioProcessor) vst3.Result {
			return proc.SetupProcessing(ctx, req.Setup)
		})
	case *vst3.SetProcessing:
		return inst.processor(func(proc AudioProcessor) vst3.Result {
			return proc.SetProcessing(ctx, req.State)
		})
	case *vst3.SetActive:
		inst.result.Result = vst3.ResultNoInterface
		if comp, ok := lookup[Component](inst.obj, vst3.Component); ok {
			inst.result.Result = comp.SetActive(ctx, req.State)
		}
		return &inst.result

	case *vst3.GetLatencySamples:
		inst.count.Count = 0
		if proc, ok := lookup[AudioProcessor](inst.obj, vst3.AudioProcessor); ok {
			inst.count.Count = uint64(proc.LatencySamples())
		}
		return &inst.count
	case *vst3.GetTailSamples:
		inst.count.Count = 0
		if proc, ok := lookup[AudioProcessor](inst.obj, vst3.AudioProcessor); ok {
			inst.count.Count = uint64(proc.TailSamples())
		}
		return &inst.count

	case *vst3.SetState:
		inst.result.Result = inst.setState(ctx, req.State)
		return &inst.result
	case *vst3.GetState:
		return inst.getState(ctx, &inst.state)
	}
	panic(&rpc.ProtocolError{Channel: "instance", Got: req.Tag(), Reason: "unhandled instance request"})
}

func (inst *instance) processor(fn func(AudioProcessor) vst3.Result) *vst3.ResultResponse {
	inst.result.Result = vst3.ResultNoInterface
	if proc, ok := lookup[AudioProcessor](inst.obj, vst3.AudioProcessor); ok {
		inst.result.Result = fn(proc)
	}
	return &inst.result
}
