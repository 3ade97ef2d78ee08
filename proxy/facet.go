// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"context"

	rpc "github.com/luxfi/vst3rpc"
	"github.com/luxfi/vst3rpc/vst3"
)

// Facet is a proxy's view of one capability. Every capability in the
// catalogue has a facet; unsupported ones are inert and answer every
// operation with ResultNotImplemented.
type Facet interface {
	Capability() vst3.Capability
	Supported() bool
	Proxy() *Proxy
}

type facet struct {
	p         *Proxy
	c         vst3.Capability
	supported bool
}

func (f *facet) Capability() vst3.Capability { return f.c }
func (f *facet) Supported() bool             { return f.supported }
func (f *facet) Proxy() *Proxy               { return f.p }

// usable reports whether an operation may be sent. When it returns false the
// result and error are the operation's outcome.
func (f *facet) usable() (bool, vst3.Result, error) {
	if f.p.destroyed.Load() {
		return false, 0, ErrDestroyed
	}
	if !f.supported {
		return false, vst3.ResultNotImplemented, nil
	}
	return true, 0, nil
}

type sendFunc func(ctx context.Context, req rpc.Request, resp rpc.Message) error

// result performs a call answered by a bare result code
func (f *facet) result(ctx context.Context, send sendFunc, req rpc.Request) (vst3.Result, error) {
	if ok, res, err := f.usable(); !ok {
		return res, err
	}
	var resp vst3.ResultResponse
	if err := send(ctx, req, &resp); err != nil {
		return 0, err
	}
	return resp.Result, nil
}

func (f *facet) count(ctx context.Context, send sendFunc, req rpc.Request) (uint64, error) {
	if ok, _, err := f.usable(); !ok {
		return 0, err
	}
	var resp vst3.CountResponse
	if err := send(ctx, req, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (f *facet) getState(ctx context.Context) ([]byte, vst3.Result, error) {
	if ok, res, err := f.usable(); !ok {
		return nil, res, err
	}
	var resp vst3.GetStateResponse
	if err := f.p.sendState(ctx, &vst3.GetState{InstanceID: f.p.id}, &resp); err != nil {
		return nil, 0, err
	}
	return resp.State, resp.Result, nil
}

// PluginBase initializes and terminates the remote object
type PluginBase struct {
	facet
}

// Initialize initializes the remote object. The remote side answers with a
// fresh descriptor, which replaces the proxy's capability table.
func (f *PluginBase) Initialize(ctx context.Context) (vst3.Result, error) {
	if ok, res, err := f.usable(); !ok {
		return res, err
	}

	p := f.p
	p.initMu.Lock()
	defer p.initMu.Unlock()

	var resp vst3.InitializeResponse
	if err := p.sendControl(ctx, &vst3.Initialize{InstanceID: p.id}, &resp); err != nil {
		return 0, err
	}
	// an unknown instance is answered without a descriptor
	if resp.Descriptor.InstanceID == p.id {
		if err := p.rediscover(ctx, resp.Descriptor); err != nil {
			return 0, err
		}
	}
	return resp.Result, nil
}

func (f *PluginBase) Terminate(ctx context.Context) (vst3.Result, error) {
	return f.result(ctx, f.p.sendControl, &vst3.Terminate{InstanceID: f.p.id})
}

// Component is the processing half of a plugin
type Component struct {
	facet
}

// ControllerClassID returns the class of the companion edit controller
func (f *Component) ControllerClassID() (vst3.ClassID, bool) {
	if !f.supported {
		return vst3.ClassID{}, false
	}
	desc := f.p.Descriptor()
	return desc.ControllerClassID, desc.HasControllerClassID
}

func (f *Component) SetActive(ctx context.Context, state bool) (vst3.Result, error) {
	return f.result(ctx, f.p.sendInstance, &vst3.SetActive{InstanceID: f.p.id, State: state})
}

func (f *Component) SetState(ctx context.Context, state []byte) (vst3.Result, error) {
	return f.result(ctx, f.p.sendState, &vst3.SetState{InstanceID: f.p.id, State: state})
}

func (f *Component) GetState(ctx context.Context) ([]byte, vst3.Result, error) {
	return f.getState(ctx)
}

// AudioProcessor runs audio blocks over the instance's fast channel
type AudioProcessor struct {
	facet
}

func (f *AudioProcessor) SetupProcessing(ctx context.Context, setup vst3.ProcessSetup) (vst3.Result, error) {
	return f.result(ctx, f.p.sendInstance, &vst3.SetupProcessing{InstanceID: f.p.id, Setup: setup})
}

func (f *AudioProcessor) SetProcessing(ctx context.Context, state bool) (vst3.Result, error) {
	return f.result(ctx, f.p.sendInstance, &vst3.SetProcessing{InstanceID: f.p.id, State: state})
}

// Process sends data's inputs and fills data.Outputs with the processed
// block, reusing its buffers. Steady state calls do not allocate.
func (f *AudioProcessor) Process(ctx context.Context, data *vst3.ProcessData) (vst3.Result, error) {
	if ok, res, err := f.usable(); !ok {
		return res, err
	}

	p := f.p
	p.processMu.Lock()
	defer p.processMu.Unlock()

	req, resp := &p.process, &p.processResp
	req.InstanceID = p.id
	req.Data.NumSamples = data.NumSamples
	req.Data.OutputChannels = data.OutputChannels
	req.Data.Inputs = data.Inputs
	err := p.sendInstance(ctx, req, resp)
	req.Data.Inputs = nil
	if err != nil {
		return 0, err
	}

	data.PrepareOutputs()
	for i := range min(len(data.Outputs), len(resp.Outputs)) {
		copy(data.Outputs[i], resp.Outputs[i])
	}
	return resp.Result, nil
}

func (f *AudioProcessor) LatencySamples(ctx context.Context) (uint32, error) {
	n, err := f.count(ctx, f.p.sendInstance, &vst3.GetLatencySamples{InstanceID: f.p.id})
	return uint32(n), err
}

func (f *AudioProcessor) TailSamples(ctx context.Context) (uint32, error) {
	n, err := f.count(ctx, f.p.sendInstance, &vst3.GetTailSamples{InstanceID: f.p.id})
	return uint32(n), err
}

// EditController exposes parameters and state to the host
type EditController struct {
	facet
}

func (f *EditController) SetComponentState(ctx context.Context, state []byte) (vst3.Result, error) {
	return f.result(ctx, f.p.sendControl, &vst3.SetComponentState{InstanceID: f.p.id, State: state})
}

func (f *EditController) SetState(ctx context.Context, state []byte) (vst3.Result, error) {
	return f.result(ctx, f.p.sendState, &vst3.SetState{InstanceID: f.p.id, State: state})
}

func (f *EditController) GetState(ctx context.Context) ([]byte, vst3.Result, error) {
	return f.getState(ctx)
}

func (f *EditController) ParameterCount(ctx context.Context) (int, error) {
	n, err := f.count(ctx, f.p.sendControl, &vst3.GetParameterCount{InstanceID: f.p.id})
	return int(n), err
}

func (f *EditController) ParamNormalized(ctx context.Context, param uint32) (float64, error) {
	if ok, _, err := f.usable(); !ok {
		return 0, err
	}
	var resp vst3.ValueResponse
	if err := f.p.sendControl(ctx, &vst3.GetParamNormalized{InstanceID: f.p.id, ParamID: param}, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

func (f *EditController) SetParamNormalized(ctx context.Context, param uint32, value float64) (vst3.Result, error) {
	return f.result(ctx, f.p.sendControl, &vst3.SetParamNormalized{InstanceID: f.p.id, ParamID: param, Value: value})
}

// SetComponentHandler installs h as the receiver of the controller's edits.
// A nil h clears it.
func (f *EditController) SetComponentHandler(ctx context.Context, h vst3.ComponentHandler) (vst3.Result, error) {
	if ok, res, err := f.usable(); !ok {
		return res, err
	}
	// installed before the remote side can call it
	f.p.b.setHandler(f.p.id, h)
	res, err := f.result(ctx, f.p.sendControl, &vst3.SetComponentHandler{InstanceID: f.p.id, Present: h != nil})
	if err != nil || !res.OK() {
		f.p.b.setHandler(f.p.id, nil)
	}
	return res, err
}

// ConnectionPoint links the object with another remote object
type ConnectionPoint struct {
	facet
}

func (f *ConnectionPoint) Connect(ctx context.Context, other *Proxy) (vst3.Result, error) {
	if other == nil {
		return vst3.ResultInvalidArgument, nil
	}
	return f.result(ctx, f.p.sendControl, &vst3.Connect{InstanceID: f.p.id, Other: other.id})
}

func (f *ConnectionPoint) Disconnect(ctx context.Context, other *Proxy) (vst3.Result, error) {
	if other == nil {
		return vst3.ResultInvalidArgument, nil
	}
	return f.result(ctx, f.p.sendControl, &vst3.Disconnect{InstanceID: f.p.id, Other: other.id})
}
