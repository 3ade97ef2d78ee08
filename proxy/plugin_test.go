// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy_test

import (
	"context"
	"slices"
	"sync"

	"github.com/luxfi/vst3rpc/host"
	"github.com/luxfi/vst3rpc/vst3"
)

// gainPlugin is a plugin object implementing every modelled interface. Which
// of them it admits to is decided by caps, and Initialize adds onInit.
type gainPlugin struct {
	mu          sync.Mutex
	caps        vst3.CapabilitySet
	onInit      vst3.CapabilitySet
	controller  vst3.ClassID
	initialized bool
	hostName    string
	active      bool
	processing  bool
	setup       vst3.ProcessSetup
	state       []byte
	params      map[uint32]float64
	handler     vst3.ComponentHandler
	peers       []host.Object
}

func newGainPlugin(caps, onInit vst3.CapabilitySet) *gainPlugin {
	return &gainPlugin{caps: caps, onInit: onInit, params: map[uint32]float64{0: 1}}
}

func (p *gainPlugin) QueryInterface(c vst3.Capability) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.caps.Has(c) {
		return nil, false
	}
	return p, true
}

func (p *gainPlugin) Initialize(ctx context.Context, h host.HostApplication) vst3.Result {
	name, res := h.Name(ctx)
	if !res.OK() {
		return res
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hostName = name
	p.initialized = true
	p.caps |= p.onInit
	return vst3.ResultOK
}

func (p *gainPlugin) Terminate(context.Context) vst3.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initialized = false
	return vst3.ResultOK
}

func (p *gainPlugin) ControllerClassID() (vst3.ClassID, bool) {
	return p.controller, p.controller != vst3.ClassID{}
}

func (p *gainPlugin) SetActive(_ context.Context, state bool) vst3.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = state
	return vst3.ResultOK
}

func (p *gainPlugin) SetState(_ context.Context, state []byte) vst3.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = slices.Clone(state)
	return vst3.ResultOK
}

func (p *gainPlugin) GetState(context.Context) ([]byte, vst3.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.state), vst3.ResultOK
}

func (p *gainPlugin) SetupProcessing(_ context.Context, setup vst3.ProcessSetup) vst3.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setup = setup
	return vst3.ResultOK
}

func (p *gainPlugin) SetProcessing(_ context.Context, state bool) vst3.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return vst3.ResultFalse
	}
	p.processing = state
	return vst3.ResultOK
}

// Process scales every input channel by parameter 0
func (p *gainPlugin) Process(_ context.Context, data *vst3.ProcessData) vst3.Result {
	p.mu.Lock()
	gain := float32(p.params[0])
	processing := p.processing
	p.mu.Unlock()
	if !processing {
		return vst3.ResultNotInitialized
	}

	data.PrepareOutputs()
	for c, out := range data.Outputs {
		if c >= len(data.Inputs) {
			break
		}
		for i := range out {
			out[i] = data.Inputs[c][i] * gain
		}
	}
	return vst3.ResultOK
}

func (p *gainPlugin) LatencySamples() uint32 { return 64 }
func (p *gainPlugin) TailSamples() uint32    { return 512 }

// SetComponentState adopts the component's state and asks the host to reread
// every parameter
func (p *gainPlugin) SetComponentState(ctx context.Context, state []byte) vst3.Result {
	p.SetState(ctx, state)

	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	if h == nil {
		return vst3.ResultOK
	}
	return h.RestartComponent(ctx, vst3.RestartParamValuesChanged)
}

func (p *gainPlugin) ParameterCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.params)
}

func (p *gainPlugin) ParamNormalized(param uint32) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params[param]
}

// SetParamNormalized stores the value and reports the edit to the host, the
// way a plugin UI would
func (p *gainPlugin) SetParamNormalized(ctx context.Context, param uint32, value float64) vst3.Result {
	p.mu.Lock()
	p.params[param] = value
	h := p.handler
	p.mu.Unlock()

	if h == nil {
		return vst3.ResultOK
	}
	if res := h.BeginEdit(ctx, param); !res.OK() {
		return res
	}
	if res := h.PerformEdit(ctx, param, value); !res.OK() {
		return res
	}
	return h.EndEdit(ctx, param)
}

func (p *gainPlugin) SetComponentHandler(h vst3.ComponentHandler) vst3.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
	return vst3.ResultOK
}

func (p *gainPlugin) Connect(_ context.Context, other host.Object) vst3.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.peers = append(p.peers, other)
	return vst3.ResultOK
}

func (p *gainPlugin) Disconnect(_ context.Context, other host.Object) vst3.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := slices.Index(p.peers, other)
	if i < 0 {
		return vst3.ResultInvalidArgument
	}
	p.peers = slices.Delete(p.peers, i, i+1)
	return vst3.ResultOK
}

type class struct {
	info   vst3.ClassInfo
	caps   vst3.CapabilitySet
	onInit vst3.CapabilitySet
}

// factory creates gain plugins per registered class and remembers them
type factory struct {
	classes []class

	mu      sync.Mutex
	created []*gainPlugin
}

func (f *factory) CountClasses() int {
	return len(f.classes)
}

func (f *factory) ClassInfo(index int) (vst3.ClassInfo, bool) {
	if index < 0 || index >= len(f.classes) {
		return vst3.ClassInfo{}, false
	}
	return f.classes[index].info, true
}

func (f *factory) CreateInstance(cid vst3.ClassID, requested vst3.Capability) (host.Object, vst3.Result) {
	for _, c := range f.classes {
		if c.info.CID != cid {
			continue
		}
		if !c.caps.Has(requested) {
			return nil, vst3.ResultNoInterface
		}
		p := newGainPlugin(c.caps, c.onInit)
		if c.caps.Has(vst3.Component) {
			p.controller = controllerCID
		}
		f.mu.Lock()
		f.created = append(f.created, p)
		f.mu.Unlock()
		return p, vst3.ResultOK
	}
	return nil, vst3.ResultInvalidArgument
}

func (f *factory) plugin(i int) *gainPlugin {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[i]
}

var (
	effectCID     = vst3.ClassID{1}
	controllerCID = vst3.ClassID{2}
	lateCID       = vst3.ClassID{3}
	unknownCID    = vst3.ClassID{0xff}
)

func testFactory() *factory {
	return &factory{classes: []class{
		{
			info: vst3.ClassInfo{CID: effectCID, Cardinality: 0x7fffffff, Category: "Audio Module Class", Name: "Gain"},
			caps: vst3.NewCapabilitySet(vst3.PluginBase, vst3.Component, vst3.AudioProcessor,
				vst3.ConnectionPoint, vst3.ProcessContextRequirements),
			onInit: vst3.NewCapabilitySet(vst3.EditController),
		},
		{
			info: vst3.ClassInfo{CID: controllerCID, Cardinality: 0x7fffffff, Category: "Component Controller Class", Name: "Gain Controller"},
			caps: vst3.NewCapabilitySet(vst3.PluginBase, vst3.EditController, vst3.EditController2,
				vst3.ConnectionPoint, vst3.UnitInfo),
		},
		{
			info:   vst3.ClassInfo{CID: lateCID, Cardinality: 1, Category: "Component Controller Class", Name: "Late"},
			caps:   vst3.NewCapabilitySet(vst3.PluginBase, vst3.EditController),
			onInit: vst3.NewCapabilitySet(vst3.AudioProcessor),
		},
	}}
}
