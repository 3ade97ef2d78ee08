// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"context"
	"fmt"

	rpc "github.com/luxfi/vst3rpc"
	"github.com/luxfi/vst3rpc/vst3"
)

// Factory creates remote plugin objects
type Factory struct {
	b *Bridge
}

// CreateInstance constructs an object of class cid in the remote process and
// returns a proxy holding one reference. Only components and edit
// controllers can be created; any other requested capability yields
// ResultNotImplemented without contacting the remote side. A remote failure
// is returned as its result code with a nil proxy.
func (f *Factory) CreateInstance(ctx context.Context, cid vst3.ClassID, requested vst3.Capability) (*Proxy, vst3.Result, error) {
	if requested != vst3.Component && requested != vst3.EditController {
		return nil, vst3.ResultNotImplemented, nil
	}

	var resp vst3.ConstructResponse
	if err := f.b.reg.Control.Send(ctx, &vst3.Construct{CID: cid, Requested: requested}, &resp); err != nil {
		return nil, 0, err
	}
	if !resp.Result.OK() {
		return nil, resp.Result, nil
	}

	desc := resp.Descriptor
	fast := desc.NeedsInstanceChannel()
	if fast {
		if err := f.b.reg.AddInstance(ctx, uint64(desc.InstanceID)); err != nil {
			f.discard(ctx, desc.InstanceID)
			return nil, 0, fmt.Errorf("instance channel %d: %w", desc.InstanceID, err)
		}
	}

	p := newProxy(f.b, desc, fast)
	f.b.log.Debug().
		Stringer("cid", cid).
		Object("descriptor", &desc).
		Msg("created instance")
	return p, vst3.ResultOK, nil
}

// discard destroys an object the caller never got a proxy for
func (f *Factory) discard(ctx context.Context, id vst3.InstanceID) {
	var ack vst3.Ack
	if err := f.b.reg.Control.Send(ctx, &vst3.Destruct{InstanceID: id}, &ack); err != nil {
		f.b.log.Warn().Err(err).Uint64("instance", uint64(id)).Msg("failed to discard instance")
	}
}

// CountClasses returns the number of classes the remote factory exports
func (f *Factory) CountClasses(ctx context.Context) (int, error) {
	resp, err := rpc.Call[vst3.CountResponse](ctx, f.b.reg.Control, &vst3.CountClasses{})
	if err != nil {
		return 0, err
	}
	return int(resp.Count), nil
}

// ClassInfo returns the description of the class at index
func (f *Factory) ClassInfo(ctx context.Context, index int) (vst3.ClassInfo, vst3.Result, error) {
	resp, err := rpc.Call[vst3.ClassInfoResponse](ctx, f.b.reg.Control, &vst3.GetClassInfo{Index: int32(index)})
	if err != nil {
		return vst3.ClassInfo{}, 0, err
	}
	return resp.Info, resp.Result, nil
}
