// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package proxy is the native side of a bridged plugin. A Bridge waits for
// the plugin process on a directory of unix socket endpoints; its Factory
// creates remote objects and hands back a Proxy for each.
//
//	b, err := proxy.NewBridge(dir, proxy.WithLogger(log))
//	...
//	if err := b.Connect(ctx); err != nil {
//	    return err
//	}
//	p, res, err := b.Factory().CreateInstance(ctx, cid, vst3.Component)
//	...
//	if _, ok := p.Query(vst3.AudioProcessor); ok {
//	    res, err = p.AudioProcessor().Process(ctx, &data)
//	}
//
// A proxy supports exactly the capabilities its remote object reported.
// Initialize may change that set; the proxy rebuilds its capability table
// and switches to it atomically.
package proxy
