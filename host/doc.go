// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package host runs on the plugin side of a bridge. It owns the real plugin
// objects, describes each one to the native host as a vst3.Descriptor and
// dispatches the host's calls to them.
//
//	b, err := host.NewBridge(dir, factory, host.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//	return b.Run(ctx)
//
// Callbacks a plugin makes into its host application or component handler
// travel back over the callback channel and may call into the plugin again.
package host
