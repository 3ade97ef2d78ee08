// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rpc is the messaging substrate between a native plugin proxy and
// its companion process. It assumes exactly two peers per connection, one
// machine, and a closed set of message kinds known at compile time.
//
// # Channels
//
// A Channel binds to a unix socket endpoint and carries strictly alternating
// request/response pairs. One peer sends, the other serves:
//
//	ch, err := rpc.NewChannel(path, true, rpc.WithUnion(union))
//	if err != nil {
//	    return err
//	}
//	if err := ch.Connect(ctx); err != nil {
//	    return err
//	}
//
//	var resp MyResponse
//	err = ch.Send(ctx, &MyRequest{...}, &resp)
//
// The serving peer runs a blocking loop:
//
//	err := ch.Serve(ctx, rpc.HandlerFunc(func(ctx context.Context, req rpc.Request) rpc.Message {
//	    switch req := req.(type) {
//	    case *MyRequest:
//	        return &MyResponse{...}
//	    }
//	    ...
//	}))
//
// A connection never carries more than one request at a time. When a sender
// finds the primary connection busy, typically because a callback is being
// handled while the original call is still blocked, it dials a transient
// connection instead of waiting, so mutually recursive calls never deadlock.
//
// # Registry
//
// A Registry owns the control channel (host to remote), the callback channel
// (remote to host) and one dedicated channel per proxied instance. Instance
// channels never open transient connections: calls on one instance are
// serialized, calls on different instances are independent.
//
// # Wire format
//
// Every frame is [4 len][1 version][4 tag][body], the body being a protobuf
// wire encoding produced by the message itself. Buffers are leased per
// channel and role and only grow, so steady state round trips do not
// allocate.
//
// # Architecture
//
//   - client.go: Message, Request, Handler, Observer interfaces and options
//   - codec.go: framing, Buffer, protowire helpers
//   - transport.go: transport registry, unix socket dial/listen
//   - dial.go: primary connection setup and handshake
//   - channel.go: Send, Serve, Close
//   - registry.go: control, callback and per-instance channels
//   - lease.go: per channel buffer pools
//   - observer.go: zerolog backed traffic logging
package rpc
