// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"

	"github.com/rs/zerolog"
)

// Tag identifies a message kind on the wire. Tags are unique across every
// union sharing a channel, requests and responses alike.
type Tag uint32

// Message is anything that can be framed onto a channel.
type Message interface {
	// Tag returns the wire tag of the concrete message type
	Tag() Tag

	// AppendWire appends the encoded body to b and returns the extended slice
	AppendWire(b []byte) []byte

	// ConsumeWire decodes the body in b, replacing the receiver's contents.
	// Slices already held by the receiver may be reused.
	ConsumeWire(b []byte) error
}

// Request is a message that statically determines the type of its response.
type Request interface {
	Message

	// ResponseTag returns the tag of the only response type this request
	// may be answered with
	ResponseTag() Tag
}

// Sender performs request/response round trips.
type Sender interface {
	// Send writes req and decodes the matching response into resp
	Send(ctx context.Context, req Request, resp Message) error
}

// Union is the closed set of request kinds a channel accepts.
type Union interface {
	// NewRequest returns an empty request for tag, or nil if the tag is not
	// part of the union
	NewRequest(tag Tag) Request
}

// UnionFunc is a function adapter for Union
type UnionFunc func(tag Tag) Request

func (f UnionFunc) NewRequest(tag Tag) Request {
	return f(tag)
}

// Handler answers requests received by Serve. The returned message must have
// the tag named by req.ResponseTag(). Requests may be reused once Handle
// returns, so implementations must not retain them.
type Handler interface {
	Handle(ctx context.Context, req Request) Message
}

// HandlerFunc is a function adapter for Handler
type HandlerFunc func(ctx context.Context, req Request) Message

func (f HandlerFunc) Handle(ctx context.Context, req Request) Message {
	return f(ctx, req)
}

// Observer receives read-only views of the traffic on a channel. It must not
// block or mutate the messages it is given.
type Observer interface {
	ObserveRequest(channel string, req Request)
	ObserveResponse(channel string, req Request, resp Message)
}

// ChannelOption configures a Channel
type ChannelOption func(*channelOptions)

type channelOptions struct {
	union      Union
	observer   Observer
	logger     zerolog.Logger
	transport  string
	adHoc      bool
	persistent bool
}

func defaultChannelOptions() channelOptions {
	return channelOptions{
		logger:    zerolog.Nop(),
		transport: DefaultTransport,
		adHoc:     true,
	}
}

// WithUnion sets the request union the channel decodes when serving
func WithUnion(u Union) ChannelOption {
	return func(o *channelOptions) { o.union = u }
}

// WithObserver installs a diagnostic observer
func WithObserver(obs Observer) ChannelOption {
	return func(o *channelOptions) { o.observer = obs }
}

// WithLogger sets the logger used for connection level events
func WithLogger(l zerolog.Logger) ChannelOption {
	return func(o *channelOptions) { o.logger = l }
}

// WithTransport explicitly sets the transport type
func WithTransport(t string) ChannelOption {
	return func(o *channelOptions) { o.transport = t }
}

// WithAdHoc controls whether the channel opens transient connections when its
// primary connection is busy. Disabled for per-instance channels.
func WithAdHoc(enabled bool) ChannelOption {
	return func(o *channelOptions) { o.adHoc = enabled }
}

// WithPersistentRequests makes each serving connection decode into the same
// request objects over and over instead of allocating new ones.
func WithPersistentRequests(enabled bool) ChannelOption {
	return func(o *channelOptions) { o.persistent = enabled }
}

// RegistryOption configures a Registry
type RegistryOption func(*registryOptions)

type registryOptions struct {
	control  []ChannelOption
	callback []ChannelOption
	instance []ChannelOption
}

// WithControlOptions appends options for the host to remote channel
func WithControlOptions(opts ...ChannelOption) RegistryOption {
	return func(o *registryOptions) { o.control = append(o.control, opts...) }
}

// WithCallbackOptions appends options for the remote to host channel
func WithCallbackOptions(opts ...ChannelOption) RegistryOption {
	return func(o *registryOptions) { o.callback = append(o.callback, opts...) }
}

// WithInstanceOptions appends options for every per-instance channel
func WithInstanceOptions(opts ...ChannelOption) RegistryOption {
	return func(o *registryOptions) { o.instance = append(o.instance, opts...) }
}

// WithRegistryLogger sets the logger on every channel the registry owns
func WithRegistryLogger(l zerolog.Logger) RegistryOption {
	return func(o *registryOptions) {
		o.control = append(o.control, WithLogger(l))
		o.callback = append(o.callback, WithLogger(l))
		o.instance = append(o.instance, WithLogger(l))
	}
}

// Call sends req and returns a newly allocated response of type R:
//
//	resp, err := rpc.Call[vst3.ConstructResponse](ctx, ch, &vst3.Construct{...})
func Call[R any, PR interface {
	*R
	Message
}](ctx context.Context, s Sender, req Request) (PR, error) {
	resp := PR(new(R))
	if err := s.Send(ctx, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
