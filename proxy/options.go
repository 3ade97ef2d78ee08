// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"github.com/rs/zerolog"

	rpc "github.com/luxfi/vst3rpc"
)

const defaultHostName = "vst3rpc"

type Option func(*options)

type options struct {
	log      zerolog.Logger
	hostName string
	observer rpc.Observer
	inspect  bool
}

func defaultOptions() options {
	return options{
		log:      zerolog.Nop(),
		hostName: defaultHostName,
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithHostName sets the name reported to plugins asking for the host
// application
func WithHostName(name string) Option {
	return func(o *options) {
		o.hostName = name
	}
}

// WithObserver attaches obs to every channel of the bridge
func WithObserver(obs rpc.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithInspect serves the inspect endpoints next to the channel endpoints
func WithInspect(enabled bool) Option {
	return func(o *options) {
		o.inspect = enabled
	}
}
