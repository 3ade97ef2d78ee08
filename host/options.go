// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"github.com/rs/zerolog"

	rpc "github.com/luxfi/vst3rpc"
)

type Option func(*options)

type options struct {
	log      zerolog.Logger
	observer rpc.Observer
	firstID  uint64
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithObserver attaches obs to every channel of the bridge
func WithObserver(obs rpc.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithFirstID sets the first instance id handed out. Ids are never zero.
func WithFirstID(id uint64) Option {
	return func(o *options) {
		o.firstID = id
	}
}
