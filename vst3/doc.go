// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vst3 defines what travels between a native plugin host and a
// plugin running in another process: the closed catalogue of plugin
// interfaces, the descriptor a remote object is summarized by, and the
// request and response messages of the control, callback and instance
// channels.
//
// Messages encode themselves with the protobuf wire format. Decoding always
// copies out of the frame buffer and reuses slices the receiver already
// holds, which keeps audio processing free of allocations.
package vst3
