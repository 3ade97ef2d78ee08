// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import "github.com/rs/zerolog"

// LogObserver logs every request and response at debug level. Messages that
// implement zerolog.LogObjectMarshaler are logged field by field, everything
// else by type name and tag.
type LogObserver struct {
	log zerolog.Logger
}

// NewLogObserver creates an observer writing to l
func NewLogObserver(l zerolog.Logger) *LogObserver {
	return &LogObserver{log: l}
}

func (o *LogObserver) ObserveRequest(channel string, req Request) {
	e := o.log.Debug()
	if !e.Enabled() {
		return
	}
	appendMessage(e.Str("channel", channel), "request", req).Msg(">> request")
}

func (o *LogObserver) ObserveResponse(channel string, req Request, resp Message) {
	e := o.log.Debug()
	if !e.Enabled() {
		return
	}
	e = e.Str("channel", channel).Uint32("request_tag", uint32(req.Tag()))
	appendMessage(e, "response", resp).Msg("<< response")
}

func appendMessage(e *zerolog.Event, key string, m Message) *zerolog.Event {
	if lm, ok := m.(zerolog.LogObjectMarshaler); ok {
		return e.Object(key, lm)
	}
	return e.Type(key, m).Uint32(key+"_tag", uint32(m.Tag()))
}
