// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package inspect

import (
	"net/http"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"

	vrpc "github.com/luxfi/vst3rpc"
)

// ServiceName is the JSON-RPC service prefix, as in "Inspect.Stats"
const ServiceName = "Inspect"

// Source is what the service reports on. *rpc.Registry implements it.
type Source interface {
	Stats() vrpc.RegistryStats
	Instances() []uint64
}

// Service exposes read-only registry state over JSON-RPC 2.0
type Service struct {
	src Source
}

type NoArgs struct{}

type StatsReply struct {
	vrpc.RegistryStats
}

type InstancesReply struct {
	Instances []uint64 `json:"instances"`
}

// Stats returns the counters of every channel
func (s *Service) Stats(_ *http.Request, _ *NoArgs, reply *StatsReply) error {
	reply.RegistryStats = s.src.Stats()
	return nil
}

// Instances returns the ids that currently own a fast channel
func (s *Service) Instances(_ *http.Request, _ *NoArgs, reply *InstancesReply) error {
	reply.Instances = s.src.Instances()
	if reply.Instances == nil {
		reply.Instances = []uint64{}
	}
	return nil
}

// NewJSONHandler returns an HTTP handler serving the Inspect service
func NewJSONHandler(src Source) (http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json2.NewCodec(), "application/json")
	if err := server.RegisterService(&Service{src: src}, ServiceName); err != nil {
		return nil, err
	}
	return server, nil
}
