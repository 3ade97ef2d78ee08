// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package inspect

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Health service names, one per long lived channel
const (
	ServiceControl  = "control"
	ServiceCallback = "callback"
)

// Health reports whether the bridge's channels are connected. Both services
// start out NOT_SERVING.
type Health struct {
	srv *health.Server
}

func NewHealth() *Health {
	srv := health.NewServer()
	for _, name := range []string{"", ServiceControl, ServiceCallback} {
		srv.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return &Health{srv: srv}
}

// SetServing flips service between SERVING and NOT_SERVING. The overall
// status follows the control channel.
func (h *Health) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.srv.SetServingStatus(service, status)
	if service == ServiceControl {
		h.srv.SetServingStatus("", status)
	}
}

// Register adds the health service to s
func (h *Health) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

// Shutdown marks every service NOT_SERVING and ignores later updates
func (h *Health) Shutdown() {
	h.srv.Shutdown()
}
