// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package inspect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// Endpoint file names inside the supervisor's directory
const (
	JSONEndpoint   = "inspect.sock"
	HealthEndpoint = "health.sock"
)

const shutdownTimeout = 2 * time.Second

// Supervisor serves the Inspect JSON-RPC service and the gRPC health service
// next to a registry's endpoints.
type Supervisor struct {
	dir    string
	log    zerolog.Logger
	Health *Health

	http *http.Server
	grpc *grpc.Server
	g    errgroup.Group
}

// NewSupervisor prepares both servers. Nothing is bound until Start.
func NewSupervisor(dir string, src Source, log zerolog.Logger) (*Supervisor, error) {
	handler, err := NewJSONHandler(src)
	if err != nil {
		return nil, err
	}

	s := &Supervisor{
		dir:    dir,
		log:    log.With().Str("component", "inspect").Logger(),
		Health: NewHealth(),
		http: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		grpc: grpc.NewServer(),
	}
	s.Health.Register(s.grpc)
	return s, nil
}

// Start binds both endpoints and serves them in the background
func (s *Supervisor) Start() error {
	jsonLn, err := listen(filepath.Join(s.dir, JSONEndpoint))
	if err != nil {
		return err
	}
	healthLn, err := listen(filepath.Join(s.dir, HealthEndpoint))
	if err != nil {
		jsonLn.Close()
		return err
	}

	s.g.Go(func() error {
		if err := s.http.Serve(jsonLn); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	s.g.Go(func() error {
		return s.grpc.Serve(healthLn)
	})

	s.log.Debug().Str("dir", s.dir).Msg("inspect endpoints bound")
	return nil
}

// Close stops both servers and waits for them to return
func (s *Supervisor) Close() error {
	s.Health.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.http.Shutdown(ctx)

	// health Watch streams never end on their own
	s.grpc.Stop()

	return errors.Join(err, s.g.Wait())
}

func listen(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("inspect: remove stale %s: %w", path, err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("inspect: bind %s: %w", path, err)
	}
	return ln, nil
}
