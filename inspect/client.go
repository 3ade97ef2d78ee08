// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package inspect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/rpc/v2/json2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	vrpc "github.com/luxfi/vst3rpc"
)

const (
	maxRetries    = 3
	retryBaseWait = 100 * time.Millisecond
)

// Client queries a supervisor's endpoints in dir
type Client struct {
	dir  string
	http *http.Client
}

// NewClient returns a client for the supervisor bound in dir. The host part
// of request URLs is ignored, every request goes to the inspect socket.
func NewClient(dir string) *Client {
	path := filepath.Join(dir, JSONEndpoint)
	var d net.Dialer
	return &Client{
		dir: dir,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					return d.DialContext(ctx, "unix", path)
				},
				// one request per process is the common case
				DisableKeepAlives: true,
			},
		},
	}
}

// Stats returns the registry counters
func (c *Client) Stats(ctx context.Context) (vrpc.RegistryStats, error) {
	var reply StatsReply
	err := c.call(ctx, ServiceName+".Stats", &NoArgs{}, &reply)
	return reply.RegistryStats, err
}

// Instances returns the ids that own a fast channel
func (c *Client) Instances(ctx context.Context) ([]uint64, error) {
	var reply InstancesReply
	err := c.call(ctx, ServiceName+".Instances", &NoArgs{}, &reply)
	return reply.Instances, err
}

func (c *Client) call(ctx context.Context, method string, params, reply any) error {
	body, err := json2.EncodeClientRequest(method, params)
	if err != nil {
		return fmt.Errorf("failed to encode client params: %w", err)
	}

	var lastErr error
	for attempt := range maxRetries {
		if attempt > 0 {
			wait := retryBaseWait * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://inspect/", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if isRetryableError(err) {
				continue
			}
			return fmt.Errorf("failed to issue request: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			cleanlyCloseBody(resp.Body)
			return fmt.Errorf("received status code: %d", resp.StatusCode)
		}

		err = json2.DecodeClientResponse(resp.Body, reply)
		cleanlyCloseBody(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to decode client response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("failed to issue request after %d retries: %w", maxRetries, lastErr)
}

// CheckHealth asks the health service in dir for the status of service. An
// empty service asks for the overall status.
func CheckHealth(ctx context.Context, dir, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	path, err := filepath.Abs(filepath.Join(dir, HealthEndpoint))
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	conn, err := grpc.NewClient("unix://"+path, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("grpc dial: %w", err)
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// cleanlyCloseBody drains and closes an HTTP response body
func cleanlyCloseBody(body io.ReadCloser) error {
	if body == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, body)
	return body.Close()
}

// isRetryableError reports transient failures, mostly a supervisor that has
// not bound its socket yet
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ENOENT) {
		return true
	}
	return strings.Contains(err.Error(), "broken pipe")
}
