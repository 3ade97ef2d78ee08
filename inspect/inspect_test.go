// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package inspect

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/rpc/v2/json2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	vrpc "github.com/luxfi/vst3rpc"
)

type fakeSource struct {
	mu    sync.Mutex
	stats vrpc.RegistryStats
	ids   []uint64
}

func (s *fakeSource) Stats() vrpc.RegistryStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *fakeSource) Instances() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids
}

func testStats(dir string) vrpc.RegistryStats {
	return vrpc.RegistryStats{
		BaseDir: dir,
		Control: vrpc.ChannelStats{
			Name:      "control.sock",
			Endpoint:  dir + "/control.sock",
			Listen:    true,
			Connected: true,
			Open:      2,
			Sent:      41,
			AdHoc:     3,
		},
		Callback: vrpc.ChannelStats{
			Name:      "callback.sock",
			Endpoint:  dir + "/callback.sock",
			Listen:    true,
			Connected: true,
			Serving:   true,
			Open:      1,
			Served:    7,
		},
		Instances: []vrpc.ChannelStats{{
			Name:      "instance_1.sock",
			Endpoint:  dir + "/instance_1.sock",
			Listen:    true,
			Connected: true,
			Open:      1,
			Sent:      1024,
		}},
	}
}

func testDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "insp")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func startSupervisor(t *testing.T, src Source) (*Supervisor, string) {
	t.Helper()
	dir := testDir(t)
	s, err := NewSupervisor(dir, src, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s, dir
}

func TestJSONHandler(t *testing.T) {
	require := require.New(t)

	src := &fakeSource{stats: testStats("/tmp/x"), ids: []uint64{1}}
	handler, err := NewJSONHandler(src)
	require.NoError(err)

	body, err := json2.EncodeClientRequest(ServiceName+".Stats", &NoArgs{})
	require.NoError(err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(http.StatusOK, rec.Code)

	var reply StatsReply
	require.NoError(json2.DecodeClientResponse(rec.Body, &reply))
	require.Equal(src.stats, reply.RegistryStats)
}

func TestClient(t *testing.T) {
	require := require.New(t)
	ctx := testContext(t)

	src := &fakeSource{}
	_, dir := startSupervisor(t, src)
	src.stats = testStats(dir)
	client := NewClient(dir)

	stats, err := client.Stats(ctx)
	require.NoError(err)
	require.Equal(src.stats, stats)

	ids, err := client.Instances(ctx)
	require.NoError(err)
	require.Equal([]uint64{}, ids)

	src.mu.Lock()
	src.ids = []uint64{3, 9}
	src.mu.Unlock()
	ids, err = client.Instances(ctx)
	require.NoError(err)
	require.Equal([]uint64{3, 9}, ids)
}

func TestClientNoSupervisor(t *testing.T) {
	_, err := NewClient(testDir(t)).Stats(testContext(t))
	require.ErrorContains(t, err, "retries")
}

func TestHealth(t *testing.T) {
	require := require.New(t)
	ctx := testContext(t)

	s, dir := startSupervisor(t, &fakeSource{})

	check := func(service string, want healthpb.HealthCheckResponse_ServingStatus) {
		t.Helper()
		status, err := CheckHealth(ctx, dir, service)
		require.NoError(err)
		require.Equal(want, status, service)
	}
	check("", healthpb.HealthCheckResponse_NOT_SERVING)
	check(ServiceControl, healthpb.HealthCheckResponse_NOT_SERVING)
	check(ServiceCallback, healthpb.HealthCheckResponse_NOT_SERVING)

	s.Health.SetServing(ServiceCallback, true)
	check(ServiceCallback, healthpb.HealthCheckResponse_SERVING)
	check("", healthpb.HealthCheckResponse_NOT_SERVING)

	s.Health.SetServing(ServiceControl, true)
	check(ServiceControl, healthpb.HealthCheckResponse_SERVING)
	check("", healthpb.HealthCheckResponse_SERVING)

	s.Health.SetServing(ServiceControl, false)
	check("", healthpb.HealthCheckResponse_NOT_SERVING)

	_, err := CheckHealth(ctx, dir, "instance")
	require.Error(err)
}

func TestIsRetryableError(t *testing.T) {
	_, err := (&net.Dialer{}).Dial("unix", "/nonexistent/inspect.sock")
	require.Error(t, err)
	require.True(t, isRetryableError(err))
	require.False(t, isRetryableError(context.Canceled))
}
