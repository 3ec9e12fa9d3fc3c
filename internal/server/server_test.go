package server

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/agbru/picalc/internal/events"
)

func TestServer_StartShutdown(t *testing.T) {
	runRegistry := prometheus.NewRegistry()
	runs := prometheus.NewCounter(prometheus.CounterOpts{Name: "picalc_runs_total", Help: "runs"})
	runRegistry.MustRegister(runs)
	runs.Inc()

	s := New("127.0.0.1:0", NewMetrics(runRegistry), newTestLogger())
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, s.Shutdown(ctx))
	})

	base := "http://" + s.Addr()

	t.Run("metrics include extra gatherers", func(t *testing.T) {
		resp, err := http.Get(base + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "picalc_runs_total 1")
		assert.Contains(t, string(body), "picalc_active_requests")
		assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	})

	t.Run("healthz", func(t *testing.T) {
		resp, err := http.Get(base + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "ok", strings.TrimSpace(string(body)))
	})
}

func TestServer_StartInvalidAddr(t *testing.T) {
	s := New("256.0.0.1:bad", NewMetrics(), nil)
	assert.Error(t, s.Start())
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	s := New("127.0.0.1:0", NewMetrics(), nil)
	assert.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, "127.0.0.1:0", s.Addr())
}

func TestServer_EventStream(t *testing.T) {
	bus := events.NewBus()
	s := New("127.0.0.1:0", NewMetrics(), newTestLogger(), WithEventBus(bus))
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		bus.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, s.Shutdown(ctx))
	})

	ws, err := websocket.Dial("ws://"+s.Addr()+"/ws", "", "http://localhost/")
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	bus.Publish(events.Event{
		Type: events.TypePartialReceived,
		Data: events.Data{Worker: 2, Start: 500, Length: 250},
	})

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got events.Event
	require.NoError(t, websocket.JSON.Receive(ws, &got))
	assert.Equal(t, events.TypePartialReceived, got.Type)
	assert.Equal(t, 2, got.Data.Worker)
	assert.Equal(t, int64(500), got.Data.Start)

	require.NoError(t, ws.Close())
	assert.Eventually(t, func() bool { return bus.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_NoEventStreamWithoutBus(t *testing.T) {
	s := New("127.0.0.1:0", NewMetrics(), nil)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	resp, err := http.Get("http://" + s.Addr() + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
