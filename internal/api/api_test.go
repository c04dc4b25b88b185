package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lzjever/streaming-lag/internal/api/middleware"
	"github.com/lzjever/streaming-lag/internal/core"
)

type staticSource struct{ status core.Status }

func (s staticSource) Status() core.Status { return s.status }

func newTestAPI(st core.Status) (*API, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "streaming_lag_test_gauge",
		Help: "test",
	}))
	return NewAPI(staticSource{st}, reg, zap.NewNop()), reg
}

func serve(a *API, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHealthHandler(t *testing.T) {
	a, _ := newTestAPI(core.Status{State: core.StateStarting})
	w := serve(a, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestReadyHandler(t *testing.T) {
	cases := []struct {
		state core.State
		want  int
	}{
		{core.StateStarting, http.StatusServiceUnavailable},
		{core.StateValidating, http.StatusServiceUnavailable},
		{core.StateIdle, http.StatusOK},
		{core.StateProcessing, http.StatusOK},
		{core.StateShuttingDown, http.StatusServiceUnavailable},
		{core.StateTerminated, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.state.String(), func(t *testing.T) {
			a, _ := newTestAPI(core.Status{State: tc.state})
			w := serve(a, http.MethodGet, "/readyz")
			assert.Equal(t, tc.want, w.Code)

			if tc.want != http.StatusOK {
				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, string(core.ErrUnavailable), resp.Code)
				assert.Contains(t, resp.Message, tc.state.String())
			}
		})
	}
}

func TestStatusHandler(t *testing.T) {
	beat := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	a, _ := newTestAPI(core.Status{
		Worker:        "streaming_lag",
		RunID:         "run-1",
		State:         core.StateIdle,
		Database:      "postgres",
		Schema:        "public",
		PrecisionMs:   5000,
		LastHeartbeat: &beat,
		Heartbeats:    3,
	})
	w := serve(a, http.MethodGet, "/v1/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "IDLE", resp["state"])
	assert.Equal(t, float64(5000), resp["precision_ms"])
	assert.Equal(t, float64(3), resp["heartbeats"])
	assert.Equal(t, "2024-01-02T03:04:05Z", resp["last_heartbeat"])
	assert.NotContains(t, resp, "validated_at")
}

func TestMetricsEndpoint(t *testing.T) {
	a, _ := newTestAPI(core.Status{})
	w := serve(a, http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "streaming_lag_test_gauge"))
}

func TestRequestIDPropagated(t *testing.T) {
	a, _ := newTestAPI(core.Status{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(middleware.RequestIDHeader))
}

func TestUnknownRoute(t *testing.T) {
	a, _ := newTestAPI(core.Status{})
	assert.Equal(t, http.StatusNotFound, serve(a, http.MethodGet, "/v1/workspaces").Code)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, core.NewAppError(core.ErrConfig, "bad precision"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "LAG_CONFIG", resp.Code)
	assert.Equal(t, "bad precision", resp.Message)
}
