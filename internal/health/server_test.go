package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/androfit/agent/internal/health"
	"github.com/androfit/agent/internal/logging"
	"github.com/androfit/agent/internal/metrics"
)

func get(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body map[string]string
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	srv := health.New(8081, "1.2.3", nil, nil, logging.NewNop())

	rec, body := get(t, srv.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestReadyz_FollowsWorkerState(t *testing.T) {
	ready := false
	srv := health.New(8081, "1.2.3", nil, func() bool { return ready }, logging.NewNop())

	rec, body := get(t, srv.Handler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", body["status"])

	ready = true
	rec, body = get(t, srv.Handler(), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])
}

func TestVersion(t *testing.T) {
	srv := health.New(8081, "1.2.3", nil, nil, logging.NewNop())

	rec, body := get(t, srv.Handler(), "/version")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.2.3", body["version"])
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.SessionsStarted.Inc()

	srv := health.New(8081, "1.2.3", m.Registry, nil, logging.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "androfit_sessions_started_total")
}
