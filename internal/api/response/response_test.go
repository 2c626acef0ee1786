package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/healthmonitor/healthmonitor/internal/api/middleware"
	"github.com/healthmonitor/healthmonitor/internal/api/models"
	"github.com/healthmonitor/healthmonitor/internal/api/response"
)

// requestWithID returns a request whose context went through the RequestID
// middleware with the given client ID.
func requestWithID(t *testing.T, method, path, id string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)
	req.Header.Set("X-Request-Id", id)

	var processed *http.Request
	middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		processed = r
	})).ServeHTTP(httptest.NewRecorder(), req)

	return processed
}

func TestJSON_IncludesRequestID(t *testing.T) {
	req := requestWithID(t, http.MethodGet, "/api/version/", "req_json")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "req_json" {
		t.Errorf("expected X-Request-Id req_json, got %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", got)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "degraded" {
		t.Errorf("expected status degraded, got %q", body["status"])
	}
}

func TestJSON_WithoutRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/version/", http.NoBody)
	rec := httptest.NewRecorder()

	response.OK(rec, req, map[string]string{"version": "1.0.0"})

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "" {
		t.Errorf("expected no X-Request-Id header, got %q", got)
	}
}

func TestJSON_NilData(t *testing.T) {
	req := requestWithID(t, http.MethodGet, "/api/health/", "req_nil")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, nil)

	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body for nil data, got %q", rec.Body.String())
	}
}

func TestError_FillsTraceIDAndInstance(t *testing.T) {
	req := requestWithID(t, http.MethodGet, "/api/metrics/", "req_err")
	rec := httptest.NewRecorder()

	response.Error(rec, req, models.NewServiceUnavailable("", "database unavailable"))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}

	var problem models.Problem
	if err := json.NewDecoder(rec.Body).Decode(&problem); err != nil {
		t.Fatalf("failed to decode Problem response: %v", err)
	}
	if problem.TraceID != "req_err" {
		t.Errorf("expected traceId req_err, got %q", problem.TraceID)
	}
	if problem.Instance != "/api/metrics/" {
		t.Errorf("expected instance /api/metrics/, got %q", problem.Instance)
	}
}
