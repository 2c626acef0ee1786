package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/healthmonitor/healthmonitor/internal/api/middleware"
)

func TestRequestID_GeneratesNewID(t *testing.T) {
	var seen string
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health/", http.NoBody))

	assert.True(t, strings.HasPrefix(seen, "req_"))
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))
}

func TestRequestID_PreservesExistingID(t *testing.T) {
	var seen string
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/health/", http.NoBody)
	req.Header.Set("X-Request-Id", "lb-7f3a9c")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "lb-7f3a9c", seen)
	assert.Equal(t, "lb-7f3a9c", rec.Header().Get("X-Request-Id"))
}

func TestRequestID_ReplacesOversizedID(t *testing.T) {
	handler := middleware.RequestID(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/health/", http.NoBody)
	req.Header.Set("X-Request-Id", strings.Repeat("x", 129))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, strings.HasPrefix(rec.Header().Get("X-Request-Id"), "req_"))
}

func TestGetRequestID_ReturnsEmptyStringForMissingContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health/", http.NoBody)
	assert.Empty(t, middleware.GetRequestID(req.Context()))
}

func TestRequestID_UniqueIDs(t *testing.T) {
	handler := middleware.RequestID(okHandler())
	ids := make(map[string]bool)

	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health/", http.NoBody))

		id := rec.Header().Get("X-Request-Id")
		assert.False(t, ids[id], "duplicate request ID generated: %s", id)
		ids[id] = true
	}
}
