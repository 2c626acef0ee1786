// Package response provides utilities for HTTP response handling.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/healthmonitor/healthmonitor/internal/api/middleware"
	"github.com/healthmonitor/healthmonitor/internal/api/models"
)

// JSON writes a JSON response with the given status code.
// Includes X-Request-Id header for correlation.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	setRequestID(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// OK writes a 200 JSON response.
func OK(w http.ResponseWriter, r *http.Request, data interface{}) {
	JSON(w, r, http.StatusOK, data)
}

// Error writes a Problem+JSON error response for the current request.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	if problem.TraceID == "" {
		problem.TraceID = middleware.GetRequestID(r.Context())
	}
	problem.Instance = r.URL.Path
	problem.Write(w)
}

func setRequestID(w http.ResponseWriter, r *http.Request) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
}
