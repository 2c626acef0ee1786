package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmonitor/healthmonitor/internal/api/models"
)

func TestProblem_NewProblem(t *testing.T) {
	p := models.NewProblem(
		models.ProblemTypeNotFound,
		"Not found",
		http.StatusNotFound,
		"req_test123",
	)

	assert.Equal(t, models.ProblemTypeNotFound, p.Type)
	assert.Equal(t, "Not found", p.Title)
	assert.Equal(t, http.StatusNotFound, p.Status)
	assert.Equal(t, "req_test123", p.TraceID)
	assert.Empty(t, p.Detail)
	assert.Empty(t, p.Instance)
}

func TestProblem_Write(t *testing.T) {
	p := models.NewMethodNotAllowed("req_abc", `Method "POST" not allowed.`).WithInstance("/api/health/")
	rec := httptest.NewRecorder()

	p.Write(rec)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req_abc", rec.Header().Get("X-Request-Id"))

	var decoded models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, *p, decoded)
}

func TestProblem_Constructors(t *testing.T) {
	tests := []struct {
		problem *models.Problem
		status  int
		typ     string
	}{
		{models.NewBadRequest("t", "d"), http.StatusBadRequest, models.ProblemTypeValidation},
		{models.NewForbidden("t", "d"), http.StatusForbidden, models.ProblemTypeForbidden},
		{models.NewNotFound("t", "d"), http.StatusNotFound, models.ProblemTypeNotFound},
		{models.NewTooManyRequests("t", "d"), http.StatusTooManyRequests, models.ProblemTypeTooManyRequests},
		{models.NewInternalError("t", "d"), http.StatusInternalServerError, models.ProblemTypeInternal},
		{models.NewServiceUnavailable("t", "d"), http.StatusServiceUnavailable, models.ProblemTypeUnavailable},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.problem.Status)
		assert.Equal(t, tt.typ, tt.problem.Type)
		assert.Equal(t, "d", tt.problem.Detail)
	}
}

func TestTimestamp_JSONRoundTrip(t *testing.T) {
	ts := models.Timestamp(time.Date(2024, 3, 5, 10, 30, 15, 123456000, time.UTC))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-05T10:30:15.123456Z"`, string(data))

	var decoded models.Timestamp
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, ts.Time().Equal(decoded.Time()))
}
