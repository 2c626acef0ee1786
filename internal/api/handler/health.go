// Package handler provides HTTP handlers for the healthmonitor API.
package handler

import (
	"context"
	"net/http"

	"github.com/healthmonitor/healthmonitor/internal/api/models"
	"github.com/healthmonitor/healthmonitor/internal/api/response"
)

// HealthService builds the reports served by HealthHandler.
type HealthService interface {
	Health(ctx context.Context) *models.Health
	Version() *models.VersionInfo
	Metrics(ctx context.Context) (*models.Metrics, error)
}

// HealthHandler handles the health, version and metrics endpoints.
// Its methods match exception.HandlerFunc.
type HealthHandler struct {
	service HealthService
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(service HealthService) *HealthHandler {
	return &HealthHandler{service: service}
}

// Health handles GET /api/health/. A degraded report is served with 503 so
// load balancers take the instance out of rotation.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) error {
	health := h.service.Health(r.Context())

	status := http.StatusOK
	if health.Status != models.HealthStatusHealthy {
		status = http.StatusServiceUnavailable
	}

	response.JSON(w, r, status, health)
	return nil
}

// Version handles GET /api/version/.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) error {
	response.OK(w, r, h.service.Version())
	return nil
}

// Metrics handles GET /api/metrics/.
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) error {
	metrics, err := h.service.Metrics(r.Context())
	if err != nil {
		return err
	}

	response.OK(w, r, metrics)
	return nil
}
