package models

// HealthStatus is the status string reported by health responses.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// Static version strings reported by the API.
const (
	AppVersion = "1.0.0"
	APIVersion = "v1"
)

// Health is the body of GET /api/health/.
type Health struct {
	Status      HealthStatus   `json:"status"`
	Timestamp   Timestamp      `json:"timestamp"`
	Version     string         `json:"version"`
	Environment string         `json:"environment"`
	Debug       bool           `json:"debug"`
	Database    DatabaseHealth `json:"database"`
	Checks      HealthChecks   `json:"checks"`
}

// DatabaseHealth reports the database round-trip. ResponseTime is "OK" on
// success and the error text on failure.
type DatabaseHealth struct {
	Status       HealthStatus `json:"status"`
	ResponseTime string       `json:"response_time"`
}

// HealthChecks lists individual check outcomes.
type HealthChecks struct {
	Database bool `json:"database"`
	API      bool `json:"api"`
}

// VersionInfo is the body of GET /api/version/.
type VersionInfo struct {
	Version     string `json:"version"`
	APIVersion  string `json:"api_version"`
	Environment string `json:"environment"`
}

// Metrics is the body of GET /api/metrics/.
type Metrics struct {
	Users     UserMetrics  `json:"users"`
	Cache     CacheMetrics `json:"cache"`
	Timestamp Timestamp    `json:"timestamp"`
}

// UserMetrics holds user counts.
type UserMetrics struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

// CacheMetrics holds cache availability.
type CacheMetrics struct {
	Status string `json:"status"`
}
