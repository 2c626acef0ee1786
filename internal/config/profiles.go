package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

func applyDefaults(k *koanf.Koanf, profile Profile) {
	if profile.IsProduction() {
		applyProdDefaults(k, profile)
	}
	if profile == ProfileDev {
		setDefault(k, "debug", true)
		setDefault(k, "logging.format", "console")
		setDefault(k, "logging.level", "DEBUG")
	}
	applyBaseDefaults(k)
}

func applyBaseDefaults(k *koanf.Koanf) {
	setDefault(k, "debug", false)
	setDefault(k, "allowed_hosts", []string{"localhost", "127.0.0.1"})

	setDefault(k, "http.port", 8000)
	setDefault(k, "http.read_timeout", 15*time.Second)
	setDefault(k, "http.write_timeout", 15*time.Second)
	setDefault(k, "http.idle_timeout", 60*time.Second)
	setDefault(k, "http.requests_per_minute", 100)

	setDefault(k, "security.ssl_redirect", false)
	setDefault(k, "security.session_cookie_secure", false)
	setDefault(k, "security.csrf_cookie_secure", false)
	setDefault(k, "security.csrf_trusted_origins", []string{"http://localhost:3000", "http://localhost"})
	setDefault(k, "security.use_x_forwarded_host", false)
	setDefault(k, "security.proxy_ssl_header", "")
	setDefault(k, "security.proxy_ssl_value", "")

	setDefault(k, "cache.backend", CacheBackendLocMem)
	setDefault(k, "cache.location", "default")
	setDefault(k, "cache.default_ttl", 5*time.Minute)

	setDefault(k, "database.host", "localhost")
	setDefault(k, "database.port", 5432)
	setDefault(k, "database.user", "healthmonitor")
	setDefault(k, "database.password", "localdev")
	setDefault(k, "database.name", "healthmonitor")
	setDefault(k, "database.ssl_mode", "disable")
	setDefault(k, "database.max_open_conns", 10)
	setDefault(k, "database.min_conns", 2)
	setDefault(k, "database.conn_max_lifetime", 5*time.Minute)
	setDefault(k, "database.connect_timeout", 30*time.Second)

	setDefault(k, "logging.level", "INFO")
	setDefault(k, "logging.format", "json")

	setDefault(k, "telemetry.enabled", false)
	setDefault(k, "telemetry.otlp_endpoint", "localhost:4317")
}

// applyProdDefaults layers the production profile over base. The database
// section only adds options; connection fields still come from base.
func applyProdDefaults(k *koanf.Koanf, profile Profile) {
	setDefault(k, "security.ssl_redirect", true)
	setDefault(k, "security.session_cookie_secure", true)
	setDefault(k, "security.csrf_cookie_secure", true)
	setDefault(k, "security.use_x_forwarded_host", true)
	setDefault(k, "security.proxy_ssl_header", "X-Forwarded-Proto")
	setDefault(k, "security.proxy_ssl_value", "https")

	setDefault(k, "cache.backend", CacheBackendLocMem)
	setDefault(k, "cache.location", "prod-cache")

	setDefault(k, "database.options.statement_timeout", "30000")
	setDefault(k, "database.options.application_name", "healthmonitor")

	setDefault(k, "logging.level", "INFO")
	setDefault(k, "logging.format", "json")

	if profile == ProfileProdRender {
		setDefault(k, "database.ssl_mode", "require")
	}
}

// applyProfileInvariants runs after environment overrides.
func applyProfileInvariants(k *koanf.Koanf, profile Profile) {
	if profile.IsProduction() {
		k.Set("debug", false)
	}

	if profile == ProfileProdRender && k.String("cache.redis_url") != "" {
		k.Set("cache.backend", CacheBackendRedis)
	}

	if k.Bool("render") {
		if hostname := getString("RENDER_EXTERNAL_HOSTNAME", ""); hostname != "" {
			hosts := k.Strings("allowed_hosts")
			if !contains(hosts, hostname) {
				k.Set("allowed_hosts", append(hosts, hostname))
			}
		}
	}
}

func applyEnvOverrides(k *koanf.Koanf) {
	if raw, ok := lookup("DEBUG"); ok {
		k.Set("debug", parseBool(raw, false))
		k.Set("env_debug", raw == "True")
	}
	if raw, ok := lookup("RENDER"); ok {
		k.Set("render", parseBool(raw, false))
	}
	if hosts := getList("ALLOWED_HOSTS"); len(hosts) > 0 {
		k.Set("allowed_hosts", hosts)
	}

	// Render injects PORT; APP_PORT wins when both are present.
	if port := getInt("PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if port := getInt("APP_PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if rpm := getInt("RATE_LIMIT_PER_MINUTE", 0); rpm > 0 {
		k.Set("http.requests_per_minute", rpm)
	}

	setBoolFromEnv(k, "security.ssl_redirect", "SECURE_SSL_REDIRECT")
	setBoolFromEnv(k, "security.session_cookie_secure", "SESSION_COOKIE_SECURE")
	setBoolFromEnv(k, "security.csrf_cookie_secure", "CSRF_COOKIE_SECURE")
	if origins := getList("CSRF_TRUSTED_ORIGINS"); len(origins) > 0 {
		k.Set("security.csrf_trusted_origins", origins)
	}

	if backend := getString("CACHE_BACKEND", ""); backend != "" {
		k.Set("cache.backend", backend)
	}
	if url := getString("REDIS_URL", ""); url != "" {
		k.Set("cache.redis_url", url)
	}

	if url := getString("DATABASE_URL", ""); url != "" {
		k.Set("database.url", url)
	}
	setStringFromEnv(k, "database.host", "DB_HOST")
	setStringFromEnv(k, "database.user", "DB_USER")
	setStringFromEnv(k, "database.password", "DB_PASSWORD")
	setStringFromEnv(k, "database.name", "DB_NAME")
	setStringFromEnv(k, "database.ssl_mode", "DB_SSL_MODE")
	if port := getInt("DB_PORT", 0); port > 0 {
		k.Set("database.port", port)
	}
	if n := getInt("DB_MAX_OPEN_CONNS", 0); n > 0 {
		k.Set("database.max_open_conns", n)
	}
	if n := getInt("DB_MIN_CONNS", -1); n >= 0 {
		k.Set("database.min_conns", n)
	}
	if d := getDuration("DB_CONN_MAX_LIFETIME", 0); d > 0 {
		k.Set("database.conn_max_lifetime", d)
	}
	if d := getDuration("DB_CONNECT_TIMEOUT", -1); d >= 0 {
		k.Set("database.connect_timeout", d)
	}

	setStringFromEnv(k, "logging.level", "LOG_LEVEL")
	setStringFromEnv(k, "logging.format", "LOG_FORMAT")
	setStringFromEnv(k, "logging.file", "LOG_FILE")

	setBoolFromEnv(k, "telemetry.enabled", "OTEL_ENABLED")
	setStringFromEnv(k, "telemetry.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// setDefault only sets the value if the key doesn't already exist.
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}

func setStringFromEnv(k *koanf.Koanf, key, envKey string) {
	if v := getString(envKey, ""); v != "" {
		k.Set(key, v)
	}
}

func setBoolFromEnv(k *koanf.Koanf, key, envKey string) {
	if raw, ok := lookup(envKey); ok && raw != "" {
		k.Set(key, parseBool(raw, k.Bool(key)))
	}
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}
