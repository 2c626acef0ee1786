// Package config loads the process-wide settings for the healthmonitor API.
//
// Settings are assembled once at start-up in this order (later wins):
//
//  1. .env files (ENV_FILE, or .env.local then .env)
//  2. an optional YAML settings file
//  3. defaults for the selected profile
//  4. environment variable overrides
//  5. profile invariants (prod profiles always run with Debug disabled)
//
// The profile is chosen by DJANGO_SETTINGS_MODULE. Only the last dotted
// segment is significant, so "backend.settings.prod" selects ProfileProd.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Profile names a settings profile.
type Profile string

// Known profiles.
const (
	ProfileBase       Profile = "base"
	ProfileDev        Profile = "dev"
	ProfileProd       Profile = "prod"
	ProfileProdRender Profile = "prod_render"
)

// IsProduction reports whether the profile is one of the production variants.
func (p Profile) IsProduction() bool {
	return p == ProfileProd || p == ProfileProdRender
}

// UnknownEnvironment is reported when no settings module is configured.
const UnknownEnvironment = "unknown"

// Cache backend names.
const (
	CacheBackendLocMem = "locmem"
	CacheBackendRedis  = "redis"
	CacheBackendDummy  = "dummy"
)

// Validation errors.
var (
	ErrUnknownProfile      = errors.New("unknown settings profile")
	ErrUnknownCacheBackend = errors.New("unknown cache backend")
	ErrMissingRedisURL     = errors.New("redis cache backend requires REDIS_URL")
	ErrInvalidPort         = errors.New("http port must be between 1 and 65535")
)

// Settings is the merged, validated configuration for the process.
type Settings struct {
	// Module is the raw DJANGO_SETTINGS_MODULE value, empty when unset.
	Module string `koanf:"module"`

	// Profile is the profile selected from Module.
	Profile Profile `koanf:"profile"`

	// Debug enables development behaviour (console logs, relaxed host checks).
	Debug bool `koanf:"debug"`

	// EnvDebug reports whether the DEBUG environment variable is exactly "True".
	// Production profiles force Debug off but health responses still report this.
	EnvDebug bool `koanf:"env_debug"`

	// Render is set when running on the Render platform (RENDER=true).
	Render bool `koanf:"render"`

	AllowedHosts []string        `koanf:"allowed_hosts"`
	HTTP         HTTPConfig      `koanf:"http"`
	Security     SecurityConfig  `koanf:"security"`
	Cache        CacheConfig     `koanf:"cache"`
	Database     DatabaseConfig  `koanf:"database"`
	Logging      LoggingConfig   `koanf:"logging"`
	Telemetry    TelemetryConfig `koanf:"telemetry"`
}

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Port              int           `koanf:"port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	RequestsPerMinute int           `koanf:"requests_per_minute"`
}

// SecurityConfig holds request security settings.
type SecurityConfig struct {
	SSLRedirect         bool     `koanf:"ssl_redirect"`
	SessionCookieSecure bool     `koanf:"session_cookie_secure"`
	CSRFCookieSecure    bool     `koanf:"csrf_cookie_secure"`
	CSRFTrustedOrigins  []string `koanf:"csrf_trusted_origins"`
	UseXForwardedHost   bool     `koanf:"use_x_forwarded_host"`

	// ProxySSLHeader and ProxySSLValue mark a request as secure when the
	// named header carries the value. Empty header disables the check.
	ProxySSLHeader string `koanf:"proxy_ssl_header"`
	ProxySSLValue  string `koanf:"proxy_ssl_value"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend    string        `koanf:"backend"`
	Location   string        `koanf:"location"`
	RedisURL   string        `koanf:"redis_url"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL, when set, takes precedence over the discrete fields.
	URL string `koanf:"url"`

	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MinConns        int           `koanf:"min_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`

	// Options are session runtime parameters applied to every connection.
	Options map[string]string `koanf:"options"`
}

// LoggingConfig configures the root logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled"`
	OTLPEndpoint string `koanf:"otlp_endpoint"`
}

// Environment returns the value reported as "environment" by the API.
func (s *Settings) Environment() string {
	if s.Module == "" {
		return UnknownEnvironment
	}
	return s.Module
}

// Load builds Settings from the optional YAML file at path and the environment.
func Load(path string) (*Settings, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load settings file: %w", err)
		}
	}

	module := getString("DJANGO_SETTINGS_MODULE", k.String("module"))
	profile, err := ParseProfile(module)
	if err != nil {
		return nil, err
	}
	k.Set("module", module)
	k.Set("profile", string(profile))

	applyDefaults(k, profile)
	applyEnvOverrides(k)
	applyProfileInvariants(k, profile)

	var s Settings
	if err := k.UnmarshalWithConf("", &s, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// ParseProfile maps a settings module path to a Profile.
// An empty module selects ProfileDev.
func ParseProfile(module string) (Profile, error) {
	if module == "" {
		return ProfileDev, nil
	}

	name := module
	if i := strings.LastIndex(module, "."); i >= 0 {
		name = module[i+1:]
	}

	switch p := Profile(name); p {
	case ProfileBase, ProfileDev, ProfileProd, ProfileProdRender:
		return p, nil
	case "settings":
		return ProfileBase, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProfile, module)
	}
}

// Validate checks the settings for internally inconsistent values.
func (s *Settings) Validate() error {
	if s.HTTP.Port < 1 || s.HTTP.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, s.HTTP.Port)
	}

	switch s.Cache.Backend {
	case CacheBackendLocMem, CacheBackendDummy:
	case CacheBackendRedis:
		if s.Cache.RedisURL == "" {
			return ErrMissingRedisURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCacheBackend, s.Cache.Backend)
	}

	return nil
}
