package middleware

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/healthmonitor/healthmonitor/internal/api/models"
	"github.com/healthmonitor/healthmonitor/internal/config"
)

// SecurityHeaders adds standard security headers to all HTTP responses.
// Strict-Transport-Security is only sent when SSL redirection is enabled.
func SecurityHeaders(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "geolocation=(), camera=(), microphone=()")
			if cfg.SSLRedirect {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IsSecure reports whether the request arrived over TLS, either directly or
// as marked by the configured proxy header.
func IsSecure(r *http.Request, cfg config.SecurityConfig) bool {
	if r.TLS != nil {
		return true
	}
	if cfg.ProxySSLHeader == "" {
		return false
	}
	return strings.EqualFold(r.Header.Get(cfg.ProxySSLHeader), cfg.ProxySSLValue)
}

// SSLRedirect permanently redirects plain HTTP requests to https when
// cfg.SSLRedirect is set.
func SSLRedirect(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.SSLRedirect {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsSecure(r, cfg) {
				next.ServeHTTP(w, r)
				return
			}

			target := url.URL{
				Scheme:   "https",
				Host:     requestHost(r, cfg.UseXForwardedHost),
				Path:     r.URL.Path,
				RawQuery: r.URL.RawQuery,
			}
			http.Redirect(w, r, target.String(), http.StatusMovedPermanently)
		})
	}
}

// AllowedHosts rejects requests whose host is not in hosts with 400.
// Entries may be exact names, "*", or ".example.com" to match the domain and
// every subdomain. In debug mode an empty list allows local hosts only.
func AllowedHosts(hosts []string, useXForwardedHost, debug bool) func(http.Handler) http.Handler {
	allowed := hosts
	if len(allowed) == 0 && debug {
		allowed = []string{".localhost", "127.0.0.1", "[::1]"}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := requestHost(r, useXForwardedHost)
			if !hostAllowed(stripPort(host), allowed) {
				problem := models.NewProblem(models.ProblemTypeBadHost, "Bad request", http.StatusBadRequest, GetRequestID(r.Context()))
				problem.Detail = "Invalid HTTP_HOST header: " + host
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CSRFOriginCheck rejects unsafe requests carrying an Origin header that is
// neither the request's own host nor one of the trusted origins.
func CSRFOriginCheck(trusted []string, cfg config.SecurityConfig) func(http.Handler) http.Handler {
	trustedSet := make(map[string]struct{}, len(trusted))
	for _, o := range trusted {
		trustedSet[strings.TrimRight(strings.ToLower(o), "/")] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if isSafeMethod(r.Method) || origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			origin = strings.TrimRight(strings.ToLower(origin), "/")
			if _, ok := trustedSet[origin]; ok || sameOrigin(origin, r, cfg) {
				next.ServeHTTP(w, r)
				return
			}

			problem := models.NewProblem(models.ProblemTypeCSRF, "Forbidden", http.StatusForbidden, GetRequestID(r.Context()))
			problem.Detail = "CSRF Failed: Origin checking failed - " + origin + " does not match any trusted origins."
			problem.Instance = r.URL.Path
			problem.Write(w)
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func sameOrigin(origin string, r *http.Request, cfg config.SecurityConfig) bool {
	scheme := "http"
	if IsSecure(r, cfg) {
		scheme = "https"
	}
	return origin == scheme+"://"+strings.ToLower(requestHost(r, cfg.UseXForwardedHost))
}

func requestHost(r *http.Request, useXForwardedHost bool) string {
	if useXForwardedHost {
		if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
			// The left-most entry is the host the client asked for.
			if i := strings.IndexByte(fwd, ','); i >= 0 {
				fwd = fwd[:i]
			}
			return strings.TrimSpace(fwd)
		}
	}
	return r.Host
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		if strings.Contains(h, ":") {
			return "[" + h + "]"
		}
		return h
	}
	return host
}

func hostAllowed(host string, allowed []string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return false
	}
	for _, pattern := range allowed {
		pattern = strings.ToLower(pattern)
		switch {
		case pattern == "*":
			return true
		case strings.HasPrefix(pattern, "."):
			if host == pattern[1:] || strings.HasSuffix(host, pattern) {
				return true
			}
		case host == pattern:
			return true
		}
	}
	return false
}
