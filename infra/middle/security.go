package middle

import (
	"net/http"
	"strings"

	"github.com/horo42/saferpay/infra/response"
)

const maxRequestBytes = 1 << 20

// SecurityHeadersMiddleware adds security headers to responses
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Cache-Control", "no-store")

			next.ServeHTTP(w, r)
		})
	}
}

// IPWhitelistMiddleware restricts access to allowed IPs. An empty list allows everyone.
func IPWhitelistMiddleware(allowed []string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, ip := range allowed {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(set) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := set[GetClientIP(r)]; !ok {
				response.Error(w, http.StatusForbidden, "IP not whitelisted", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestValidationMiddleware checks content type and size of write requests.
// Paths under callbackPrefixes also accept form posts, which is how the gateway delivers confirms.
func RequestValidationMiddleware(callbackPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxRequestBytes {
				response.Error(w, http.StatusRequestEntityTooLarge, "Request body too large", nil)
				return
			}

			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			isCallback := false
			for _, prefix := range callbackPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					isCallback = true
					break
				}
			}

			contentType := r.Header.Get("Content-Type")
			switch {
			case contentType == "":
				response.Error(w, http.StatusBadRequest, "Content-Type header is required", nil)
				return
			case strings.Contains(contentType, "application/json"):
			case isCallback && strings.Contains(contentType, "application/x-www-form-urlencoded"):
			case isCallback:
				response.Error(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json or application/x-www-form-urlencoded", nil)
				return
			default:
				response.Error(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
			next.ServeHTTP(w, r)
		})
	}
}
