package middle

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/horo42/saferpay/infra/logger"
	"github.com/horo42/saferpay/provider"
)

// RequestIDHeader carries the bridge request id in both directions
const RequestIDHeader = "X-Request-ID"

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// RequestIDMiddleware assigns every request an id, reusing a valid incoming one,
// and stores it where gateway logs pick it up
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.New().String()
			}

			w.Header().Set(RequestIDHeader, requestID)
			r.Header.Set(RequestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(provider.WithRequestID(r.Context(), requestID)))
		})
	}
}

// PaymentLoggingMiddleware writes one log line per payment endpoint call to log
func PaymentLoggingMiddleware(log provider.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isPaymentEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			level := logger.LevelInfo
			switch {
			case rw.statusCode >= 500:
				level = logger.LevelError
			case rw.statusCode >= 400:
				level = logger.LevelWarn
			}

			log.Log(level, r.Method+" "+r.URL.Path, logger.LogContext{
				Provider:  extractProviderFromURL(r.URL.Path),
				RequestID: provider.RequestIDFromContext(r.Context()),
				Fields: map[string]any{
					"status":        rw.statusCode,
					"bytes":         rw.bytes,
					"duration_ms":   time.Since(start).Milliseconds(),
					"client_ip":     GetClientIP(r),
					"user_agent":    r.UserAgent(),
					"operation":     extractOperationFromURL(r.URL.Path),
					"response_size": rw.bytes,
				},
			})
		})
	}
}

// isPaymentEndpoint checks if the URL path is a payment-related endpoint
func isPaymentEndpoint(path string) bool {
	for _, prefix := range []string{"/v1/payments/", "/callback/"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// extractProviderFromURL returns {provider} of /v1/payments/{provider}/... and /callback/{provider}/...
func extractProviderFromURL(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case len(segments) >= 3 && segments[0] == "v1" && segments[1] == "payments":
		return segments[2]
	case len(segments) >= 2 && segments[0] == "callback":
		return segments[1]
	}
	return ""
}

// extractOperationFromURL returns the path below the provider segment, e.g. "init/billpay"
func extractOperationFromURL(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case len(segments) > 3 && segments[0] == "v1":
		return strings.Join(segments[3:], "/")
	case len(segments) > 2 && segments[0] == "callback":
		return strings.Join(segments[2:], "/")
	}
	return ""
}
