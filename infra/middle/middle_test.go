package middle

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/horo42/saferpay/infra/logger"
	"github.com/horo42/saferpay/provider"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	})
}

func TestAuthMiddleware(t *testing.T) {
	t.Setenv("API_KEY", "test-api-key")

	handler := AuthMiddleware("/callback/", "/health")(okHandler())

	tests := []struct {
		name           string
		path           string
		authHeader     string
		expectedStatus int
	}{
		{"Valid API key", "/v1/payments/saferpay/init", "Bearer test-api-key", http.StatusOK},
		{"Invalid API key", "/v1/payments/saferpay/init", "Bearer wrong-key", http.StatusUnauthorized},
		{"Missing Authorization header", "/v1/payments/saferpay/init", "", http.StatusUnauthorized},
		{"Invalid format", "/v1/payments/saferpay/init", "Basic test-api-key", http.StatusUnauthorized},
		{"Empty Bearer token", "/v1/payments/saferpay/init", "Bearer ", http.StatusUnauthorized},
		{"Public callback", "/callback/saferpay", "", http.StatusOK},
		{"Public health", "/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
		})
	}
}

func TestAuthMiddleware_NoKeyConfigured(t *testing.T) {
	t.Setenv("API_KEY", "")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/config/saferpay/fields", nil)
	req.Header.Set("Authorization", "Bearer anything")

	AuthMiddleware()(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rr.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Second)
	defer rl.Stop()

	clientIP := "192.168.1.1"

	if ok, remaining := rl.Allow(clientIP); !ok || remaining != 1 {
		t.Errorf("First request: allowed=%v remaining=%d", ok, remaining)
	}
	if ok, remaining := rl.Allow(clientIP); !ok || remaining != 0 {
		t.Errorf("Second request: allowed=%v remaining=%d", ok, remaining)
	}
	if ok, _ := rl.Allow(clientIP); ok {
		t.Error("Third request should be denied")
	}

	if ok, _ := rl.Allow("192.168.1.2"); !ok {
		t.Error("Other client should be allowed")
	}

	time.Sleep(1100 * time.Millisecond)

	if ok, _ := rl.Allow(clientIP); !ok {
		t.Error("Request after window reset should be allowed")
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	defer rl.Stop()

	if rl.rate != 100 {
		t.Errorf("Expected default rate 100, got %d", rl.rate)
	}
	if rl.window != time.Minute {
		t.Errorf("Expected default window 1m, got %s", rl.window)
	}

	rl.Stop()
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	handler := RateLimitMiddleware(rl)(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("First request: expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "1" {
		t.Errorf("Expected X-RateLimit-Limit 1, got %q", rr.Header().Get("X-RateLimit-Limit"))
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("Second request: expected status %d, got %d", http.StatusTooManyRequests, rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Errorf("Expected Retry-After 60, got %q", rr.Header().Get("Retry-After"))
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.1.1.1:80", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.3"}, "1.1.1.1:80", "10.0.0.3"},
		{"remote addr", nil, "192.168.1.1:12345", "192.168.1.1"},
		{"ipv6 loopback", nil, "[::1]:8080", "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := GetClientIP(req); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeadersMiddleware()(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))

	expectedHeaders := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Cache-Control":           "no-store",
	}

	for header, expected := range expectedHeaders {
		if actual := rr.Header().Get(header); actual != expected {
			t.Errorf("Expected header %s to be %s, got %s", header, expected, actual)
		}
	}
}

func TestIPWhitelistMiddleware(t *testing.T) {
	handler := IPWhitelistMiddleware([]string{"127.0.0.1", " 192.168.1.100 "})(okHandler())

	tests := []struct {
		name           string
		remoteAddr     string
		expectedStatus int
	}{
		{"Whitelisted IP", "127.0.0.1:12345", http.StatusOK},
		{"Trimmed entry", "192.168.1.100:12345", http.StatusOK},
		{"Non-whitelisted IP", "192.168.1.1:12345", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req.RemoteAddr = tt.remoteAddr

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
		})
	}

	t.Run("Empty list allows all", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "8.8.8.8:1"
		rr := httptest.NewRecorder()
		IPWhitelistMiddleware(nil)(okHandler()).ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", rr.Code)
		}
	})
}

func TestRequestValidationMiddleware(t *testing.T) {
	handler := RequestValidationMiddleware("/callback/")(okHandler())

	tests := []struct {
		name           string
		method         string
		path           string
		contentType    string
		body           string
		expectedStatus int
	}{
		{"Valid JSON POST", "POST", "/v1/payments/saferpay/init", "application/json", `{"amount":1000}`, http.StatusOK},
		{"GET request", "GET", "/v1/logs/saferpay", "", "", http.StatusOK},
		{"Missing Content-Type", "POST", "/v1/payments/saferpay/init", "", `{}`, http.StatusBadRequest},
		{"Form on API route", "POST", "/v1/payments/saferpay/init", "application/x-www-form-urlencoded", "a=b", http.StatusUnsupportedMediaType},
		{"Form on callback", "POST", "/callback/saferpay", "application/x-www-form-urlencoded; charset=utf-8", "DATA=x", http.StatusOK},
		{"XML on callback", "POST", "/callback/saferpay", "text/xml", "<x/>", http.StatusUnsupportedMediaType},
		{"Too large", "POST", "/v1/payments/saferpay/init", "application/json", strings.Repeat("a", maxRequestBytes+1), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = provider.RequestIDFromContext(r.Context())
	}))

	t.Run("generates id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

		if _, err := uuid.Parse(seen); err != nil {
			t.Errorf("Expected uuid request id, got %q", seen)
		}
		if rr.Header().Get(RequestIDHeader) != seen {
			t.Errorf("Expected response header %q, got %q", seen, rr.Header().Get(RequestIDHeader))
		}
	})

	t.Run("keeps valid incoming id", func(t *testing.T) {
		incoming := uuid.New().String()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, incoming)

		handler.ServeHTTP(httptest.NewRecorder(), req)

		if seen != incoming {
			t.Errorf("Expected %q, got %q", incoming, seen)
		}
	})

	t.Run("replaces invalid incoming id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "not-a-uuid\nInjected: 1")

		handler.ServeHTTP(httptest.NewRecorder(), req)

		if _, err := uuid.Parse(seen); err != nil {
			t.Errorf("Expected a fresh uuid, got %q", seen)
		}
	})
}

type captureLogger struct {
	levels  []logger.LogLevel
	entries []logger.LogContext
}

func (c *captureLogger) Log(level logger.LogLevel, message string, ctx ...logger.LogContext) {
	c.levels = append(c.levels, level)
	if len(ctx) > 0 {
		c.entries = append(c.entries, ctx[0])
	}
}

func TestPaymentLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		status        int
		expectedLevel logger.LogLevel
		provider      string
		logged        bool
	}{
		{"init ok", "/v1/payments/saferpay/init", http.StatusOK, logger.LevelInfo, "saferpay", true},
		{"complete rejected", "/v1/payments/saferpay/complete", http.StatusUnprocessableEntity, logger.LevelWarn, "saferpay", true},
		{"callback failed", "/callback/saferpay", http.StatusBadGateway, logger.LevelError, "saferpay", true},
		{"non payment", "/v1/logs/saferpay", http.StatusOK, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &captureLogger{}
			handler := PaymentLoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", tt.path, nil))

			if !tt.logged {
				if len(log.levels) != 0 {
					t.Errorf("Expected no log, got %d", len(log.levels))
				}
				return
			}

			if len(log.levels) != 1 {
				t.Fatalf("Expected one log entry, got %d", len(log.levels))
			}
			if log.levels[0] != tt.expectedLevel {
				t.Errorf("Expected level %s, got %s", tt.expectedLevel, log.levels[0])
			}
			if log.entries[0].Provider != tt.provider {
				t.Errorf("Expected provider %s, got %s", tt.provider, log.entries[0].Provider)
			}
			if log.entries[0].Fields["status"] != tt.status {
				t.Errorf("Expected status field %d, got %v", tt.status, log.entries[0].Fields["status"])
			}
		})
	}
}

func TestExtractFromURL(t *testing.T) {
	tests := []struct {
		path      string
		provider  string
		operation string
	}{
		{"/v1/payments/saferpay/init/billpay", "saferpay", "init/billpay"},
		{"/v1/payments/saferpay/complete", "saferpay", "complete"},
		{"/callback/saferpay", "saferpay", ""},
		{"/health", "", ""},
	}

	for _, tt := range tests {
		if got := extractProviderFromURL(tt.path); got != tt.provider {
			t.Errorf("%s: expected provider %q, got %q", tt.path, tt.provider, got)
		}
		if got := extractOperationFromURL(tt.path); got != tt.operation {
			t.Errorf("%s: expected operation %q, got %q", tt.path, tt.operation, got)
		}
	}
}
