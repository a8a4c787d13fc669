package provider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderHTTPClient_Send(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	var gotHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)

		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom"))
			return
		}
		w.Header().Set("X-Test", "1")
		_, _ = w.Write([]byte("OK"))
	}))
	defer server.Close()

	client := NewProviderHTTPClient(CreateHTTPClientConfig(server.URL, false, 5*time.Second))

	t.Run("absolute url", func(t *testing.T) {
		resp, err := client.Send(context.Background(), http.MethodPost, server.URL+"/hosting/VerifyPayConfirm.asp",
			[]byte("DATA=x"), map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "OK", string(resp.Body))
		assert.Equal(t, "1", resp.Headers.Get("X-Test"))
		assert.Equal(t, http.MethodPost, gotMethod)
		assert.Equal(t, "/hosting/VerifyPayConfirm.asp", gotPath)
		assert.Equal(t, "DATA=x", gotBody)
		assert.Equal(t, "application/x-www-form-urlencoded", gotHeaders.Get("Content-Type"))
		assert.Equal(t, "saferpay-go/1.0", gotHeaders.Get("User-Agent"))
	})

	t.Run("relative endpoint", func(t *testing.T) {
		_, err := client.Send(context.Background(), http.MethodGet, "status", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "/status", gotPath)
	})

	t.Run("non-2xx is not an error", func(t *testing.T) {
		resp, err := client.Send(context.Background(), http.MethodPost, "/fail", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "boom", string(resp.Body))
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Send(ctx, http.MethodPost, "/", nil, nil)
		assert.Error(t, err)
	})
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, endpoint, want string
	}{
		{"http://h", "/a", "http://h/a"},
		{"http://h/", "/a", "http://h/a"},
		{"http://h", "a", "http://h/a"},
		{"http://h/", "a", "http://h/a"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, joinURL(tt.base, tt.endpoint))
	}
}

func TestCreateHTTPClientConfig(t *testing.T) {
	cfg := CreateHTTPClientConfig("", true, 0)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.False(t, cfg.InsecureSkipVerify)

	cfg = CreateHTTPClientConfig("https://test.saferpay.com", false, 10*time.Second)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.True(t, cfg.InsecureSkipVerify)
}
