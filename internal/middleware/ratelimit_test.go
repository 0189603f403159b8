package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter("test", 2, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1:1111"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1:2222"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:3333"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2:1111"))

	// one token refills every 30s
	now = now.Add(31 * time.Second)
	assert.Equal(t, http.StatusOK, hit("10.0.0.1:1111"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:1111"))
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter("test", 5, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("a")
	now = now.Add(30 * time.Second)
	rl.allow("b")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, rl.Cleanup())
	assert.Len(t, rl.visitors, 1)
	assert.Contains(t, rl.visitors, "b")
}
