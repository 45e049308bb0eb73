package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agenda/pkg/logger"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func okHandler(calls *int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = fmt.Fprintf(w, `{"call":%d}`, n)
	})
}

func TestInMemoryRateLimiter(t *testing.T) {
	rl := NewInMemoryRateLimiter(2, time.Minute)
	defer rl.Stop()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "customer:c1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := rl.Allow(ctx, "customer:c1")
	assert.False(t, ok, "third request in window must be rejected")

	ok, _ = rl.Allow(ctx, "customer:c2")
	assert.True(t, ok, "keys are counted separately")

	ok, _ = rl.Allow(ctx, "")
	assert.True(t, ok)
}

func TestRedisRateLimiter(t *testing.T) {
	mr, rdb := newRedis(t)
	rl := NewRedisRateLimiter(rdb, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "addr:10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rl.Allow(ctx, "addr:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = rl.Allow(ctx, "addr:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok, "window expired")
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewInMemoryRateLimiter(1, time.Minute)
	defer rl.Stop()
	var calls int32
	h := RateLimit(rl, nil, logger.Discard())(okHandler(&calls))

	req := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/slots", nil)
		r.Header.Set("X-Customer-ID", "c1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusCreated, req().Code)
	w := req()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
	assert.Equal(t, int32(1), calls)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	rl := NewRedisRateLimiter(rdb, 1, time.Minute)
	mr.Close()

	var calls int32
	h := RateLimit(rl, nil, logger.Discard())(okHandler(&calls))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slots", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCustomerOrAddress(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "addr:192.0.2.7", CustomerOrAddress(r))

	r.Header.Set("X-Customer-ID", " c9 ")
	assert.Equal(t, "customer:c9", CustomerOrAddress(r))
}

func TestIdempotency(t *testing.T) {
	_, rdb := newRedis(t)
	stores := map[string]IdempotencyStore{
		"memory": NewInMemoryIdempotencyStore(time.Hour),
		"redis":  NewRedisIdempotencyStore(rdb, time.Hour),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			defer store.Stop()
			var calls int32
			h := Idempotency(store, logger.Discard())(okHandler(&calls))

			send := func(path, key string) *httptest.ResponseRecorder {
				r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
				r.Header.Set(HeaderIdempotencyKey, key)
				w := httptest.NewRecorder()
				h.ServeHTTP(w, r)
				return w
			}

			first := send("/api/v1/bookings", "k1")
			second := send("/api/v1/bookings", "k1")
			assert.Equal(t, int32(1), calls)
			assert.Equal(t, http.StatusCreated, second.Code)
			assert.Equal(t, first.Body.String(), second.Body.String())
			assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))

			send("/api/v1/bookings/id/b1/reschedule", "k1")
			assert.Equal(t, int32(2), calls, "keys are scoped by route")

			send("/api/v1/bookings", "k2")
			assert.Equal(t, int32(3), calls)
		})
	}
}

func TestIdempotency_DoesNotCacheFailures(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls int32
	h := Idempotency(store, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusConflict)
	}))

	for i := 0; i < 2; i++ {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{}`))
		r.Header.Set(HeaderIdempotencyKey, "k1")
		h.ServeHTTP(httptest.NewRecorder(), r)
	}
	assert.Equal(t, int32(2), calls)
}

func TestContentTypeValidation(t *testing.T) {
	var calls int32
	h := ContentTypeValidation(logger.Discard())(okHandler(&calls))

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		wantStatus  int
	}{
		{"json post", http.MethodPost, `{}`, "application/json; charset=utf-8", http.StatusCreated},
		{"text post", http.MethodPost, `{}`, "text/plain", http.StatusUnsupportedMediaType},
		{"empty post", http.MethodPost, "", "", http.StatusCreated},
		{"get", http.MethodGet, "", "", http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestRequestTimeout(t *testing.T) {
	h := RequestTimeout(20*time.Millisecond, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "TIMEOUT")
}

func TestRequestLogging_PropagatesRequestID(t *testing.T) {
	var seen string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)
}

func TestMaxRequestSize(t *testing.T) {
	var calls int32
	h := MaxRequestSize(4)(okHandler(&calls))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"too":"long"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, int32(0), calls)
}
