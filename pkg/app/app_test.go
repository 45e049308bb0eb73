package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agenda/pkg/config"
	"agenda/pkg/logger"
)

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		probes     map[string]Probe
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "no dependencies",
			probes:     map[string]Probe{},
			wantStatus: http.StatusOK,
			wantChecks: nil,
		},
		{
			name: "all healthy",
			probes: map[string]Probe{
				"mongo": func(context.Context) error { return nil },
				"redis": func(context.Context) error { return nil },
			},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"mongo": "ok", "redis": "ok"},
		},
		{
			name: "redis down",
			probes: map[string]Probe{
				"mongo": func(context.Context) error { return nil },
				"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"mongo": "ok", "redis": "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := httprouter.New()
			NewHealthHandler(tt.probes, logger.Discard()).RegisterRoutes(router)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			if tt.wantChecks == nil {
				assert.Empty(t, resp.Checks)
			} else {
				assert.Equal(t, tt.wantChecks, resp.Checks)
			}
		})
	}
}

type pingHandler struct{}

func (pingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/ping", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusCreated)
	})
}

func TestApplicationRouting(t *testing.T) {
	cfg := config.FromEnv("test")
	cfg.Log = logger.Discard()

	a := NewApplication()
	a.SetApp(cfg, pingHandler{})
	defer a.idempotencyStore.Stop()
	defer a.rateLimiter.Stop()

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	w = httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/ping", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
