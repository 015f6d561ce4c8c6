//nolint:noctx // Test file uses http.NewRequest for simplicity
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paddockpicks/paddock/internal/api/admin"
	"github.com/paddockpicks/paddock/internal/api/dashboard"
	"github.com/paddockpicks/paddock/internal/service/badges"
	"github.com/paddockpicks/paddock/internal/service/leaderboard"
	"github.com/paddockpicks/paddock/internal/service/orchestrator"
	"github.com/paddockpicks/paddock/internal/service/predictions"
	"github.com/paddockpicks/paddock/internal/service/standings"
	"github.com/paddockpicks/paddock/pkg/logger"
	"github.com/paddockpicks/paddock/test/mocks"
)

func newRouter(t *testing.T, checks map[string]HealthCheck) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Nop()
	store := mocks.NewStore()
	badgeSvc := badges.NewService(store, log)
	standingsSvc := standings.NewService(store, store, store, nil, 1, log)
	scoringSvc := orchestrator.NewService(orchestrator.Dependencies{
		Events:      store,
		Results:     store,
		Predictions: store,
		Bonus:       store,
		Users:       store,
		Badges:      badgeSvc,
		Standings:   standingsSvc,
	}, 1, log)

	dash := dashboard.NewHandler(
		badgeSvc,
		leaderboard.NewService(store, store, store, nil, 10, log),
		predictions.NewService(store, store, store, store, log),
		log,
	)
	adm := admin.NewHandler(scoringSvc, standingsSvc, store, store, log)

	return NewRouter(Options{
		AdminToken:  "token",
		MetricsPath: "/metrics",
		Checks:      checks,
	}, dash, adm, log)
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("healthy", func(t *testing.T) {
		w := get(newRouter(t, map[string]HealthCheck{"database": ok, "redis": ok}), "/health")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("redis down", func(t *testing.T) {
		w := get(newRouter(t, map[string]HealthCheck{"database": ok, "redis": down}), "/health")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var body struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "unhealthy", body.Status)
		assert.Equal(t, "ok", body.Checks["database"])
		assert.Equal(t, "connection refused", body.Checks["redis"])
	})
}

func TestRoutesMounted(t *testing.T) {
	router := newRouter(t, nil)

	assert.Equal(t, http.StatusOK, get(router, "/metrics").Code)
	assert.Equal(t, http.StatusOK, get(router, "/api/v1/leaderboard").Code)
	assert.Equal(t, http.StatusOK, get(router, "/api/v1/badges").Code)

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/admin/standings/recompute", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
