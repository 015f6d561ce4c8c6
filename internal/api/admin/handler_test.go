//nolint:noctx // Test file uses http.NewRequest for simplicity
package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paddockpicks/paddock/internal/models"
	"github.com/paddockpicks/paddock/internal/service/badges"
	"github.com/paddockpicks/paddock/internal/service/orchestrator"
	"github.com/paddockpicks/paddock/internal/service/standings"
	"github.com/paddockpicks/paddock/pkg/logger"
	"github.com/paddockpicks/paddock/test/mocks"
)

const testToken = "s3cret"

func strPtr(s string) *string { return &s }

func setupRouter(t *testing.T) (*gin.Engine, *mocks.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Nop()
	store := mocks.NewStore()
	badgeSvc := badges.NewService(store, log)
	require.NoError(t, badgeSvc.EnsureCatalog(t.Context(), badges.DefaultCatalog()))

	standingsSvc := standings.NewService(store, store, store, nil, 2, log)
	scoringSvc := orchestrator.NewService(orchestrator.Dependencies{
		Events:      store,
		Results:     store,
		Predictions: store,
		Bonus:       store,
		Users:       store,
		Badges:      badgeSvc,
		Standings:   standingsSvc,
	}, 2, log)

	handler := NewHandler(scoringSvc, standingsSvc, store, store, log)
	router := gin.New()
	handler.Register(router.Group("/api/v1"), testToken)
	return router, store
}

func do(router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func lockedEvent(store *mocks.Store, kind string) uint {
	return store.AddEvent(models.Event{
		Name:   "Silverstone",
		Kind:   kind,
		Status: models.EventStatusLocked,
		LockAt: time.Now().Add(-time.Hour),
	})
}

func result() orchestrator.ResultPayload {
	return orchestrator.ResultPayload{
		PoleDriverID:       "NOR",
		WinnerDriverID:     "NOR",
		SecondDriverID:     "PIA",
		ThirdDriverID:      "HAM",
		FastestLapDriverID: "VER",
		FastestPitTeamID:   "MCL",
		NoDNF:              true,
		WinningMargin:      "0-5s",
	}
}

func TestBearerAuth(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"wrong", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/api/v1/admin/standings/recompute", nil, tt.token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	w := do(router, http.MethodPost, "/api/v1/admin/standings/recompute", nil, testToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBearerAuth_EmptyTokenRejectsEverything(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", BearerAuth(""), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req, _ := http.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer ")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPublishResult(t *testing.T) {
	router, store := setupRouter(t)
	event := lockedEvent(store, models.EventKindRace)
	user := store.AddUser(models.User{Username: "alice"})
	store.AddPrediction(models.RacePrediction{
		UserID:         &user,
		EventID:        event,
		PoleDriverID:   strPtr("NOR"),
		WinnerDriverID: strPtr("NOR"),
	})

	w := do(router, http.MethodPost, "/api/v1/admin/events/"+itoa(event)+"/result", result(), testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	summary := decode(t, w)["summary"].(map[string]any)
	assert.Equal(t, float64(1), summary["scored_count"])
	assert.Equal(t, float64(0), summary["failed"])
	assert.Equal(t, models.EventStatusScored, store.Event(event).Status)
	assert.Equal(t, 30, store.User(user).TotalPoints, "pole and winner")

	w = do(router, http.MethodPost, "/api/v1/admin/events/"+itoa(event)+"/rescore", nil, testToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["summary"].(map[string]any)["unchanged"])
}

func TestPublishResult_Errors(t *testing.T) {
	router, store := setupRouter(t)
	race := lockedEvent(store, models.EventKindRace)
	open := store.AddEvent(models.Event{
		Name:   "Spa",
		Kind:   models.EventKindRace,
		Status: models.EventStatusOpen,
		LockAt: time.Now().Add(time.Hour),
	})

	invalid := result()
	invalid.WinningMargin = "a lot"

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"bad id", "/api/v1/admin/events/abc/result", result(), http.StatusBadRequest},
		{"unknown event", "/api/v1/admin/events/999/result", result(), http.StatusNotFound},
		{"invalid payload", "/api/v1/admin/events/" + itoa(race) + "/result", invalid, http.StatusBadRequest},
		{"still open", "/api/v1/admin/events/" + itoa(open) + "/result", result(), http.StatusBadRequest},
		{"malformed json", "/api/v1/admin/events/" + itoa(race) + "/result", "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, tt.path, tt.body, testToken)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestBonusAnswerAndScore(t *testing.T) {
	router, store := setupRouter(t)
	event := lockedEvent(store, models.EventKindBonus)
	q := store.AddQuestion(models.BonusQuestion{
		EventID: event,
		Prompt:  "Constructors' champion?",
		Kind:    models.QuestionKindSingle,
		Points:  20,
		Options: []models.BonusOption{{Label: "MCL"}, {Label: "FER"}},
	})
	user := store.AddUser(models.User{Username: "bob"})
	store.AddResponse(models.BonusResponse{
		UserID:            &user,
		EventID:           event,
		QuestionID:        q.ID,
		SelectedOptionIDs: []uint{q.Options[0].ID},
	})

	// Unconfigured question blocks scoring.
	w := do(router, http.MethodPost, "/api/v1/admin/events/"+itoa(event)+"/bonus/score", nil, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := "/api/v1/admin/bonus/questions/" + itoa(q.ID) + "/answer"
	w = do(router, http.MethodPut, path, AnswerRequest{CorrectOptionIDs: []uint{q.Options[0].ID, q.Options[1].ID}}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code, "single-select question accepts one answer")

	w = do(router, http.MethodPut, path, AnswerRequest{CorrectOptionIDs: []uint{9999}}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPut, path, AnswerRequest{CorrectOptionIDs: []uint{q.Options[0].ID}}, testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(router, http.MethodPost, "/api/v1/admin/events/"+itoa(event)+"/bonus/score", nil, testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), decode(t, w)["summary"].(map[string]any)["scored_count"])
	assert.Equal(t, 20, store.User(user).TotalPoints)
}

func TestSetCorrectOptions_UnknownQuestion(t *testing.T) {
	router, _ := setupRouter(t)
	w := do(router, http.MethodPut, "/api/v1/admin/bonus/questions/999/answer", AnswerRequest{CorrectOptionIDs: []uint{1}}, testToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetEventStatus(t *testing.T) {
	router, store := setupRouter(t)
	event := lockedEvent(store, models.EventKindRace)
	path := "/api/v1/admin/events/" + itoa(event) + "/status"

	w := do(router, http.MethodPut, path, StatusRequest{Status: "finished"}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPut, path, StatusRequest{Status: models.EventStatusArchived}, testToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.EventStatusArchived, store.Event(event).Status)
}

func TestAdjustBonusPoints(t *testing.T) {
	router, store := setupRouter(t)
	user := store.AddUser(models.User{Username: "carol", BonusPoints: 5, TotalPoints: 5})

	w := do(router, http.MethodPost, "/api/v1/admin/users/"+itoa(user)+"/bonus-points", BonusPointsRequest{Delta: 10}, testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 15, store.User(user).BonusPoints)
	assert.Equal(t, 15, store.User(user).TotalPoints)

	w = do(router, http.MethodPost, "/api/v1/admin/users/999/bonus-points", BonusPointsRequest{Delta: 1}, testToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodPost, "/api/v1/admin/users/"+itoa(user)+"/bonus-points", map[string]int{"delta": 0}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecomputeStandings(t *testing.T) {
	router, store := setupRouter(t)
	a := store.AddUser(models.User{Username: "a", BonusPoints: 3, TotalPoints: 99})
	store.AddUser(models.User{Username: "b"})

	w := do(router, http.MethodPost, "/api/v1/admin/standings/recompute", nil, testToken)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, float64(2), resp["users"])
	assert.Equal(t, float64(2), resp["recomputed"])
	assert.Equal(t, 3, store.User(a).TotalPoints)
}
