package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/ai-podcast-backend/controllers"
	"github.com/vnkhanh/ai-podcast-backend/models"
	"github.com/vnkhanh/ai-podcast-backend/store"
	"github.com/vnkhanh/ai-podcast-backend/utils"
	"github.com/vnkhanh/ai-podcast-backend/ws"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	router *gin.Engine
	store  *store.Store
	issuer *utils.RoomTokenIssuer
}

func setupRouter(t *testing.T, adminKey string) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := store.New(store.NewMemoryRepository())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	hub := ws.NewHub()
	issuer := utils.NewRoomTokenIssuer("devkey", testSecret, time.Minute)

	r := SetupRouter(gin.New(), Deps{
		Podcasts:    &controllers.PodcastController{Store: s, Rooms: hub},
		Connections: &controllers.ConnectionController{Store: s, Issuer: issuer, ServerURL: "ws://rooms.test"},
		Health:      &controllers.HealthController{Store: s, Hub: hub},
		Hub:         hub,
		RoomTokens:  issuer,
		AdminKey:    adminKey,
	})
	return &fixture{router: r, store: s, issuer: issuer}
}

func (f *fixture) do(method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	f := setupRouter(t, "")
	w := f.do(http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	f := setupRouter(t, "")
	w := f.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "memory", body["db"])
	assert.EqualValues(t, len(models.DefaultPodcasts()), body["podcasts"].(map[string]any)["count"])
}

func TestListAndSearch(t *testing.T) {
	f := setupRouter(t, "")

	var all struct {
		Podcasts []models.Podcast `json:"podcasts"`
		Total    int              `json:"total"`
	}
	w := f.do(http.MethodGet, "/api/podcasts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Equal(t, len(models.DefaultPodcasts()), all.Total)

	var filtered struct {
		Podcasts []models.Podcast `json:"podcasts"`
	}
	w = f.do(http.MethodGet, "/api/podcasts?query=philosophy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &filtered))
	require.NotEmpty(t, filtered.Podcasts)
	for _, p := range filtered.Podcasts {
		assert.True(t, store.Matches(p, "philosophy"))
	}
}

func TestGetPodcast(t *testing.T) {
	f := setupRouter(t, "")

	w := f.do(http.MethodGet, "/api/podcasts/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p models.Podcast
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "1", p.ID)

	w = f.do(http.MethodGet, "/api/podcasts/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePodcast(t *testing.T) {
	f := setupRouter(t, "")

	w := f.do(http.MethodPost, "/api/podcasts", map[string]any{
		"title":  "Ocean Mysteries",
		"topics": "Deep sea creatures",
		"tags":   []string{"ocean", "science"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var p models.Podcast
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Ocean", p.Poster.Name)
	assert.Equal(t, []string{"ocean", "science"}, p.Tags)

	_, ok := f.store.Get(p.ID)
	assert.True(t, ok)

	w = f.do(http.MethodPost, "/api/podcasts", map[string]any{"title": " ", "topics": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/podcasts", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLikeUnlikeComment(t *testing.T) {
	f := setupRouter(t, "")
	before, _ := f.store.Get("2")

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPost, "/api/podcasts/2/like", nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPost, "/api/podcasts/2/comments", nil).Code)
	after, _ := f.store.Get("2")
	assert.Equal(t, before.Likes+1, after.Likes)
	assert.Equal(t, before.Comments+1, after.Comments)

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/podcasts/2/like", nil).Code)
	after, _ = f.store.Get("2")
	assert.Equal(t, before.Likes, after.Likes)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/podcasts/missing/like", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/podcasts/missing/like", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/podcasts/missing/comments", nil).Code)
}

func TestAdminRoutes(t *testing.T) {
	f := setupRouter(t, "s3cret")

	w := f.do(http.MethodPatch, "/api/podcasts/3", map[string]any{"title": "Retitled"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPatch, "/api/podcasts/3", map[string]any{"title": "Retitled"}, "X-Admin-Key", "s3cret")
	require.Equal(t, http.StatusOK, w.Code)
	var p models.Podcast
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "Retitled", p.Title)

	w = f.do(http.MethodPatch, "/api/podcasts/3", map[string]any{}, "X-Admin-Key", "s3cret")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPatch, "/api/podcasts/3", map[string]any{"likes": -4}, "X-Admin-Key", "s3cret")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPatch, "/api/podcasts/missing", map[string]any{"title": "x"}, "X-Admin-Key", "s3cret")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodDelete, "/api/podcasts/3", nil, "X-Admin-Key", "wrong")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodDelete, "/api/podcasts/3", nil, "X-Admin-Key", "s3cret")
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, ok := f.store.Get("3")
	assert.False(t, ok)

	w = f.do(http.MethodDelete, "/api/podcasts/3", nil, "X-Admin-Key", "s3cret")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConnectionDetails(t *testing.T) {
	f := setupRouter(t, "")

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/connection-details", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/connection-details?podcast=nope", nil).Code)

	w := f.do(http.MethodGet, "/api/connection-details?podcast=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var d controllers.ConnectionDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, "ws://rooms.test", d.ServerURL)
	assert.Equal(t, "podcast-tech-talk-with-ai-sarah-1", d.RoomName)
	assert.True(t, strings.HasPrefix(d.ParticipantName, "listener_"))
	assert.True(t, d.ExpiresAt.After(time.Now()))

	claims, err := f.issuer.Verify(d.ParticipantToken)
	require.NoError(t, err)
	assert.Equal(t, d.RoomName, claims.Video.Room)
	assert.Equal(t, d.ParticipantName, claims.Identity())
}

func TestUploadImageWithoutStorage(t *testing.T) {
	f := setupRouter(t, "")
	w := f.do(http.MethodPost, "/api/podcasts/1/image", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRoomRequiresToken(t *testing.T) {
	f := setupRouter(t, "")
	w := f.do(http.MethodGet, "/rtc", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadsRequireAdminKey(t *testing.T) {
	f := setupRouter(t, "s3cret")

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/podcasts/1/image", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/podcasts/1/knowledge", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/podcasts/1/knowledge", nil, "X-Admin-Key", "wrong").Code)

	w := f.do(http.MethodPost, "/api/podcasts/1/image", nil, "X-Admin-Key", "s3cret")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
