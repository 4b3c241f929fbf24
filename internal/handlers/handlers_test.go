package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	game "github.com/Knocktern/The-Quiet-Game/internal/game"
	store "github.com/Knocktern/The-Quiet-Game/internal/store"
)

func testRouter(t *testing.T) (*gin.Engine, *game.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	registry := game.NewRegistry(60 * time.Second)
	h := NewHTTPHandler(testConfig(), registry, st)

	router := gin.New()
	router.POST("/game/create", h.CreateRoomHandler)
	router.GET("/game/validate/:code", h.ValidateRoomHandler)
	router.GET("/game/words", h.WordPoolHandler)
	router.POST("/api/call/create", h.CreateCallHandler)
	router.POST("/api/call/:code/end", h.EndCallHandler)
	router.POST("/api/session/create", h.CreateSessionHandler)
	router.GET("/api/session/:code", h.GetSessionHandler)
	router.POST("/api/session/:code/guess", h.GuessSessionHandler)
	router.GET("/healthz", h.HealthzHandler)
	return router, registry
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateRoom(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/game/create", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success  bool   `json:"success"`
		RoomCode string `json:"room_code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.RoomCode, 9)
}

func TestValidateRoom(t *testing.T) {
	router, registry := testRouter(t)

	w := doJSON(t, router, http.MethodGet, "/game/validate/ABCD-EFGH", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Valid   bool `json:"valid"`
		Players int  `json:"players"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)

	registry.Join("ABCD-EFGH", "p1", "alice")
	w = doJSON(t, router, http.MethodGet, "/game/validate/abcd-efgh", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid, "lookup normalizes the room code")
	assert.Equal(t, 1, resp.Players)
}

func TestCallLifecycleOverHTTP(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/call/create", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data struct {
			RoomCode string `json:"room_code"`
			ShareURL string `json:"share_url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "/call/"+resp.Data.RoomCode, resp.Data.ShareURL)

	w = doJSON(t, router, http.MethodPost, "/api/call/"+resp.Data.RoomCode+"/end", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/call/"+resp.Data.RoomCode+"/end", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionEndpoints(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/session/create", map[string]any{
		"emotion":        "happy",
		"pattern_config": map[string]any{"tempo": "fast"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data struct {
			SessionCode string `json:"session_code"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodGet, "/api/session/"+created.Data.SessionCode, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"emotion"`, "the stored emotion stays hidden from decoders")

	w = doJSON(t, router, http.MethodPost, "/api/session/"+created.Data.SessionCode+"/guess",
		map[string]string{"emotion": "happy"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"correct":true`)

	w = doJSON(t, router, http.MethodPost, "/api/session/create", map[string]any{"emotion": "happy"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWordPool(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodGet, "/game/words?difficulty=hard", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Difficulty string   `json:"difficulty"`
		Categories []string `json:"categories"`
		PoolSize   int      `json:"pool_size"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "hard", resp.Difficulty)
	assert.NotEmpty(t, resp.Categories)
	assert.Positive(t, resp.PoolSize)
}

func TestHealthz(t *testing.T) {
	router, registry := testRouter(t)
	registry.GetOrCreate("ABCD-EFGH")

	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string `json:"status"`
		Rooms  int    `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Rooms)
}
