// Package handlers wires the outside world to the game engine: HTTP
// endpoints for room and call management plus the websocket event loop.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	config "github.com/Knocktern/The-Quiet-Game/internal/config"
	game "github.com/Knocktern/The-Quiet-Game/internal/game"
	store "github.com/Knocktern/The-Quiet-Game/internal/store"
	util "github.com/Knocktern/The-Quiet-Game/internal/util"
	wordbank "github.com/Knocktern/The-Quiet-Game/internal/wordbank"
)

// HTTPHandler serves the REST surface. Room codes handed out here are
// not reserved; the game session materializes on the first join.
type HTTPHandler struct {
	cfg       *config.Config
	registry  *game.Registry
	store     *store.Store
	startTime time.Time
}

func NewHTTPHandler(cfg *config.Config, registry *game.Registry, st *store.Store) *HTTPHandler {
	return &HTTPHandler{
		cfg:       cfg,
		registry:  registry,
		store:     st,
		startTime: time.Now(),
	}
}

// CreateRoomHandler hands out a fresh shareable room code.
func (h *HTTPHandler) CreateRoomHandler(c *gin.Context) {
	code := util.GenerateRoomCode()
	util.LogInfo("Issued room code %s", code)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"room_code": code,
	})
}

// ValidateRoomHandler reports whether a room has a live session and how
// many players it holds. Unknown codes are still joinable, so valid is
// about liveness, not existence.
func (h *HTTPHandler) ValidateRoomHandler(c *gin.Context) {
	code := util.NormalizeRoomCode(c.Param("code"))

	sess, ok := h.registry.Get(code)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"valid": false, "players": 0})
		return
	}

	sess.Lock()
	players := sess.PlayerCount()
	sess.Unlock()

	c.JSON(http.StatusOK, gin.H{"valid": true, "players": players})
}

// CreateCallHandler opens a video call record and returns its share URL.
func (h *HTTPHandler) CreateCallHandler(c *gin.Context) {
	rec, err := h.store.CreateVideoCall()
	if err != nil {
		util.LogWarn("Video call creation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Could not create call",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Call created",
		"data": gin.H{
			"room_code":  rec.RoomCode,
			"start_time": rec.StartTime,
			"share_url":  fmt.Sprintf("/call/%s", rec.RoomCode),
		},
	})
}

// EndCallHandler closes a video call record.
func (h *HTTPHandler) EndCallHandler(c *gin.Context) {
	code := util.NormalizeRoomCode(c.Param("code"))

	rec, err := h.store.EndVideoCall(code)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Call not found or already ended",
		})
		return
	}
	if err != nil {
		util.LogWarn("Ending video call %s failed: %v", code, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Could not end call",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Call ended",
		"data":    rec,
	})
}

type createSessionRequest struct {
	Emotion       string         `json:"emotion"`
	PatternConfig map[string]any `json:"pattern_config"`
}

// CreateSessionHandler stores an emotion-encoding session for the
// asynchronous share-a-pattern mode.
func (h *HTTPHandler) CreateSessionHandler(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Emotion == "" || len(req.PatternConfig) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "emotion and pattern_config are required",
		})
		return
	}

	rec, err := h.store.CreateSession(req.Emotion, req.PatternConfig)
	if err != nil {
		util.LogWarn("Session record creation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Could not create session",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": rec})
}

// GetSessionHandler returns a stored pattern for decoding. The encoded
// emotion is withheld; the decoder learns it only by guessing.
func (h *HTTPHandler) GetSessionHandler(c *gin.Context) {
	rec, err := h.store.GetSession(c.Param("code"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"session_code":   rec.SessionCode,
			"pattern_config": rec.PatternConfig,
			"created_at":     rec.CreatedAt,
		},
	})
}

type guessSessionRequest struct {
	Emotion string `json:"emotion"`
}

// GuessSessionHandler records a decoder guess and reveals whether it
// matched.
func (h *HTTPHandler) GuessSessionHandler(c *gin.Context) {
	var req guessSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Emotion == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "emotion is required"})
		return
	}

	rec, err := h.store.RecordGuess(c.Param("code"), req.Emotion)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not record guess"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"correct":         rec.IsCorrect,
			"guessed_emotion": rec.GuessedEmotion,
		},
	})
}

// WordPoolHandler exposes the word bank shape for a difficulty, used by
// the lobby screen to show what a game will draw from.
func (h *HTTPHandler) WordPoolHandler(c *gin.Context) {
	difficulty := wordbank.NormalizeDifficulty(c.Query("difficulty"))
	c.JSON(http.StatusOK, gin.H{
		"difficulty": difficulty,
		"categories": wordbank.Categories(difficulty),
		"pool_size":  wordbank.PoolSize(difficulty),
	})
}

// HealthzHandler reports process liveness, uptime and live room count.
func (h *HTTPHandler) HealthzHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": util.FormatUptime(time.Since(h.startTime)),
		"rooms":  h.registry.Count(),
	})
}
