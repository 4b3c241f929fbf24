package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	config "github.com/Knocktern/The-Quiet-Game/internal/config"
	constants "github.com/Knocktern/The-Quiet-Game/internal/constants"
	game "github.com/Knocktern/The-Quiet-Game/internal/game"
	hub "github.com/Knocktern/The-Quiet-Game/internal/hub"
	models "github.com/Knocktern/The-Quiet-Game/internal/models"
	util "github.com/Knocktern/The-Quiet-Game/internal/util"
	wordbank "github.com/Knocktern/The-Quiet-Game/internal/wordbank"
)

// SocketHandler runs the websocket side: upgrade, read loop, event
// dispatch. Every room-mutating event takes the session lock before the
// engine call and releases it only after fan-out, so everyone observes
// events in the order the engine applied them.
type SocketHandler struct {
	cfg      *config.Config
	registry *game.Registry
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

func NewSocketHandler(cfg *config.Config, registry *game.Registry, h *hub.Hub) *SocketHandler {
	return &SocketHandler{
		cfg:      cfg,
		registry: registry,
		hub:      h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and runs the connection until it drops.
func (s *SocketHandler) ServeWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		util.LogWarn("Websocket upgrade failed: %v", err)
		return
	}

	client := hub.NewClient(conn)
	go client.WritePump()

	// Roster cleanup must survive a panicking event handler; a player
	// left registered would block the all-guessed check forever and
	// keep the room alive past its TTL.
	defer s.disconnect(client)

	s.hub.SendTo(client, models.Event{
		Type: constants.EventConnected,
		Data: gin.H{"sid": client.ID},
	})

	limiter := rate.NewLimiter(rate.Limit(s.cfg.SocketRPS), s.cfg.SocketBurst)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var env models.Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Type == "" {
			s.sendError(client, constants.ErrorCodeMissingFields, "Malformed event")
			continue
		}

		if !limiter.Allow() {
			s.sendError(client, constants.ErrorCodeRateLimited, "Slow down")
			continue
		}

		s.dispatch(client, env)
	}
}

func (s *SocketHandler) dispatch(client *hub.Client, env models.Envelope) {
	switch env.Type {
	case constants.EventJoinGame:
		s.handleJoin(client, env.Data)
	case constants.EventLeaveGame:
		s.handleLeave(client)
	case constants.EventPlayerReady:
		s.handleReady(client, env.Data)
	case constants.EventStartGame:
		s.handleStart(client, env.Data)
	case constants.EventSelectWord:
		s.handleSelectWord(client, env.Data)
	case constants.EventSubmitGuess:
		s.handleGuess(client, env.Data)
	case constants.EventRequestHint:
		s.handleHint(client)
	case constants.EventTimeUp:
		s.handleTimeUp(client)
	case constants.EventChatMessage:
		s.handleChat(client, env.Data)
	case constants.EventOffer, constants.EventAnswer, constants.EventIceCandidate:
		s.handleSignal(client, env.Type, env.Data)
	default:
		s.sendError(client, constants.ErrorCodeMissingFields, fmt.Sprintf("Unknown event %q", env.Type))
	}
}

func (s *SocketHandler) sendError(client *hub.Client, code, message string) {
	s.hub.SendTo(client, models.Event{
		Type: constants.EventError,
		Data: gin.H{"code": code, "message": message},
	})
}

// session resolves the client's room or reports the failure to the
// caller alone.
func (s *SocketHandler) session(client *hub.Client) (*game.Session, bool) {
	if client.RoomCode == "" {
		s.sendError(client, constants.ErrorCodeNotInGame, "Join a game first")
		return nil, false
	}
	sess, ok := s.registry.Get(client.RoomCode)
	if !ok {
		s.sendError(client, constants.ErrorCodeRoomNotFound, "Game not found")
		return nil, false
	}
	return sess, true
}

type joinPayload struct {
	RoomCode string `json:"roomCode"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func (s *SocketHandler) handleJoin(client *hub.Client, raw json.RawMessage) {
	var p joinPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.RoomCode == "" || p.UserID == "" {
		s.sendError(client, constants.ErrorCodeMissingFields, "roomCode and userId are required")
		return
	}

	roomCode := util.NormalizeRoomCode(p.RoomCode)
	username := p.Username
	if username == "" {
		suffix := p.UserID
		if len(suffix) > 4 {
			suffix = suffix[len(suffix)-4:]
		}
		username = "Player_" + suffix
	}

	sess, added := s.registry.Join(roomCode, p.UserID, username)

	sess.Lock()
	defer sess.Unlock()

	s.hub.Register(roomCode, p.UserID, username, client)

	midGame := sess.GameStarted() && !sess.GameEnded()
	snapshot := sess.Snapshot()

	s.hub.SendToUser(roomCode, p.UserID, models.Event{
		Type: constants.EventGameState,
		Data: gin.H{"gameState": snapshot, "isMidGameJoin": midGame},
	})

	if added {
		util.LogInfo("User %s (%s) joined room %s", username, p.UserID, roomCode)
		s.hub.BroadcastExcept(roomCode, p.UserID, models.Event{
			Type: constants.EventPlayerJoined,
			Data: gin.H{
				"userId":        p.UserID,
				"username":      username,
				"gameState":     snapshot,
				"isMidGameJoin": midGame,
			},
		})
	}
}

func (s *SocketHandler) handleLeave(client *hub.Client) {
	s.removeFromGame(client)
}

// disconnect runs when the read loop ends, for whatever reason. A drop
// without a leave-game event is treated as a leave.
func (s *SocketHandler) disconnect(client *hub.Client) {
	s.removeFromGame(client)
	client.Close()
}

func (s *SocketHandler) removeFromGame(client *hub.Client) {
	if client.RoomCode == "" {
		return
	}
	roomCode, userID := client.RoomCode, client.UserID

	sess, ok := s.registry.Get(roomCode)
	if ok {
		sess.Lock()
		removed := sess.RemovePlayer(userID)
		sess.Touch()
		if removed {
			snapshot := sess.Snapshot()
			s.hub.BroadcastExcept(roomCode, userID, models.Event{
				Type: constants.EventPlayerLeft,
				Data: gin.H{"userId": userID, "gameState": snapshot},
			})
			util.LogInfo("User %s left room %s", userID, roomCode)
		}
		sess.Unlock()
	}

	s.hub.Unregister(client)
	client.RoomCode = ""
	s.registry.RemoveIfEmpty(roomCode)
}

type readyPayload struct {
	IsReady *bool `json:"isReady"`
}

func (s *SocketHandler) handleReady(client *hub.Client, raw json.RawMessage) {
	var p readyPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.IsReady == nil {
		s.sendError(client, constants.ErrorCodeMissingFields, "isReady is required")
		return
	}

	sess, ok := s.session(client)
	if !ok {
		return
	}

	sess.Lock()
	defer sess.Unlock()

	sess.SetReady(client.UserID, *p.IsReady)
	sess.Touch()

	s.hub.Broadcast(client.RoomCode, models.Event{
		Type: constants.EventPlayerReadyUpdate,
		Data: gin.H{
			"userId":    client.UserID,
			"isReady":   *p.IsReady,
			"allReady":  sess.AllReady(),
			"gameState": sess.Snapshot(),
		},
	})
}

type startPayload struct {
	Difficulty string `json:"difficulty"`
}

func (s *SocketHandler) handleStart(client *hub.Client, raw json.RawMessage) {
	var p startPayload
	_ = json.Unmarshal(raw, &p)

	sess, ok := s.session(client)
	if !ok {
		return
	}

	sess.Lock()
	defer sess.Unlock()

	if !sess.Start(s.cfg.RoundsPerPlayer) {
		s.sendError(client, constants.ErrorCodeCantStart, "Need at least 2 players to start")
		return
	}
	sess.SetDifficulty(wordbank.NormalizeDifficulty(p.Difficulty))
	sess.Touch()

	actorID := sess.CurrentActor()
	util.LogInfo("Game started in room %s, %d rounds, actor %s", client.RoomCode, sess.MaxRounds(), actorID)

	s.hub.Broadcast(client.RoomCode, models.Event{
		Type: constants.EventGameStarted,
		Data: gin.H{"gameState": sess.Snapshot(), "actorId": actorID},
	})

	s.offerWordChoices(client.RoomCode, actorID, sess.Difficulty())
}

// offerWordChoices sends a private word menu to the actor only. The
// rest of the room never sees the candidates.
func (s *SocketHandler) offerWordChoices(roomCode, actorID, difficulty string) {
	choices := wordbank.SelectWordChoices(difficulty, constants.WordChoiceCount)
	if !s.hub.SendToUser(roomCode, actorID, models.Event{
		Type: constants.EventWordChoices,
		Data: gin.H{"words": choices},
	}) {
		util.LogWarn("Actor %s has no live connection in room %s", actorID, roomCode)
	}
}

type selectWordPayload struct {
	Word       string `json:"word"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

func (s *SocketHandler) handleSelectWord(client *hub.Client, raw json.RawMessage) {
	var p selectWordPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Word == "" {
		s.sendError(client, constants.ErrorCodeMissingFields, "word is required")
		return
	}

	sess, ok := s.session(client)
	if !ok {
		return
	}

	sess.Lock()
	defer sess.Unlock()

	if sess.CurrentActor() != client.UserID {
		s.sendError(client, constants.ErrorCodeNotYourTurn, "It is not your turn to perform")
		return
	}

	round := sess.StartNewRound(models.WordChoice{
		Word:       p.Word,
		Category:   p.Category,
		Difficulty: p.Difficulty,
	})
	if round == nil {
		s.sendError(client, constants.ErrorCodeCantStart, "Game is not running")
		return
	}
	sess.Touch()

	s.hub.Broadcast(client.RoomCode, models.Event{
		Type: constants.EventRoundStarted,
		Data: gin.H{
			"roundNumber": round.RoundNumber,
			"actorId":     round.ActorID,
			"category":    round.Category,
			"wordLength":  len([]rune(round.Word)),
			"difficulty":  round.Difficulty,
			"roundTime":   int(s.cfg.RoundTime.Seconds()),
		},
	})

	s.hub.SendToUser(client.RoomCode, round.ActorID, models.Event{
		Type: constants.EventYourWord,
		Data: gin.H{"word": round.Word, "category": round.Category},
	})
}

type guessPayload struct {
	Guess string `json:"guess"`
}

func (s *SocketHandler) handleGuess(client *hub.Client, raw json.RawMessage) {
	var p guessPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Guess == "" {
		s.sendError(client, constants.ErrorCodeMissingFields, "guess is required")
		return
	}

	sess, ok := s.session(client)
	if !ok {
		return
	}

	sess.Lock()
	defer sess.Unlock()

	outcome := sess.SubmitGuess(client.UserID, p.Guess)
	sess.Touch()

	if outcome.Reason != "" {
		s.sendError(client, outcome.Reason, refusalMessage(outcome.Reason))
		return
	}

	if !outcome.Correct {
		s.hub.Broadcast(client.RoomCode, models.Event{
			Type: constants.EventGuessMade,
			Data: gin.H{
				"userId":   client.UserID,
				"username": client.Username,
				"guess":    p.Guess,
			},
		})
		return
	}

	s.hub.Broadcast(client.RoomCode, models.Event{
		Type: constants.EventCorrectGuess,
		Data: gin.H{
			"userId":      client.UserID,
			"username":    client.Username,
			"points":      outcome.Points,
			"leaderboard": sess.Leaderboard(),
		},
	})

	if outcome.AllGuessed {
		s.settleRound(client.RoomCode, sess)
	}
}

func refusalMessage(code string) string {
	switch code {
	case constants.ErrorCodeNoActiveRound:
		return "No round is in progress"
	case constants.ErrorCodeActorCantGuess:
		return "The performer cannot guess their own word"
	case constants.ErrorCodeNotInGame:
		return "You are not in this game"
	case constants.ErrorCodeAlreadyGuessed:
		return "You already guessed this round"
	default:
		return "Guess rejected"
	}
}

func (s *SocketHandler) handleHint(client *hub.Client) {
	sess, ok := s.session(client)
	if !ok {
		return
	}

	sess.Lock()
	defer sess.Unlock()

	hint, ok := sess.UseHint()
	if !ok {
		s.sendError(client, constants.ErrorCodeNoActiveRound, "No round is in progress")
		return
	}
	sess.Touch()

	round, _ := sess.CurrentRound()
	s.hub.Broadcast(client.RoomCode, models.Event{
		Type: constants.EventHint,
		Data: gin.H{"hint": hint, "hintsUsed": round.HintsUsed},
	})
}

func (s *SocketHandler) handleTimeUp(client *hub.Client) {
	sess, ok := s.session(client)
	if !ok {
		return
	}

	sess.Lock()
	defer sess.Unlock()
	s.settleRound(client.RoomCode, sess)
}

// settleRound ends the active round and drives the follow-up: either
// the next actor's private word menu or the final results. Duplicate
// signals for an already-settled round fall through the EndRound no-op.
// Session lock must be held.
func (s *SocketHandler) settleRound(roomCode string, sess *game.Session) {
	round, ok := sess.CurrentRound()
	if !ok {
		return
	}
	summary, ok := sess.EndRound()
	if !ok {
		return
	}
	sess.Touch()

	s.hub.Broadcast(roomCode, models.Event{
		Type: constants.EventRoundEnded,
		Data: gin.H{
			"word":      round.Word,
			"summary":   summary,
			"gameState": sess.Snapshot(),
			"gameEnded": sess.GameEnded(),
		},
	})

	if sess.GameEnded() {
		util.LogInfo("Game over in room %s after %d rounds", roomCode, sess.TotalRounds())
		s.hub.Broadcast(roomCode, models.Event{
			Type: constants.EventGameOver,
			Data: gin.H{"results": sess.FinalResults()},
		})
		return
	}

	actorID := sess.CurrentActor()
	s.hub.Broadcast(roomCode, models.Event{
		Type: constants.EventNextRound,
		Data: gin.H{"actorId": actorID, "gameState": sess.Snapshot()},
	})
	s.offerWordChoices(roomCode, actorID, sess.Difficulty())
}

type chatPayload struct {
	Message string `json:"message"`
}

func (s *SocketHandler) handleChat(client *hub.Client, raw json.RawMessage) {
	var p chatPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Message == "" {
		s.sendError(client, constants.ErrorCodeMissingFields, "message is required")
		return
	}

	sess, ok := s.session(client)
	if !ok {
		return
	}

	sess.Lock()
	sess.Touch()
	sess.Unlock()

	s.hub.Broadcast(client.RoomCode, models.Event{
		Type: constants.EventChatMessage,
		Data: gin.H{
			"userId":   client.UserID,
			"username": client.Username,
			"message":  p.Message,
		},
	})
}

type signalPayload struct {
	TargetID string `json:"targetId"`
}

// handleSignal relays WebRTC negotiation payloads without inspecting
// them. Targeted signals reach one peer; untargeted ones reach everyone
// except the sender.
func (s *SocketHandler) handleSignal(client *hub.Client, eventType string, raw json.RawMessage) {
	if client.RoomCode == "" {
		s.sendError(client, constants.ErrorCodeNotInGame, "Join a game first")
		return
	}

	var p signalPayload
	_ = json.Unmarshal(raw, &p)

	// A JSON null body unmarshals into a nil map without error.
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		s.sendError(client, constants.ErrorCodeMissingFields, "Malformed signal")
		return
	}
	payload["fromId"] = json.RawMessage(fmt.Sprintf("%q", client.UserID))

	ev := models.Event{Type: eventType, Data: payload}
	if p.TargetID != "" {
		if !s.hub.SendToUser(client.RoomCode, p.TargetID, ev) {
			util.LogWarn("Signal target %s not connected in room %s", p.TargetID, client.RoomCode)
		}
		return
	}
	s.hub.BroadcastExcept(client.RoomCode, client.UserID, ev)
}
