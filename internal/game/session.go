// Package game implements the per-room game engine: player membership,
// turn rotation, round lifecycle, guess evaluation and scoring. All
// operations are synchronous computation over in-memory state; timers
// and delivery are owned by the socket layer.
package game

import (
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	constants "github.com/Knocktern/The-Quiet-Game/internal/constants"
	models "github.com/Knocktern/The-Quiet-Game/internal/models"
	util "github.com/Knocktern/The-Quiet-Game/internal/util"
)

// Session is the full mutable state of one room. It is a single shared
// resource: callers serialize access through Lock/Unlock, and the
// socket layer holds the lock for the duration of each inbound event,
// including fan-out, so outbound order matches serialization order.
type Session struct {
	mu sync.Mutex

	roomCode          string
	players           map[string]*models.Player
	turnOrder         []string
	currentActorIndex int
	currentRound      *models.Round
	roundHistory      []*models.Round
	totalRounds       int
	maxRounds         int
	gameStarted       bool
	gameEnded         bool
	difficulty        string

	roundTime    time.Duration
	createdAt    time.Time
	lastActivity time.Time

	now func() time.Time
}

func NewSession(roomCode string, roundTime time.Duration) *Session {
	return &Session{
		roomCode:     roomCode,
		players:      make(map[string]*models.Player),
		difficulty:   constants.DifficultyEasy,
		roundTime:    roundTime,
		createdAt:    time.Now(),
		lastActivity: time.Now(),
		now:          time.Now,
	}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch records activity for idle-room cleanup. Lock must be held.
func (s *Session) Touch() { s.lastActivity = s.now() }

func (s *Session) RoomCode() string { return s.roomCode }

func (s *Session) LastActivity() time.Time { return s.lastActivity }

// AddPlayer inserts a new player. Joining after the game has started is
// allowed, but late joiners are not inserted into the turn rotation;
// they guess and score until the rotation set at start runs out.
// Lock must be held.
func (s *Session) AddPlayer(userID, username string) bool {
	if _, exists := s.players[userID]; exists {
		return false
	}

	s.players[userID] = &models.Player{UserID: userID, Username: username}
	if !s.gameStarted {
		s.turnOrder = append(s.turnOrder, userID)
	}
	return true
}

// RemovePlayer deletes a player and drops them from the rotation,
// clamping the actor index back into range. Lock must be held.
func (s *Session) RemovePlayer(userID string) bool {
	if _, exists := s.players[userID]; !exists {
		return false
	}

	delete(s.players, userID)
	if idx := lo.IndexOf(s.turnOrder, userID); idx >= 0 {
		s.turnOrder = append(s.turnOrder[:idx], s.turnOrder[idx+1:]...)
	}
	if s.currentActorIndex >= len(s.turnOrder) {
		s.currentActorIndex = 0
	}
	return true
}

func (s *Session) PlayerCount() int { return len(s.players) }

func (s *Session) Player(userID string) (models.Player, bool) {
	p, ok := s.players[userID]
	if !ok {
		return models.Player{}, false
	}
	return *p, true
}

func (s *Session) SetReady(userID string, ready bool) {
	if p, ok := s.players[userID]; ok {
		p.IsReady = ready
	}
}

// AllReady is true only with at least two players, all of them ready.
func (s *Session) AllReady() bool {
	if len(s.players) < constants.MinPlayers {
		return false
	}
	return lo.EveryBy(lo.Values(s.players), func(p *models.Player) bool {
		return p.IsReady
	})
}

func (s *Session) CanStart() bool {
	return len(s.players) >= constants.MinPlayers && !s.gameStarted
}

// Start freezes the round budget and shuffles the turn order into a
// uniform random permutation. Returns false if the game cannot start.
// Lock must be held.
func (s *Session) Start(roundsPerPlayer int) bool {
	if !s.CanStart() {
		return false
	}
	if roundsPerPlayer <= 0 {
		roundsPerPlayer = constants.RoundsPerPlayer
	}

	s.gameStarted = true
	s.maxRounds = len(s.players) * roundsPerPlayer
	s.totalRounds = 0
	s.currentActorIndex = 0

	// Fisher-Yates
	for i := len(s.turnOrder) - 1; i > 0; i-- {
		j := util.RandIndex(i + 1)
		s.turnOrder[i], s.turnOrder[j] = s.turnOrder[j], s.turnOrder[i]
	}
	return true
}

func (s *Session) SetDifficulty(difficulty string) { s.difficulty = difficulty }
func (s *Session) Difficulty() string              { return s.difficulty }
func (s *Session) GameStarted() bool               { return s.gameStarted }
func (s *Session) GameEnded() bool                 { return s.gameEnded }
func (s *Session) MaxRounds() int                  { return s.maxRounds }
func (s *Session) TotalRounds() int                { return s.totalRounds }
func (s *Session) TurnOrder() []string             { return append([]string(nil), s.turnOrder...) }

// CurrentActor returns the user id whose turn it is, or "" when the
// rotation is empty.
func (s *Session) CurrentActor() string {
	if len(s.turnOrder) == 0 {
		return ""
	}
	return s.turnOrder[s.currentActorIndex]
}

// Leaderboard returns players ordered by score, highest first; ties
// keep a stable name order so ranks do not flap between snapshots.
func (s *Session) Leaderboard() []models.LeaderboardEntry {
	players := lo.Values(s.players)
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].Username < players[j].Username
	})

	return lo.Map(players, func(p *models.Player, i int) models.LeaderboardEntry {
		return models.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   p.UserID,
			Username: p.Username,
			Score:    p.Score,
		}
	})
}

// Snapshot assembles the room state for synchronization. The secret
// word is deliberately absent. Lock must be held.
func (s *Session) Snapshot() models.GameSnapshot {
	players := make(map[string]models.Player, len(s.players))
	for id, p := range s.players {
		players[id] = *p
	}

	return models.GameSnapshot{
		RoomCode:     s.roomCode,
		Players:      players,
		GameStarted:  s.gameStarted,
		GameEnded:    s.gameEnded,
		CurrentRound: s.totalRounds,
		MaxRounds:    s.maxRounds,
		CurrentActor: s.CurrentActor(),
		Difficulty:   s.difficulty,
		Leaderboard:  s.Leaderboard(),
	}
}

// FinalResults summarizes the finished game.
func (s *Session) FinalResults() models.FinalResults {
	leaderboard := s.Leaderboard()

	var winner *models.LeaderboardEntry
	if len(leaderboard) > 0 {
		winner = &leaderboard[0]
	}

	history := lo.Map(s.roundHistory, func(r *models.Round, _ int) models.RoundHistoryEntry {
		actorName := "Unknown"
		if actor, ok := s.players[r.ActorID]; ok {
			actorName = actor.Username
		}
		return models.RoundHistoryEntry{
			Round:     r.RoundNumber,
			Word:      r.Word,
			Actor:     actorName,
			GuessedBy: len(r.CorrectGuessers),
		}
	})

	return models.FinalResults{
		Winner:       winner,
		Leaderboard:  leaderboard,
		TotalRounds:  s.totalRounds,
		RoundHistory: history,
	}
}
