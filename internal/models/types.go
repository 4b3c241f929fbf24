package models

import (
	"encoding/json"
	"time"
)

// Envelope is the wire format for inbound socket messages.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Event is the wire format for outbound socket messages.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type Player struct {
	UserID              string `json:"userId"`
	Username            string `json:"username"`
	Score               int    `json:"score"`
	IsReady             bool   `json:"isReady"`
	HasGuessedCorrectly bool   `json:"-"`
}

type WordChoice struct {
	Word       string `json:"word"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

type Guess struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Guess     string    `json:"guess"`
	Timestamp time.Time `json:"timestamp"`
}

type Round struct {
	RoundNumber     int       `json:"roundNumber"`
	ActorID         string    `json:"actorId"`
	Word            string    `json:"word"`
	Category        string    `json:"category"`
	Difficulty      string    `json:"difficulty"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	Guesses         []Guess   `json:"guesses"`
	CorrectGuessers []string  `json:"correctGuessers"`
	HintsUsed       int       `json:"hintsUsed"`

	// Interior rune positions already shown by tier-3+ hints. Reveals
	// are sticky for the rest of the round so later hints never say
	// less than earlier ones.
	RevealedPositions map[int]struct{} `json:"-"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// GameSnapshot is the full room state sent on join and after every
// state-changing event. The secret word never appears here.
type GameSnapshot struct {
	RoomCode     string             `json:"roomCode"`
	Players      map[string]Player  `json:"players"`
	GameStarted  bool               `json:"gameStarted"`
	GameEnded    bool               `json:"gameEnded"`
	CurrentRound int                `json:"currentRound"`
	MaxRounds    int                `json:"maxRounds"`
	CurrentActor string             `json:"currentActor"`
	Difficulty   string             `json:"difficulty"`
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
}

type RoundSummary struct {
	RoundNumber     int      `json:"roundNumber"`
	Word            string   `json:"word"`
	Category        string   `json:"category"`
	ActorID         string   `json:"actorId"`
	CorrectGuessers []string `json:"correctGuessers"`
	TotalGuesses    int      `json:"totalGuesses"`
}

type RoundHistoryEntry struct {
	Round     int    `json:"round"`
	Word      string `json:"word"`
	Actor     string `json:"actor"`
	GuessedBy int    `json:"guessedBy"`
}

type FinalResults struct {
	Winner       *LeaderboardEntry   `json:"winner"`
	Leaderboard  []LeaderboardEntry  `json:"leaderboard"`
	TotalRounds  int                 `json:"totalRounds"`
	RoundHistory []RoundHistoryEntry `json:"roundHistory"`
}
