package game

import (
	constants "github.com/Knocktern/The-Quiet-Game/internal/constants"
	models "github.com/Knocktern/The-Quiet-Game/internal/models"
	wordbank "github.com/Knocktern/The-Quiet-Game/internal/wordbank"

	"github.com/samber/lo"
)

// GuessOutcome is the result of one guess submission. Refusals carry a
// reason code and mutate nothing.
type GuessOutcome struct {
	Correct    bool
	Points     int
	Reason     string
	AllGuessed bool
}

// HasActiveRound reports whether a round is in progress. Lock must be
// held.
func (s *Session) HasActiveRound() bool { return s.currentRound != nil }

// CurrentRound returns a copy of the active round, if any.
func (s *Session) CurrentRound() (models.Round, bool) {
	if s.currentRound == nil {
		return models.Round{}, false
	}
	return *s.currentRound, true
}

// StartNewRound creates a round for the current actor with the chosen
// word and resets per-round guess flags. Returns nil unless the game is
// running. Lock must be held.
func (s *Session) StartNewRound(choice models.WordChoice) *models.Round {
	if !s.gameStarted || s.gameEnded {
		return nil
	}
	actorID := s.CurrentActor()
	if actorID == "" {
		return nil
	}

	s.totalRounds++
	for _, p := range s.players {
		p.HasGuessedCorrectly = false
	}

	difficulty := choice.Difficulty
	if difficulty == "" {
		difficulty = s.difficulty
	}

	s.currentRound = &models.Round{
		RoundNumber:       s.totalRounds,
		ActorID:           actorID,
		Word:              choice.Word,
		Category:          choice.Category,
		Difficulty:        difficulty,
		StartTime:         s.now(),
		RevealedPositions: make(map[int]struct{}),
	}
	return s.currentRound
}

// SubmitGuess records and evaluates one guess. The guess is appended to
// the round log regardless of correctness; on a correct guess the
// guesser is scored and the actor earns the fixed bonus. Lock must be
// held.
func (s *Session) SubmitGuess(userID, text string) GuessOutcome {
	if s.currentRound == nil {
		return GuessOutcome{Reason: constants.ErrorCodeNoActiveRound}
	}
	if userID == s.currentRound.ActorID {
		return GuessOutcome{Reason: constants.ErrorCodeActorCantGuess}
	}
	player, ok := s.players[userID]
	if !ok {
		return GuessOutcome{Reason: constants.ErrorCodeNotInGame}
	}
	if player.HasGuessedCorrectly {
		return GuessOutcome{Reason: constants.ErrorCodeAlreadyGuessed}
	}

	s.currentRound.Guesses = append(s.currentRound.Guesses, models.Guess{
		UserID:    userID,
		Username:  player.Username,
		Guess:     text,
		Timestamp: s.now(),
	})

	if !wordbank.CheckGuess(text, s.currentRound.Word) {
		return GuessOutcome{}
	}

	player.HasGuessedCorrectly = true
	s.currentRound.CorrectGuessers = append(s.currentRound.CorrectGuessers, userID)

	points := s.scoreCorrectGuess()
	player.Score += points

	if actor, ok := s.players[s.currentRound.ActorID]; ok {
		actor.Score += constants.PointsActorBonus
	}

	return GuessOutcome{
		Correct:    true,
		Points:     points,
		AllGuessed: s.AllNonActorsGuessed(),
	}
}

// scoreCorrectGuess awards more for earlier and faster guesses. The
// position bonus counts down from the full roster size, actor
// included, so the first correct guesser gets the largest share.
func (s *Session) scoreCorrectGuess() int {
	elapsed := int(s.now().Sub(s.currentRound.StartTime).Seconds())
	remaining := int(s.roundTime.Seconds()) - elapsed
	if remaining < 0 {
		remaining = 0
	}

	positionBonus := (len(s.players) - len(s.currentRound.CorrectGuessers)) * constants.PointsPositionStep
	if positionBonus < 0 {
		positionBonus = 0
	}
	timeBonus := remaining * constants.PointsTimeBonus / 10

	return constants.PointsCorrectGuess + positionBonus + timeBonus
}

// AllNonActorsGuessed is true when every player other than the actor
// has guessed correctly this round. A player who went silent without
// leaving still counts toward the total, so the round waits for the
// external time-up signal in that case.
func (s *Session) AllNonActorsGuessed() bool {
	if s.currentRound == nil {
		return false
	}
	guessers := lo.Filter(lo.Values(s.players), func(p *models.Player, _ int) bool {
		return p.UserID != s.currentRound.ActorID
	})
	if len(guessers) == 0 {
		return false
	}
	return lo.EveryBy(guessers, func(p *models.Player) bool {
		return p.HasGuessedCorrectly
	})
}

// UseHint bumps the hint counter and returns the next hint. Hints get
// strictly more specific as the counter grows. Lock must be held.
func (s *Session) UseHint() (string, bool) {
	if s.currentRound == nil {
		return "", false
	}
	s.currentRound.HintsUsed++
	return wordbank.Hint(s.currentRound.Word, s.currentRound.HintsUsed, s.currentRound.RevealedPositions), true
}

// EndRound settles the active round: archives it, advances the actor
// rotation and marks the game ended once the round budget is spent.
// Safe to call at any time; with no active round it is a no-op.
// Lock must be held.
func (s *Session) EndRound() (models.RoundSummary, bool) {
	if s.currentRound == nil {
		return models.RoundSummary{}, false
	}

	round := s.currentRound
	round.EndTime = s.now()
	s.roundHistory = append(s.roundHistory, round)

	summary := models.RoundSummary{
		RoundNumber:     round.RoundNumber,
		Word:            round.Word,
		Category:        round.Category,
		ActorID:         round.ActorID,
		CorrectGuessers: append([]string(nil), round.CorrectGuessers...),
		TotalGuesses:    len(round.Guesses),
	}

	if len(s.turnOrder) > 0 {
		s.currentActorIndex = (s.currentActorIndex + 1) % len(s.turnOrder)
	}
	if s.totalRounds >= s.maxRounds {
		s.gameEnded = true
	}
	s.currentRound = nil

	return summary, true
}
