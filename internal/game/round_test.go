package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	constants "github.com/Knocktern/The-Quiet-Game/internal/constants"
	models "github.com/Knocktern/The-Quiet-Game/internal/models"
)

func wordChoice(word string) models.WordChoice {
	return models.WordChoice{Word: word, Category: "animals", Difficulty: constants.DifficultyEasy}
}

// fakeClock pins the session clock and lets tests advance it.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) advance(d time.Duration) { c.current = c.current.Add(d) }

func pinClock(s *Session) *fakeClock {
	clock := &fakeClock{current: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s.now = func() time.Time { return clock.current }
	return clock
}

func TestStartNewRoundRequiresRunningGame(t *testing.T) {
	s := NewSession("ABCD-EFGH", 60*time.Second)
	s.AddPlayer("p1", "alice")
	s.AddPlayer("p2", "bob")

	assert.Nil(t, s.StartNewRound(wordChoice("cat")), "no round before the game starts")

	require.True(t, s.Start(1))
	round := s.StartNewRound(wordChoice("cat"))
	require.NotNil(t, round)
	assert.Equal(t, 1, round.RoundNumber)
	assert.Equal(t, s.CurrentActor(), round.ActorID)
	assert.Equal(t, "cat", round.Word)

	s.gameEnded = true
	assert.Nil(t, s.StartNewRound(wordChoice("dog")), "no round after the game ends")
}

func TestSubmitGuessRefusals(t *testing.T) {
	s := newStartedSession(t)

	out := s.SubmitGuess("p2", "cat")
	assert.Equal(t, constants.ErrorCodeNoActiveRound, out.Reason)

	require.NotNil(t, s.StartNewRound(wordChoice("cat")))

	out = s.SubmitGuess("p1", "cat")
	assert.Equal(t, constants.ErrorCodeActorCantGuess, out.Reason, "p1 performs this round")

	out = s.SubmitGuess("ghost", "cat")
	assert.Equal(t, constants.ErrorCodeNotInGame, out.Reason)

	out = s.SubmitGuess("p2", "cat")
	require.True(t, out.Correct)

	out = s.SubmitGuess("p2", "cat")
	assert.Equal(t, constants.ErrorCodeAlreadyGuessed, out.Reason)
}

func TestWrongGuessIsLoggedAndScoresNothing(t *testing.T) {
	s := newStartedSession(t)
	require.NotNil(t, s.StartNewRound(wordChoice("cat")))

	out := s.SubmitGuess("p2", "dog")
	assert.False(t, out.Correct)
	assert.Empty(t, out.Reason)
	assert.Zero(t, out.Points)

	round, ok := s.CurrentRound()
	require.True(t, ok)
	require.Len(t, round.Guesses, 1)
	assert.Equal(t, "dog", round.Guesses[0].Guess)
	assert.Empty(t, round.CorrectGuessers)
	assert.Zero(t, s.players["p2"].Score)

	out = s.SubmitGuess("p2", "cat")
	assert.True(t, out.Correct, "a wrong guess does not burn the attempt")
}

func TestScoringRewardsEarlierAndFaster(t *testing.T) {
	s := newStartedSession(t)
	clock := pinClock(s)
	require.NotNil(t, s.StartNewRound(wordChoice("cat")))

	clock.advance(10 * time.Second)
	out := s.SubmitGuess("p2", "cat")
	require.True(t, out.Correct)
	// 100 base + (3-1)*20 position + 50 remaining seconds time bonus.
	assert.Equal(t, 190, out.Points)
	assert.Equal(t, 190, s.players["p2"].Score)
	assert.Equal(t, 50, s.players["p1"].Score, "performer earns the fixed bonus per correct guess")
	assert.False(t, out.AllGuessed)

	clock.advance(10 * time.Second)
	out = s.SubmitGuess("p3", "cat")
	require.True(t, out.Correct)
	// 100 base + (3-2)*20 position + 40 remaining.
	assert.Equal(t, 160, out.Points)
	assert.True(t, out.AllGuessed)
	assert.Equal(t, 100, s.players["p1"].Score)

	assert.Greater(t, s.players["p2"].Score, s.players["p3"].Score, "earlier guess is worth more")
}

func TestScoringTimeBonusFloorsAtZero(t *testing.T) {
	s := newStartedSession(t)
	clock := pinClock(s)
	require.NotNil(t, s.StartNewRound(wordChoice("cat")))

	clock.advance(5 * time.Minute)
	out := s.SubmitGuess("p2", "cat")
	require.True(t, out.Correct)
	// 100 base + 40 position, no time bonus after the timer ran out.
	assert.Equal(t, 140, out.Points)
}

func TestSilentPlayerBlocksAllGuessed(t *testing.T) {
	s := newStartedSession(t)
	require.NotNil(t, s.StartNewRound(wordChoice("cat")))

	out := s.SubmitGuess("p2", "cat")
	require.True(t, out.Correct)
	assert.False(t, out.AllGuessed, "p3 has not guessed; the round waits for the timer")
}

func TestUseHint(t *testing.T) {
	s := newStartedSession(t)

	_, ok := s.UseHint()
	assert.False(t, ok, "no hint without an active round")

	require.NotNil(t, s.StartNewRound(wordChoice("elephant")))

	hint, ok := s.UseHint()
	require.True(t, ok)
	assert.Equal(t, "First letter: E", hint)

	hint, ok = s.UseHint()
	require.True(t, ok)
	assert.Equal(t, "Word length: 8 letters", hint)

	round, _ := s.CurrentRound()
	assert.Equal(t, 2, round.HintsUsed)
}

func TestEndRoundAdvancesRotation(t *testing.T) {
	s := newStartedSession(t)
	require.NotNil(t, s.StartNewRound(wordChoice("cat")))
	s.SubmitGuess("p2", "cat")

	summary, ok := s.EndRound()
	require.True(t, ok)
	assert.Equal(t, 1, summary.RoundNumber)
	assert.Equal(t, "cat", summary.Word)
	assert.Equal(t, []string{"p2"}, summary.CorrectGuessers)
	assert.Equal(t, 1, summary.TotalGuesses)

	assert.Equal(t, "p2", s.CurrentActor(), "rotation moves to the next performer")
	assert.False(t, s.HasActiveRound())
	assert.False(t, s.GameEnded())
}

func TestEndRoundWithoutRoundIsNoop(t *testing.T) {
	s := newStartedSession(t)

	_, ok := s.EndRound()
	assert.False(t, ok)

	require.NotNil(t, s.StartNewRound(wordChoice("cat")))
	_, ok = s.EndRound()
	require.True(t, ok)

	_, ok = s.EndRound()
	assert.False(t, ok, "double settle is harmless")
	assert.Equal(t, "p2", s.CurrentActor(), "rotation advances exactly once")
}

func TestEndRoundWithZeroGuesses(t *testing.T) {
	s := newStartedSession(t)
	require.NotNil(t, s.StartNewRound(wordChoice("cat")))

	summary, ok := s.EndRound()
	require.True(t, ok)
	assert.Empty(t, summary.CorrectGuessers)
	assert.Zero(t, summary.TotalGuesses)
	for _, p := range s.players {
		assert.Zero(t, p.Score)
	}
}

func TestGameEndsAfterRoundBudget(t *testing.T) {
	s := newStartedSession(t) // 3 players, 2 rounds each
	words := []string{"cat", "dog", "sun", "bee", "cup", "key"}

	rotation := []string{"p1", "p2", "p3"}
	for i, w := range words {
		assert.Equal(t, rotation[i%3], s.CurrentActor(), "round-robin actor for round %d", i+1)
		require.NotNil(t, s.StartNewRound(wordChoice(w)), "round %d should start", i+1)
		_, ok := s.EndRound()
		require.True(t, ok)
	}

	assert.True(t, s.GameEnded())
	assert.Equal(t, 6, s.TotalRounds())
	assert.Nil(t, s.StartNewRound(wordChoice("cow")), "no rounds past the budget")
}

func TestNewRoundResetsGuessFlags(t *testing.T) {
	s := newStartedSession(t)
	require.NotNil(t, s.StartNewRound(wordChoice("cat")))
	require.True(t, s.SubmitGuess("p2", "cat").Correct)
	_, ok := s.EndRound()
	require.True(t, ok)

	require.NotNil(t, s.StartNewRound(wordChoice("dog")))
	out := s.SubmitGuess("p1", "dog")
	assert.True(t, out.Correct, "flags from the previous round must not carry over")
}
