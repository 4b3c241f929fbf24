package wordbank

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	constants "github.com/Knocktern/The-Quiet-Game/internal/constants"
)

func TestNormalizeDifficulty(t *testing.T) {
	assert.Equal(t, constants.DifficultyEasy, NormalizeDifficulty(""))
	assert.Equal(t, constants.DifficultyEasy, NormalizeDifficulty("nightmare"))
	assert.Equal(t, constants.DifficultyMedium, NormalizeDifficulty("medium"))
	assert.Equal(t, constants.DifficultyHard, NormalizeDifficulty("hard"))
}

func TestCheckGuess(t *testing.T) {
	tests := []struct {
		name   string
		guess  string
		target string
		want   bool
	}{
		{"exact", "cat", "cat", true},
		{"case insensitive", "CAT", "cat", true},
		{"surrounding whitespace", "  cat  ", "cat", true},
		{"spaces collapsed", "icecream", "ice cream", true},
		{"spaces on guess side", "ice cream", "icecream", true},
		{"wrong word", "dog", "cat", false},
		{"prefix is not a match", "ca", "cat", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckGuess(tt.guess, tt.target))
		})
	}
}

func TestRandomWordStaysInTier(t *testing.T) {
	for i := 0; i < 50; i++ {
		choice := RandomWord(constants.DifficultyHard)
		assert.Equal(t, constants.DifficultyHard, choice.Difficulty)
		assert.NotEmpty(t, choice.Word)
		assert.Contains(t, Categories(constants.DifficultyHard), choice.Category)
	}
}

func TestSelectWordChoicesDistinct(t *testing.T) {
	for i := 0; i < 20; i++ {
		choices := SelectWordChoices(constants.DifficultyEasy, 3)
		require.Len(t, choices, 3)

		seen := make(map[string]struct{})
		for _, c := range choices {
			_, dup := seen[c.Word]
			assert.False(t, dup, "duplicate word %q offered", c.Word)
			seen[c.Word] = struct{}{}
		}
	}
}

func TestHintFirstLetter(t *testing.T) {
	revealed := make(map[int]struct{})
	assert.Equal(t, "First letter: E", Hint("elephant", 1, revealed))
	assert.Empty(t, revealed)
}

func TestHintLetterCountExcludesSpaces(t *testing.T) {
	revealed := make(map[int]struct{})
	assert.Equal(t, "Word length: 8 letters", Hint("ice cream", 2, revealed))
	assert.Equal(t, "Word length: 3 letters", Hint("cat", 2, revealed))
}

func TestHintMaskShape(t *testing.T) {
	word := "elephant"
	revealed := make(map[int]struct{})
	hint := Hint(word, 3, revealed)

	require.True(t, strings.HasPrefix(hint, "Word: "))
	mask := strings.TrimPrefix(hint, "Word: ")
	require.Len(t, []rune(mask), len([]rune(word)))

	assert.Equal(t, byte('e'), mask[0])
	assert.Equal(t, byte('t'), mask[len(mask)-1])
	for i, r := range mask {
		if r != '_' {
			assert.Equal(t, rune(word[i]), r, "revealed rune at %d must match the word", i)
		}
	}
}

func TestHintMaskPreservesSpaces(t *testing.T) {
	revealed := make(map[int]struct{})
	hint := Hint("ice cream", 3, revealed)
	mask := strings.TrimPrefix(hint, "Word: ")
	assert.Equal(t, byte(' '), mask[3])
}

func TestHintRevealIsMonotonic(t *testing.T) {
	word := "basketball"
	revealed := make(map[int]struct{})

	shownAt := func(mask string) map[int]struct{} {
		shown := make(map[int]struct{})
		for i, r := range mask {
			if r != '_' {
				shown[i] = struct{}{}
			}
		}
		return shown
	}

	prev := shownAt(strings.TrimPrefix(Hint(word, 3, revealed), "Word: "))
	for level := 4; level < 12; level++ {
		cur := shownAt(strings.TrimPrefix(Hint(word, level, revealed), "Word: "))
		for i := range prev {
			_, still := cur[i]
			assert.True(t, still, "position %d was revealed at an earlier level and must stay revealed", i)
		}
		prev = cur
	}
}

func TestHintEdgeCases(t *testing.T) {
	revealed := make(map[int]struct{})
	assert.Empty(t, Hint("", 1, revealed))
	assert.Empty(t, Hint("cat", 0, revealed))
}

func TestPoolSize(t *testing.T) {
	assert.Positive(t, PoolSize(constants.DifficultyEasy))
	assert.Positive(t, PoolSize(constants.DifficultyMedium))
	assert.Positive(t, PoolSize(constants.DifficultyHard))
	assert.Equal(t, PoolSize(constants.DifficultyEasy), PoolSize("unknown"))
}
