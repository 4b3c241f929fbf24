// Package wordbank holds the static word content for the guessing game
// and the guess/hint logic that operates on single words. It is pure
// computation: no state survives between calls beyond what the caller
// passes in.
package wordbank

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	constants "github.com/Knocktern/The-Quiet-Game/internal/constants"
	models "github.com/Knocktern/The-Quiet-Game/internal/models"
	util "github.com/Knocktern/The-Quiet-Game/internal/util"
)

// Words are picked to be easy to demonstrate with hand gestures.
var wordBank = map[string]map[string][]string{
	constants.DifficultyEasy: {
		"animals": {
			"cat", "dog", "bird", "fish", "bear", "lion", "tiger",
			"elephant", "monkey", "rabbit", "duck", "cow", "pig",
			"horse", "snake", "frog", "bee", "butterfly", "spider",
		},
		"actions": {
			"eat", "drink", "sleep", "run", "walk", "jump", "dance",
			"swim", "fly", "read", "write", "sing", "cry", "laugh",
			"wave", "clap", "point", "push", "pull", "kick",
		},
		"objects": {
			"ball", "book", "phone", "car", "house", "tree", "flower",
			"sun", "moon", "star", "water", "fire", "door", "window",
			"chair", "table", "bed", "cup", "plate", "key",
		},
		"food": {
			"apple", "banana", "orange", "pizza", "burger", "cake",
			"ice cream", "bread", "egg", "milk", "coffee", "tea",
			"rice", "fish", "chicken", "cheese", "soup", "salad",
		},
	},
	constants.DifficultyMedium: {
		"emotions": {
			"happy", "sad", "angry", "scared", "surprised", "tired",
			"excited", "nervous", "confused", "proud", "shy", "bored",
		},
		"activities": {
			"cooking", "shopping", "driving", "working", "studying",
			"playing", "painting", "singing", "dancing", "camping",
			"fishing", "hiking", "gardening", "cleaning", "traveling",
		},
		"nature": {
			"rain", "snow", "wind", "storm", "rainbow", "mountain",
			"river", "ocean", "forest", "desert", "island", "volcano",
		},
		"sports": {
			"football", "basketball", "tennis", "swimming", "running",
			"boxing", "golf", "baseball", "hockey", "skiing", "surfing",
		},
	},
	constants.DifficultyHard: {
		"concepts": {
			"time", "love", "peace", "freedom", "dream", "hope",
			"future", "past", "memory", "idea", "secret", "promise",
		},
		"professions": {
			"doctor", "teacher", "police", "firefighter", "chef",
			"artist", "musician", "scientist", "pilot", "farmer",
		},
		"phrases": {
			"good morning", "thank you", "I love you", "how are you",
			"nice to meet you", "happy birthday", "good night",
			"see you later", "excuse me", "I'm sorry",
		},
	},
}

// NormalizeDifficulty maps unknown tiers to easy.
func NormalizeDifficulty(difficulty string) string {
	if _, ok := wordBank[difficulty]; !ok {
		return constants.DifficultyEasy
	}
	return difficulty
}

// RandomWord picks a random word from the given difficulty tier.
func RandomWord(difficulty string) models.WordChoice {
	difficulty = NormalizeDifficulty(difficulty)
	categories := lo.Keys(wordBank[difficulty])

	category := categories[util.RandIndex(len(categories))]
	words := wordBank[difficulty][category]
	return models.WordChoice{
		Word:       words[util.RandIndex(len(words))],
		Category:   category,
		Difficulty: difficulty,
	}
}

// SelectWordChoices returns count distinct word choices for the actor
// to pick from.
func SelectWordChoices(difficulty string, count int) []models.WordChoice {
	choices := make([]models.WordChoice, 0, count)
	used := make(map[string]struct{}, count)

	for len(choices) < count {
		choice := RandomWord(difficulty)
		if _, ok := used[choice.Word]; ok {
			continue
		}
		used[choice.Word] = struct{}{}
		choices = append(choices, choice)
	}
	return choices
}

// CheckGuess compares a free-text guess against the secret word.
// Both sides are trimmed and lower-cased; "ice cream" and "icecream"
// both match the target "ice cream". No fuzzy matching.
func CheckGuess(guess, target string) bool {
	guess = strings.ToLower(strings.TrimSpace(guess))
	target = strings.ToLower(strings.TrimSpace(target))

	if guess == target {
		return true
	}
	return strings.ReplaceAll(guess, " ", "") == strings.ReplaceAll(target, " ", "")
}

// Hint produces a hint for the word at the given cumulative hint level.
// Level 1 reveals the first letter, level 2 the letter count (spaces
// excluded), level 3 and above a partial mask: first and last rune and
// all spaces are always shown, and each interior rune has a 30% chance
// of being revealed per hint. The revealed set is owned by the caller
// and grows monotonically, so a later hint is never less specific than
// an earlier one.
func Hint(word string, level int, revealed map[int]struct{}) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return ""
	}

	switch {
	case level <= 0:
		return ""
	case level == 1:
		return "First letter: " + strings.ToUpper(string(runes[0]))
	case level == 2:
		letters := lo.CountBy(runes, func(r rune) bool { return r != ' ' })
		return fmt.Sprintf("Word length: %d letters", letters)
	}

	var b strings.Builder
	for i, r := range runes {
		switch {
		case r == ' ':
			b.WriteRune(' ')
		case i == 0 || i == len(runes)-1:
			b.WriteRune(r)
		default:
			if _, shown := revealed[i]; !shown && util.RandIndex(10) < 3 {
				revealed[i] = struct{}{}
			}
			if _, shown := revealed[i]; shown {
				b.WriteRune(r)
			} else {
				b.WriteRune('_')
			}
		}
	}
	return "Word: " + b.String()
}

// Categories lists the category names for a difficulty tier, or all
// tiers when difficulty is empty.
func Categories(difficulty string) []string {
	if difficulty != "" {
		if cats, ok := wordBank[difficulty]; ok {
			return lo.Keys(cats)
		}
		return nil
	}

	seen := make(map[string]struct{})
	for _, cats := range wordBank {
		for name := range cats {
			seen[name] = struct{}{}
		}
	}
	return lo.Keys(seen)
}

// PoolSize reports how many words a tier offers, used by callers to
// clamp choice counts.
func PoolSize(difficulty string) int {
	difficulty = NormalizeDifficulty(difficulty)
	return lo.SumBy(lo.Values(wordBank[difficulty]), func(words []string) int {
		return len(words)
	})
}
