package game

import (
	"fmt"
	"strings"
)

// Difficulty scales the board dimensions and mine density for a new game.
type Difficulty int

const (
	Test Difficulty = iota
	Easy
	Medium
	Hard
)

// factor is the scaling multiplier each difficulty applies: board side
// = 4*factor, mine count = 3*factor.
func (d Difficulty) factor() int {
	switch d {
	case Test:
		return 1
	case Easy:
		return 2
	case Medium:
		return 4
	case Hard:
		return 5
	default:
		panic(fmt.Sprintf("game: unknown difficulty %d", int(d)))
	}
}

// BoardSide returns the width and height (boards are square) for this difficulty.
func (d Difficulty) BoardSide() int {
	return 4 * d.factor()
}

// MineCount returns the number of mines placed for this difficulty.
func (d Difficulty) MineCount() int {
	return 3 * d.factor()
}

func (d Difficulty) String() string {
	switch d {
	case Test:
		return "Test"
	case Easy:
		return "Easy"
	case Medium:
		return "Medium"
	case Hard:
		return "Hard"
	default:
		return "Unknown"
	}
}

// ParseDifficulty converts a case-insensitive name into a Difficulty,
// for flag/environment wiring where the value arrives as a string.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(s) {
	case "test":
		return Test, nil
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	default:
		return 0, fmt.Errorf("game: unknown difficulty %q", s)
	}
}
