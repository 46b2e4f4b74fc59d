// Package game wraps the board engine with phase tracking and dispatches
// tagged player actions onto it.
package game

import (
	"fmt"

	"github.com/lguibr/multisweeper/board"
	"github.com/lguibr/multisweeper/protocol"
)

// Phase is the coarse-grained state of a game.
type Phase int

const (
	PhasePlaying Phase = iota
	PhaseWon
	PhaseLost
)

func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "Playing"
	case PhaseWon:
		return "Won"
	case PhaseLost:
		return "Lost"
	default:
		return "Unknown"
	}
}

// Game is a single authoritative Minesweeper match.
type Game struct {
	Board      *board.Board
	Difficulty Difficulty
	phase      Phase
}

// New constructs a game of the given difficulty with a board seeded by seed.
func New(difficulty Difficulty, seed int64) *Game {
	side := difficulty.BoardSide()
	return &Game{
		Board:      board.New(side, side, difficulty.MineCount(), seed),
		Difficulty: difficulty,
		phase:      PhasePlaying,
	}
}

// Phase returns the game's current phase.
func (g *Game) Phase() Phase {
	return g.phase
}

// Info summarizes the game's immutable parameters for the initial
// GameInfo broadcast.
type Info struct {
	Width         int
	Height        int
	NumberOfMines int
	Seed          int64
}

// Info returns the game's board parameters.
func (g *Game) Info() Info {
	return Info{
		Width:         g.Board.Width,
		Height:        g.Board.Height,
		NumberOfMines: g.Board.MineCount(),
		Seed:          g.Board.Seed,
	}
}

// ActionOutcomeKind tags the result of HandleAction.
type ActionOutcomeKind int

const (
	OutcomeWon ActionOutcomeKind = iota
	OutcomeLost
	OutcomePlaying
	OutcomeStalled
	OutcomeError
)

// ActionOutcome is the domain-level result of applying a single PlayerAction.
type ActionOutcome struct {
	Kind     ActionOutcomeKind
	Snapshot string
	Err      error
}

// HandleAction applies a single tagged action to the board and updates
// the game's phase accordingly. It never mutates state once the game has
// already left the Playing phase: such an action yields OutcomeError.
func (g *Game) HandleAction(action protocol.PlayerAction) ActionOutcome {
	if g.phase != PhasePlaying {
		return ActionOutcome{Kind: OutcomeError, Err: fmt.Errorf("game: already %s", g.phase)}
	}
	switch action.Kind {
	case protocol.PlayerActionRevealTile:
		return g.handleReveal(int(action.X), int(action.Y))
	case protocol.PlayerActionFlagTile:
		return g.handleFlag(int(action.X), int(action.Y))
	default:
		return ActionOutcome{Kind: OutcomeError, Err: fmt.Errorf("game: unknown action kind %q", action.Kind)}
	}
}

func (g *Game) handleReveal(x, y int) ActionOutcome {
	if !g.Board.IsCoordinateValid(x, y) {
		return ActionOutcome{Kind: OutcomeStalled}
	}
	outcome, err := g.Board.Reveal(x, y)
	if err != nil {
		return ActionOutcome{Kind: OutcomeError, Err: err}
	}
	switch outcome {
	case board.DoNothing:
		return ActionOutcome{Kind: OutcomeStalled}
	case board.Mine:
		g.phase = PhaseLost
		return ActionOutcome{Kind: OutcomeLost}
	case board.Revealed, board.FloodRevealed:
		if g.Board.IsAllSafeCellsRevealed() {
			g.phase = PhaseWon
			return ActionOutcome{Kind: OutcomeWon}
		}
		return ActionOutcome{Kind: OutcomePlaying, Snapshot: g.Board.String()}
	default:
		return ActionOutcome{Kind: OutcomeError, Err: fmt.Errorf("game: unexpected reveal outcome %v", outcome)}
	}
}

func (g *Game) handleFlag(x, y int) ActionOutcome {
	if !g.Board.IsCoordinateValid(x, y) {
		return ActionOutcome{Kind: OutcomeStalled}
	}
	if err := g.Board.Flag(x, y); err != nil {
		return ActionOutcome{Kind: OutcomeStalled}
	}
	return ActionOutcome{Kind: OutcomePlaying, Snapshot: g.Board.String()}
}

// LoseGame reveals the entire board, so a server-side log of it shows
// every mine, and marks the game Lost.
func (g *Game) LoseGame() {
	g.Board.RevealAll()
	g.phase = PhaseLost
}
