package game

import (
	"testing"

	"github.com/lguibr/multisweeper/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifficultyScaling(t *testing.T) {
	cases := []struct {
		d          Difficulty
		side, mine int
	}{
		{Test, 4, 3},
		{Easy, 8, 6},
		{Medium, 16, 12},
		{Hard, 20, 15},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.side, tc.d.BoardSide())
		assert.Equal(t, tc.mine, tc.d.MineCount())
	}
}

func reveal(x, y uint8) protocol.PlayerAction {
	return protocol.PlayerAction{Kind: protocol.PlayerActionRevealTile, X: x, Y: y}
}

func flag(x, y uint8) protocol.PlayerAction {
	return protocol.PlayerAction{Kind: protocol.PlayerActionFlagTile, X: x, Y: y}
}

func TestHandleActionRevealOnMineLosesTheGame(t *testing.T) {
	g := New(Test, 1)
	var mx, my uint8
	for y := 0; y < g.Board.Height; y++ {
		for x := 0; x < g.Board.Width; x++ {
			if g.Board.Cell(x, y).IsMine {
				mx, my = uint8(x), uint8(y)
			}
		}
	}
	outcome := g.HandleAction(reveal(mx, my))
	assert.Equal(t, OutcomeLost, outcome.Kind)
	assert.Equal(t, PhaseLost, g.Phase())
}

func TestHandleActionRevealAllSafeCellsWins(t *testing.T) {
	g := New(Test, 1)
	for y := 0; y < g.Board.Height; y++ {
		for x := 0; x < g.Board.Width; x++ {
			if g.Board.Cell(x, y).IsMine {
				continue
			}
			outcome := g.HandleAction(reveal(uint8(x), uint8(y)))
			if g.Phase() == PhaseWon {
				break
			}
			require.NotEqual(t, OutcomeLost, outcome.Kind)
		}
	}
	assert.Equal(t, PhaseWon, g.Phase())
}

func TestHandleActionInvalidCoordinateIsStalledNotError(t *testing.T) {
	g := New(Test, 1)
	outcome := g.HandleAction(reveal(255, 255))
	assert.Equal(t, OutcomeStalled, outcome.Kind)
	assert.Equal(t, PhasePlaying, g.Phase())
}

func TestHandleActionRevealAlreadyRevealedIsStalled(t *testing.T) {
	g := New(Test, 1)
	var sx, sy uint8
	for y := 0; y < g.Board.Height; y++ {
		for x := 0; x < g.Board.Width; x++ {
			if !g.Board.Cell(x, y).IsMine {
				sx, sy = uint8(x), uint8(y)
			}
		}
	}
	first := g.HandleAction(reveal(sx, sy))
	require.NotEqual(t, OutcomeStalled, first.Kind)
	second := g.HandleAction(reveal(sx, sy))
	assert.Equal(t, OutcomeStalled, second.Kind)
}

func TestHandleActionFlagThenRevealedRejectedIsStalled(t *testing.T) {
	g := New(Test, 1)
	outcome := g.HandleAction(flag(0, 0))
	assert.Equal(t, OutcomePlaying, outcome.Kind)
	assert.True(t, g.Board.Cell(0, 0).IsFlagged)

	revealOutcome := g.HandleAction(reveal(0, 0))
	assert.Equal(t, OutcomeStalled, revealOutcome.Kind)
}

func TestLoseGameRevealsEverything(t *testing.T) {
	g := New(Test, 1)
	g.LoseGame()
	assert.Equal(t, PhaseLost, g.Phase())
	for y := 0; y < g.Board.Height; y++ {
		for x := 0; x < g.Board.Width; x++ {
			assert.True(t, g.Board.Cell(x, y).IsRevealed)
		}
	}
}

func TestInfoReflectsBoardParameters(t *testing.T) {
	g := New(Test, 1234)
	info := g.Info()
	assert.Equal(t, 4, info.Width)
	assert.Equal(t, 4, info.Height)
	assert.Equal(t, 3, info.NumberOfMines)
	assert.Equal(t, int64(1234), info.Seed)
}
