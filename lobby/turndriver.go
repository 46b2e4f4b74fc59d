package lobby

import (
	"strconv"
	"time"

	"github.com/lguibr/multisweeper/game"
	"github.com/lguibr/multisweeper/protocol"
)

// defaultTurnTimeout is the per-turn deadline used when no override is
// configured.
const defaultTurnTimeout = 30 * time.Second

func (o Options) turnTimeoutDuration() time.Duration {
	if o.TurnTimeout <= 0 {
		return defaultTurnTimeout
	}
	return time.Duration(o.TurnTimeout)
}

// codeToSeed derives a board seed from the lobby code so that repeated
// runs of the same lobby are reproducible without depending on a wall
// clock, unless Options.Seed overrides it explicitly.
func codeToSeed(code protocol.LobbyCode) int64 {
	n, err := strconv.ParseInt(string(code), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

type turnResult int

const (
	turnPlaying turnResult = iota
	turnWon
	turnLostBoard
	turnTimeout
	turnDisconnected
)

// runGame is the turn driver. It owns the Lobby for the duration of one
// game, still servicing the shared cmds/events channels so disconnects
// and (defensively) stray commands are never starved.
func (l *Lobby) runGame() {
	l.broadcast(protocol.NewGameStartedMessage())

	seed := l.opts.Seed
	if seed == 0 {
		seed = codeToSeed(l.code)
	}
	g := game.New(l.opts.Difficulty, seed)
	info := g.Info()
	l.broadcast(protocol.NewGameInfoMessage(protocol.GameInfo{
		Code:          l.code,
		Width:         info.Width,
		Height:        info.Height,
		NumberOfMines: info.NumberOfMines,
		Seed:          info.Seed,
	}))

	timeout := l.opts.turnTimeoutDuration()
	queue := append([]protocol.PlayerId(nil), l.players...)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, stillPresent := l.conns[current]; !stillPresent {
			continue
		}

		l.broadcast(protocol.NewPlayerTurnMessage(current))
		result := l.runTurn(current, g, timeout)

		switch result {
		case turnPlaying:
			queue = append(queue, current)
		case turnWon:
			return
		case turnLostBoard:
			g.LoseGame()
			l.log.Printf("lobby %s: game over, final board:\n%s", l.code, g.Board.String())
			return
		case turnTimeout, turnDisconnected:
			// eliminated: not requeued, game continues for the rest
		}
	}
}

// runTurn drives the inner per-turn loop: it consumes events until
// current produces a non-Stalled outcome, the deadline fires, or
// current disconnects. Other members' events are drained so they are
// never starved by a long-held turn.
func (l *Lobby) runTurn(current protocol.PlayerId, g *game.Game, timeout time.Duration) turnResult {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case cmd, ok := <-l.cmds:
			if !ok {
				l.cmds = nil
				continue
			}
			l.handleCommand(cmd)
			if len(l.players) == 0 {
				return turnDisconnected
			}
			l.broadcastLobbyState()

		case ev := <-l.events:
			if !ev.ok {
				l.removePlayer(ev.id, false)
				if len(l.players) == 0 {
					return turnDisconnected
				}
				l.broadcastLobbyState()
				if ev.id == current {
					return turnDisconnected
				}
				continue
			}
			if ev.id != current {
				l.sendError(ev.id, protocol.ErrNotYourTurn, "it is not your turn")
				continue
			}
			if ev.msg.Kind != protocol.ClientMessageGame {
				l.log.Printf("lobby %s: ignoring non-game message from %s mid-turn", l.code, current)
				continue
			}

			action := ev.msg.Game
			outcome := g.HandleAction(action)
			switch outcome.Kind {
			case game.OutcomeWon:
				l.broadcast(protocol.NewPlayerActionMessage(current, action))
				l.broadcast(protocol.NewPlayerResultMessage(current, protocol.PlayerResult{Kind: protocol.PlayerResultWon}))
				return turnWon
			case game.OutcomeLost:
				l.broadcast(protocol.NewPlayerActionMessage(current, action))
				l.broadcast(protocol.NewPlayerResultMessage(current, protocol.PlayerResult{Kind: protocol.PlayerResultLost}))
				return turnLostBoard
			case game.OutcomePlaying:
				l.broadcast(protocol.NewPlayerActionMessage(current, action))
				l.broadcast(protocol.NewPlayerResultMessage(current, protocol.PlayerResult{
					Kind:     protocol.PlayerResultPlaying,
					Snapshot: outcome.Snapshot,
				}))
				return turnPlaying
			case game.OutcomeStalled, game.OutcomeError:
				l.sendError(current, protocol.ErrGameLogicError, "that move did not change the board; try again")
				continue
			}

		case <-deadline.C:
			l.broadcast(protocol.NewPlayerResultMessage(current, protocol.PlayerResult{Kind: protocol.PlayerResultTimeout}))
			return turnTimeout
		}
	}
}
