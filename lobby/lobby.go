// Package lobby implements the per-lobby actor: membership, host
// election, fan-in of member actions, fan-out of lobby state, and
// handoff to the turn driver while a game is in progress.
package lobby

import (
	"fmt"
	"log"
	"runtime/debug"

	"github.com/lguibr/multisweeper/game"
	"github.com/lguibr/multisweeper/protocol"
	"github.com/lguibr/multisweeper/registry"
)

// Options configures a lobby actor at creation time.
type Options struct {
	// TurnTimeout is the per-turn deadline; zero selects the default of
	// 30 seconds.
	TurnTimeout int64 // nanoseconds; see turndriver.go's defaultTurnTimeout

	// Difficulty is the game difficulty used when a lobby starts. Zero
	// value is game.Test.
	Difficulty game.Difficulty

	// Seed drives the board PRNG. Zero means "derive from the lobby code",
	// which keeps games reproducible per-lobby without a global clock
	// dependency.
	Seed int64
}

// playerEvent is a single yielded item of the action fan-in: either a
// decoded ClientMessage from a member, or that member's stream closing
// (an implicit disconnect).
type playerEvent struct {
	id  protocol.PlayerId
	msg protocol.ClientMessage
	ok  bool
}

// Lobby is the actor-local state of one lobby. It is never shared across
// goroutines; everything here is owned exclusively by the goroutine
// running Run.
type Lobby struct {
	code     protocol.LobbyCode
	registry *registry.Registry
	log      *log.Logger
	opts     Options

	players []protocol.PlayerId // join order; index 0 is always the longest-tenured member
	conns   map[protocol.PlayerId]registry.PlayerConnection
	stops   map[protocol.PlayerId]chan struct{}
	hostID  protocol.PlayerId
	status  protocol.LobbyStatus

	cmds   <-chan any
	events chan playerEvent
}

// Run is the lobby actor's entry point. It blocks until the lobby
// empties or cmds is closed, deregistering the lobby from the registry
// on the way out. Callers spawn it in its own goroutine.
func Run(code protocol.LobbyCode, reg *registry.Registry, cmds <-chan any, logger *log.Logger, opts Options) {
	if logger == nil {
		logger = log.Default()
	}
	l := &Lobby{
		code:     code,
		registry: reg,
		log:      logger,
		opts:     opts,
		conns:    make(map[protocol.PlayerId]registry.PlayerConnection),
		stops:    make(map[protocol.PlayerId]chan struct{}),
		status:   protocol.LobbyWaiting,
		cmds:     cmds,
		events:   make(chan playerEvent),
	}
	defer l.recoverAndShutdown()
	l.run()
}

func (l *Lobby) recoverAndShutdown() {
	if r := recover(); r != nil {
		l.log.Printf("lobby %s panicked: %v\n%s", l.code, r, debug.Stack())
	}
	l.shutdown()
}

func (l *Lobby) run() {
	for {
		select {
		case cmd, ok := <-l.cmds:
			if !ok {
				return
			}
			l.handleCommand(cmd)
		case ev := <-l.events:
			l.handleEvent(ev)
		}

		if len(l.players) == 0 {
			return
		}

		l.broadcastLobbyState()

		if l.status == protocol.LobbyStarting {
			l.runGame()
			l.status = protocol.LobbyWaiting
			if len(l.players) == 0 {
				return
			}
			l.broadcastLobbyState()
		}
	}
}

func (l *Lobby) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case AddPlayer:
		l.addPlayer(c.ID, c.Conn)
	case RemovePlayer:
		l.removePlayerCmd(c)
	default:
		l.log.Printf("lobby %s: ignoring command of unexpected type %T", l.code, cmd)
	}
}

func (l *Lobby) handleEvent(ev playerEvent) {
	if !ev.ok {
		l.removePlayer(ev.id, false)
		return
	}
	if _, stillHere := l.conns[ev.id]; !stillHere {
		return
	}
	switch ev.msg.Kind {
	case protocol.ClientMessageLobby:
		l.handleLobbyAction(ev.id, ev.msg.Lobby)
	default:
		l.sendError(ev.id, protocol.ErrInvalidStateTransition, fmt.Sprintf("unexpected message in lobby waiting room: %s", ev.msg.Kind))
	}
}

func (l *Lobby) handleLobbyAction(id protocol.PlayerId, action protocol.LobbyAction) {
	switch action.Kind {
	case protocol.LobbyActionStartGame:
		if id != l.hostID {
			l.sendError(id, protocol.ErrNotHost, "only the host may start the game")
			return
		}
		l.status = protocol.LobbyStarting
	case protocol.LobbyActionLeaveLobby:
		l.removePlayer(id, true)
	}
}

func (l *Lobby) addPlayer(id protocol.PlayerId, conn registry.PlayerConnection) {
	if _, exists := l.conns[id]; exists {
		return
	}
	l.players = append(l.players, id)
	l.conns[id] = conn
	stop := make(chan struct{})
	l.stops[id] = stop
	go forwardActions(id, conn.Actions, l.events, stop)
	if l.hostID == "" {
		l.hostID = id
	}
}

// removePlayer evicts a member seen through the action fan-in: one whose
// action stream closed (returnToIdle false, the connection is dropped)
// or one that sent LeaveLobby on it (returnToIdle true, the connection
// the lobby was holding is handed back to the registry's idle table).
func (l *Lobby) removePlayer(id protocol.PlayerId, returnToIdle bool) {
	conn, ok := l.evict(id)
	if !ok {
		return
	}
	if returnToIdle {
		l.registry.RegisterIdlePlayer(id, conn)
	}
}

// removePlayerCmd handles an explicit RemovePlayer command from a
// connection task. On LeaveLobby it re-idles the fresh connection the
// connection task installed for itself, not the stale one the lobby's
// action fan-in had been draining.
func (l *Lobby) removePlayerCmd(cmd RemovePlayer) {
	_, ok := l.evict(cmd.ID)
	if !ok {
		return
	}
	if cmd.ReturnToIdle {
		l.registry.RegisterIdlePlayer(cmd.ID, cmd.FreshConn)
	}
}

// evict removes id from every lobby-local bookkeeping structure, stops
// its action forwarder, and repairs host election. It returns the
// PlayerConnection the lobby had been holding, for callers that still
// want it (a plain disconnect does not).
func (l *Lobby) evict(id protocol.PlayerId) (registry.PlayerConnection, bool) {
	conn, ok := l.conns[id]
	if !ok {
		return registry.PlayerConnection{}, false
	}
	close(l.stops[id])
	delete(l.stops, id)
	delete(l.conns, id)
	for i, p := range l.players {
		if p == id {
			l.players = append(l.players[:i], l.players[i+1:]...)
			break
		}
	}
	if id == l.hostID {
		l.promoteHost()
	}
	return conn, true
}

// promoteHost installs the longest-tenured remaining member as host,
// per the join-order slice rather than Go's unspecified map iteration
// order.
func (l *Lobby) promoteHost() {
	if len(l.players) == 0 {
		l.hostID = ""
		return
	}
	l.hostID = l.players[0]
}

func (l *Lobby) broadcastLobbyState() {
	state := protocol.LobbyState{
		Code:    l.code,
		Players: append([]protocol.PlayerId(nil), l.players...),
		HostID:  l.hostID,
		Status:  l.status,
	}
	l.broadcast(protocol.NewLobbyStateMessage(state))
}

func (l *Lobby) broadcast(msg protocol.ServerMessage) {
	for _, id := range l.players {
		l.sendTo(id, msg)
	}
}

// sendTo delivers msg to a single member in enqueue order. It blocks
// like any other channel send in this actor; a slow reader backs up
// the lobby's own broadcast loop rather than silently losing messages.
func (l *Lobby) sendTo(id protocol.PlayerId, msg protocol.ServerMessage) {
	conn, ok := l.conns[id]
	if !ok {
		return
	}
	conn.Messages <- msg
}

func (l *Lobby) sendError(id protocol.PlayerId, code protocol.ErrorCode, message string) {
	l.sendTo(id, protocol.NewErrorMessage(code, message))
}

// shutdown notifies every remaining member the lobby is gone and removes
// it from the registry. Called exactly once, on the way out of run.
func (l *Lobby) shutdown() {
	for id, stop := range l.stops {
		close(stop)
		_ = id
	}
	for _, id := range l.players {
		l.sendError(id, protocol.ErrLobbyNotFound, "lobby has been closed")
	}
	l.registry.DeregisterLobby(l.code)
}

// forwardActions relays a single member's action stream into the shared
// fan-in channel, tagging each item with the member's id. It exits when
// the action stream closes (forwarding one final ok=false event) or when
// stop is closed by the lobby actor evicting this member.
func forwardActions(id protocol.PlayerId, actions <-chan protocol.ClientMessage, out chan<- playerEvent, stop <-chan struct{}) {
	for {
		select {
		case msg, ok := <-actions:
			if !ok {
				select {
				case out <- playerEvent{id: id, ok: false}:
				case <-stop:
				}
				return
			}
			select {
			case out <- playerEvent{id: id, msg: msg, ok: true}:
			case <-stop:
				return
			}
		case <-stop:
			return
		}
	}
}
