// Package registry is the single process-wide piece of shared mutable
// state in the system: it mints PlayerIds, tracks players that are not
// currently in any lobby, and allocates collision-free lobby codes.
// Every other component owns its state exclusively; the registry is the
// sole thing protected by a mutex, and the mutex is never held across a
// channel send/receive on another component.
package registry

import (
	"fmt"
	"log"
	"math/rand"
	"sync"

	"github.com/lguibr/multisweeper/protocol"
)

const maxLobbyCodeAttempts = 64

// PlayerConnection is the server-side half of a live client: the
// receiving end of the action channel the connection task writes into,
// and the sending end of the message channel the connection task reads
// from. It is owned by exactly one holder at a time — the idle table,
// a lobby actor, or (transiently) a connection task — and is moved, not
// shared, between them.
type PlayerConnection struct {
	Actions  <-chan protocol.ClientMessage
	Messages chan<- protocol.ServerMessage
}

// LobbyHandle is a command-channel sender into a live lobby actor. The
// command payloads (AddPlayer, RemovePlayer) are defined by the lobby
// package; the registry only ever forwards them opaquely, which is what
// keeps this package free of an import cycle with lobby.
type LobbyHandle struct {
	Commands chan<- any
}

// Registry is the process-wide player/lobby directory.
type Registry struct {
	mu           sync.Mutex
	nextPlayerID uint64
	idle         map[protocol.PlayerId]PlayerConnection
	lobbies      map[protocol.LobbyCode]LobbyHandle
	drawCode     func() protocol.LobbyCode
	log          *log.Logger
}

// New builds an empty Registry. seed drives the lobby-code PRNG; pass a
// fixed value in tests for reproducibility.
func New(seed int64, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	rng := rand.New(rand.NewSource(seed))
	return &Registry{
		idle:    make(map[protocol.PlayerId]PlayerConnection),
		lobbies: make(map[protocol.LobbyCode]LobbyHandle),
		drawCode: func() protocol.LobbyCode {
			return protocol.LobbyCode(fmt.Sprintf("%04d", rng.Intn(10000)))
		},
		log: logger,
	}
}

// RegisterPlayer mints a new PlayerId and inserts it into the idle table.
func (r *Registry) RegisterPlayer(conn PlayerConnection) protocol.PlayerId {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := protocol.NewPlayerId(r.nextPlayerID)
	r.nextPlayerID++
	r.idle[id] = conn
	r.log.Printf("registered player %s", id)
	return id
}

// DeIdlePlayer removes a player from the idle table and returns its
// connection, transferring ownership to the caller. ok is false if the
// player was not idle (already in a lobby, or unknown).
func (r *Registry) DeIdlePlayer(id protocol.PlayerId) (conn PlayerConnection, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok = r.idle[id]
	if ok {
		delete(r.idle, id)
	}
	return conn, ok
}

// RegisterIdlePlayer re-enters a player into the idle table, e.g. after
// LeaveLobby.
func (r *Registry) RegisterIdlePlayer(id protocol.PlayerId, conn PlayerConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idle[id] = conn
}

// ForgetPlayer drops a player's idle-table entry, used when a player
// disconnects while idle.
func (r *Registry) ForgetPlayer(id protocol.PlayerId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.idle, id)
}

// RegisterLobby draws an unused four-digit LobbyCode and records the
// given handle under it. It retries on collision with the live set,
// bounded at maxLobbyCodeAttempts so an exhausted code space fails
// loudly instead of looping forever.
func (r *Registry) RegisterLobby(handle LobbyHandle) (protocol.LobbyCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for attempt := 0; attempt < maxLobbyCodeAttempts; attempt++ {
		code := r.drawCode()
		if _, taken := r.lobbies[code]; taken {
			continue
		}
		r.lobbies[code] = handle
		r.log.Printf("registered lobby %s", code)
		return code, nil
	}
	return "", fmt.Errorf("registry: exhausted %d attempts drawing an unused lobby code", maxLobbyCodeAttempts)
}

// GetLobby looks up the command handle for a live lobby code.
func (r *Registry) GetLobby(code protocol.LobbyCode) (LobbyHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	handle, ok := r.lobbies[code]
	return handle, ok
}

// DeregisterLobby removes a lobby code from the directory once its actor
// has terminated.
func (r *Registry) DeregisterLobby(code protocol.LobbyCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lobbies, code)
	r.log.Printf("deregistered lobby %s", code)
}

// LobbySnapshot is a read-only view of a live lobby. Nothing in this
// module builds one; the debug HTTP endpoint reads Lobbies instead.
type LobbySnapshot struct {
	Code protocol.LobbyCode
}

// Lobbies returns the codes of every currently-registered lobby.
func (r *Registry) Lobbies() []protocol.LobbyCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]protocol.LobbyCode, 0, len(r.lobbies))
	for code := range r.lobbies {
		codes = append(codes, code)
	}
	return codes
}

// IdlePlayerCount reports how many players are currently idle, for
// diagnostics and tests.
func (r *Registry) IdlePlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.idle)
}
