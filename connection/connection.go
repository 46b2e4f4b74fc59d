// Package connection implements the per-connection state machine: it
// owns one socket, decodes inbound frames, and routes them into the
// shared registry or a lobby actor depending on the current state,
// while draining the player's outbound message channel back onto the
// wire.
package connection

import (
	"errors"
	"io"
	"log"
	"runtime/debug"

	"github.com/lguibr/multisweeper/lobby"
	"github.com/lguibr/multisweeper/protocol"
	"github.com/lguibr/multisweeper/registry"
)

const (
	actionChannelBuffer  = 8
	messageChannelBuffer = 32
)

type state int

const (
	stateIdle state = iota
	stateLobby
	stateGame
	stateDisconnected
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case stateLobby:
		return "Lobby"
	case stateGame:
		return "Game"
	default:
		return "Disconnected"
	}
}

type connection struct {
	id       protocol.PlayerId
	registry *registry.Registry
	log      *log.Logger
	opts     lobby.Options
	socket   Socket

	state     state
	lobbyCode protocol.LobbyCode
	lobbyCmds chan<- any

	actionsOut chan<- protocol.ClientMessage
	messagesIn <-chan protocol.ServerMessage
}

type wireFrame struct {
	msg protocol.ClientMessage
	err error
}

// Handle drives one client's connection lifecycle to completion. It
// blocks until the socket closes or an unrecoverable decode error
// occurs; callers spawn it in its own goroutine per accepted socket.
func Handle(socket Socket, reg *registry.Registry, logger *log.Logger, opts lobby.Options) {
	if logger == nil {
		logger = log.Default()
	}
	c := &connection{
		registry: reg,
		log:      logger,
		opts:     opts,
		socket:   socket,
		state:    stateIdle,
	}
	defer c.recoverPanic()

	c.id = c.registerFreshIdentity()
	defer c.cleanupOnExit()

	wireIn := make(chan wireFrame)
	done := make(chan struct{})
	defer close(done)
	go c.readLoop(wireIn, done)

	for c.state != stateDisconnected {
		select {
		case frame := <-wireIn:
			if frame.err != nil {
				c.handleReadError(frame.err)
				return
			}
			c.handleMessage(frame.msg)
		case msg, ok := <-c.messagesIn:
			if !ok {
				c.handleDisconnect()
				return
			}
			if err := c.socket.Send(msg); err != nil {
				c.log.Printf("conn %s: write failed: %v", c.id, err)
				c.handleDisconnect()
				return
			}
		}
	}
}

func (c *connection) recoverPanic() {
	if r := recover(); r != nil {
		c.log.Printf("conn %s panicked: %v\n%s", c.id, r, debug.Stack())
	}
	_ = c.socket.Close()
}

// readLoop decodes frames off the socket and forwards them to Handle's
// select loop. It exits either on a decode error or when done is
// closed by Handle on its way out, so a frame already in hand when
// Handle stops listening is dropped instead of blocking forever.
func (c *connection) readLoop(out chan<- wireFrame, done <-chan struct{}) {
	for {
		msg, err := c.socket.Receive()
		select {
		case out <- wireFrame{msg: msg, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// registerFreshIdentity mints a new channel pair and registers it as an
// idle player, returning the assigned PlayerId.
func (c *connection) registerFreshIdentity() protocol.PlayerId {
	actions := make(chan protocol.ClientMessage, actionChannelBuffer)
	messages := make(chan protocol.ServerMessage, messageChannelBuffer)
	c.actionsOut = actions
	c.messagesIn = messages
	return c.registry.RegisterPlayer(registry.PlayerConnection{Actions: actions, Messages: messages})
}

// installFreshActionChannel replaces the connection's action channel
// pair, used when the player explicitly leaves a lobby and returns to
// idle: the old pair may still be draining in the lobby actor's
// goroutines, so reusing it here would race with that teardown.
func (c *connection) installFreshActionChannel() registry.PlayerConnection {
	actions := make(chan protocol.ClientMessage, actionChannelBuffer)
	messages := make(chan protocol.ServerMessage, messageChannelBuffer)
	c.actionsOut = actions
	c.messagesIn = messages
	return registry.PlayerConnection{Actions: actions, Messages: messages}
}

func (c *connection) handleReadError(err error) {
	if isPeerClosed(err) {
		c.handleDisconnect()
		return
	}
	c.trySend(protocol.NewErrorMessage(protocol.ErrDeserializationFailed, err.Error()))
	c.handleDisconnect()
}

func isPeerClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// handleDisconnect implements the "any | wire closed" row of the
// transition table: a Lobby- or Game-state disconnect tells the lobby
// actor to drop the player outright (return_to_idle = false); an idle
// player was never handed to a lobby, so its entry is simply removed
// from the registry's idle table.
func (c *connection) handleDisconnect() {
	if c.state == stateLobby || c.state == stateGame {
		if c.lobbyCmds != nil {
			c.lobbyCmds <- lobby.RemovePlayer{ID: c.id, ReturnToIdle: false}
		}
	} else {
		c.registry.ForgetPlayer(c.id)
	}
	c.state = stateDisconnected
}

// cleanupOnExit guards against leaking the player's registry entry if
// Handle returns through a path that didn't already settle it (e.g. a
// write failure rather than a decode/read failure).
func (c *connection) cleanupOnExit() {
	if c.state == stateDisconnected {
		return
	}
	c.handleDisconnect()
}

func (c *connection) handleMessage(msg protocol.ClientMessage) {
	switch c.state {
	case stateIdle:
		if msg.Kind != protocol.ClientMessageIdle {
			c.trySend(protocol.NewErrorMessage(protocol.ErrInvalidStateTransition, "not currently idle"))
			return
		}
		c.handleIdleAction(msg.Idle)
	case stateLobby:
		if msg.Kind != protocol.ClientMessageLobby {
			c.trySend(protocol.NewErrorMessage(protocol.ErrInvalidStateTransition, "currently in a lobby waiting room"))
			return
		}
		c.handleLobbyAction(msg)
	case stateGame:
		if msg.Kind != protocol.ClientMessageGame {
			c.trySend(protocol.NewErrorMessage(protocol.ErrInvalidStateTransition, "currently in a game"))
			return
		}
		c.actionsOut <- msg
	}
}

func (c *connection) handleIdleAction(action protocol.IdleAction) {
	switch action.Kind {
	case protocol.IdleActionCreateLobby:
		c.createLobby()
	case protocol.IdleActionJoinLobby:
		c.joinLobby(action.Code)
	}
}

func (c *connection) createLobby() {
	conn, ok := c.registry.DeIdlePlayer(c.id)
	if !ok {
		c.trySend(protocol.NewErrorMessage(protocol.ErrPlayerNotFound, "player is not idle"))
		return
	}
	cmds := make(chan any, 16)
	code, err := c.registry.RegisterLobby(registry.LobbyHandle{Commands: cmds})
	if err != nil {
		c.registry.RegisterIdlePlayer(c.id, conn)
		c.log.Printf("conn %s: %v", c.id, err)
		c.trySend(protocol.NewErrorMessage(protocol.ErrLobbyNotFound, "could not allocate a lobby code, try again"))
		return
	}
	go lobby.Run(code, c.registry, cmds, c.log, c.opts)
	cmds <- lobby.AddPlayer{ID: c.id, Conn: conn}
	c.lobbyCmds = cmds
	c.lobbyCode = code
	c.state = stateLobby
}

func (c *connection) joinLobby(code protocol.LobbyCode) {
	handle, ok := c.registry.GetLobby(code)
	if !ok {
		c.trySend(protocol.NewErrorMessage(protocol.ErrLobbyNotFound, "no lobby with that code"))
		return
	}
	conn, ok := c.registry.DeIdlePlayer(c.id)
	if !ok {
		c.trySend(protocol.NewErrorMessage(protocol.ErrPlayerNotFound, "player is not idle"))
		return
	}
	handle.Commands <- lobby.AddPlayer{ID: c.id, Conn: conn}
	c.lobbyCmds = handle.Commands
	c.lobbyCode = code
	c.state = stateLobby
}

// handleLobbyAction implements the Lobby{code} row of the transition
// table. StartGame is forwarded through the action channel so the lobby
// actor's fan-in authorizes it; LeaveLobby goes straight to the lobby's
// command channel since it never needs fan-in ordering.
func (c *connection) handleLobbyAction(msg protocol.ClientMessage) {
	switch msg.Lobby.Kind {
	case protocol.LobbyActionStartGame:
		c.actionsOut <- msg
		c.state = stateGame
	case protocol.LobbyActionLeaveLobby:
		fresh := c.installFreshActionChannel()
		c.lobbyCmds <- lobby.RemovePlayer{ID: c.id, ReturnToIdle: true, FreshConn: fresh}
		c.lobbyCmds = nil
		c.lobbyCode = ""
		c.state = stateIdle
	}
}

func (c *connection) trySend(msg protocol.ServerMessage) {
	if err := c.socket.Send(msg); err != nil {
		c.log.Printf("conn %s: failed to send %s: %v", c.id, msg.Kind, err)
	}
}
