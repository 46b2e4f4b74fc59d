package connection

import (
	"errors"
	"io"
	"log"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/lguibr/multisweeper/lobby"
	"github.com/lguibr/multisweeper/protocol"
	"github.com/lguibr/multisweeper/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 2 * time.Second

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type fakeSocket struct {
	fromClient chan protocol.ClientMessage
	toClient   chan protocol.ServerMessage
	errs       chan error
	closed     chan struct{}
	closeOnce  sync.Once
	sendFails  chan struct{}
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		fromClient: make(chan protocol.ClientMessage, 8),
		toClient:   make(chan protocol.ServerMessage, 64),
		errs:       make(chan error, 1),
		closed:     make(chan struct{}),
		sendFails:  make(chan struct{}),
	}
}

func (s *fakeSocket) Receive() (protocol.ClientMessage, error) {
	select {
	case msg := <-s.fromClient:
		return msg, nil
	case err := <-s.errs:
		return protocol.ClientMessage{}, err
	case <-s.closed:
		return protocol.ClientMessage{}, io.EOF
	}
}

func (s *fakeSocket) Send(msg protocol.ServerMessage) error {
	select {
	case <-s.sendFails:
		return errors.New("simulated write failure")
	default:
	}
	select {
	case s.toClient <- msg:
		return nil
	case <-s.closed:
		return io.ErrClosedPipe
	}
}

func (s *fakeSocket) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeSocket) RemoteAddr() string { return "fake" }

func (s *fakeSocket) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *fakeSocket) recv(t *testing.T) protocol.ServerMessage {
	t.Helper()
	select {
	case msg := <-s.toClient:
		return msg
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for an outbound message")
		return protocol.ServerMessage{}
	}
}

func (s *fakeSocket) recvKind(t *testing.T, kind protocol.ServerMessageKind) protocol.ServerMessage {
	t.Helper()
	for i := 0; i < 16; i++ {
		msg := s.recv(t)
		if msg.Kind == kind {
			return msg
		}
	}
	t.Fatalf("never saw a %s message", kind)
	return protocol.ServerMessage{}
}

func newTestRegistry() *registry.Registry {
	return registry.New(1, discardLogger())
}

func TestCreateLobbyTransitionsOutOfIdle(t *testing.T) {
	sock := newFakeSocket()
	reg := newTestRegistry()
	go Handle(sock, reg, discardLogger(), lobby.Options{})

	sock.fromClient <- protocol.ClientMessage{Kind: protocol.ClientMessageIdle, Idle: protocol.IdleAction{Kind: protocol.IdleActionCreateLobby}}

	state := sock.recvKind(t, protocol.ServerMessageLobbyState)
	assert.Len(t, string(state.LobbyState.Code), 4)
	assert.Equal(t, []protocol.PlayerId{"player 0"}, state.LobbyState.Players)
	assert.Equal(t, protocol.LobbyWaiting, state.LobbyState.Status)

	sock.Close()
}

func TestInvalidTransitionKeepsSocketOpen(t *testing.T) {
	sock := newFakeSocket()
	reg := newTestRegistry()
	go Handle(sock, reg, discardLogger(), lobby.Options{})

	sock.fromClient <- protocol.ClientMessage{Kind: protocol.ClientMessageGame, Game: protocol.PlayerAction{Kind: protocol.PlayerActionRevealTile}}
	errMsg := sock.recvKind(t, protocol.ServerMessageError)
	assert.Equal(t, protocol.ErrInvalidStateTransition, errMsg.Error.Code)

	time.Sleep(20 * time.Millisecond)
	assert.False(t, sock.isClosed(), "an invalid transition must not close the socket")

	sock.fromClient <- protocol.ClientMessage{Kind: protocol.ClientMessageIdle, Idle: protocol.IdleAction{Kind: protocol.IdleActionCreateLobby}}
	sock.recvKind(t, protocol.ServerMessageLobbyState)

	sock.Close()
}

func TestDecodeFailureClosesSocket(t *testing.T) {
	sock := newFakeSocket()
	reg := newTestRegistry()
	go Handle(sock, reg, discardLogger(), lobby.Options{})

	sock.errs <- errors.New("malformed json")
	errMsg := sock.recvKind(t, protocol.ServerMessageError)
	assert.Equal(t, protocol.ErrDeserializationFailed, errMsg.Error.Code)

	require.Eventually(t, sock.isClosed, testTimeout, 5*time.Millisecond, "a decode failure must close the socket")
}

func TestJoinUnknownLobbyKeepsIdle(t *testing.T) {
	sock := newFakeSocket()
	reg := newTestRegistry()
	go Handle(sock, reg, discardLogger(), lobby.Options{})

	sock.fromClient <- protocol.ClientMessage{
		Kind: protocol.ClientMessageIdle,
		Idle: protocol.IdleAction{Kind: protocol.IdleActionJoinLobby, Code: "0000"},
	}
	errMsg := sock.recvKind(t, protocol.ServerMessageError)
	assert.Equal(t, protocol.ErrLobbyNotFound, errMsg.Error.Code)

	sock.fromClient <- protocol.ClientMessage{Kind: protocol.ClientMessageIdle, Idle: protocol.IdleAction{Kind: protocol.IdleActionCreateLobby}}
	sock.recvKind(t, protocol.ServerMessageLobbyState)
	sock.Close()
}

func TestTwoConnectionsJoinTheSameLobby(t *testing.T) {
	hostSock := newFakeSocket()
	guestSock := newFakeSocket()
	reg := newTestRegistry()
	go Handle(hostSock, reg, discardLogger(), lobby.Options{})

	hostSock.fromClient <- protocol.ClientMessage{Kind: protocol.ClientMessageIdle, Idle: protocol.IdleAction{Kind: protocol.IdleActionCreateLobby}}
	hostState := hostSock.recvKind(t, protocol.ServerMessageLobbyState)
	code := hostState.LobbyState.Code

	go Handle(guestSock, reg, discardLogger(), lobby.Options{})
	guestSock.fromClient <- protocol.ClientMessage{
		Kind: protocol.ClientMessageIdle,
		Idle: protocol.IdleAction{Kind: protocol.IdleActionJoinLobby, Code: code},
	}

	joined := hostSock.recvKind(t, protocol.ServerMessageLobbyState)
	assert.Equal(t, []protocol.PlayerId{"player 0", "player 1"}, joined.LobbyState.Players)
	guestJoined := guestSock.recvKind(t, protocol.ServerMessageLobbyState)
	assert.Equal(t, joined.LobbyState.Players, guestJoined.LobbyState.Players)

	hostSock.Close()
	guestSock.Close()
}

// TestWriteFailureDoesNotLeakReadLoop guards against readLoop blocking
// forever trying to hand a frame to Handle after Handle has already
// returned via the write-failure path (as opposed to a read error,
// which readLoop notices itself).
func TestWriteFailureDoesNotLeakReadLoop(t *testing.T) {
	reg := newTestRegistry()
	runtime.GC()
	baseline := runtime.NumGoroutine()

	const iterations = 20
	for i := 0; i < iterations; i++ {
		sock := newFakeSocket()
		done := make(chan struct{})
		go func() {
			Handle(sock, reg, discardLogger(), lobby.Options{})
			close(done)
		}()

		sock.fromClient <- protocol.ClientMessage{Kind: protocol.ClientMessageIdle, Idle: protocol.IdleAction{Kind: protocol.IdleActionCreateLobby}}
		sock.recvKind(t, protocol.ServerMessageLobbyState)

		close(sock.sendFails)
		sock.fromClient <- protocol.ClientMessage{Kind: protocol.ClientMessageLobby, Lobby: protocol.LobbyAction{Kind: protocol.LobbyActionStartGame}}

		select {
		case <-done:
		case <-time.After(testTimeout):
			t.Fatal("Handle did not return after a write failure")
		}
	}

	require.Eventually(t, func() bool {
		runtime.GC()
		return runtime.NumGoroutine() <= baseline+2
	}, testTimeout, 10*time.Millisecond, "readLoop goroutines must not leak past Handle's exit")
}
