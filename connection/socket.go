package connection

import (
	"github.com/lguibr/multisweeper/protocol"
	"golang.org/x/net/websocket"
)

// Socket is the minimal framing surface the connection task drives: one
// ClientMessage in, one ServerMessage out, per frame. It exists so the
// state machine in this package can be driven by tests without a real
// network socket.
type Socket interface {
	Receive() (protocol.ClientMessage, error)
	Send(protocol.ServerMessage) error
	Close() error
	RemoteAddr() string
}

// WebsocketSocket adapts a golang.org/x/net/websocket connection's JSON
// codec to Socket.
type WebsocketSocket struct {
	Conn *websocket.Conn
}

func (s WebsocketSocket) Receive() (protocol.ClientMessage, error) {
	var msg protocol.ClientMessage
	err := websocket.JSON.Receive(s.Conn, &msg)
	return msg, err
}

func (s WebsocketSocket) Send(msg protocol.ServerMessage) error {
	return websocket.JSON.Send(s.Conn, msg)
}

func (s WebsocketSocket) Close() error {
	return s.Conn.Close()
}

func (s WebsocketSocket) RemoteAddr() string {
	if s.Conn == nil || s.Conn.Request() == nil {
		return "unknown"
	}
	return s.Conn.Request().RemoteAddr
}
