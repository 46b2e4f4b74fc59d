// Package listener accepts inbound WebSocket connections and spawns one
// connection task per socket.
package listener

import (
	"log"

	"github.com/lguibr/multisweeper/connection"
	"github.com/lguibr/multisweeper/lobby"
	"github.com/lguibr/multisweeper/registry"
	"golang.org/x/net/websocket"
)

// Listener wires accepted sockets into the connection state machine
// against a shared registry.
type Listener struct {
	Registry *registry.Registry
	Log      *log.Logger
	Options  lobby.Options
}

// New builds a Listener. logger may be nil to use log.Default().
func New(reg *registry.Registry, logger *log.Logger, opts lobby.Options) *Listener {
	if logger == nil {
		logger = log.Default()
	}
	return &Listener{Registry: reg, Log: logger, Options: opts}
}

// Handler returns a golang.org/x/net/websocket server handler that
// spawns one connection task per accepted socket and blocks the upgrade
// goroutine until that task finishes, matching x/net/websocket's
// per-connection handler contract.
func (l *Listener) Handler() websocket.Handler {
	return func(ws *websocket.Conn) {
		addr := "unknown"
		if ws.Request() != nil {
			addr = ws.Request().RemoteAddr
		}
		l.Log.Printf("listener: accepted connection from %s", addr)
		connection.Handle(connection.WebsocketSocket{Conn: ws}, l.Registry, l.Log, l.Options)
		l.Log.Printf("listener: connection from %s closed", addr)
	}
}
