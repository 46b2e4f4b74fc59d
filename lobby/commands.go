package lobby

import (
	"github.com/lguibr/multisweeper/protocol"
	"github.com/lguibr/multisweeper/registry"
)

// AddPlayer admits a player into a live lobby, transferring ownership of
// its PlayerConnection from whoever held it (the idle table on
// CreateLobby/JoinLobby).
type AddPlayer struct {
	ID   protocol.PlayerId
	Conn registry.PlayerConnection
}

// RemovePlayer evicts a player from a live lobby. ReturnToIdle is true on
// an explicit LeaveLobby (the player is handed back to the registry's
// idle table) and false on a wire disconnect (the connection is simply
// dropped).
//
// FreshConn carries the replacement channel pair the connection task
// installs for itself when a player explicitly leaves: the lobby
// actor's own copy of this player's PlayerConnection is the one the
// action fan-in has been draining, so re-idling it would orphan the
// client's new action channel. It is only read when ReturnToIdle is
// true.
type RemovePlayer struct {
	ID           protocol.PlayerId
	ReturnToIdle bool
	FreshConn    registry.PlayerConnection
}
