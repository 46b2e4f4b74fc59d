// Package protocol defines the wire schema exchanged between a connected
// client and the server: the externally-tagged ClientMessage/ServerMessage
// unions, plus the opaque identifiers (PlayerId, LobbyCode) threaded
// through every other component.
package protocol

import "fmt"

// PlayerId is an opaque, process-wide-unique identifier minted by the
// registry on connect, e.g. "player 0".
type PlayerId string

// NewPlayerId renders the monotonic player identifier used across the
// wire protocol and internal bookkeeping.
func NewPlayerId(n uint64) PlayerId {
	return PlayerId(fmt.Sprintf("player %d", n))
}

// LobbyCode is the four-digit decimal code a lobby is addressed by.
type LobbyCode string
