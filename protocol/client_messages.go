package protocol

import (
	"encoding/json"
	"fmt"
)

// IdleActionKind tags the variant of an IdleAction.
type IdleActionKind string

const (
	IdleActionCreateLobby IdleActionKind = "CreateLobby"
	IdleActionJoinLobby   IdleActionKind = "JoinLobby"
)

// IdleAction is sent by a player who is not yet in a lobby.
type IdleAction struct {
	Kind IdleActionKind
	Code LobbyCode // set when Kind == IdleActionJoinLobby
}

func (a IdleAction) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case IdleActionCreateLobby:
		return json.Marshal(string(a.Kind))
	case IdleActionJoinLobby:
		return json.Marshal(map[string]any{
			string(a.Kind): map[string]any{"code": a.Code},
		})
	default:
		return nil, fmt.Errorf("protocol: unknown IdleAction kind %q", a.Kind)
	}
}

func (a *IdleAction) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		switch IdleActionKind(asString) {
		case IdleActionCreateLobby:
			a.Kind = IdleActionCreateLobby
			return nil
		default:
			return fmt.Errorf("protocol: unknown IdleAction %q", asString)
		}
	}

	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(data, &asObject); err != nil {
		return fmt.Errorf("protocol: IdleAction must be a string or single-key object: %w", err)
	}
	if len(asObject) != 1 {
		return fmt.Errorf("protocol: IdleAction object must have exactly one key, got %d", len(asObject))
	}
	payload, ok := asObject[string(IdleActionJoinLobby)]
	if !ok {
		for k := range asObject {
			return fmt.Errorf("protocol: unknown IdleAction variant %q", k)
		}
	}
	var fields struct {
		Code LobbyCode `json:"code"`
	}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return fmt.Errorf("protocol: decoding JoinLobby: %w", err)
	}
	a.Kind = IdleActionJoinLobby
	a.Code = fields.Code
	return nil
}

// LobbyActionKind tags the variant of a LobbyAction.
type LobbyActionKind string

const (
	LobbyActionStartGame  LobbyActionKind = "StartGame"
	LobbyActionLeaveLobby LobbyActionKind = "LeaveLobby"
)

// LobbyAction is sent by a player who is in a lobby's waiting room.
type LobbyAction struct {
	Kind LobbyActionKind
}

func (a LobbyAction) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case LobbyActionStartGame, LobbyActionLeaveLobby:
		return json.Marshal(string(a.Kind))
	default:
		return nil, fmt.Errorf("protocol: unknown LobbyAction kind %q", a.Kind)
	}
}

func (a *LobbyAction) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return fmt.Errorf("protocol: LobbyAction must be a string: %w", err)
	}
	switch LobbyActionKind(asString) {
	case LobbyActionStartGame, LobbyActionLeaveLobby:
		a.Kind = LobbyActionKind(asString)
		return nil
	default:
		return fmt.Errorf("protocol: unknown LobbyAction %q", asString)
	}
}

// PlayerActionKind tags the variant of a PlayerAction.
type PlayerActionKind string

const (
	PlayerActionRevealTile PlayerActionKind = "RevealTile"
	PlayerActionFlagTile   PlayerActionKind = "FlagTile"
)

// PlayerAction is an in-game move: revealing or flagging a tile.
type PlayerAction struct {
	Kind PlayerActionKind
	X, Y uint8
}

func (a PlayerAction) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case PlayerActionRevealTile, PlayerActionFlagTile:
		return json.Marshal(map[string]any{
			string(a.Kind): map[string]any{"x": a.X, "y": a.Y},
		})
	default:
		return nil, fmt.Errorf("protocol: unknown PlayerAction kind %q", a.Kind)
	}
}

func (a *PlayerAction) UnmarshalJSON(data []byte) error {
	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(data, &asObject); err != nil {
		return fmt.Errorf("protocol: PlayerAction must be a single-key object: %w", err)
	}
	if len(asObject) != 1 {
		return fmt.Errorf("protocol: PlayerAction object must have exactly one key, got %d", len(asObject))
	}
	var fields struct {
		X uint8 `json:"x"`
		Y uint8 `json:"y"`
	}
	for k, payload := range asObject {
		kind := PlayerActionKind(k)
		switch kind {
		case PlayerActionRevealTile, PlayerActionFlagTile:
			if err := json.Unmarshal(payload, &fields); err != nil {
				return fmt.Errorf("protocol: decoding %s: %w", k, err)
			}
			a.Kind = kind
			a.X, a.Y = fields.X, fields.Y
			return nil
		default:
			return fmt.Errorf("protocol: unknown PlayerAction variant %q", k)
		}
	}
	return nil
}

// ClientMessageKind tags the top-level variant of a ClientMessage.
type ClientMessageKind string

const (
	ClientMessageIdle  ClientMessageKind = "IdleClient"
	ClientMessageLobby ClientMessageKind = "LobbyClient"
	ClientMessageGame  ClientMessageKind = "GameClient"
)

// ClientMessage is the externally-tagged union of every message a client
// may send.
type ClientMessage struct {
	Kind  ClientMessageKind
	Idle  IdleAction
	Lobby LobbyAction
	Game  PlayerAction
}

func (m ClientMessage) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case ClientMessageIdle:
		return json.Marshal(map[string]any{string(m.Kind): m.Idle})
	case ClientMessageLobby:
		return json.Marshal(map[string]any{string(m.Kind): m.Lobby})
	case ClientMessageGame:
		return json.Marshal(map[string]any{string(m.Kind): m.Game})
	default:
		return nil, fmt.Errorf("protocol: unknown ClientMessage kind %q", m.Kind)
	}
}

func (m *ClientMessage) UnmarshalJSON(data []byte) error {
	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(data, &asObject); err != nil {
		return fmt.Errorf("protocol: ClientMessage must be a single-key object: %w", err)
	}
	if len(asObject) != 1 {
		return fmt.Errorf("protocol: ClientMessage object must have exactly one key, got %d", len(asObject))
	}
	for k, payload := range asObject {
		switch ClientMessageKind(k) {
		case ClientMessageIdle:
			var idle IdleAction
			if err := json.Unmarshal(payload, &idle); err != nil {
				return fmt.Errorf("protocol: decoding IdleClient: %w", err)
			}
			m.Kind, m.Idle = ClientMessageIdle, idle
			return nil
		case ClientMessageLobby:
			var lobby LobbyAction
			if err := json.Unmarshal(payload, &lobby); err != nil {
				return fmt.Errorf("protocol: decoding LobbyClient: %w", err)
			}
			m.Kind, m.Lobby = ClientMessageLobby, lobby
			return nil
		case ClientMessageGame:
			var game PlayerAction
			if err := json.Unmarshal(payload, &game); err != nil {
				return fmt.Errorf("protocol: decoding GameClient: %w", err)
			}
			m.Kind, m.Game = ClientMessageGame, game
			return nil
		default:
			return fmt.Errorf("protocol: unknown ClientMessage variant %q", k)
		}
	}
	return nil
}
