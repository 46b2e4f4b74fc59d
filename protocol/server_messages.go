package protocol

import (
	"encoding/json"
	"fmt"
)

// LobbyStatus is the membership phase of a lobby.
type LobbyStatus string

const (
	LobbyWaiting  LobbyStatus = "Waiting"
	LobbyStarting LobbyStatus = "Starting"
)

// LobbyState is broadcast after every lobby membership or host change.
type LobbyState struct {
	Code    LobbyCode   `json:"code"`
	Players []PlayerId  `json:"players"`
	HostID  PlayerId    `json:"host_id"`
	Status  LobbyStatus `json:"status"`
}

// GameInfo is broadcast once when a game starts, describing the board
// parameters so clients can reproduce it locally if desired.
type GameInfo struct {
	Code            LobbyCode `json:"code"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	NumberOfMines   int       `json:"number_of_mines"`
	Seed            int64     `json:"seed"`
}

// ErrorPayload carries an ErrorCode and human-readable message.
type ErrorPayload struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// PlayerResultKind tags the variant of a PlayerResult.
type PlayerResultKind string

const (
	PlayerResultWon     PlayerResultKind = "Won"
	PlayerResultLost    PlayerResultKind = "Lost"
	PlayerResultPlaying PlayerResultKind = "Playing"
	PlayerResultStalled PlayerResultKind = "Stalled"
	PlayerResultTimeout PlayerResultKind = "Timeout"
)

// PlayerResult is the outcome of a single turn.
type PlayerResult struct {
	Kind     PlayerResultKind
	Snapshot string // set when Kind == PlayerResultPlaying
}

func (r PlayerResult) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case PlayerResultWon, PlayerResultLost, PlayerResultStalled, PlayerResultTimeout:
		return json.Marshal(string(r.Kind))
	case PlayerResultPlaying:
		return json.Marshal(map[string]any{string(r.Kind): r.Snapshot})
	default:
		return nil, fmt.Errorf("protocol: unknown PlayerResult kind %q", r.Kind)
	}
}

func (r *PlayerResult) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		switch PlayerResultKind(asString) {
		case PlayerResultWon, PlayerResultLost, PlayerResultStalled, PlayerResultTimeout:
			r.Kind = PlayerResultKind(asString)
			return nil
		default:
			return fmt.Errorf("protocol: unknown PlayerResult %q", asString)
		}
	}
	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(data, &asObject); err != nil {
		return fmt.Errorf("protocol: PlayerResult must be a string or single-key object: %w", err)
	}
	if len(asObject) != 1 {
		return fmt.Errorf("protocol: PlayerResult object must have exactly one key, got %d", len(asObject))
	}
	payload, ok := asObject[string(PlayerResultPlaying)]
	if !ok {
		for k := range asObject {
			return fmt.Errorf("protocol: unknown PlayerResult variant %q", k)
		}
	}
	var snapshot string
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return fmt.Errorf("protocol: decoding Playing snapshot: %w", err)
	}
	r.Kind = PlayerResultPlaying
	r.Snapshot = snapshot
	return nil
}

// ServerMessageKind tags the top-level variant of a ServerMessage.
type ServerMessageKind string

const (
	ServerMessageLobbyState   ServerMessageKind = "LobbyState"
	ServerMessageGameStarted  ServerMessageKind = "GameStarted"
	ServerMessageGameInfo     ServerMessageKind = "GameInfo"
	ServerMessagePlayerTurn   ServerMessageKind = "PlayerTurn"
	ServerMessagePlayerAction ServerMessageKind = "PlayerAction"
	ServerMessagePlayerResult ServerMessageKind = "PlayerResult"
	ServerMessageError        ServerMessageKind = "Error"
)

// ServerMessage is the externally-tagged union of every message the
// server may send.
type ServerMessage struct {
	Kind ServerMessageKind

	LobbyState LobbyState
	GameInfo   GameInfo
	Error      ErrorPayload

	// PlayerTurn payload.
	TurnPlayer PlayerId

	// PlayerAction payload: (actor, applied action).
	ActionPlayer PlayerId
	Action       PlayerAction

	// PlayerResult payload: (actor, outcome).
	ResultPlayer PlayerId
	Result       PlayerResult
}

// NewLobbyStateMessage builds a LobbyState ServerMessage.
func NewLobbyStateMessage(s LobbyState) ServerMessage {
	return ServerMessage{Kind: ServerMessageLobbyState, LobbyState: s}
}

// NewGameStartedMessage builds a GameStarted ServerMessage.
func NewGameStartedMessage() ServerMessage {
	return ServerMessage{Kind: ServerMessageGameStarted}
}

// NewGameInfoMessage builds a GameInfo ServerMessage.
func NewGameInfoMessage(info GameInfo) ServerMessage {
	return ServerMessage{Kind: ServerMessageGameInfo, GameInfo: info}
}

// NewPlayerTurnMessage builds a PlayerTurn ServerMessage.
func NewPlayerTurnMessage(id PlayerId) ServerMessage {
	return ServerMessage{Kind: ServerMessagePlayerTurn, TurnPlayer: id}
}

// NewPlayerActionMessage builds a PlayerAction echo ServerMessage.
func NewPlayerActionMessage(id PlayerId, action PlayerAction) ServerMessage {
	return ServerMessage{Kind: ServerMessagePlayerAction, ActionPlayer: id, Action: action}
}

// NewPlayerResultMessage builds a PlayerResult ServerMessage.
func NewPlayerResultMessage(id PlayerId, result PlayerResult) ServerMessage {
	return ServerMessage{Kind: ServerMessagePlayerResult, ResultPlayer: id, Result: result}
}

// NewErrorMessage builds an Error ServerMessage.
func NewErrorMessage(code ErrorCode, message string) ServerMessage {
	return ServerMessage{Kind: ServerMessageError, Error: ErrorPayload{Code: code, Message: message}}
}

func (m ServerMessage) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case ServerMessageLobbyState:
		return json.Marshal(map[string]any{string(m.Kind): m.LobbyState})
	case ServerMessageGameStarted:
		return json.Marshal(string(m.Kind))
	case ServerMessageGameInfo:
		return json.Marshal(map[string]any{string(m.Kind): m.GameInfo})
	case ServerMessagePlayerTurn:
		return json.Marshal(map[string]any{string(m.Kind): m.TurnPlayer})
	case ServerMessagePlayerAction:
		return json.Marshal(map[string]any{string(m.Kind): []any{m.ActionPlayer, m.Action}})
	case ServerMessagePlayerResult:
		return json.Marshal(map[string]any{string(m.Kind): []any{m.ResultPlayer, m.Result}})
	case ServerMessageError:
		return json.Marshal(map[string]any{string(m.Kind): m.Error})
	default:
		return nil, fmt.Errorf("protocol: unknown ServerMessage kind %q", m.Kind)
	}
}

func (m *ServerMessage) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if ServerMessageKind(asString) == ServerMessageGameStarted {
			m.Kind = ServerMessageGameStarted
			return nil
		}
		return fmt.Errorf("protocol: unknown ServerMessage %q", asString)
	}

	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(data, &asObject); err != nil {
		return fmt.Errorf("protocol: ServerMessage must be a string or single-key object: %w", err)
	}
	if len(asObject) != 1 {
		return fmt.Errorf("protocol: ServerMessage object must have exactly one key, got %d", len(asObject))
	}
	for k, payload := range asObject {
		switch ServerMessageKind(k) {
		case ServerMessageLobbyState:
			var s LobbyState
			if err := json.Unmarshal(payload, &s); err != nil {
				return fmt.Errorf("protocol: decoding LobbyState: %w", err)
			}
			m.Kind, m.LobbyState = ServerMessageLobbyState, s
			return nil
		case ServerMessageGameInfo:
			var info GameInfo
			if err := json.Unmarshal(payload, &info); err != nil {
				return fmt.Errorf("protocol: decoding GameInfo: %w", err)
			}
			m.Kind, m.GameInfo = ServerMessageGameInfo, info
			return nil
		case ServerMessagePlayerTurn:
			var id PlayerId
			if err := json.Unmarshal(payload, &id); err != nil {
				return fmt.Errorf("protocol: decoding PlayerTurn: %w", err)
			}
			m.Kind, m.TurnPlayer = ServerMessagePlayerTurn, id
			return nil
		case ServerMessagePlayerAction:
			var tuple [2]json.RawMessage
			if err := json.Unmarshal(payload, &tuple); err != nil {
				return fmt.Errorf("protocol: decoding PlayerAction: %w", err)
			}
			var id PlayerId
			var action PlayerAction
			if err := json.Unmarshal(tuple[0], &id); err != nil {
				return fmt.Errorf("protocol: decoding PlayerAction actor: %w", err)
			}
			if err := json.Unmarshal(tuple[1], &action); err != nil {
				return fmt.Errorf("protocol: decoding PlayerAction action: %w", err)
			}
			m.Kind, m.ActionPlayer, m.Action = ServerMessagePlayerAction, id, action
			return nil
		case ServerMessagePlayerResult:
			var tuple [2]json.RawMessage
			if err := json.Unmarshal(payload, &tuple); err != nil {
				return fmt.Errorf("protocol: decoding PlayerResult: %w", err)
			}
			var id PlayerId
			var result PlayerResult
			if err := json.Unmarshal(tuple[0], &id); err != nil {
				return fmt.Errorf("protocol: decoding PlayerResult actor: %w", err)
			}
			if err := json.Unmarshal(tuple[1], &result); err != nil {
				return fmt.Errorf("protocol: decoding PlayerResult outcome: %w", err)
			}
			m.Kind, m.ResultPlayer, m.Result = ServerMessagePlayerResult, id, result
			return nil
		case ServerMessageError:
			var e ErrorPayload
			if err := json.Unmarshal(payload, &e); err != nil {
				return fmt.Errorf("protocol: decoding Error: %w", err)
			}
			m.Kind, m.Error = ServerMessageError, e
			return nil
		default:
			return fmt.Errorf("protocol: unknown ServerMessage variant %q", k)
		}
	}
	return nil
}
