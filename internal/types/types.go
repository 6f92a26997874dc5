package types

import "github.com/namerush/namerush-backend/internal/engine"

// ClientMessage is the inbound wire shape. Type selects the action; only
// the fields that action needs are expected to be set.
type ClientMessage struct {
	Type       string  `json:"type"`
	LobbyID    string  `json:"lobbyId,omitempty"`
	NewLobbyID string  `json:"newLobbyId,omitempty"`
	PlayerID   string  `json:"playerId,omitempty"`
	Name       string  `json:"name,omitempty"`
	IsReady    bool    `json:"isReady,omitempty"`
	Color      *string `json:"color,omitempty"`
	TurnTime   int     `json:"turnTime,omitempty"`
	GameMode   int     `json:"gameMode,omitempty"`
	ItemID     int     `json:"itemId,omitempty"`
	ItemName   string  `json:"itemName,omitempty"`
	Correct    bool    `json:"correct,omitempty"`
	Timeout    bool    `json:"timeout,omitempty"`
}

// TypeSwitchLobby is handled by the transport layer rather than a single
// lobby's engine: it atomically leaves the bound lobby and joins another.
const TypeSwitchLobby = "switchLobby"

// ServerEvent is the outbound wire shape: a named event with its payload.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Command converts an inbound message into an engine command. The second
// return is false for unknown message types.
func (m ClientMessage) Command(connID string) (engine.Command, bool) {
	cmd := engine.Command{
		Type:     engine.CommandType(m.Type),
		PlayerID: m.PlayerID,
		ConnID:   connID,
		Name:     m.Name,
		Ready:    m.IsReady,
		Color:    m.Color,
		TurnTime: m.TurnTime,
		Mode:     engine.Mode(m.GameMode),
		ItemID:   m.ItemID,
		ItemName: m.ItemName,
		Correct:  m.Correct,
		Timeout:  m.Timeout,
	}

	switch cmd.Type {
	case engine.CmdJoinWaiting, engine.CmdSetReady, engine.CmdSetColor,
		engine.CmdUpdateSettings, engine.CmdStartGame, engine.CmdJoinGame,
		engine.CmdSelectItem, engine.CmdButtonPress, engine.CmdReturnToWaiting,
		engine.CmdLeaveLobby, engine.CmdLeaveGame:
		return cmd, true
	default:
		return engine.Command{}, false
	}
}
