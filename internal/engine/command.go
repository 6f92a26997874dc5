package engine

type CommandType string

const (
	CmdJoinWaiting     CommandType = "joinWaitingRoom"
	CmdSetReady        CommandType = "setReady"
	CmdSetColor        CommandType = "updatePlayerColor"
	CmdUpdateSettings  CommandType = "updateGameSettings"
	CmdStartGame       CommandType = "startGame"
	CmdJoinGame        CommandType = "joinGame"
	CmdSelectItem      CommandType = "selectHideSeekItem"
	CmdButtonPress     CommandType = "buttonPress"
	CmdReturnToWaiting CommandType = "returnToWaitingRoom"
	CmdLeaveLobby      CommandType = "leaveLobby"
	CmdLeaveGame       CommandType = "leaveGame"

	// Posted by the lobby actor's timer, not by clients.
	CmdCountdownTick CommandType = "_countdownTick"
	CmdSelectionTick CommandType = "_selectionTick"
)

// Command is one inbound intent against a lobby. Only the fields relevant
// to Type are set; the rest stay zero.
type Command struct {
	Type     CommandType
	PlayerID string
	ConnID   string
	Name     string

	Ready    bool
	Color    *string
	TurnTime int
	Mode     Mode

	ItemID   int
	ItemName string
	Correct  bool
	Timeout  bool
}

// LeaveCommand maps a dropped connection to the phase-appropriate removal:
// mid-round a vanished player is eliminated, in the waiting room they
// simply leave.
func LeaveCommand(s State, playerID string) Command {
	if s.roundInProgress() {
		return Command{Type: CmdLeaveGame, PlayerID: playerID}
	}
	return Command{Type: CmdLeaveLobby, PlayerID: playerID}
}
