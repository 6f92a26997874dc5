package engine

type EventType string

// Broadcast event names match the wire protocol clients subscribe to.
const (
	EvtLobbyUpdate        EventType = "lobbyUpdate"
	EvtCountdown          EventType = "countdown"
	EvtGameStarted        EventType = "gameStarted"
	EvtSelectionPhase     EventType = "selectionPhase"
	EvtSelectionCountdown EventType = "selectionCountdown"
	EvtSelectionComplete  EventType = "selectionComplete"
	EvtSelectionFailed    EventType = "selectionFailed"
	EvtTurnChanged        EventType = "turnChanged"
	EvtItemSolved         EventType = "itemSolved"
	EvtPlayerEliminated   EventType = "playerEliminated"
	EvtPlayerLeft         EventType = "playerLeft"
	EvtGameOver           EventType = "gameOver"
	EvtColorUpdateFailed  EventType = "colorUpdateFailed"
	EvtSettingsUpdated    EventType = "gameSettingsUpdated"
	EvtInitItems          EventType = "initItems"
)

// Directives for the lobby actor. Audience is always AudNone; they never
// reach a client.
const (
	EvtStartCountdown      EventType = "_startCountdown"
	EvtStartSelectionTimer EventType = "_startSelectionTimer"
	EvtStopTimer           EventType = "_stopTimer"
	EvtEnterGameRoom       EventType = "_enterGameRoom"
	EvtDeleteLobby         EventType = "_deleteLobby"
)

// Audience says which broadcast group an event goes to.
type Audience int

const (
	AudNone    Audience = iota // actor directive
	AudWaiting                 // waiting group
	AudGame                    // game group
	AudCaller                  // only the connection that sent the command
)

type Event struct {
	Type     EventType
	Audience Audience
	Payload  any
}

type CountdownPayload struct {
	TimeLeft int `json:"timeLeft"`
}

type GameStartedPayload struct {
	FirstTurnPlayerID   string `json:"firstTurnPlayerId"`
	FirstTurnPlayerName string `json:"firstTurnPlayerName"`
	TurnTime            int    `json:"turnTime"`
	Mode                Mode   `json:"gameMode"`
}

type SelectionPhasePayload struct {
	Selections    map[string]Selection `json:"playersSelections"`
	HasDuplicates bool                 `json:"hasDuplicateItems,omitempty"`
}

type SelectionCompletePayload struct {
	Selections          map[string]Selection `json:"playerItems"`
	FirstTurnPlayerID   string               `json:"firstTurnPlayerId"`
	FirstTurnPlayerName string               `json:"firstTurnPlayerName"`
}

type SelectionFailedPayload struct {
	Reason string `json:"reason"`
}

type TurnChangedPayload struct {
	CurrentTurnID   string `json:"currentTurnId"`
	CurrentTurnName string `json:"currentTurnName"`
	TimeLeft        int    `json:"timeLeft"`
}

type ItemSolvedPayload struct {
	ItemID       int    `json:"itemId"`
	SolvedBy     string `json:"solvedBy"`
	IsVictimItem bool   `json:"isHideSeekItem"`
}

type PlayerEliminatedPayload struct {
	EliminatedPlayerID string `json:"eliminatedPlayerId"`
	Reason             string `json:"reason"`
}

type PlayerLeftPayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// GameOverPayload carries a nil Winner when every active player was
// eliminated in the same resolution step; clients render that as a draw.
type GameOverPayload struct {
	Winner *Player `json:"winner"`
}

type ColorUpdateFailedPayload struct {
	Reason string `json:"reason"`
}

type SettingsUpdatedPayload struct {
	TurnTime int  `json:"turnTime"`
	Mode     Mode `json:"gameMode"`
}

type InitItemsPayload struct {
	SolvedItems []int    `json:"solvedItems"`
	Players     []Player `json:"players"`
}
