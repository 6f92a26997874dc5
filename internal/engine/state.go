package engine

import (
	"maps"
	"slices"
)

// Phase is the lifecycle stage of a lobby.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhaseSelecting Phase = "selecting"
	PhaseInGame    Phase = "in_game"
	PhaseGameOver  Phase = "game_over"
)

// Mode selects the elimination rules for a round.
type Mode int

const (
	ModeMarathon Mode = 1
	ModeHideSeek Mode = 2
)

type Player struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ConnectionID string  `json:"connectionId,omitempty"`
	Ready        bool    `json:"is_ready"`
	InGame       bool    `json:"inGame"`
	Color        *string `json:"color"`
}

// Selection is one player's secret Hide & Seek item.
type Selection struct {
	ItemID   int    `json:"id"`
	ItemName string `json:"name"`
}

// State is the full serializable snapshot of one lobby. Timer handles live
// in the lobby actor, never here, so a snapshot can always round-trip
// through the cache.
type State struct {
	ID       string   `json:"id"`
	JoinCode string   `json:"code"`
	Name     string   `json:"name"`
	OwnerID  string   `json:"ownerId"`
	Players  []Player `json:"players"`
	Phase    Phase    `json:"phase"`
	Mode     Mode     `json:"gameMode"`

	CurrentTurnID string `json:"currentTurn"`
	TurnTimeSec   int    `json:"turnTime"`
	CountdownLeft int    `json:"timeLeft"`

	SolvedItems []int                `json:"solvedItems"`
	Selections  map[string]Selection `json:"hideSeekSelections,omitempty"`
	Eliminated  map[string]bool      `json:"eliminatedPlayers,omitempty"`
}

const (
	// Pre-game countdown ticks after startGame.
	startCountdownSec = 5
	// Post-selection countdown ticks in Hide & Seek.
	selectionCountdownSec = 3

	defaultTurnTimeSec = 10
)

// NewState returns a fresh waiting-room state for a lobby hydrated from its
// catalog record. The first player to join becomes owner.
func NewState(id, joinCode, name, ownerID string) State {
	return State{
		ID:            id,
		JoinCode:      joinCode,
		Name:          name,
		OwnerID:       ownerID,
		Players:       []Player{},
		Phase:         PhaseWaiting,
		Mode:          ModeMarathon,
		TurnTimeSec:   defaultTurnTimeSec,
		CountdownLeft: startCountdownSec,
		SolvedItems:   []int{},
	}
}

// Clone returns a snapshot detached from the live state. Event payloads
// outlive the Apply call that produced them and are marshaled on another
// goroutine, so they must not share the roster or round collections.
func (s *State) Clone() State {
	c := *s
	c.Players = slices.Clone(s.Players)
	c.SolvedItems = slices.Clone(s.SolvedItems)
	c.Selections = maps.Clone(s.Selections)
	c.Eliminated = maps.Clone(s.Eliminated)
	return c
}

func (s *State) findPlayer(id string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

func (s *State) playerIndex(id string) int {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// isActive reports whether a player still holds a turn slot in the current
// round: in the game and not eliminated.
func (s *State) isActive(p *Player) bool {
	return p.InGame && !s.Eliminated[p.ID]
}

// ActivePlayers returns the active subset in roster order.
func (s *State) ActivePlayers() []Player {
	var out []Player
	for i := range s.Players {
		if s.isActive(&s.Players[i]) {
			out = append(out, s.Players[i])
		}
	}
	return out
}

// SelectionsComplete reports whether every active player has stored a
// selection. A player eliminated mid-selection cannot be waited on.
func (s *State) SelectionsComplete() bool {
	if len(s.Selections) == 0 {
		return false
	}
	for i := range s.Players {
		p := &s.Players[i]
		if !s.isActive(p) {
			continue
		}
		if _, ok := s.Selections[p.ID]; !ok {
			return false
		}
	}
	return true
}

// roundInProgress reports whether the lobby is anywhere between startGame
// and gameOver.
func (s *State) roundInProgress() bool {
	switch s.Phase {
	case PhaseCountdown, PhaseSelecting, PhaseInGame:
		return true
	}
	return false
}

// resetRound clears per-round progress while keeping the roster, so the
// lobby can host another game.
func (s *State) resetRound() {
	s.Phase = PhaseWaiting
	s.CurrentTurnID = ""
	s.SolvedItems = []int{}
	s.Selections = nil
	s.Eliminated = nil
	for i := range s.Players {
		s.Players[i].InGame = false
		s.Players[i].Ready = false
	}
}
