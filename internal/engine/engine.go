package engine

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var ErrUnknownPlayer = errors.New("unknown player")
var ErrNotOwner = errors.New("caller is not the lobby owner")
var ErrNotYourTurn = errors.New("not this player's turn")
var ErrWrongPhase = errors.New("action not valid in current phase")
var ErrPlayersNotReady = errors.New("not all players are ready")
var ErrUnsupportedCommand = errors.New("unsupported command")

// Elimination reasons carried on playerEliminated events.
const (
	ReasonTimeout     = "timeout"
	ReasonWrongAnswer = "wrongAnswer"
	ReasonVictimFound = "hideSeekItemFound"
	ReasonLeft        = "left"
)

// Apply validates cmd against the current snapshot and returns the events
// to emit plus the next snapshot. A guard failure returns an error and the
// unchanged state; callers log and drop it, no event reaches clients.
func Apply(s State, cmd Command) ([]Event, State, error) {
	ns := s

	switch cmd.Type {
	case CmdJoinWaiting:
		return ns.applyJoinWaiting(cmd)
	case CmdSetReady:
		return ns.applySetReady(cmd)
	case CmdSetColor:
		return ns.applySetColor(cmd)
	case CmdUpdateSettings:
		return ns.applyUpdateSettings(cmd)
	case CmdStartGame:
		return ns.applyStartGame(cmd)
	case CmdCountdownTick:
		return ns.applyCountdownTick()
	case CmdJoinGame:
		return ns.applyJoinGame(cmd)
	case CmdSelectItem:
		return ns.applySelectItem(cmd)
	case CmdSelectionTick:
		return ns.applySelectionTick()
	case CmdButtonPress:
		return ns.applyButtonPress(cmd)
	case CmdReturnToWaiting:
		return ns.applyReturnToWaiting(cmd)
	case CmdLeaveLobby:
		return ns.applyLeaveLobby(cmd)
	case CmdLeaveGame:
		return ns.applyLeaveGame(cmd)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func (s *State) applyJoinWaiting(cmd Command) ([]Event, State, error) {
	if p := s.findPlayer(cmd.PlayerID); p != nil {
		// Rejoin: only connection identity and transient round flags
		// change; color and prior progress stay.
		p.ConnectionID = cmd.ConnID
		p.InGame = false
		p.Ready = false
	} else {
		s.Players = append(s.Players, Player{
			ID:           cmd.PlayerID,
			Name:         cmd.Name,
			ConnectionID: cmd.ConnID,
		})
	}
	if s.OwnerID == "" {
		s.OwnerID = cmd.PlayerID
	}
	return []Event{lobbyUpdate(s)}, *s, nil
}

func (s *State) applySetReady(cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseWaiting {
		return nil, *s, ErrWrongPhase
	}
	p := s.findPlayer(cmd.PlayerID)
	if p == nil {
		return nil, *s, ErrUnknownPlayer
	}
	p.Ready = cmd.Ready
	return []Event{lobbyUpdate(s)}, *s, nil
}

func (s *State) applySetColor(cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseWaiting {
		return nil, *s, ErrWrongPhase
	}
	p := s.findPlayer(cmd.PlayerID)
	if p == nil {
		return nil, *s, ErrUnknownPlayer
	}
	if cmd.Color != nil {
		for i := range s.Players {
			other := &s.Players[i]
			if other.ID != cmd.PlayerID && other.Color != nil && *other.Color == *cmd.Color {
				return []Event{{
					Type:     EvtColorUpdateFailed,
					Audience: AudCaller,
					Payload:  ColorUpdateFailedPayload{Reason: "Color already taken"},
				}}, *s, nil
			}
		}
	}
	p.Color = cmd.Color
	return []Event{lobbyUpdate(s)}, *s, nil
}

func (s *State) applyUpdateSettings(cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseWaiting {
		return nil, *s, ErrWrongPhase
	}
	if cmd.PlayerID != s.OwnerID {
		return nil, *s, ErrNotOwner
	}
	if cmd.TurnTime > 0 {
		s.TurnTimeSec = cmd.TurnTime
	}
	if cmd.Mode == ModeMarathon || cmd.Mode == ModeHideSeek {
		s.Mode = cmd.Mode
	}
	return []Event{{
		Type:     EvtSettingsUpdated,
		Audience: AudWaiting,
		Payload:  SettingsUpdatedPayload{TurnTime: s.TurnTimeSec, Mode: s.Mode},
	}}, *s, nil
}

func (s *State) applyStartGame(cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseWaiting {
		return nil, *s, ErrWrongPhase
	}
	if cmd.PlayerID != s.OwnerID {
		return nil, *s, ErrNotOwner
	}
	if len(s.Players) == 0 {
		return nil, *s, ErrUnknownPlayer
	}
	for i := range s.Players {
		if !s.Players[i].Ready {
			return nil, *s, ErrPlayersNotReady
		}
	}

	s.Phase = PhaseCountdown
	s.SolvedItems = []int{}
	s.Eliminated = nil
	s.CurrentTurnID = s.Players[0].ID
	s.CountdownLeft = startCountdownSec
	if s.Mode == ModeHideSeek {
		s.Selections = map[string]Selection{}
	} else {
		s.Selections = nil
	}
	for i := range s.Players {
		s.Players[i].InGame = true
		s.Players[i].Ready = false
	}

	return []Event{
		{Type: EvtEnterGameRoom, Audience: AudNone},
		{Type: EvtStartCountdown, Audience: AudNone},
		{Type: EvtCountdown, Audience: AudGame, Payload: CountdownPayload{TimeLeft: s.CountdownLeft}},
	}, *s, nil
}

func (s *State) applyCountdownTick() ([]Event, State, error) {
	if s.Phase != PhaseCountdown {
		return nil, *s, ErrWrongPhase
	}
	s.CountdownLeft--
	events := []Event{
		{Type: EvtCountdown, Audience: AudGame, Payload: CountdownPayload{TimeLeft: s.CountdownLeft}},
	}
	if s.CountdownLeft > 0 {
		return events, *s, nil
	}

	events = append(events, Event{Type: EvtStopTimer, Audience: AudNone})

	started := GameStartedPayload{
		FirstTurnPlayerID: s.CurrentTurnID,
		TurnTime:          s.TurnTimeSec,
		Mode:              s.Mode,
	}
	if first := s.findPlayer(s.CurrentTurnID); first != nil {
		started.FirstTurnPlayerName = first.Name
	}
	events = append(events, Event{Type: EvtGameStarted, Audience: AudGame, Payload: started})

	if s.Mode == ModeHideSeek {
		s.Phase = PhaseSelecting
		events = append(events, Event{
			Type:     EvtSelectionPhase,
			Audience: AudGame,
			Payload:  SelectionPhasePayload{Selections: maps.Clone(s.Selections)},
		})
	} else {
		s.Phase = PhaseInGame
	}
	return events, *s, nil
}

func (s *State) applyJoinGame(cmd Command) ([]Event, State, error) {
	if !s.roundInProgress() {
		return nil, *s, ErrWrongPhase
	}
	p := s.findPlayer(cmd.PlayerID)
	if p == nil {
		return nil, *s, ErrUnknownPlayer
	}
	p.ConnectionID = cmd.ConnID
	p.InGame = true

	var reply Event
	if s.Phase == PhaseSelecting {
		reply = Event{
			Type:     EvtSelectionPhase,
			Audience: AudCaller,
			Payload:  SelectionPhasePayload{Selections: maps.Clone(s.Selections)},
		}
	} else {
		reply = Event{
			Type:     EvtInitItems,
			Audience: AudCaller,
			Payload: InitItemsPayload{
				SolvedItems: slices.Clone(s.SolvedItems),
				Players:     slices.Clone(s.Players),
			},
		}
	}
	return []Event{reply}, *s, nil
}

func (s *State) applySelectItem(cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseSelecting {
		return nil, *s, ErrWrongPhase
	}
	if s.findPlayer(cmd.PlayerID) == nil {
		return nil, *s, ErrUnknownPlayer
	}
	if s.Selections == nil {
		s.Selections = map[string]Selection{}
	}
	s.Selections[cmd.PlayerID] = Selection{ItemID: cmd.ItemID, ItemName: cmd.ItemName}

	if !s.SelectionsComplete() {
		// Still waiting on somebody.
		return []Event{{
			Type:     EvtSelectionPhase,
			Audience: AudGame,
			Payload:  SelectionPhasePayload{Selections: maps.Clone(s.Selections)},
		}}, *s, nil
	}

	// Full coverage: the phase advances only when item ids are pairwise
	// distinct, otherwise every selection is thrown away.
	seen := map[int]bool{}
	for _, sel := range s.Selections {
		seen[sel.ItemID] = true
	}
	if dup := len(s.Selections) - len(seen); dup > 0 {
		s.Selections = map[string]Selection{}
		return []Event{
			{
				Type:     EvtSelectionFailed,
				Audience: AudGame,
				Payload: SelectionFailedPayload{
					Reason: fmt.Sprintf("%d item(s) were chosen by multiple players. Everyone must choose again.", dup),
				},
			},
			{
				Type:     EvtSelectionPhase,
				Audience: AudGame,
				Payload:  SelectionPhasePayload{Selections: maps.Clone(s.Selections), HasDuplicates: true},
			},
		}, *s, nil
	}

	s.CountdownLeft = selectionCountdownSec
	return []Event{
		{Type: EvtStartSelectionTimer, Audience: AudNone},
		{Type: EvtSelectionCountdown, Audience: AudGame, Payload: CountdownPayload{TimeLeft: s.CountdownLeft}},
	}, *s, nil
}

func (s *State) applySelectionTick() ([]Event, State, error) {
	if s.Phase != PhaseSelecting {
		return nil, *s, ErrWrongPhase
	}
	s.CountdownLeft--
	events := []Event{
		{Type: EvtSelectionCountdown, Audience: AudGame, Payload: CountdownPayload{TimeLeft: s.CountdownLeft}},
	}
	if s.CountdownLeft > 0 {
		return events, *s, nil
	}

	s.Phase = PhaseInGame
	events = append(events, Event{Type: EvtStopTimer, Audience: AudNone})

	complete := SelectionCompletePayload{
		Selections:        maps.Clone(s.Selections),
		FirstTurnPlayerID: s.CurrentTurnID,
	}
	if first := s.findPlayer(s.CurrentTurnID); first != nil {
		complete.FirstTurnPlayerName = first.Name
	}
	events = append(events, Event{Type: EvtSelectionComplete, Audience: AudGame, Payload: complete})
	return events, *s, nil
}

func (s *State) applyButtonPress(cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseInGame {
		return nil, *s, ErrWrongPhase
	}
	if cmd.PlayerID != s.CurrentTurnID {
		return nil, *s, ErrNotYourTurn
	}

	if !cmd.Correct {
		reason := ReasonWrongAnswer
		if cmd.Timeout {
			reason = ReasonTimeout
		}
		return s.eliminate(cmd.PlayerID, reason), *s, nil
	}

	var events []Event
	if cmd.ItemID != 0 && !slices.Contains(s.SolvedItems, cmd.ItemID) {
		s.SolvedItems = append(s.SolvedItems, cmd.ItemID)

		victimID := ""
		if s.Mode == ModeHideSeek {
			for pid, sel := range s.Selections {
				if sel.ItemID == cmd.ItemID && pid != cmd.PlayerID {
					if p := s.findPlayer(pid); p != nil && s.isActive(p) {
						victimID = pid
					}
					break
				}
			}
		}

		events = append(events, Event{
			Type:     EvtItemSolved,
			Audience: AudGame,
			Payload:  ItemSolvedPayload{ItemID: cmd.ItemID, SolvedBy: cmd.PlayerID, IsVictimItem: victimID != ""},
		})
		if victimID != "" {
			events = append(events, s.eliminate(victimID, ReasonVictimFound)...)
		}
	}

	// A victim elimination may have ended the round.
	if s.Phase == PhaseInGame {
		events = append(events, s.advanceTurn(s.playerIndex(cmd.PlayerID))...)
	}
	return events, *s, nil
}

func (s *State) applyReturnToWaiting(cmd Command) ([]Event, State, error) {
	p := s.findPlayer(cmd.PlayerID)
	if p == nil {
		return nil, *s, ErrUnknownPlayer
	}
	p.InGame = false
	if cmd.ConnID != "" {
		p.ConnectionID = cmd.ConnID
	}

	var events []Event
	if s.Phase != PhaseWaiting {
		inRound := 0
		for i := range s.Players {
			if s.Players[i].InGame {
				inRound++
			}
		}
		if inRound == 0 {
			// Everyone is back; clear round progress for the next game.
			s.resetRound()
			events = append(events, Event{Type: EvtStopTimer, Audience: AudNone})
		}
	}
	events = append(events, lobbyUpdate(s))
	return events, *s, nil
}

func (s *State) applyLeaveLobby(cmd Command) ([]Event, State, error) {
	idx := s.playerIndex(cmd.PlayerID)
	if idx == -1 {
		return nil, *s, ErrUnknownPlayer
	}
	leaving := s.Players[idx]
	s.Players = slices.Delete(s.Players, idx, idx+1)

	events := []Event{{
		Type:     EvtPlayerLeft,
		Audience: AudWaiting,
		Payload:  PlayerLeftPayload{PlayerID: leaving.ID, PlayerName: leaving.Name},
	}}

	if len(s.Players) == 0 {
		return append(events,
			Event{Type: EvtStopTimer, Audience: AudNone},
			Event{Type: EvtDeleteLobby, Audience: AudNone},
		), *s, nil
	}
	if s.OwnerID == leaving.ID {
		s.OwnerID = s.Players[0].ID
	}
	return append(events, lobbyUpdate(s)), *s, nil
}

func (s *State) applyLeaveGame(cmd Command) ([]Event, State, error) {
	if !s.roundInProgress() {
		return nil, *s, ErrWrongPhase
	}
	p := s.findPlayer(cmd.PlayerID)
	if p == nil || !s.isActive(p) {
		return nil, *s, ErrUnknownPlayer
	}
	return s.eliminate(cmd.PlayerID, ReasonLeft), *s, nil
}

func lobbyUpdate(s *State) Event {
	return Event{Type: EvtLobbyUpdate, Audience: AudWaiting, Payload: s.Clone()}
}
