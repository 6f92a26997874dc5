package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lobbyWith(mode Mode, ids ...string) State {
	s := NewState("l1", "ABC123", "Friday Night", ids[0])
	s.Mode = mode
	for _, id := range ids {
		s.Players = append(s.Players, Player{ID: id, Name: "player-" + id})
	}
	return s
}

func readyAll(s *State) {
	for i := range s.Players {
		s.Players[i].Ready = true
	}
}

func inGame(mode Mode, current string, ids ...string) State {
	s := lobbyWith(mode, ids...)
	s.Phase = PhaseInGame
	s.CurrentTurnID = current
	for i := range s.Players {
		s.Players[i].InGame = true
	}
	return s
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func findEvent(t *testing.T, events []Event, typ EventType) Event {
	t.Helper()
	for _, ev := range events {
		if ev.Type == typ {
			return ev
		}
	}
	t.Fatalf("expected %s in %v", typ, eventTypes(events))
	return Event{}
}

func TestGuards(t *testing.T) {
	cases := []struct {
		name    string
		setup   func() State
		cmd     Command
		wantErr error
	}{
		{
			name:    "setReady outside waiting room",
			setup:   func() State { return inGame(ModeMarathon, "a", "a", "b") },
			cmd:     Command{Type: CmdSetReady, PlayerID: "a", Ready: true},
			wantErr: ErrWrongPhase,
		},
		{
			name:    "settings change by non-owner",
			setup:   func() State { return lobbyWith(ModeMarathon, "a", "b") },
			cmd:     Command{Type: CmdUpdateSettings, PlayerID: "b", TurnTime: 30},
			wantErr: ErrNotOwner,
		},
		{
			name:    "start by non-owner",
			setup:   func() State { s := lobbyWith(ModeMarathon, "a", "b"); readyAll(&s); return s },
			cmd:     Command{Type: CmdStartGame, PlayerID: "b"},
			wantErr: ErrNotOwner,
		},
		{
			name:    "start with unready player",
			setup:   func() State { s := lobbyWith(ModeMarathon, "a", "b"); s.Players[0].Ready = true; return s },
			cmd:     Command{Type: CmdStartGame, PlayerID: "a"},
			wantErr: ErrPlayersNotReady,
		},
		{
			name:    "button press out of turn",
			setup:   func() State { return inGame(ModeMarathon, "a", "a", "b") },
			cmd:     Command{Type: CmdButtonPress, PlayerID: "b", Correct: true, ItemID: 7},
			wantErr: ErrNotYourTurn,
		},
		{
			name:    "select item outside selection phase",
			setup:   func() State { return inGame(ModeHideSeek, "a", "a", "b") },
			cmd:     Command{Type: CmdSelectItem, PlayerID: "a", ItemID: 1},
			wantErr: ErrWrongPhase,
		},
		{
			name:    "ready from unknown player",
			setup:   func() State { return lobbyWith(ModeMarathon, "a") },
			cmd:     Command{Type: CmdSetReady, PlayerID: "ghost", Ready: true},
			wantErr: ErrUnknownPlayer,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := tc.setup()
			events, after, err := Apply(before, tc.cmd)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Empty(t, events, "a rejected action emits nothing")
			assert.Equal(t, before.Phase, after.Phase)
		})
	}
}

func TestJoinWaiting_NewAndRejoin(t *testing.T) {
	s := NewState("l1", "ABC123", "Friday Night", "")

	events, s, err := Apply(s, Command{Type: CmdJoinWaiting, PlayerID: "a", Name: "Ada", ConnID: "c1"})
	require.NoError(t, err)
	require.Len(t, s.Players, 1)
	assert.Equal(t, "a", s.OwnerID, "first joiner becomes owner")
	assert.Equal(t, EvtLobbyUpdate, events[0].Type)

	// Rejoin with the same id must not duplicate the roster entry.
	s.Players[0].Ready = true
	_, s, err = Apply(s, Command{Type: CmdJoinWaiting, PlayerID: "a", Name: "Ada", ConnID: "c2"})
	require.NoError(t, err)
	require.Len(t, s.Players, 1)
	assert.Equal(t, "c2", s.Players[0].ConnectionID)
	assert.False(t, s.Players[0].Ready, "ready resets on rejoin")
}

func TestColorMustBeUnique(t *testing.T) {
	s := lobbyWith(ModeMarathon, "a", "b")
	red := "red"
	s.Players[0].Color = &red

	events, after, err := Apply(s, Command{Type: CmdSetColor, PlayerID: "b", Color: &red})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EvtColorUpdateFailed, events[0].Type)
	assert.Equal(t, AudCaller, events[0].Audience)
	assert.Nil(t, after.Players[1].Color)
}

func TestStartGame_ResetsRoundState(t *testing.T) {
	s := lobbyWith(ModeHideSeek, "a", "b")
	readyAll(&s)
	s.SolvedItems = []int{1, 2}

	events, s, err := Apply(s, Command{Type: CmdStartGame, PlayerID: "a"})
	require.NoError(t, err)

	assert.Equal(t, PhaseCountdown, s.Phase)
	assert.Equal(t, "a", s.CurrentTurnID)
	assert.Empty(t, s.SolvedItems)
	assert.NotNil(t, s.Selections)
	for _, p := range s.Players {
		assert.True(t, p.InGame)
		assert.False(t, p.Ready)
	}

	assert.Equal(t,
		[]EventType{EvtEnterGameRoom, EvtStartCountdown, EvtCountdown},
		eventTypes(events))
	assert.Equal(t, CountdownPayload{TimeLeft: 5}, events[2].Payload)
}

func TestCountdown_ReachesZeroAndStarts(t *testing.T) {
	s := lobbyWith(ModeMarathon, "a", "b")
	readyAll(&s)
	_, s, err := Apply(s, Command{Type: CmdStartGame, PlayerID: "a"})
	require.NoError(t, err)

	for i := 4; i > 0; i-- {
		events, next, err := Apply(s, Command{Type: CmdCountdownTick})
		require.NoError(t, err)
		assert.Equal(t, CountdownPayload{TimeLeft: i}, events[0].Payload)
		assert.Equal(t, PhaseCountdown, next.Phase)
		s = next
	}

	events, s, err := Apply(s, Command{Type: CmdCountdownTick})
	require.NoError(t, err)
	assert.Equal(t, PhaseInGame, s.Phase)
	started := findEvent(t, events, EvtGameStarted).Payload.(GameStartedPayload)
	assert.Equal(t, "a", started.FirstTurnPlayerID)
	findEvent(t, events, EvtStopTimer)
}

func TestCountdown_HideSeekEntersSelection(t *testing.T) {
	s := lobbyWith(ModeHideSeek, "a", "b")
	readyAll(&s)
	_, s, err := Apply(s, Command{Type: CmdStartGame, PlayerID: "a"})
	require.NoError(t, err)
	s.CountdownLeft = 1

	events, s, err := Apply(s, Command{Type: CmdCountdownTick})
	require.NoError(t, err)
	assert.Equal(t, PhaseSelecting, s.Phase)
	findEvent(t, events, EvtGameStarted)
	findEvent(t, events, EvtSelectionPhase)
}

func TestSelection_DuplicateForcesFullReset(t *testing.T) {
	s := lobbyWith(ModeHideSeek, "a", "b")
	s.Phase = PhaseSelecting
	s.Selections = map[string]Selection{}
	for i := range s.Players {
		s.Players[i].InGame = true
	}

	events, s, err := Apply(s, Command{Type: CmdSelectItem, PlayerID: "a", ItemID: 42, ItemName: "Lion"})
	require.NoError(t, err)
	assert.Equal(t, []EventType{EvtSelectionPhase}, eventTypes(events))

	events, s, err = Apply(s, Command{Type: CmdSelectItem, PlayerID: "b", ItemID: 42, ItemName: "Lion"})
	require.NoError(t, err)

	failed := findEvent(t, events, EvtSelectionFailed).Payload.(SelectionFailedPayload)
	assert.Equal(t, "1 item(s) were chosen by multiple players. Everyone must choose again.", failed.Reason)
	assert.Empty(t, s.Selections, "every selection is discarded on conflict")
	assert.Equal(t, PhaseSelecting, s.Phase)
}

func TestSelection_UniqueCoverageStartsCountdown(t *testing.T) {
	s := lobbyWith(ModeHideSeek, "a", "b")
	s.Phase = PhaseSelecting
	s.Selections = map[string]Selection{}
	for i := range s.Players {
		s.Players[i].InGame = true
	}
	s.CurrentTurnID = "a"

	_, s, err := Apply(s, Command{Type: CmdSelectItem, PlayerID: "a", ItemID: 1, ItemName: "Lion"})
	require.NoError(t, err)
	events, s, err := Apply(s, Command{Type: CmdSelectItem, PlayerID: "b", ItemID: 2, ItemName: "Tiger"})
	require.NoError(t, err)

	assert.Equal(t, []EventType{EvtStartSelectionTimer, EvtSelectionCountdown}, eventTypes(events))
	assert.Equal(t, 3, s.CountdownLeft)

	for i := 2; i > 0; i-- {
		events, s, err = Apply(s, Command{Type: CmdSelectionTick})
		require.NoError(t, err)
		assert.Equal(t, CountdownPayload{TimeLeft: i}, events[0].Payload)
	}
	events, s, err = Apply(s, Command{Type: CmdSelectionTick})
	require.NoError(t, err)
	assert.Equal(t, PhaseInGame, s.Phase)
	complete := findEvent(t, events, EvtSelectionComplete).Payload.(SelectionCompletePayload)
	assert.Equal(t, "a", complete.FirstTurnPlayerID)
	assert.Len(t, complete.Selections, 2)
}

func TestSolve_IsIdempotent(t *testing.T) {
	s := inGame(ModeMarathon, "a", "a", "b")

	events, s, err := Apply(s, Command{Type: CmdButtonPress, PlayerID: "a", Correct: true, ItemID: 7})
	require.NoError(t, err)
	findEvent(t, events, EvtItemSolved)
	assert.Equal(t, []int{7}, s.SolvedItems)
	assert.Equal(t, "b", s.CurrentTurnID)

	// Same item again from the next player: no second itemSolved, no
	// second entry, but the turn still advances.
	events, s, err = Apply(s, Command{Type: CmdButtonPress, PlayerID: "b", Correct: true, ItemID: 7})
	require.NoError(t, err)
	assert.Equal(t, []EventType{EvtTurnChanged}, eventTypes(events))
	assert.Equal(t, []int{7}, s.SolvedItems)
}

func TestVictimElimination_SolverSurvives(t *testing.T) {
	s := inGame(ModeHideSeek, "a", "a", "b", "c")
	s.Selections = map[string]Selection{
		"a": {ItemID: 1, ItemName: "Lion"},
		"b": {ItemID: 2, ItemName: "Tiger"},
		"c": {ItemID: 3, ItemName: "Bear"},
	}

	events, s, err := Apply(s, Command{Type: CmdButtonPress, PlayerID: "a", Correct: true, ItemID: 2})
	require.NoError(t, err)

	solved := findEvent(t, events, EvtItemSolved).Payload.(ItemSolvedPayload)
	assert.True(t, solved.IsVictimItem)
	elim := findEvent(t, events, EvtPlayerEliminated).Payload.(PlayerEliminatedPayload)
	assert.Equal(t, "b", elim.EliminatedPlayerID)
	assert.Equal(t, ReasonVictimFound, elim.Reason)

	require.Len(t, s.Players, 3, "hide & seek keeps the roster intact")
	assert.True(t, s.Eliminated["b"])
	assert.False(t, s.Players[1].InGame)

	// Turn skips the freshly eliminated b.
	turn := findEvent(t, events, EvtTurnChanged).Payload.(TurnChangedPayload)
	assert.Equal(t, "c", turn.CurrentTurnID)
}

func TestMarathonElimination_ShrinksRoster(t *testing.T) {
	s := inGame(ModeMarathon, "b", "a", "b", "c")

	events, s, err := Apply(s, Command{Type: CmdButtonPress, PlayerID: "b", Correct: false, Timeout: true})
	require.NoError(t, err)

	elim := findEvent(t, events, EvtPlayerEliminated).Payload.(PlayerEliminatedPayload)
	assert.Equal(t, ReasonTimeout, elim.Reason)
	require.Len(t, s.Players, 2)
	assert.Equal(t, "a", s.Players[0].ID)
	assert.Equal(t, "c", s.Players[1].ID)

	turn := findEvent(t, events, EvtTurnChanged).Payload.(TurnChangedPayload)
	assert.Equal(t, "c", turn.CurrentTurnID, "turn lands on whoever followed the removed player")
}

func TestLastTwoPlayers_WinnerDeclaredOnce(t *testing.T) {
	s := inGame(ModeMarathon, "a", "a", "b")

	events, s, err := Apply(s, Command{Type: CmdButtonPress, PlayerID: "a", Correct: false})
	require.NoError(t, err)

	over := findEvent(t, events, EvtGameOver).Payload.(GameOverPayload)
	require.NotNil(t, over.Winner)
	assert.Equal(t, "b", over.Winner.ID)
	assert.Equal(t, PhaseGameOver, s.Phase)
	assert.Empty(t, s.CurrentTurnID)
	require.Len(t, s.Players, 1, "roster keeps the survivor")

	// A stray second press cannot re-trigger the ending.
	_, _, err = Apply(s, Command{Type: CmdButtonPress, PlayerID: "b", Correct: true, ItemID: 1})
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestSoloElimination_EndsWithNoWinner(t *testing.T) {
	s := inGame(ModeHideSeek, "a", "a")

	events, s, err := Apply(s, Command{Type: CmdButtonPress, PlayerID: "a", Correct: false})
	require.NoError(t, err)

	over := findEvent(t, events, EvtGameOver).Payload.(GameOverPayload)
	assert.Nil(t, over.Winner)
	assert.Equal(t, PhaseGameOver, s.Phase)
}

func TestCountdownLeave_TurnHolderReplaced(t *testing.T) {
	s := lobbyWith(ModeMarathon, "a", "b", "c")
	readyAll(&s)
	_, s, err := Apply(s, Command{Type: CmdStartGame, PlayerID: "a"})
	require.NoError(t, err)
	require.Equal(t, "a", s.CurrentTurnID)

	// The first-turn holder drops out while the countdown is still running.
	events, s, err := Apply(s, Command{Type: CmdLeaveGame, PlayerID: "a"})
	require.NoError(t, err)
	turn := findEvent(t, events, EvtTurnChanged).Payload.(TurnChangedPayload)
	assert.Equal(t, "b", turn.CurrentTurnID)

	for i := 0; i < 5; i++ {
		_, s, err = Apply(s, Command{Type: CmdCountdownTick})
		require.NoError(t, err)
	}
	require.Equal(t, PhaseInGame, s.Phase)
	assert.Equal(t, "b", s.CurrentTurnID)
	cur := s.findPlayer(s.CurrentTurnID)
	require.NotNil(t, cur)
	assert.True(t, s.isActive(cur), "the round must open on a live turn holder")

	// The survivor's press passes the turn guard, so the round is playable.
	_, _, err = Apply(s, Command{Type: CmdButtonPress, PlayerID: "b", Correct: true, ItemID: 1})
	require.NoError(t, err)
}

func TestSelectingLeave_TurnHolderReplaced(t *testing.T) {
	s := lobbyWith(ModeHideSeek, "a", "b", "c")
	s.Phase = PhaseSelecting
	s.CurrentTurnID = "a"
	s.Selections = map[string]Selection{}
	for i := range s.Players {
		s.Players[i].InGame = true
	}

	events, s, err := Apply(s, Command{Type: CmdLeaveGame, PlayerID: "a"})
	require.NoError(t, err)
	turn := findEvent(t, events, EvtTurnChanged).Payload.(TurnChangedPayload)
	assert.Equal(t, "b", turn.CurrentTurnID)
	assert.Equal(t, "b", s.CurrentTurnID)
	assert.True(t, s.Eliminated["a"])

	// Selection completes over the remaining active players; the departed
	// player is not waited on.
	_, s, err = Apply(s, Command{Type: CmdSelectItem, PlayerID: "b", ItemID: 1, ItemName: "Lion"})
	require.NoError(t, err)
	events, _, err = Apply(s, Command{Type: CmdSelectItem, PlayerID: "c", ItemID: 2, ItemName: "Tiger"})
	require.NoError(t, err)
	findEvent(t, events, EvtStartSelectionTimer)
}

func TestOwnerLeaves_OwnershipMoves(t *testing.T) {
	s := lobbyWith(ModeMarathon, "a", "b", "c")

	events, s, err := Apply(s, Command{Type: CmdLeaveLobby, PlayerID: "a"})
	require.NoError(t, err)
	assert.Equal(t, "b", s.OwnerID)
	findEvent(t, events, EvtPlayerLeft)
}

func TestLastPlayerLeaves_LobbyDeleted(t *testing.T) {
	s := lobbyWith(ModeMarathon, "a")

	events, s, err := Apply(s, Command{Type: CmdLeaveLobby, PlayerID: "a"})
	require.NoError(t, err)
	assert.Empty(t, s.Players)
	findEvent(t, events, EvtDeleteLobby)
	findEvent(t, events, EvtStopTimer)
}

func TestLobbyUpdatePayload_DetachedFromLiveState(t *testing.T) {
	s := lobbyWith(ModeMarathon, "a", "b")

	events, s, err := Apply(s, Command{Type: CmdSetReady, PlayerID: "a", Ready: true})
	require.NoError(t, err)
	snap := findEvent(t, events, EvtLobbyUpdate).Payload.(State)
	require.True(t, snap.Players[0].Ready)

	// Payloads are marshaled after Apply returns, so later mutations must
	// not show through them.
	_, _, err = Apply(s, Command{Type: CmdSetReady, PlayerID: "a", Ready: false})
	require.NoError(t, err)
	assert.True(t, snap.Players[0].Ready)
}

func TestSelectionPhasePayload_DetachedFromLiveState(t *testing.T) {
	s := lobbyWith(ModeHideSeek, "a", "b")
	s.Phase = PhaseSelecting
	s.Selections = map[string]Selection{}
	for i := range s.Players {
		s.Players[i].InGame = true
	}

	events, s, err := Apply(s, Command{Type: CmdSelectItem, PlayerID: "a", ItemID: 1, ItemName: "Lion"})
	require.NoError(t, err)
	phase := findEvent(t, events, EvtSelectionPhase).Payload.(SelectionPhasePayload)
	require.Len(t, phase.Selections, 1)

	_, _, err = Apply(s, Command{Type: CmdSelectItem, PlayerID: "b", ItemID: 2, ItemName: "Tiger"})
	require.NoError(t, err)
	assert.Len(t, phase.Selections, 1)
}

func TestInitItemsPayload_DetachedFromLiveState(t *testing.T) {
	s := inGame(ModeMarathon, "a", "a", "b")
	s.SolvedItems = []int{1}

	events, s, err := Apply(s, Command{Type: CmdJoinGame, PlayerID: "b", ConnID: "c2"})
	require.NoError(t, err)
	init := findEvent(t, events, EvtInitItems).Payload.(InitItemsPayload)
	require.Equal(t, []int{1}, init.SolvedItems)
	require.True(t, init.Players[1].InGame)

	_, _, err = Apply(s, Command{Type: CmdButtonPress, PlayerID: "a", Correct: false})
	require.NoError(t, err)
	assert.True(t, init.Players[1].InGame)
}

func TestReturnToWaiting_LastOneBackResetsRound(t *testing.T) {
	s := inGame(ModeHideSeek, "a", "a", "b")
	s.SolvedItems = []int{1, 2}
	s.Eliminated = map[string]bool{"b": true}
	s.Players[1].InGame = false

	events, s, err := Apply(s, Command{Type: CmdReturnToWaiting, PlayerID: "a"})
	require.NoError(t, err)

	assert.Equal(t, PhaseWaiting, s.Phase)
	assert.Empty(t, s.SolvedItems)
	assert.Nil(t, s.Eliminated)
	findEvent(t, events, EvtStopTimer)
	findEvent(t, events, EvtLobbyUpdate)
}
