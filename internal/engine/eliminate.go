package engine

import "slices"

// eliminate applies the mode-specific removal rules to one player and
// resolves the outcome: continue, declare a winner, or end with nobody
// standing. Marathon shrinks the roster; Hide & Seek keeps the player
// listed but inactive so their stored selection survives.
func (s *State) eliminate(playerID, reason string) []Event {
	idx := s.playerIndex(playerID)
	if idx == -1 {
		return nil
	}

	events := []Event{{
		Type:     EvtPlayerEliminated,
		Audience: AudGame,
		Payload:  PlayerEliminatedPayload{EliminatedPlayerID: playerID, Reason: reason},
	}}

	// scanFrom is the roster position the turn scheduler resumes after.
	scanFrom := idx
	if s.Mode == ModeHideSeek {
		if s.Eliminated == nil {
			s.Eliminated = map[string]bool{}
		}
		s.Eliminated[playerID] = true
		s.Players[idx].InGame = false
	} else {
		s.Players = slices.Delete(s.Players, idx, idx+1)
		scanFrom = idx - 1
		if len(s.Players) == 0 {
			return append(events,
				Event{Type: EvtStopTimer, Audience: AudNone},
				Event{Type: EvtDeleteLobby, Audience: AudNone},
			)
		}
		if s.OwnerID == playerID {
			s.OwnerID = s.Players[0].ID
		}
	}

	return append(events, s.resolveElimination(playerID, scanFrom)...)
}

// resolveElimination recomputes the active subset after an elimination and
// decides whether the round goes on.
func (s *State) resolveElimination(eliminatedID string, scanFrom int) []Event {
	active := s.ActivePlayers()
	switch len(active) {
	case 1:
		winner := active[0]
		return s.finishRound(&winner)
	case 0:
		// Everyone fell in the same resolution step: round ends drawn.
		return s.finishRound(nil)
	}

	// Turn recovery applies in every round phase: a holder lost during
	// countdown or selection would otherwise still be named once the phase
	// reaches in_game, and no buttonPress could ever pass the turn guard.
	if s.roundInProgress() && s.CurrentTurnID == eliminatedID {
		return s.advanceTurn(scanFrom)
	}
	return nil
}

// finishRound ends the round exactly once: phase moves to game_over, round
// progress is cleared, the roster survives for the next game.
func (s *State) finishRound(winner *Player) []Event {
	var won *Player
	if winner != nil {
		w := *winner
		won = &w
	}

	s.CurrentTurnID = ""
	s.SolvedItems = []int{}
	s.Selections = nil
	s.Eliminated = nil
	for i := range s.Players {
		s.Players[i].InGame = false
		s.Players[i].Ready = false
	}
	s.Phase = PhaseGameOver

	return []Event{
		{Type: EvtStopTimer, Audience: AudNone},
		{Type: EvtGameOver, Audience: AudGame, Payload: GameOverPayload{Winner: won}},
	}
}
