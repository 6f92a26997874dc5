package engine

// advanceTurn hands the turn to the first active player found scanning the
// roster circularly from the slot after lastIdx. The rule is deterministic
// on purpose: when the previous actor is gone from the roster, lastIdx is
// the slot just before their old position, so the turn lands on whoever
// followed them in the original order.
func (s *State) advanceTurn(lastIdx int) []Event {
	n := len(s.Players)
	if n == 0 {
		return nil
	}
	for off := 1; off <= n; off++ {
		i := ((lastIdx+off)%n + n) % n
		p := &s.Players[i]
		if !s.isActive(p) {
			continue
		}
		s.CurrentTurnID = p.ID
		return []Event{{
			Type:     EvtTurnChanged,
			Audience: AudGame,
			Payload: TurnChangedPayload{
				CurrentTurnID:   p.ID,
				CurrentTurnName: p.Name,
				TimeLeft:        s.TurnTimeSec,
			},
		}}
	}
	return nil
}
