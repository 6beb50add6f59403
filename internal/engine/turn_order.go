package engine

// FirstTurn opens both the draft and the veto, so every session is replayable
// from its commands alone.
const FirstTurn = TeamA

// SideChooser is the team whose captain picks the starting side on the
// decided map. This is a fixed convention, not derived from the veto.
const SideChooser = TeamB

func (t TeamID) Valid() bool { return t == TeamA || t == TeamB }

func (t TeamID) Other() TeamID {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

func (t TeamID) Label() string {
	switch t {
	case TeamA:
		return "A"
	case TeamB:
		return "B"
	}
	return string(t)
}

func (r Roster) Team(id TeamID) Team {
	if id == TeamB {
		return r.B
	}
	return r.A
}

func (r Roster) with(id TeamID, t Team) Roster {
	if id == TeamB {
		r.B = t
	} else {
		r.A = t
	}
	return r
}

// CaptainOf reports which team a is captain of.
func (r Roster) CaptainOf(a Actor) (TeamID, bool) {
	switch {
	case a == "":
		return "", false
	case r.A.Captain == a:
		return TeamA, true
	case r.B.Captain == a:
		return TeamB, true
	}
	return "", false
}
