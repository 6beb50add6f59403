package engine

import "slices"

func NewEmptyState() State {
	return State{Phase: Idle{}}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func (s State) Name() PhaseName {
	if s.Phase == nil {
		return PhaseIdle
	}
	return s.Phase.Name()
}

// Roster is empty while Idle.
func (s State) Roster() Roster {
	switch p := s.Phase.(type) {
	case CaptainSelection:
		return p.Roster
	case Draft:
		return p.Roster
	case MapVeto:
		return p.Roster
	case SidePick:
		return p.Roster
	case Complete:
		return p.Roster
	}
	return Roster{}
}

// Pool is the unassigned players still waiting to be drafted.
func (s State) Pool() []Actor {
	switch p := s.Phase.(type) {
	case CaptainSelection:
		return p.Pool
	case Draft:
		return p.Pool
	}
	return nil
}

func (s State) CurrentPicker() Actor {
	if d, ok := s.Phase.(Draft); ok {
		return d.Roster.Team(d.Picker).Captain
	}
	return ""
}

func (s State) CurrentVetoer() Actor {
	if v, ok := s.Phase.(MapVeto); ok {
		return v.Roster.Team(v.Vetoer).Captain
	}
	return ""
}

func (s State) MapsRemaining() []string {
	if v, ok := s.Phase.(MapVeto); ok {
		return v.Remaining
	}
	return nil
}

func (s State) VetoLog() []Veto {
	switch p := s.Phase.(type) {
	case MapVeto:
		return p.Vetoes
	case SidePick:
		return p.Vetoes
	case Complete:
		return p.Vetoes
	}
	return nil
}

// PickedMaps includes the decided map during side pick, before sides are set.
func (s State) PickedMaps() []PickedMap {
	switch p := s.Phase.(type) {
	case SidePick:
		return []PickedMap{p.Decider}
	case Complete:
		return p.Picked
	}
	return nil
}

func (s State) SideChoice() Side {
	if c, ok := s.Phase.(Complete); ok {
		return c.Choice
	}
	return ""
}

// View is the flat JSON shape of a session served to observers.
type View struct {
	Phase         PhaseName   `json:"phase"`
	CaptainA      Actor       `json:"captain_a,omitempty"`
	CaptainB      Actor       `json:"captain_b,omitempty"`
	TeamA         []Actor     `json:"team_a"`
	TeamB         []Actor     `json:"team_b"`
	GroupA        *Group      `json:"group_a,omitempty"`
	GroupB        *Group      `json:"group_b,omitempty"`
	Pool          []Actor     `json:"pool"`
	CurrentPicker Actor       `json:"current_picker,omitempty"`
	CurrentVetoer Actor       `json:"current_vetoer,omitempty"`
	MapsRemaining []string    `json:"maps_remaining"`
	VetoLog       []Veto      `json:"veto_log"`
	PickedMaps    []PickedMap `json:"picked_maps"`
	SideChoice    Side        `json:"side_choice,omitempty"`
}

func (s State) View() View {
	r := s.Roster()
	v := View{
		Phase:         s.Name(),
		CaptainA:      r.A.Captain,
		CaptainB:      r.B.Captain,
		TeamA:         nonNil(r.A.Members),
		TeamB:         nonNil(r.B.Members),
		Pool:          nonNil(s.Pool()),
		CurrentPicker: s.CurrentPicker(),
		CurrentVetoer: s.CurrentVetoer(),
		MapsRemaining: nonNil(s.MapsRemaining()),
		VetoLog:       nonNil(s.VetoLog()),
		PickedMaps:    nonNil(s.PickedMaps()),
		SideChoice:    s.SideChoice(),
	}
	if r.A.Group.Bound() {
		g := r.A.Group
		v.GroupA = &g
	}
	if r.B.Group.Bound() {
		g := r.B.Group
		v.GroupB = &g
	}
	return v
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return slices.Clone(xs)
}
