package engine

import (
	"errors"
	"fmt"
	"slices"
)

var ErrWrongPhase = errors.New("wrong phase")
var ErrNotYourTurn = errors.New("not your turn")
var ErrInvalidTarget = errors.New("invalid target")
var ErrSlotTaken = errors.New("slot taken")
var ErrNothingToCancel = errors.New("nothing to cancel")
var ErrEmptyMapPool = errors.New("map pool is empty")
var ErrUnsupportedCommand = errors.New("unsupported command")

// Actor is the platform identity of whoever issued a command.
type Actor string

type TeamID string

const (
	TeamA TeamID = "a"
	TeamB TeamID = "b"
)

type Side string

const (
	SideAttack  Side = "attack"
	SideDefense Side = "defense"
)

func (s Side) Valid() bool { return s == SideAttack || s == SideDefense }

func (s Side) Opposite() Side {
	if s == SideAttack {
		return SideDefense
	}
	return SideAttack
}

type PhaseName string

const (
	PhaseIdle             PhaseName = "idle"
	PhaseCaptainSelection PhaseName = "captain_selection"
	PhaseDraft            PhaseName = "draft"
	PhaseMapVeto          PhaseName = "map_veto"
	PhaseSidePick         PhaseName = "side_pick"
	PhaseComplete         PhaseName = "complete"
)

// Group is an external role a team can be bound to.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

func (g Group) Bound() bool { return g.ID != "" }

type Team struct {
	Group   Group
	Captain Actor
	Members []Actor // captain first
}

type Roster struct {
	A Team
	B Team
}

// Binding is the pair of group ids the teams are bound to. Empty ids mean
// unbound.
type Binding struct{ A, B string }

func (r Roster) Binding() Binding { return Binding{A: r.A.Group.ID, B: r.B.Group.ID} }

type Veto struct {
	Map string `json:"map"`
	By  Actor  `json:"vetoed_by"`
}

type PickedMap struct {
	Map        string `json:"map"`
	PickedBy   Actor  `json:"picked_by,omitempty"`
	SideWinner TeamID `json:"side_winner,omitempty"`
	SideLoser  TeamID `json:"side_loser,omitempty"`
	WinnerSide Side   `json:"winner_side,omitempty"`
}

// StartingSide reports the side team starts on, or "" before sides are assigned.
func (p PickedMap) StartingSide(team TeamID) Side {
	switch team {
	case p.SideWinner:
		return p.WinnerSide
	case p.SideLoser:
		if p.WinnerSide == "" {
			return ""
		}
		return p.WinnerSide.Opposite()
	}
	return ""
}

// Phase is the per-phase session variant. Each variant only carries the
// fields that are meaningful while it is active.
type Phase interface {
	Name() PhaseName
	isPhase()
}

type Idle struct{}

type CaptainSelection struct {
	Roster Roster
	Pool   []Actor
}

type Draft struct {
	Roster Roster
	Pool   []Actor
	Picker TeamID
}

type MapVeto struct {
	Roster    Roster
	Remaining []string
	Vetoes    []Veto
	Vetoer    TeamID
}

type SidePick struct {
	Roster  Roster
	Vetoes  []Veto
	Decider PickedMap
}

type Complete struct {
	Roster Roster
	Vetoes []Veto
	Picked []PickedMap
	Choice Side
}

func (Idle) Name() PhaseName             { return PhaseIdle }
func (CaptainSelection) Name() PhaseName { return PhaseCaptainSelection }
func (Draft) Name() PhaseName            { return PhaseDraft }
func (MapVeto) Name() PhaseName          { return PhaseMapVeto }
func (SidePick) Name() PhaseName         { return PhaseSidePick }
func (Complete) Name() PhaseName         { return PhaseComplete }

func (Idle) isPhase()             {}
func (CaptainSelection) isPhase() {}
func (Draft) isPhase()            {}
func (MapVeto) isPhase()          {}
func (SidePick) isPhase()         {}
func (Complete) isPhase()         {}

// State is the session. A nil Phase is Idle.
type State struct {
	Phase Phase
}

type Command interface{ isCommand() }

type StartSetup struct {
	Players []Actor
	GroupA  Group
	GroupB  Group
}

// JoinPool queues Actor. CheckedAgainst, when set, is the binding the
// caller authorized Actor for; the command is refused if it has changed.
type JoinPool struct {
	Actor          Actor
	CheckedAgainst *Binding
}

type LeavePool struct{ Actor Actor }

type ClaimCaptain struct {
	Actor          Actor
	Team           TeamID
	CheckedAgainst *Binding
}

type PickPlayer struct {
	Actor  Actor
	Target Actor
}

type VetoMap struct {
	Actor Actor
	Map   string
}

type ChooseSide struct {
	Actor Actor
	Side  Side
}

type Cancel struct{}

// ReadyReset returns a completed session to Idle.
type ReadyReset struct{}

func (StartSetup) isCommand()   {}
func (JoinPool) isCommand()     {}
func (LeavePool) isCommand()    {}
func (ClaimCaptain) isCommand() {}
func (PickPlayer) isCommand()   {}
func (VetoMap) isCommand()      {}
func (ChooseSide) isCommand()   {}
func (Cancel) isCommand()       {}
func (ReadyReset) isCommand()   {}

type EventType string

const (
	EvtSetupStarted   EventType = "SetupStarted"
	EvtPlayerJoined   EventType = "PlayerJoined"
	EvtPlayerLeft     EventType = "PlayerLeft"
	EvtCaptainClaimed EventType = "CaptainClaimed"
	EvtDraftStarted   EventType = "DraftStarted"
	EvtPlayerPicked   EventType = "PlayerPicked"
	EvtVetoStarted    EventType = "VetoStarted"
	EvtMapVetoed      EventType = "MapVetoed"
	EvtMapDecided     EventType = "MapDecided"
	EvtSideChosen     EventType = "SideChosen"
	EvtSessionReset   EventType = "SessionReset"
)

type ResetReason string

const (
	ResetCancelled ResetReason = "cancelled"
	ResetCompleted ResetReason = "completed"
)

type Event struct {
	Type    EventType
	Actor   Actor
	Team    TeamID
	Target  Actor
	Map     string
	Maps    []string
	Players []Actor
	GroupA  Group
	GroupB  Group
	Side    Side
	Reason  ResetReason
}

// Apply validates cmd against s and returns the resulting events and state.
// pool is the current map registry; it seeds the veto when the draft ends.
// On error the returned state is s.
func Apply(s State, cmd Command, pool []string) ([]Event, State, error) {
	events, err := decide(s, cmd, pool)
	if err != nil {
		return nil, s, err
	}
	return events, fold(s, events), nil
}

// Reduce replays events from an idle session.
func Reduce(events []Event) State {
	return fold(NewEmptyState(), events)
}

func decide(s State, cmd Command, pool []string) ([]Event, error) {
	switch c := cmd.(type) {
	case StartSetup:
		if s.Name() != PhaseIdle {
			return nil, fmt.Errorf("%w: setup has already been started", ErrWrongPhase)
		}
		if c.GroupA.Bound() && c.GroupA.ID == c.GroupB.ID {
			return nil, fmt.Errorf("%w: both teams cannot be bound to the same group", ErrInvalidTarget)
		}
		return []Event{{Type: EvtSetupStarted, Players: unique(c.Players), GroupA: c.GroupA, GroupB: c.GroupB}}, nil

	case JoinPool:
		cs, ok := s.Phase.(CaptainSelection)
		if !ok {
			return nil, fmt.Errorf("%w: players can only join during captain selection", ErrWrongPhase)
		}
		if err := checkBinding(cs.Roster, c.CheckedAgainst); err != nil {
			return nil, err
		}
		if c.Actor == "" {
			return nil, fmt.Errorf("%w: missing player", ErrInvalidTarget)
		}
		if slices.Contains(cs.Pool, c.Actor) {
			return nil, fmt.Errorf("%w: already in the queue", ErrInvalidTarget)
		}
		if _, ok := cs.Roster.CaptainOf(c.Actor); ok {
			return nil, fmt.Errorf("%w: captains are already on a team", ErrInvalidTarget)
		}
		return []Event{{Type: EvtPlayerJoined, Actor: c.Actor}}, nil

	case LeavePool:
		cs, ok := s.Phase.(CaptainSelection)
		if !ok {
			return nil, fmt.Errorf("%w: players can only leave during captain selection", ErrWrongPhase)
		}
		if !slices.Contains(cs.Pool, c.Actor) {
			return nil, fmt.Errorf("%w: not in the queue", ErrInvalidTarget)
		}
		return []Event{{Type: EvtPlayerLeft, Actor: c.Actor}}, nil

	case ClaimCaptain:
		cs, ok := s.Phase.(CaptainSelection)
		if !ok {
			return nil, fmt.Errorf("%w: it is not the captain selection phase", ErrWrongPhase)
		}
		if err := checkBinding(cs.Roster, c.CheckedAgainst); err != nil {
			return nil, err
		}
		if !c.Team.Valid() {
			return nil, fmt.Errorf("%w: unknown team %q", ErrInvalidTarget, c.Team)
		}
		if c.Actor == "" {
			return nil, fmt.Errorf("%w: missing captain", ErrInvalidTarget)
		}
		if captain := cs.Roster.Team(c.Team).Captain; captain != "" {
			return nil, fmt.Errorf("%w: team %s already has a captain", ErrSlotTaken, c.Team.Label())
		}
		if team, ok := cs.Roster.CaptainOf(c.Actor); ok {
			return nil, fmt.Errorf("%w: already captain of team %s", ErrSlotTaken, team.Label())
		}
		events := []Event{{Type: EvtCaptainClaimed, Actor: c.Actor, Team: c.Team}}
		claimed := fold(s, events).Roster()
		if claimed.A.Captain == "" || claimed.B.Captain == "" {
			return events, nil
		}
		events = append(events, Event{Type: EvtDraftStarted})
		more, err := finishDraftIfDone(fold(s, events), pool)
		if err != nil {
			return nil, err
		}
		return append(events, more...), nil

	case PickPlayer:
		d, ok := s.Phase.(Draft)
		if !ok {
			return nil, fmt.Errorf("%w: it is not the draft phase", ErrWrongPhase)
		}
		if c.Actor != d.Roster.Team(d.Picker).Captain {
			return nil, fmt.Errorf("%w: it is %s's pick", ErrNotYourTurn, d.Roster.Team(d.Picker).Captain)
		}
		if !slices.Contains(d.Pool, c.Target) {
			return nil, fmt.Errorf("%w: player is not available to pick", ErrInvalidTarget)
		}
		events := []Event{{Type: EvtPlayerPicked, Actor: c.Actor, Team: d.Picker, Target: c.Target}}
		more, err := finishDraftIfDone(fold(s, events), pool)
		if err != nil {
			return nil, err
		}
		return append(events, more...), nil

	case VetoMap:
		v, ok := s.Phase.(MapVeto)
		if !ok {
			return nil, fmt.Errorf("%w: it is not the map veto phase", ErrWrongPhase)
		}
		if c.Actor != v.Roster.Team(v.Vetoer).Captain {
			return nil, fmt.Errorf("%w: it is %s's veto", ErrNotYourTurn, v.Roster.Team(v.Vetoer).Captain)
		}
		if !slices.Contains(v.Remaining, c.Map) {
			return nil, fmt.Errorf("%w: %q is not in the remaining map pool", ErrInvalidTarget, c.Map)
		}
		events := []Event{{Type: EvtMapVetoed, Actor: c.Actor, Team: v.Vetoer, Map: c.Map}}
		if len(v.Remaining) == 2 {
			last := v.Remaining[0]
			if last == c.Map {
				last = v.Remaining[1]
			}
			events = append(events, Event{Type: EvtMapDecided, Actor: c.Actor, Team: v.Vetoer, Map: last})
		}
		return events, nil

	case ChooseSide:
		sp, ok := s.Phase.(SidePick)
		if !ok {
			return nil, fmt.Errorf("%w: it is not currently the side pick phase", ErrWrongPhase)
		}
		if c.Actor != sp.Roster.Team(SideChooser).Captain {
			return nil, fmt.Errorf("%w: you are not Captain %s", ErrNotYourTurn, SideChooser.Label())
		}
		if !c.Side.Valid() {
			return nil, fmt.Errorf("%w: unknown side %q", ErrInvalidTarget, c.Side)
		}
		return []Event{{Type: EvtSideChosen, Actor: c.Actor, Team: SideChooser, Side: c.Side}}, nil

	case Cancel:
		if s.Name() == PhaseIdle {
			return nil, ErrNothingToCancel
		}
		return []Event{{Type: EvtSessionReset, Reason: ResetCancelled}}, nil

	case ReadyReset:
		if s.Name() != PhaseComplete {
			return nil, fmt.Errorf("%w: setup is not complete", ErrWrongPhase)
		}
		return []Event{{Type: EvtSessionReset, Reason: ResetCompleted}}, nil

	default:
		return nil, ErrUnsupportedCommand
	}
}

// finishDraftIfDone moves a draft with an empty pool into the veto.
func checkBinding(r Roster, checked *Binding) error {
	if checked != nil && *checked != r.Binding() {
		return fmt.Errorf("%w: the setup was restarted with different teams, try again", ErrWrongPhase)
	}
	return nil
}

func finishDraftIfDone(s State, pool []string) ([]Event, error) {
	d, ok := s.Phase.(Draft)
	if !ok || len(d.Pool) > 0 {
		return nil, nil
	}
	pool = unique(pool)
	if len(pool) == 0 {
		return nil, ErrEmptyMapPool
	}
	events := []Event{{Type: EvtVetoStarted, Maps: pool}}
	if len(pool) == 1 {
		events = append(events, Event{Type: EvtMapDecided, Map: pool[0]})
	}
	return events, nil
}

func fold(s State, events []Event) State {
	for _, e := range events {
		s = foldOne(s, e)
	}
	return s
}

// foldOne never mutates slices reachable from s.
func foldOne(s State, e Event) State {
	switch e.Type {
	case EvtSetupStarted:
		return State{Phase: CaptainSelection{
			Roster: Roster{A: Team{Group: e.GroupA}, B: Team{Group: e.GroupB}},
			Pool:   slices.Clone(e.Players),
		}}

	case EvtPlayerJoined:
		if cs, ok := s.Phase.(CaptainSelection); ok {
			cs.Pool = append(slices.Clone(cs.Pool), e.Actor)
			return State{Phase: cs}
		}

	case EvtPlayerLeft:
		if cs, ok := s.Phase.(CaptainSelection); ok {
			cs.Pool = without(cs.Pool, e.Actor)
			return State{Phase: cs}
		}

	case EvtCaptainClaimed:
		if cs, ok := s.Phase.(CaptainSelection); ok {
			team := cs.Roster.Team(e.Team)
			team.Captain = e.Actor
			team.Members = []Actor{e.Actor}
			cs.Roster = cs.Roster.with(e.Team, team)
			cs.Pool = without(cs.Pool, e.Actor)
			return State{Phase: cs}
		}

	case EvtDraftStarted:
		if cs, ok := s.Phase.(CaptainSelection); ok {
			return State{Phase: Draft{Roster: cs.Roster, Pool: cs.Pool, Picker: FirstTurn}}
		}

	case EvtPlayerPicked:
		if d, ok := s.Phase.(Draft); ok {
			team := d.Roster.Team(e.Team)
			team.Members = append(slices.Clone(team.Members), e.Target)
			d.Roster = d.Roster.with(e.Team, team)
			d.Pool = without(d.Pool, e.Target)
			d.Picker = e.Team.Other()
			return State{Phase: d}
		}

	case EvtVetoStarted:
		if d, ok := s.Phase.(Draft); ok {
			return State{Phase: MapVeto{Roster: d.Roster, Remaining: slices.Clone(e.Maps), Vetoer: FirstTurn}}
		}

	case EvtMapVetoed:
		if v, ok := s.Phase.(MapVeto); ok {
			v.Remaining = slices.DeleteFunc(slices.Clone(v.Remaining), func(m string) bool { return m == e.Map })
			v.Vetoes = append(slices.Clone(v.Vetoes), Veto{Map: e.Map, By: e.Actor})
			v.Vetoer = e.Team.Other()
			return State{Phase: v}
		}

	case EvtMapDecided:
		if v, ok := s.Phase.(MapVeto); ok {
			return State{Phase: SidePick{Roster: v.Roster, Vetoes: v.Vetoes, Decider: PickedMap{Map: e.Map, PickedBy: e.Actor}}}
		}

	case EvtSideChosen:
		if sp, ok := s.Phase.(SidePick); ok {
			picked := sp.Decider
			picked.SideWinner = e.Team
			picked.SideLoser = e.Team.Other()
			picked.WinnerSide = e.Side
			return State{Phase: Complete{Roster: sp.Roster, Vetoes: sp.Vetoes, Picked: []PickedMap{picked}, Choice: e.Side}}
		}

	case EvtSessionReset:
		return NewEmptyState()
	}
	return s
}

func without(actors []Actor, a Actor) []Actor {
	return slices.DeleteFunc(slices.Clone(actors), func(x Actor) bool { return x == a })
}

// unique drops zero values and repeats, keeping first occurrences in order.
func unique[T comparable](xs []T) []T {
	var zero T
	out := make([]T, 0, len(xs))
	for _, x := range xs {
		if x != zero && !slices.Contains(out, x) {
			out = append(out, x)
		}
	}
	return out
}
