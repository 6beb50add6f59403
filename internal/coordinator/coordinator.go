// Package coordinator owns the setup session together with the map pool,
// the match ledger and the Riot ID cache, and applies the authorization
// rules in front of them.
package coordinator

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Martig3/valorant-matchbot/internal/auth"
	"github.com/Martig3/valorant-matchbot/internal/engine"
	"github.com/Martig3/valorant-matchbot/internal/ledger"
	"github.com/Martig3/valorant-matchbot/internal/lobby"
	"github.com/Martig3/valorant-matchbot/internal/registry"
	"github.com/Martig3/valorant-matchbot/internal/riotid"
	"github.com/Martig3/valorant-matchbot/internal/storage"
)

type Options struct {
	AdminRole    string
	MapPoolLimit int
	PostSetupMsg string
}

type Service struct {
	gate    *auth.Gate
	members auth.Membership
	session *lobby.Lobby
	maps    *registry.Registry
	matches *ledger.Ledger
	riotIDs *riotid.Cache
	opts    Options
	log     *zap.Logger
}

// New loads the durable collaborators from blob and starts the session loop.
// The loop stops when ctx is cancelled or Close is called.
func New(ctx context.Context, blob storage.Blob, members auth.Membership, opts Options, log *zap.Logger) (*Service, error) {
	maps, err := registry.Load(ctx, blob, opts.MapPoolLimit, log.Named("registry"))
	if err != nil {
		return nil, err
	}
	matches, err := ledger.Load(ctx, blob, log.Named("ledger"))
	if err != nil {
		return nil, err
	}
	ids, err := riotid.Load(ctx, blob, log.Named("riotid"))
	if err != nil {
		return nil, err
	}

	s := &Service{
		gate:    auth.NewGate(opts.AdminRole, members, log.Named("auth")),
		members: members,
		maps:    maps,
		matches: matches,
		riotIDs: ids,
		opts:    opts,
		log:     log,
	}
	s.session = lobby.NewLobby(ctx, engine.NewEmptyState(), maps.Maps, log.Named("session"))
	return s, nil
}

func (s *Service) Close() { s.session.Close() }

// Session exposes the session loop to watchers.
func (s *Service) Session() *lobby.Lobby { return s.session }

func (s *Service) IsAdmin(ctx context.Context, actor engine.Actor) bool {
	return s.gate.IsAdmin(ctx, actor)
}

func (s *Service) PostSetupMsg() string { return s.opts.PostSetupMsg }

func (s *Service) Status(ctx context.Context) (engine.State, error) {
	view, err := s.session.State(ctx)
	return view.State, err
}

func (s *Service) StartSetup(ctx context.Context, actor engine.Actor, players []engine.Actor, a, b engine.Group) (engine.State, error) {
	if err := s.gate.RequireAdmin(ctx, actor); err != nil {
		return engine.State{}, err
	}
	a.Name = s.groupName(ctx, a)
	b.Name = s.groupName(ctx, b)
	return s.apply(ctx, engine.StartSetup{Players: players, GroupA: a, GroupB: b})
}

// Join queues actor for the draft. When teams are bound to groups only
// members of those groups may join.
func (s *Service) Join(ctx context.Context, actor engine.Actor) (engine.State, error) {
	current, err := s.Status(ctx)
	if err != nil {
		return engine.State{}, err
	}
	roster := current.Roster()
	if roster.A.Group.Bound() || roster.B.Group.Bound() {
		if err := s.gate.RequireTeamMember(ctx, actor, roster); err != nil {
			return engine.State{}, err
		}
	}
	checked := roster.Binding()
	return s.apply(ctx, engine.JoinPool{Actor: actor, CheckedAgainst: &checked})
}

func (s *Service) Leave(ctx context.Context, actor engine.Actor) (engine.State, error) {
	return s.apply(ctx, engine.LeavePool{Actor: actor})
}

func (s *Service) ClaimCaptain(ctx context.Context, actor engine.Actor, team engine.TeamID) (engine.State, error) {
	current, err := s.Status(ctx)
	if err != nil {
		return engine.State{}, err
	}
	roster := current.Roster()
	if team.Valid() {
		if err := s.gate.RequireGroup(ctx, actor, roster.Team(team).Group); err != nil {
			return engine.State{}, err
		}
	}
	checked := roster.Binding()
	return s.apply(ctx, engine.ClaimCaptain{Actor: actor, Team: team, CheckedAgainst: &checked})
}

func (s *Service) Pick(ctx context.Context, actor, target engine.Actor) (engine.State, error) {
	return s.apply(ctx, engine.PickPlayer{Actor: actor, Target: target})
}

func (s *Service) Veto(ctx context.Context, actor engine.Actor, name string) (engine.State, error) {
	return s.apply(ctx, engine.VetoMap{Actor: actor, Map: name})
}

// Completion is a finished setup. LedgerErr is set when the result could
// not be saved against the match it belongs to.
type Completion struct {
	Roster    engine.Roster
	Vetoes    []engine.Veto
	Picked    []engine.PickedMap
	Match     *ledger.Match
	LedgerErr error
}

func (s *Service) ChooseSide(ctx context.Context, actor engine.Actor, side engine.Side) (Completion, error) {
	done, err := s.apply(ctx, engine.ChooseSide{Actor: actor, Side: side})
	if err != nil {
		return Completion{}, err
	}
	c := Completion{Roster: done.Roster(), Vetoes: done.VetoLog(), Picked: done.PickedMaps()}

	m, found, err := s.matches.RecordSetup(ctx, c.Roster.A.Group, c.Roster.B.Group, c.Picked)
	if found {
		c.Match = &m
	}
	c.LedgerErr = err
	return c, nil
}

func (s *Service) Cancel(ctx context.Context, actor engine.Actor) error {
	if err := s.gate.RequireAdmin(ctx, actor); err != nil {
		return err
	}
	_, err := s.apply(ctx, engine.Cancel{})
	return err
}

func (s *Service) apply(ctx context.Context, cmd engine.Command) (engine.State, error) {
	res, err := s.session.Apply(ctx, cmd)
	return res.State, err
}

func (s *Service) groupName(ctx context.Context, g engine.Group) string {
	if !g.Bound() || g.Name != "" {
		return g.Name
	}
	return s.members.RoleName(ctx, g.ID)
}

func (s *Service) Maps() []string { return s.maps.Maps() }

func (s *Service) AddMap(ctx context.Context, actor engine.Actor, name string) ([]string, error) {
	if err := s.gate.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	return s.maps.Add(ctx, name)
}

func (s *Service) RemoveMap(ctx context.Context, actor engine.Actor, name string) ([]string, error) {
	if err := s.gate.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	return s.maps.Remove(ctx, name)
}

func (s *Service) Matches() []ledger.Match { return s.matches.List() }

func (s *Service) MatchesOn(date string) []ledger.Match { return s.matches.ScheduledOn(date) }

func (s *Service) AddMatch(ctx context.Context, actor engine.Actor, one, two engine.Group, note string) (ledger.Match, error) {
	if err := s.gate.RequireAdmin(ctx, actor); err != nil {
		return ledger.Match{}, err
	}
	one.Name = s.groupName(ctx, one)
	two.Name = s.groupName(ctx, two)
	return s.matches.Add(ctx, one, two, note)
}

func (s *Service) ScheduleMatch(ctx context.Context, actor engine.Actor, date, label string) (ledger.Match, error) {
	return s.matches.Schedule(ctx, s.members, actor, date, label)
}

func (s *Service) SetRiotID(ctx context.Context, actor engine.Actor, id string) error {
	return s.riotIDs.Set(ctx, actor, id)
}

func (s *Service) RiotID(actor engine.Actor) (string, bool) { return s.riotIDs.Get(actor) }

// Player renders actor through mention, with their Riot ID when known.
func (s *Service) Player(actor engine.Actor, mention func(engine.Actor) string) string {
	return s.riotIDs.Display(actor, mention)
}

// IsDegraded reports whether err only means the change was not saved.
func IsDegraded(err error) bool {
	return errors.Is(err, storage.ErrPersistence)
}
