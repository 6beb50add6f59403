// Package ledger tracks league matches between team groups, their schedule
// and the setup result recorded when a session completes.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Martig3/valorant-matchbot/internal/engine"
	"github.com/Martig3/valorant-matchbot/internal/storage"
)

var ErrNoTeamRole = errors.New("user does not have a team role")
var ErrNoPendingMatch = errors.New("no pending match")
var ErrInvalidDate = errors.New("invalid date")
var ErrInvalidTeams = errors.New("invalid teams")

const storageKey = "matches"

// DateLayout is the accepted schedule date format.
const DateLayout = "2006-01-02"

type State string

const (
	StateEntered   State = "Entered"
	StateScheduled State = "Scheduled"
	StateCompleted State = "Completed"
)

type Schedule struct {
	Date string `json:"date"`
	Time string `json:"time,omitempty"`
}

type Match struct {
	ID        uuid.UUID          `json:"id"`
	TeamOne   engine.Group       `json:"team_one"`
	TeamTwo   engine.Group       `json:"team_two"`
	Note      string             `json:"note,omitempty"`
	CreatedAt time.Time          `json:"date_added"`
	State     State              `json:"match_state"`
	Schedule  *Schedule          `json:"schedule,omitempty"`
	Result    []engine.PickedMap `json:"result,omitempty"`
}

func (m Match) Involves(group string) bool {
	return m.TeamOne.ID == group || m.TeamTwo.ID == group
}

func (m Match) Between(a, b string) bool {
	return (m.TeamOne.ID == a && m.TeamTwo.ID == b) || (m.TeamOne.ID == b && m.TeamTwo.ID == a)
}

func (m Match) clone() Match {
	if m.Schedule != nil {
		s := *m.Schedule
		m.Schedule = &s
	}
	m.Result = slices.Clone(m.Result)
	return m
}

// Membership is the subset of the role provider the ledger needs.
type Membership interface {
	HasRole(ctx context.Context, actor engine.Actor, role string) (bool, error)
}

type Ledger struct {
	mu      sync.Mutex
	matches []Match

	saveMu sync.Mutex
	blob   storage.Blob
	log    *zap.Logger
	now    func() time.Time
}

func Load(ctx context.Context, blob storage.Blob, log *zap.Logger) (*Ledger, error) {
	var matches []Match
	if _, err := storage.LoadJSON(ctx, blob, storageKey, &matches); err != nil {
		return nil, err
	}
	return &Ledger{matches: matches, blob: blob, log: log, now: time.Now}, nil
}

// List returns a copy of every match in insertion order.
func (l *Ledger) List() []Match {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) Add(ctx context.Context, one, two engine.Group, note string) (Match, error) {
	if !one.Bound() || !two.Bound() || one.ID == two.ID {
		return Match{}, fmt.Errorf("%w: a match needs two different team roles", ErrInvalidTeams)
	}
	m := Match{
		ID:        uuid.New(),
		TeamOne:   one,
		TeamTwo:   two,
		Note:      strings.TrimSpace(note),
		CreatedAt: l.now().UTC(),
		State:     StateEntered,
	}
	return m, l.mutate(ctx, func(matches []Match) ([]Match, error) {
		return append(matches, m), nil
	})
}

// Schedule sets date and label on the first unscheduled match of the team
// actor belongs to. A team is any group that appears in the ledger.
func (l *Ledger) Schedule(ctx context.Context, members Membership, actor engine.Actor, date, label string) (Match, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(DateLayout, date); err != nil {
		return Match{}, fmt.Errorf("%w: use YYYY-MM-DD, got %q", ErrInvalidDate, date)
	}

	team, err := l.teamOf(ctx, members, actor)
	if err != nil {
		return Match{}, err
	}

	var scheduled Match
	err = l.mutate(ctx, func(matches []Match) ([]Match, error) {
		i := slices.IndexFunc(matches, func(m Match) bool {
			return m.State == StateEntered && m.Involves(team.ID)
		})
		if i < 0 {
			return nil, fmt.Errorf("%w: %s has no unscheduled match", ErrNoPendingMatch, team.Name)
		}
		matches[i].Schedule = &Schedule{Date: date, Time: strings.TrimSpace(label)}
		matches[i].State = StateScheduled
		scheduled = matches[i].clone()
		return matches, nil
	})
	return scheduled, err
}

// RecordSetup attaches a finished setup to the first open match between a
// and b. It reports false when no such match exists.
func (l *Ledger) RecordSetup(ctx context.Context, a, b engine.Group, result []engine.PickedMap) (Match, bool, error) {
	if !a.Bound() || !b.Bound() {
		return Match{}, false, nil
	}
	var recorded Match
	found := false
	err := l.mutate(ctx, func(matches []Match) ([]Match, error) {
		i := slices.IndexFunc(matches, func(m Match) bool {
			return m.State != StateCompleted && m.Between(a.ID, b.ID)
		})
		if i < 0 {
			return nil, errNoChange
		}
		matches[i].Result = slices.Clone(result)
		matches[i].State = StateCompleted
		recorded = matches[i].clone()
		found = true
		return matches, nil
	})
	if errors.Is(err, errNoChange) {
		return Match{}, false, nil
	}
	return recorded, found, err
}

// ScheduledOn lists scheduled matches whose date is date.
func (l *Ledger) ScheduledOn(date string) []Match {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Match
	for _, m := range l.matches {
		if m.State == StateScheduled && m.Schedule != nil && m.Schedule.Date == date {
			out = append(out, m.clone())
		}
	}
	return out
}

// Teams returns every distinct group that appears in a match.
func (l *Ledger) Teams() []engine.Group {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []engine.Group
	seen := map[string]bool{}
	for _, m := range l.matches {
		for _, g := range []engine.Group{m.TeamOne, m.TeamTwo} {
			if g.Bound() && !seen[g.ID] {
				seen[g.ID] = true
				out = append(out, g)
			}
		}
	}
	return out
}

func (l *Ledger) teamOf(ctx context.Context, members Membership, actor engine.Actor) (engine.Group, error) {
	for _, g := range l.Teams() {
		ok, err := members.HasRole(ctx, actor, g.ID)
		if err != nil {
			l.log.Warn("team role lookup failed",
				zap.String("actor", string(actor)), zap.String("role", g.ID), zap.Error(err))
			continue
		}
		if ok {
			return g, nil
		}
	}
	return engine.Group{}, ErrNoTeamRole
}

var errNoChange = errors.New("no change")

// mutate applies fn to a copy of the matches and persists the result. An
// error from fn leaves the ledger unchanged.
func (l *Ledger) mutate(ctx context.Context, fn func([]Match) ([]Match, error)) error {
	l.saveMu.Lock()
	defer l.saveMu.Unlock()

	l.mu.Lock()
	next, err := fn(l.snapshotLocked())
	if err != nil {
		l.mu.Unlock()
		return err
	}
	l.matches = next
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	if err := storage.SaveJSON(ctx, l.blob, storageKey, snapshot); err != nil {
		l.log.Error("persist matches", zap.Int("count", len(snapshot)), zap.Error(err))
		return err
	}
	return nil
}

func (l *Ledger) snapshotLocked() []Match {
	out := make([]Match, len(l.matches))
	for i, m := range l.matches {
		out[i] = m.clone()
	}
	return out
}
