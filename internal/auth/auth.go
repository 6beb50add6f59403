// Package auth decides whether an actor may run a privileged or
// team-restricted operation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Martig3/valorant-matchbot/internal/engine"
)

var ErrDenied = errors.New("denied")

// Membership answers role questions against the chat platform.
type Membership interface {
	HasRole(ctx context.Context, actor engine.Actor, role string) (bool, error)
	RoleName(ctx context.Context, role string) string
}

// Denial is the error returned for a refused check.
type Denial struct {
	Reason string
}

func (d *Denial) Error() string { return d.Reason }

func (d *Denial) Is(target error) bool { return target == ErrDenied }

func deny(format string, args ...any) error {
	return &Denial{Reason: fmt.Sprintf(format, args...)}
}

type Gate struct {
	AdminRole string
	Members   Membership
	Log       *zap.Logger
}

func NewGate(adminRole string, members Membership, log *zap.Logger) *Gate {
	return &Gate{AdminRole: adminRole, Members: members, Log: log}
}

// RequireAdmin passes everyone when no admin role is configured.
func (g *Gate) RequireAdmin(ctx context.Context, actor engine.Actor) error {
	if g.AdminRole == "" {
		return nil
	}
	if g.hasRole(ctx, actor, g.AdminRole) {
		return nil
	}
	name := g.Members.RoleName(ctx, g.AdminRole)
	return deny("this command requires the '%s' role", name)
}

func (g *Gate) IsAdmin(ctx context.Context, actor engine.Actor) bool {
	return g.RequireAdmin(ctx, actor) == nil
}

// RequireTeamMember passes when actor is drafted onto either team or holds
// a group bound to one of them.
func (g *Gate) RequireTeamMember(ctx context.Context, actor engine.Actor, roster engine.Roster) error {
	for _, team := range []engine.Team{roster.A, roster.B} {
		if slices.Contains(team.Members, actor) {
			return nil
		}
		if team.Group.Bound() && g.hasRole(ctx, actor, team.Group.ID) {
			return nil
		}
	}
	return deny("you are not part of either team currently running setup")
}

// RequireGroup passes when actor holds group, or when group is unbound.
func (g *Gate) RequireGroup(ctx context.Context, actor engine.Actor, group engine.Group) error {
	if !group.Bound() || g.hasRole(ctx, actor, group.ID) {
		return nil
	}
	name := group.Name
	if name == "" {
		name = g.Members.RoleName(ctx, group.ID)
	}
	return deny("this requires the '%s' role", name)
}

// hasRole maps lookup failures to false.
func (g *Gate) hasRole(ctx context.Context, actor engine.Actor, role string) bool {
	ok, err := g.Members.HasRole(ctx, actor, role)
	if err != nil {
		g.Log.Warn("role lookup failed, denying",
			zap.String("actor", string(actor)), zap.String("role", role), zap.Error(err))
		return false
	}
	return ok
}
