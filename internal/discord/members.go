package discord

import (
	"context"
	"errors"
	"slices"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/Martig3/valorant-matchbot/internal/engine"
)

// guildAPI is the REST surface Members falls back to on a cache miss.
type guildAPI interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
}

type guildKey struct{}

// WithGuild scopes role lookups made under ctx to guildID.
func WithGuild(ctx context.Context, guildID string) context.Context {
	if guildID == "" {
		return ctx
	}
	return context.WithValue(ctx, guildKey{}, guildID)
}

// Members answers role questions for the guild an interaction came from,
// falling back to the configured guild.
type Members struct {
	api     guildAPI
	state   *discordgo.State
	guildID string
	log     *zap.Logger
}

func (m *Members) HasRole(ctx context.Context, actor engine.Actor, role string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	member, err := m.member(ctx, string(actor))
	if err != nil {
		return false, err
	}
	return slices.Contains(member.Roles, role), nil
}

// RoleName falls back to the id when the role cannot be resolved.
func (m *Members) RoleName(ctx context.Context, role string) string {
	guildID := m.guild(ctx)
	if m.state != nil {
		if r, err := m.state.Role(guildID, role); err == nil {
			return r.Name
		}
	}
	roles, err := m.api.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		m.log.Warn("list guild roles", zap.Error(err))
		return role
	}
	for _, r := range roles {
		if r.ID == role {
			return r.Name
		}
	}
	return role
}

func (m *Members) member(ctx context.Context, userID string) (*discordgo.Member, error) {
	guildID := m.guild(ctx)
	if guildID == "" {
		return nil, errors.New("no guild to look up members in")
	}
	if m.state != nil {
		if member, err := m.state.Member(guildID, userID); err == nil {
			return member, nil
		}
	}
	return m.api.GuildMember(guildID, userID, discordgo.WithContext(ctx))
}

func (m *Members) guild(ctx context.Context) string {
	if id, ok := ctx.Value(guildKey{}).(string); ok {
		return id
	}
	return m.guildID
}
