package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Martig3/valorant-matchbot/internal/dispatch"
	"github.com/Martig3/valorant-matchbot/internal/engine"
)

func strOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value}
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		name string
		data discordgo.ApplicationCommandInteractionData
		want dispatch.Command
	}{
		{
			name: "veto",
			data: discordgo.ApplicationCommandInteractionData{Name: "veto", Options: []*discordgo.ApplicationCommandInteractionDataOption{strOpt("map", " Ascent ")}},
			want: dispatch.Veto{Actor: "u1", Map: "Ascent"},
		},
		{
			name: "pick resolves user option",
			data: discordgo.ApplicationCommandInteractionData{Name: "pick", Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "player", Type: discordgo.ApplicationCommandOptionUser, Value: "42"},
			}},
			want: dispatch.Pick{Actor: "u1", Target: "42"},
		},
		{
			name: "addmatch resolves role names",
			data: discordgo.ApplicationCommandInteractionData{
				Name: "addmatch",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "team_one", Type: discordgo.ApplicationCommandOptionRole, Value: "r1"},
					{Name: "team_two", Type: discordgo.ApplicationCommandOptionRole, Value: "r2"},
					strOpt("note", "week 1"),
				},
				Resolved: &discordgo.ApplicationCommandInteractionDataResolved{Roles: map[string]*discordgo.Role{
					"r1": {ID: "r1", Name: "Team Red"},
				}},
			},
			want: dispatch.AddMatch{
				Actor:   "u1",
				TeamOne: engine.Group{ID: "r1", Name: "Team Red"},
				TeamTwo: engine.Group{ID: "r2"},
				Note:    "week 1",
			},
		},
		{
			name: "setup with players",
			data: discordgo.ApplicationCommandInteractionData{Name: "setup", Options: []*discordgo.ApplicationCommandInteractionDataOption{strOpt("players", "<@1> <@!2>, <@&9>")}},
			want: dispatch.Start{Actor: "u1", Players: []engine.Actor{"1", "2"}},
		},
		{
			name: "side",
			data: discordgo.ApplicationCommandInteractionData{Name: "Defense"},
			want: dispatch.Side{Actor: "u1", Side: engine.SideDefense},
		},
		{
			name: "captain",
			data: discordgo.ApplicationCommandInteractionData{Name: "captain", Options: []*discordgo.ApplicationCommandInteractionDataOption{strOpt("team", "b")}},
			want: dispatch.Captain{Actor: "u1", Team: engine.TeamB},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseCommand(tc.data, "u1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseCommandUnknown(t *testing.T) {
	_, err := parseCommand(discordgo.ApplicationCommandInteractionData{Name: "recoverqueue"}, "u1")
	require.ErrorIs(t, err, ErrUnknownCommand)
}

func TestEveryRegisteredCommandParses(t *testing.T) {
	for _, c := range Commands {
		_, err := parseCommand(discordgo.ApplicationCommandInteractionData{Name: c.Name}, "u1")
		assert.NoError(t, err, c.Name)
	}
}

type fakeGuild struct {
	guild   string
	members map[string]*discordgo.Member
	roles   []*discordgo.Role
	err     error
}

func (f fakeGuild) GuildMember(guildID, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	if guildID != f.guild {
		return nil, errors.New("unknown guild")
	}
	m, ok := f.members[userID]
	if !ok {
		return nil, errors.New("unknown member")
	}
	return m, nil
}

func (f fakeGuild) GuildRoles(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	if guildID != f.guild {
		return nil, errors.New("unknown guild")
	}
	return f.roles, f.err
}

func TestMembers(t *testing.T) {
	api := fakeGuild{
		guild:   "g",
		members: map[string]*discordgo.Member{"u1": {Roles: []string{"r1"}}},
		roles:   []*discordgo.Role{{ID: "r1", Name: "Team Red"}},
	}
	m := &Members{api: api, guildID: "g", log: zap.NewNop()}
	ctx := context.Background()

	ok, err := m.HasRole(ctx, "u1", "r1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.HasRole(ctx, "u1", "r2")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.HasRole(ctx, "ghost", "r1")
	assert.Error(t, err)

	assert.Equal(t, "Team Red", m.RoleName(ctx, "r1"))
	assert.Equal(t, "r9", m.RoleName(ctx, "r9"))
}

func TestMembersUseInteractionGuild(t *testing.T) {
	api := fakeGuild{
		guild:   "g1",
		members: map[string]*discordgo.Member{"boss": {Roles: []string{"admins"}}},
		roles:   []*discordgo.Role{{ID: "admins", Name: "League Admin"}},
	}
	m := &Members{api: api, log: zap.NewNop()}

	_, err := m.HasRole(context.Background(), "boss", "admins")
	require.Error(t, err, "no guild configured or carried")

	ctx := WithGuild(context.Background(), "g1")
	ok, err := m.HasRole(ctx, "boss", "admins")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "League Admin", m.RoleName(ctx, "admins"))

	configured := &Members{api: api, guildID: "g1", log: zap.NewNop()}
	ok, err = configured.HasRole(WithGuild(context.Background(), ""), "boss", "admins")
	require.NoError(t, err)
	assert.True(t, ok)
}

type fakeInteractions struct {
	responses []discordgo.InteractionResponseType
	edits     []string
	dms       map[string]string
}

func (f *fakeInteractions) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.responses = append(f.responses, resp.Type)
	if resp.Data != nil {
		f.edits = append(f.edits, resp.Data.Content)
	}
	return nil
}

func (f *fakeInteractions) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits = append(f.edits, *edit.Content)
	return &discordgo.Message{}, nil
}

func (f *fakeInteractions) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeInteractions) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.dms == nil {
		f.dms = map[string]string{}
	}
	f.dms[channelID] = content
	return &discordgo.Message{}, nil
}

type handlerFunc func(ctx context.Context, c dispatch.Command) dispatch.Reply

func (f handlerFunc) Handle(ctx context.Context, c dispatch.Command) dispatch.Reply { return f(ctx, c) }

func interaction(guild, channel, name string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   guild,
		ChannelID: channel,
		Member:    &discordgo.Member{User: &discordgo.User{ID: "boss"}},
		Data:      discordgo.ApplicationCommandInteractionData{Name: name},
	}}
}

func TestInteractionIsDeferredThenEdited(t *testing.T) {
	api := &fakeInteractions{}
	b := &Bot{api: api, cfg: Config{ChannelID: "bot-channel"}, log: zap.NewNop()}

	var guild string
	h := handlerFunc(func(ctx context.Context, c dispatch.Command) dispatch.Reply {
		guild = ctx.Value(guildKey{}).(string)
		return dispatch.Reply{Text: "Help info sent via DM", DM: "commands"}
	})
	b.onInteraction(context.Background(), h, interaction("g1", "bot-channel", "help"))

	assert.Equal(t, "g1", guild)
	assert.Equal(t, []discordgo.InteractionResponseType{discordgo.InteractionResponseDeferredChannelMessageWithSource}, api.responses)
	assert.Equal(t, []string{"Help info sent via DM"}, api.edits)
	assert.Equal(t, "commands", api.dms["dm-boss"])
}

func TestInteractionOutsideChannelIsNotRun(t *testing.T) {
	api := &fakeInteractions{}
	b := &Bot{api: api, cfg: Config{ChannelID: "bot-channel"}, log: zap.NewNop()}

	ran := false
	h := handlerFunc(func(context.Context, dispatch.Command) dispatch.Reply {
		ran = true
		return dispatch.Reply{}
	})
	b.onInteraction(context.Background(), h, interaction("g1", "general", "status"))

	assert.False(t, ran)
	assert.Equal(t, []discordgo.InteractionResponseType{discordgo.InteractionResponseChannelMessageWithSource}, api.responses)
	assert.Equal(t, []string{wrongChannelText}, api.edits)
}

func TestInteractionActor(t *testing.T) {
	assert.Equal(t, engine.Actor("m"), interactionActor(&discordgo.Interaction{Member: &discordgo.Member{User: &discordgo.User{ID: "m"}}}))
	assert.Equal(t, engine.Actor("u"), interactionActor(&discordgo.Interaction{User: &discordgo.User{ID: "u"}}))
	assert.Equal(t, engine.Actor(""), interactionActor(&discordgo.Interaction{}))
}
