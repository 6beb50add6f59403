package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/Martig3/valorant-matchbot/internal/dispatch"
	"github.com/Martig3/valorant-matchbot/internal/engine"
)

var ErrUnknownCommand = errors.New("unknown command")

func option(name, description string, typ discordgo.ApplicationCommandOptionType, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{Type: typ, Name: name, Description: description, Required: required}
}

// Commands is the slash command set registered on startup.
var Commands = []*discordgo.ApplicationCommand{
	{Name: "help", Description: "DM the list of commands"},
	{Name: "status", Description: "Show where the current setup is"},
	{Name: "setup", Description: "Start the match setup process", Options: []*discordgo.ApplicationCommandOption{
		option("team_a", "Role bound to team A", discordgo.ApplicationCommandOptionRole, false),
		option("team_b", "Role bound to team B", discordgo.ApplicationCommandOptionRole, false),
		option("players", "Mention every player to queue for the draft", discordgo.ApplicationCommandOptionString, false),
	}},
	{Name: "join", Description: "Join the draft queue"},
	{Name: "leave", Description: "Leave the draft queue"},
	{Name: "captain", Description: "Claim a captain slot", Options: []*discordgo.ApplicationCommandOption{{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "team",
		Description: "Team to captain",
		Required:    true,
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "Team A", Value: string(engine.TeamA)},
			{Name: "Team B", Value: string(engine.TeamB)},
		},
	}}},
	{Name: "pick", Description: "Pick a player for your team", Options: []*discordgo.ApplicationCommandOption{
		option("player", "Player to pick", discordgo.ApplicationCommandOptionUser, true),
	}},
	{Name: "veto", Description: "Remove a map from the vote", Options: []*discordgo.ApplicationCommandOption{
		option("map", "Map to veto", discordgo.ApplicationCommandOptionString, true),
	}},
	{Name: "defense", Description: "Start on defense"},
	{Name: "attack", Description: "Start on attack"},
	{Name: "cancel", Description: "Cancel the setup process"},
	{Name: "maps", Description: "List all maps available for map vote"},
	{Name: "addmap", Description: "Add a map to the map vote", Options: []*discordgo.ApplicationCommandOption{
		option("map", "Map name", discordgo.ApplicationCommandOptionString, true),
	}},
	{Name: "removemap", Description: "Remove a map from the map vote", Options: []*discordgo.ApplicationCommandOption{
		option("map", "Map name", discordgo.ApplicationCommandOptionString, true),
	}},
	{Name: "matches", Description: "List league matches"},
	{Name: "addmatch", Description: "Add a league match", Options: []*discordgo.ApplicationCommandOption{
		option("team_one", "First team role", discordgo.ApplicationCommandOptionRole, true),
		option("team_two", "Second team role", discordgo.ApplicationCommandOptionRole, true),
		option("note", "Note shown in the match list", discordgo.ApplicationCommandOptionString, false),
	}},
	{Name: "schedule", Description: "Schedule your team's next match", Options: []*discordgo.ApplicationCommandOption{
		option("date", "Date as YYYY-MM-DD", discordgo.ApplicationCommandOptionString, true),
		option("time", "Time, e.g. 8pm EST", discordgo.ApplicationCommandOptionString, false),
	}},
	{Name: "riotid", Description: "Set your Riot ID", Options: []*discordgo.ApplicationCommandOption{
		option("riotid", "Riot ID, e.g. Martige#NA1", discordgo.ApplicationCommandOptionString, true),
	}},
}

type options struct {
	byName   map[string]*discordgo.ApplicationCommandInteractionDataOption
	resolved *discordgo.ApplicationCommandInteractionDataResolved
}

func newOptions(data discordgo.ApplicationCommandInteractionData) options {
	o := options{byName: map[string]*discordgo.ApplicationCommandInteractionDataOption{}, resolved: data.Resolved}
	for _, opt := range data.Options {
		o.byName[opt.Name] = opt
	}
	return o
}

func (o options) str(name string) string {
	if opt, ok := o.byName[name]; ok && opt.Type == discordgo.ApplicationCommandOptionString {
		return strings.TrimSpace(opt.StringValue())
	}
	return ""
}

func (o options) user(name string) engine.Actor {
	if opt, ok := o.byName[name]; ok && opt.Type == discordgo.ApplicationCommandOptionUser {
		return engine.Actor(opt.UserValue(nil).ID)
	}
	return ""
}

func (o options) role(name string) engine.Group {
	opt, ok := o.byName[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionRole {
		return engine.Group{}
	}
	g := engine.Group{ID: opt.RoleValue(nil, "").ID}
	if o.resolved != nil {
		if r, ok := o.resolved.Roles[g.ID]; ok && r != nil {
			g.Name = r.Name
		}
	}
	return g
}

// parseMentions extracts user ids from text such as "<@1> <@!2> 3".
func parseMentions(text string) []engine.Actor {
	var out []engine.Actor
	for _, field := range strings.FieldsFunc(text, func(r rune) bool { return r == ' ' || r == ',' || r == '\n' }) {
		id := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(field, "<@"), "!"), ">")
		if id == "" || strings.HasPrefix(id, "&") {
			continue
		}
		out = append(out, engine.Actor(id))
	}
	return out
}

// parseCommand converts slash command data into a dispatch command.
func parseCommand(data discordgo.ApplicationCommandInteractionData, actor engine.Actor) (dispatch.Command, error) {
	o := newOptions(data)
	switch strings.ToLower(data.Name) {
	case "help":
		return dispatch.Help{Actor: actor}, nil
	case "status":
		return dispatch.Status{Actor: actor}, nil
	case "setup", "start":
		return dispatch.Start{Actor: actor, Players: parseMentions(o.str("players")), GroupA: o.role("team_a"), GroupB: o.role("team_b")}, nil
	case "join":
		return dispatch.Join{Actor: actor}, nil
	case "leave":
		return dispatch.Leave{Actor: actor}, nil
	case "captain":
		return dispatch.Captain{Actor: actor, Team: engine.TeamID(o.str("team"))}, nil
	case "pick":
		return dispatch.Pick{Actor: actor, Target: o.user("player")}, nil
	case "veto":
		return dispatch.Veto{Actor: actor, Map: o.str("map")}, nil
	case "defense":
		return dispatch.Side{Actor: actor, Side: engine.SideDefense}, nil
	case "attack":
		return dispatch.Side{Actor: actor, Side: engine.SideAttack}, nil
	case "cancel":
		return dispatch.Cancel{Actor: actor}, nil
	case "maps":
		return dispatch.Maps{Actor: actor}, nil
	case "addmap":
		return dispatch.AddMap{Actor: actor, Map: o.str("map")}, nil
	case "removemap":
		return dispatch.RemoveMap{Actor: actor, Map: o.str("map")}, nil
	case "matches":
		return dispatch.Matches{Actor: actor}, nil
	case "addmatch":
		return dispatch.AddMatch{Actor: actor, TeamOne: o.role("team_one"), TeamTwo: o.role("team_two"), Note: o.str("note")}, nil
	case "schedule":
		return dispatch.Schedule{Actor: actor, Date: o.str("date"), Time: o.str("time")}, nil
	case "riotid":
		return dispatch.RiotID{Actor: actor, ID: o.str("riotid")}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, data.Name)
}
