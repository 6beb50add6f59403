package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Martig3/valorant-matchbot/internal/auth"
	"github.com/Martig3/valorant-matchbot/internal/coordinator"
	"github.com/Martig3/valorant-matchbot/internal/engine"
	"github.com/Martig3/valorant-matchbot/internal/ledger"
	"github.com/Martig3/valorant-matchbot/internal/registry"
	"github.com/Martig3/valorant-matchbot/internal/riotid"
)

// mapTitle upper-cases a map name. A Caser is stateful, so one is built per call.
func mapTitle(name string) string { return cases.Upper(language.Und).String(name) }

func mention(a engine.Actor) string { return "<@" + string(a) + ">" }

func roleMention(g engine.Group) string { return "<@&" + g.ID + ">" }

// teamName prefers the bound group, then the captain.
func teamName(r engine.Roster, id engine.TeamID) string {
	team := r.Team(id)
	switch {
	case team.Group.Bound():
		return roleMention(team.Group)
	case team.Captain != "":
		return fmt.Sprintf("Team %s (%s)", id.Label(), mention(team.Captain))
	}
	return "Team " + id.Label()
}

const helpText = "\n`/riotid` - Set your riotid i.e. `/riotid Martige#NA1`\n" +
	"`/maps` - Lists all maps available for map vote\n" +
	"`/matches` - Lists all league matches\n" +
	"`/schedule` - Schedule your team's next match i.e. `/schedule 2026-05-03 8pm EST`\n" +
	"`/status` - Shows where the current setup is\n" +
	"_These are commands used during the `/setup` process:_\n" +
	"`/join` / `/leave` - Enter or leave the draft queue\n" +
	"`/captain` - Claim the Team A or Team B captain slot\n" +
	"`/pick` - Captains pick a player from the queue\n" +
	"`/veto` - Captains remove a map from the vote\n" +
	"`/defense` / `/attack` - Captain B picks the starting side\n"

const adminHelpText = "\n_These are privileged admin commands:_\n" +
	"`/setup` - Start the match setup process, optionally for two team roles\n" +
	"`/addmap` - Add a map to the map vote i.e. `/addmap mapname`\n" +
	"`/removemap` - Remove a map from the map vote i.e. `/removemap mapname`\n" +
	"`/addmatch` - Add a league match between two team roles\n" +
	"`/cancel` - Cancels `/setup` process\n"

func mapList(maps []string) string {
	var b strings.Builder
	b.WriteString("Current map pool:\n")
	for _, m := range maps {
		fmt.Fprintf(&b, "- `%s`\n", m)
	}
	return b.String()
}

func matchList(matches []ledger.Match) string {
	if len(matches) == 0 {
		return "No matches have been added"
	}
	var b strings.Builder
	for _, m := range matches {
		fmt.Fprintf(&b, "- %s vs %s", m.TeamOne.Name, m.TeamTwo.Name)
		if m.Note != "" {
			fmt.Fprintf(&b, " `%s`", m.Note)
		}
		if m.Schedule != nil {
			fmt.Fprintf(&b, " _%s %s_", m.Schedule.Date, m.Schedule.Time)
		}
		if m.State == ledger.StateCompleted {
			b.WriteString(" (completed)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (d *Dispatcher) player(a engine.Actor) string {
	return d.svc.Player(a, mention)
}

func (d *Dispatcher) players(actors []engine.Actor) string {
	if len(actors) == 0 {
		return "_nobody_"
	}
	out := make([]string, len(actors))
	for i, a := range actors {
		out[i] = d.player(a)
	}
	return strings.Join(out, ", ")
}

func (d *Dispatcher) rosterText(r engine.Roster) string {
	var b strings.Builder
	for _, id := range []engine.TeamID{engine.TeamA, engine.TeamB} {
		fmt.Fprintf(&b, "**%s:** %s\n", teamName(r, id), d.players(r.Team(id).Members))
	}
	return b.String()
}

func (d *Dispatcher) statusText(s engine.State) string {
	r := s.Roster()
	switch s.Name() {
	case engine.PhaseCaptainSelection:
		captain := func(id engine.TeamID) string {
			if c := r.Team(id).Captain; c != "" {
				return d.player(c)
			}
			return "_open_"
		}
		return fmt.Sprintf("**Captain selection**\nCaptain A: %s\nCaptain B: %s\nQueue: %s\n",
			captain(engine.TeamA), captain(engine.TeamB), d.players(s.Pool()))
	case engine.PhaseDraft:
		return fmt.Sprintf("**Draft** - %s is picking\nAvailable: %s\n%s",
			mention(s.CurrentPicker()), d.players(s.Pool()), d.rosterText(r))
	case engine.PhaseMapVeto:
		return fmt.Sprintf("**Map veto** - %s vetoes next\n%s", mention(s.CurrentVetoer()), mapList(s.MapsRemaining()))
	case engine.PhaseSidePick:
		picked := s.PickedMaps()
		name := ""
		if len(picked) > 0 {
			name = mapTitle(picked[0].Map)
		}
		return fmt.Sprintf("**Side pick** - the map is **%s**\n%s use `/defense` or `/attack` to pick your starting side.",
			name, mention(r.Team(engine.SideChooser).Captain))
	case engine.PhaseComplete:
		return "Setup is completed."
	}
	return "No setup is running. An admin can start one with `/setup`."
}

// completionText is the end of setup printout.
func (d *Dispatcher) completionText(c coordinator.Completion) string {
	var b strings.Builder
	b.WriteString("\n\nSetup is completed. GLHF!\n\n")
	b.WriteString(d.rosterText(c.Roster))
	b.WriteString("\n")
	for i, m := range c.Picked {
		picker := "_decider_"
		if m.PickedBy != "" {
			picker = mention(m.PickedBy)
		}
		fmt.Fprintf(&b, "**%d. %s** - picked by: %s\n    _Defense start:_ %s\n    _Attack start:_ %s\n\n",
			i+1, mapTitle(m.Map), picker,
			teamName(c.Roster, startingOn(m, engine.SideDefense)),
			teamName(c.Roster, startingOn(m, engine.SideAttack)))
	}
	if c.Match != nil {
		fmt.Fprintf(&b, "Result recorded for %s vs %s.\n", c.Match.TeamOne.Name, c.Match.TeamTwo.Name)
	}
	if c.LedgerErr != nil {
		b.WriteString("_The match result could not be saved._\n")
	}
	if msg := d.svc.PostSetupMsg(); msg != "" {
		b.WriteString(msg)
	}
	return b.String()
}

func startingOn(m engine.PickedMap, side engine.Side) engine.TeamID {
	if m.StartingSide(engine.TeamA) == side {
		return engine.TeamA
	}
	return engine.TeamB
}

// protocolErrors carry a sentence after the sentinel prefix that reads well
// on its own.
var protocolErrors = []error{
	engine.ErrWrongPhase,
	engine.ErrNotYourTurn,
	engine.ErrInvalidTarget,
	engine.ErrSlotTaken,
}

var userErrors = []error{
	registry.ErrPoolFull,
	registry.ErrDuplicate,
	registry.ErrNotFound,
	registry.ErrInvalidName,
	ledger.ErrNoTeamRole,
	ledger.ErrNoPendingMatch,
	ledger.ErrInvalidDate,
	ledger.ErrInvalidTeams,
}

// errorText renders err for actor. Unknown failures are reported generically
// and ok is false so the caller can log them.
func errorText(actor engine.Actor, err error) (text string, ok bool) {
	var denial *auth.Denial
	if errors.As(err, &denial) {
		return fmt.Sprintf("%s %s.", mention(actor), denial.Reason), true
	}
	switch {
	case errors.Is(err, engine.ErrNothingToCancel):
		return fmt.Sprintf("%s command only valid during `/setup` process", mention(actor)), true
	case errors.Is(err, engine.ErrEmptyMapPool):
		return fmt.Sprintf("%s the map pool is empty, an admin needs to `/addmap` before the veto can start", mention(actor)), true
	case errors.Is(err, riotid.ErrInvalidFormat):
		return fmt.Sprintf("%s invalid Riot ID formatting", mention(actor)), true
	}
	for _, sentinel := range protocolErrors {
		if errors.Is(err, sentinel) {
			return fmt.Sprintf("%s %s", mention(actor), strings.TrimPrefix(err.Error(), sentinel.Error()+": ")), true
		}
	}
	for _, sentinel := range userErrors {
		if errors.Is(err, sentinel) {
			return fmt.Sprintf("%s %s", mention(actor), err.Error()), true
		}
	}
	return fmt.Sprintf("%s something went wrong, please try again", mention(actor)), false
}
