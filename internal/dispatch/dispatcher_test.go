package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Martig3/valorant-matchbot/internal/auth"
	"github.com/Martig3/valorant-matchbot/internal/coordinator"
	"github.com/Martig3/valorant-matchbot/internal/engine"
	"github.com/Martig3/valorant-matchbot/internal/storage"
)

func newDispatcher(t *testing.T, blob *storage.Memory) *Dispatcher {
	t.Helper()
	members := auth.NewStatic().
		Grant("admin", "admins").
		Name("admins", "League Admin").
		Name("r-red", "Team Red").
		Name("r-blue", "Team Blue")
	svc, err := coordinator.New(context.Background(), blob, members, coordinator.Options{
		AdminRole:    "admins",
		PostSetupMsg: "Remember to report scores!",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return NewDispatcher(svc, zap.NewNop())
}

func TestHelpAddsAdminSection(t *testing.T) {
	d := newDispatcher(t, storage.NewMemory())
	ctx := context.Background()

	r := d.Handle(ctx, Help{Actor: "admin"})
	assert.Equal(t, "Help info sent via DM", r.Text)
	assert.Contains(t, r.DM, "privileged admin commands")

	r = d.Handle(ctx, Help{Actor: "p1"})
	assert.Contains(t, r.DM, "`/riotid`")
	assert.NotContains(t, r.DM, "privileged admin commands")
}

func TestStartMessages(t *testing.T) {
	d := newDispatcher(t, storage.NewMemory())
	ctx := context.Background()

	r := d.Handle(ctx, Start{Actor: "p1"})
	assert.Equal(t, "<@p1> this command requires the 'League Admin' role.", r.Text)

	r = d.Handle(ctx, Start{Actor: "admin"})
	assert.Contains(t, r.Text, "Match setup is starting")
	assert.Contains(t, r.Text, "Captain selection")

	r = d.Handle(ctx, Start{Actor: "admin"})
	assert.Equal(t, "<@admin> `/setup` command has already been entered", r.Text)
}

func TestFullSetupPrintout(t *testing.T) {
	d := newDispatcher(t, storage.NewMemory())
	ctx := context.Background()

	steps := []Command{
		AddMap{Actor: "admin", Map: "Ascent"},
		AddMap{Actor: "admin", Map: "Haven"},
		Start{Actor: "admin", Players: []engine.Actor{"p1", "p2"}},
		Captain{Actor: "capA", Team: engine.TeamA},
		Captain{Actor: "capB", Team: engine.TeamB},
		Pick{Actor: "capA", Target: "p1"},
		Pick{Actor: "capB", Target: "p2"},
		Veto{Actor: "capA", Map: "Ascent"},
	}
	for _, c := range steps {
		r := d.Handle(ctx, c)
		require.NotContains(t, r.Text, "something went wrong", c.Name())
	}

	r := d.Handle(ctx, Status{})
	assert.Contains(t, r.Text, "**HAVEN**")
	assert.Contains(t, r.Text, "<@capB> use `/defense` or `/attack`")

	r = d.Handle(ctx, Side{Actor: "capA", Side: engine.SideDefense})
	assert.Equal(t, "<@capA> you are not Captain B", r.Text)

	r = d.Handle(ctx, Side{Actor: "capB", Side: engine.SideDefense})
	assert.Contains(t, r.Text, "Setup is completed. GLHF!")
	assert.Contains(t, r.Text, "**1. HAVEN** - picked by: <@capA>")
	assert.Contains(t, r.Text, "_Defense start:_ Team B (<@capB>)")
	assert.Contains(t, r.Text, "_Attack start:_ Team A (<@capA>)")
	assert.Contains(t, r.Text, "Remember to report scores!")

	r = d.Handle(ctx, Status{})
	assert.Contains(t, r.Text, "No setup is running")
}

func TestProtocolErrorsRenderedForActor(t *testing.T) {
	d := newDispatcher(t, storage.NewMemory())
	ctx := context.Background()

	r := d.Handle(ctx, Cancel{Actor: "admin"})
	assert.Equal(t, "<@admin> command only valid during `/setup` process", r.Text)

	r = d.Handle(ctx, Pick{Actor: "capA", Target: "p1"})
	assert.Equal(t, "<@capA> it is not the draft phase", r.Text)

	r = d.Handle(ctx, RiotID{Actor: "p1", ID: "nohash"})
	assert.Equal(t, "<@p1> invalid Riot ID formatting", r.Text)

	r = d.Handle(ctx, RiotID{Actor: "p1", ID: "Martige#NA1"})
	assert.Equal(t, "Updated Riot id for <@p1> to `Martige#NA1`", r.Text)
}

func TestStatusShowsRiotIDs(t *testing.T) {
	d := newDispatcher(t, storage.NewMemory())
	ctx := context.Background()

	d.Handle(ctx, RiotID{Actor: "p1", ID: "Martige#NA1"})
	d.Handle(ctx, Start{Actor: "admin", Players: []engine.Actor{"p1", "p2"}})

	r := d.Handle(ctx, Status{})
	assert.Contains(t, r.Text, "<@p1> (`Martige#NA1`)")
	assert.Contains(t, r.Text, "<@p2>")
	assert.NotContains(t, r.Text, "<@p2> (")
}

func TestMapsAndMatches(t *testing.T) {
	blob := storage.NewMemory()
	d := newDispatcher(t, blob)
	ctx := context.Background()

	assert.Equal(t, "No matches have been added", d.Handle(ctx, Matches{}).Text)

	r := d.Handle(ctx, AddMatch{Actor: "admin", TeamOne: engine.Group{ID: "r-red"}, TeamTwo: engine.Group{ID: "r-blue"}, Note: "week 1"})
	assert.Equal(t, "Successfully added new match", r.Text)
	assert.Equal(t, "- Team Red vs Team Blue `week 1`\n", d.Handle(ctx, Matches{}).Text)

	d.Handle(ctx, AddMap{Actor: "admin", Map: "Ascent"})
	assert.Equal(t, "Current map pool:\n- `Ascent`\n", d.Handle(ctx, Maps{}).Text)

	r = d.Handle(ctx, AddMap{Actor: "admin", Map: "Ascent"})
	assert.Equal(t, "<@admin> map already in pool: Ascent", r.Text)

	blob.FailWrites = errors.New("disk full")
	r = d.Handle(ctx, AddMap{Actor: "admin", Map: "Bind"})
	assert.Contains(t, r.Text, "Added map: `Bind`")
	assert.Contains(t, r.Text, "could not be saved")
}
