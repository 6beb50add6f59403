package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Martig3/valorant-matchbot/internal/coordinator"
	"github.com/Martig3/valorant-matchbot/internal/engine"
)

// Dispatcher is the Handler backed by the coordinator.
type Dispatcher struct {
	svc *coordinator.Service
	log *zap.Logger
}

var _ Handler = (*Dispatcher)(nil)

func NewDispatcher(svc *coordinator.Service, log *zap.Logger) *Dispatcher {
	return &Dispatcher{svc: svc, log: log}
}

// Handle runs c against the coordinator.
func (d *Dispatcher) Handle(ctx context.Context, c Command) Reply {
	return Dispatch(ctx, d, c)
}

func (d *Dispatcher) fail(name string, actor engine.Actor, err error) Reply {
	text, ok := errorText(actor, err)
	if !ok {
		d.log.Error("command failed", zap.String("command", name), zap.String("actor", string(actor)), zap.Error(err))
	} else {
		d.log.Debug("command rejected", zap.String("command", name), zap.String("actor", string(actor)), zap.Error(err))
	}
	return Reply{Text: text}
}

// saved appends a warning when a change was applied but could not be stored.
func (d *Dispatcher) saved(name string, actor engine.Actor, text string, err error) Reply {
	if err == nil {
		return Reply{Text: text}
	}
	if coordinator.IsDegraded(err) {
		d.log.Warn("change not persisted", zap.String("command", name), zap.Error(err))
		return Reply{Text: text + "\n_Warning: this change could not be saved and will be lost on restart._"}
	}
	return d.fail(name, actor, err)
}

func (d *Dispatcher) Help(ctx context.Context, c Help) Reply {
	text := helpText
	if d.svc.IsAdmin(ctx, c.Actor) {
		text += adminHelpText
	}
	return Reply{Text: "Help info sent via DM", DM: text}
}

func (d *Dispatcher) Status(ctx context.Context, c Status) Reply {
	st, err := d.svc.Status(ctx)
	if err != nil {
		return d.fail(c.Name(), c.Actor, err)
	}
	return Reply{Text: d.statusText(st)}
}

func (d *Dispatcher) Start(ctx context.Context, c Start) Reply {
	st, err := d.svc.StartSetup(ctx, c.Actor, c.Players, c.GroupA, c.GroupB)
	if err != nil {
		if errors.Is(err, engine.ErrWrongPhase) {
			return Reply{Text: fmt.Sprintf("%s `/setup` command has already been entered", mention(c.Actor))}
		}
		return d.fail(c.Name(), c.Actor, err)
	}
	return Reply{Text: "**Match setup is starting...**\n" + d.statusText(st)}
}

func (d *Dispatcher) Join(ctx context.Context, c Join) Reply {
	st, err := d.svc.Join(ctx, c.Actor)
	if err != nil {
		return d.fail(c.Name(), c.Actor, err)
	}
	return Reply{Text: fmt.Sprintf("%s joined the queue (%d waiting)", mention(c.Actor), len(st.Pool()))}
}

func (d *Dispatcher) Leave(ctx context.Context, c Leave) Reply {
	st, err := d.svc.Leave(ctx, c.Actor)
	if err != nil {
		return d.fail(c.Name(), c.Actor, err)
	}
	return Reply{Text: fmt.Sprintf("%s left the queue (%d waiting)", mention(c.Actor), len(st.Pool()))}
}

func (d *Dispatcher) Captain(ctx context.Context, c Captain) Reply {
	st, err := d.svc.ClaimCaptain(ctx, c.Actor, c.Team)
	if err != nil {
		return d.fail(c.Name(), c.Actor, err)
	}
	text := fmt.Sprintf("%s is Captain %s\n", mention(c.Actor), c.Team.Label())
	if st.Name() != engine.PhaseCaptainSelection {
		text += d.statusText(st)
	}
	return Reply{Text: text}
}

func (d *Dispatcher) Pick(ctx context.Context, c Pick) Reply {
	st, err := d.svc.Pick(ctx, c.Actor, c.Target)
	if err != nil {
		return d.fail(c.Name(), c.Actor, err)
	}
	return Reply{Text: fmt.Sprintf("%s picked %s\n%s", mention(c.Actor), d.player(c.Target), d.statusText(st))}
}

func (d *Dispatcher) Veto(ctx context.Context, c Veto) Reply {
	st, err := d.svc.Veto(ctx, c.Actor, c.Map)
	if err != nil {
		return d.fail(c.Name(), c.Actor, err)
	}
	return Reply{Text: fmt.Sprintf("%s vetoed `%s`\n%s", mention(c.Actor), c.Map, d.statusText(st))}
}

func (d *Dispatcher) Side(ctx context.Context, c Side) Reply {
	done, err := d.svc.ChooseSide(ctx, c.Actor, c.Side)
	if err != nil {
		return d.fail(c.Name(), c.Actor, err)
	}
	if done.LedgerErr != nil {
		d.log.Warn("setup result not recorded", zap.Error(done.LedgerErr))
	}
	return Reply{Text: d.completionText(done)}
}

func (d *Dispatcher) Cancel(ctx context.Context, c Cancel) Reply {
	if err := d.svc.Cancel(ctx, c.Actor); err != nil {
		return d.fail(c.Name(), c.Actor, err)
	}
	return Reply{Text: "`/setup` process cancelled."}
}

func (d *Dispatcher) Maps(_ context.Context, _ Maps) Reply {
	return Reply{Text: mapList(d.svc.Maps())}
}

func (d *Dispatcher) AddMap(ctx context.Context, c AddMap) Reply {
	maps, err := d.svc.AddMap(ctx, c.Actor, c.Map)
	return d.saved(c.Name(), c.Actor, fmt.Sprintf("Added map: `%s`\n%s", c.Map, mapList(maps)), err)
}

func (d *Dispatcher) RemoveMap(ctx context.Context, c RemoveMap) Reply {
	maps, err := d.svc.RemoveMap(ctx, c.Actor, c.Map)
	return d.saved(c.Name(), c.Actor, fmt.Sprintf("Removed map: `%s`\n%s", c.Map, mapList(maps)), err)
}

func (d *Dispatcher) Matches(_ context.Context, _ Matches) Reply {
	return Reply{Text: matchList(d.svc.Matches())}
}

func (d *Dispatcher) AddMatch(ctx context.Context, c AddMatch) Reply {
	_, err := d.svc.AddMatch(ctx, c.Actor, c.TeamOne, c.TeamTwo, c.Note)
	return d.saved(c.Name(), c.Actor, "Successfully added new match", err)
}

func (d *Dispatcher) Schedule(ctx context.Context, c Schedule) Reply {
	m, err := d.svc.ScheduleMatch(ctx, c.Actor, c.Date, c.Time)
	text := fmt.Sprintf("Scheduled %s vs %s for %s %s", m.TeamOne.Name, m.TeamTwo.Name, c.Date, c.Time)
	return d.saved(c.Name(), c.Actor, text, err)
}

func (d *Dispatcher) RiotID(ctx context.Context, c RiotID) Reply {
	err := d.svc.SetRiotID(ctx, c.Actor, c.ID)
	return d.saved(c.Name(), c.Actor, fmt.Sprintf("Updated Riot id for %s to `%s`", mention(c.Actor), strings.TrimSpace(c.ID)), err)
}
