// Package dispatch turns typed chat commands into coordinator calls and
// renders every outcome as the text reply the transport sends back.
package dispatch

import (
	"context"

	"github.com/Martig3/valorant-matchbot/internal/engine"
)

// Command is a closed set of chat commands. Adding a variant requires a
// matching Handler method.
type Command interface {
	Name() string
	accept(ctx context.Context, h Handler) Reply
}

// Reply is the response to one command. DM, when set, is delivered privately
// to the invoking actor before Text is posted.
type Reply struct {
	Text string
	DM   string
}

type Handler interface {
	Help(ctx context.Context, c Help) Reply
	Status(ctx context.Context, c Status) Reply
	Start(ctx context.Context, c Start) Reply
	Join(ctx context.Context, c Join) Reply
	Leave(ctx context.Context, c Leave) Reply
	Captain(ctx context.Context, c Captain) Reply
	Pick(ctx context.Context, c Pick) Reply
	Veto(ctx context.Context, c Veto) Reply
	Side(ctx context.Context, c Side) Reply
	Cancel(ctx context.Context, c Cancel) Reply
	Maps(ctx context.Context, c Maps) Reply
	AddMap(ctx context.Context, c AddMap) Reply
	RemoveMap(ctx context.Context, c RemoveMap) Reply
	Matches(ctx context.Context, c Matches) Reply
	AddMatch(ctx context.Context, c AddMatch) Reply
	Schedule(ctx context.Context, c Schedule) Reply
	RiotID(ctx context.Context, c RiotID) Reply
}

// Dispatch routes c to the Handler method for its variant.
func Dispatch(ctx context.Context, h Handler, c Command) Reply {
	return c.accept(ctx, h)
}

type Help struct{ Actor engine.Actor }

type Status struct{ Actor engine.Actor }

type Start struct {
	Actor   engine.Actor
	Players []engine.Actor
	GroupA  engine.Group
	GroupB  engine.Group
}

type Join struct{ Actor engine.Actor }

type Leave struct{ Actor engine.Actor }

type Captain struct {
	Actor engine.Actor
	Team  engine.TeamID
}

type Pick struct {
	Actor  engine.Actor
	Target engine.Actor
}

type Veto struct {
	Actor engine.Actor
	Map   string
}

type Side struct {
	Actor engine.Actor
	Side  engine.Side
}

type Cancel struct{ Actor engine.Actor }

type Maps struct{ Actor engine.Actor }

type AddMap struct {
	Actor engine.Actor
	Map   string
}

type RemoveMap struct {
	Actor engine.Actor
	Map   string
}

type Matches struct{ Actor engine.Actor }

type AddMatch struct {
	Actor   engine.Actor
	TeamOne engine.Group
	TeamTwo engine.Group
	Note    string
}

type Schedule struct {
	Actor engine.Actor
	Date  string
	Time  string
}

type RiotID struct {
	Actor engine.Actor
	ID    string
}

func (Help) Name() string      { return "help" }
func (Status) Name() string    { return "status" }
func (Start) Name() string     { return "setup" }
func (Join) Name() string      { return "join" }
func (Leave) Name() string     { return "leave" }
func (Captain) Name() string   { return "captain" }
func (Pick) Name() string      { return "pick" }
func (Veto) Name() string      { return "veto" }
func (c Side) Name() string    { return string(c.Side) }
func (Cancel) Name() string    { return "cancel" }
func (Maps) Name() string      { return "maps" }
func (AddMap) Name() string    { return "addmap" }
func (RemoveMap) Name() string { return "removemap" }
func (Matches) Name() string   { return "matches" }
func (AddMatch) Name() string  { return "addmatch" }
func (Schedule) Name() string  { return "schedule" }
func (RiotID) Name() string    { return "riotid" }

func (c Help) accept(ctx context.Context, h Handler) Reply      { return h.Help(ctx, c) }
func (c Status) accept(ctx context.Context, h Handler) Reply    { return h.Status(ctx, c) }
func (c Start) accept(ctx context.Context, h Handler) Reply     { return h.Start(ctx, c) }
func (c Join) accept(ctx context.Context, h Handler) Reply      { return h.Join(ctx, c) }
func (c Leave) accept(ctx context.Context, h Handler) Reply     { return h.Leave(ctx, c) }
func (c Captain) accept(ctx context.Context, h Handler) Reply   { return h.Captain(ctx, c) }
func (c Pick) accept(ctx context.Context, h Handler) Reply      { return h.Pick(ctx, c) }
func (c Veto) accept(ctx context.Context, h Handler) Reply      { return h.Veto(ctx, c) }
func (c Side) accept(ctx context.Context, h Handler) Reply      { return h.Side(ctx, c) }
func (c Cancel) accept(ctx context.Context, h Handler) Reply    { return h.Cancel(ctx, c) }
func (c Maps) accept(ctx context.Context, h Handler) Reply      { return h.Maps(ctx, c) }
func (c AddMap) accept(ctx context.Context, h Handler) Reply    { return h.AddMap(ctx, c) }
func (c RemoveMap) accept(ctx context.Context, h Handler) Reply { return h.RemoveMap(ctx, c) }
func (c Matches) accept(ctx context.Context, h Handler) Reply   { return h.Matches(ctx, c) }
func (c AddMatch) accept(ctx context.Context, h Handler) Reply  { return h.AddMatch(ctx, c) }
func (c Schedule) accept(ctx context.Context, h Handler) Reply  { return h.Schedule(ctx, c) }
func (c RiotID) accept(ctx context.Context, h Handler) Reply    { return h.RiotID(ctx, c) }
