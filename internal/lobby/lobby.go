// Package lobby runs the single setup session as an actor goroutine. Every
// command is applied inside the loop, so transitions never interleave.
package lobby

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Martig3/valorant-matchbot/internal/engine"
)

var ErrClosed = errors.New("session is shut down")

type Msg interface{ isLobbyMsg() }

// FromClient applies Cmd and answers on Reply, which must be buffered.
type FromClient struct {
	Cmd   engine.Command
	Reply chan Result
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this watcher wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type Snapshot struct {
	Version int
	State   engine.State
}

type View struct {
	Version    int
	NumClients int
	State      engine.State
}

// Result is the outcome of one command. State is the state the command
// produced, even when the session was reset right after it.
type Result struct {
	Version int
	Events  []engine.Event
	State   engine.State
	Err     error
}

// MapPool returns the maps the veto should start from.
type MapPool func() []string

type Lobby struct {
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]chan Snapshot
	pool    MapPool
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewLobby(parent context.Context, initial engine.State, pool MapPool, log *zap.Logger) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if pool == nil {
		pool = func() []string { return nil }
	}

	l := &Lobby{
		inbox:   make(chan Msg, 64),
		state:   initial,
		clients: make(map[string]chan Snapshot),
		pool:    pool,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.clients[msg.ClientID] = msg.Outbox
				select {
				case msg.Outbox <- Snapshot{Version: l.version, State: l.state}:
				default:
					close(msg.Outbox)
					delete(l.clients, msg.ClientID)
				}

			case Leave:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch)
					delete(l.clients, msg.ClientID)
				}

			case FromClient:
				msg.Reply <- l.apply(msg.Cmd)

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					State:      l.state,
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) apply(cmd engine.Command) Result {
	events, next, err := engine.Apply(l.state, cmd, l.pool())
	if err != nil {
		l.log.Debug("command rejected", zap.String("phase", string(l.state.Name())), zap.Error(err))
		return Result{Version: l.version, State: l.state, Err: err}
	}
	l.commit(next)
	res := Result{Version: l.version, Events: events, State: next}

	// A finished setup is published once, then the session goes back to idle.
	if next.Name() == engine.PhaseComplete {
		resetEvents, idle, err := engine.Apply(next, engine.ReadyReset{}, nil)
		if err != nil {
			l.log.Error("reset after completion", zap.Error(err))
			return res
		}
		l.commit(idle)
		res.Events = append(res.Events, resetEvents...)
	}
	l.log.Info("session advanced",
		zap.String("phase", string(l.state.Name())), zap.Int("version", l.version), zap.Int("events", len(res.Events)))
	return res
}

func (l *Lobby) commit(next engine.State) {
	l.state = next
	l.version++
	l.broadcast(Snapshot{Version: l.version, State: l.state})
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		select {
		case ch <- snap:
		default:
			// slow watcher
			close(ch)
			delete(l.clients, id)
		}
	}
}

// Inbox exposes the loop's mailbox for watchers.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Apply submits cmd and waits for the loop to answer. A rejected command is
// reported both as the returned error and in Result.Err.
//
// ctx bounds only the wait to be queued. Once the loop has taken cmd, Apply
// waits for its outcome so a caller never reports failure for a command
// that was applied.
func (l *Lobby) Apply(ctx context.Context, cmd engine.Command) (Result, error) {
	reply := make(chan Result, 1)
	if err := l.send(ctx, FromClient{Cmd: cmd, Reply: reply}); err != nil {
		return Result{}, err
	}
	select {
	case res := <-reply:
		return res, res.Err
	case <-l.done:
		return Result{}, ErrClosed
	}
}

// State returns the current view of the session.
func (l *Lobby) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := l.send(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	case <-l.done:
		return View{}, ErrClosed
	}
}

// Close stops the loop and waits for it to exit.
func (l *Lobby) Close() {
	l.cancel()
	<-l.done
}

func (l *Lobby) send(ctx context.Context, m Msg) error {
	select {
	case l.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	}
}

// Watch registers out for snapshots. out receives the current snapshot
// first and is closed when the watcher is dropped or the loop stops.
func (l *Lobby) Watch(ctx context.Context, id string, out chan Snapshot) error {
	return l.send(ctx, Join{ClientID: id, Outbox: out})
}

// Unwatch drops a watcher. It does not block once the loop has stopped.
func (l *Lobby) Unwatch(id string) {
	_ = l.send(context.Background(), Leave{ClientID: id})
}
