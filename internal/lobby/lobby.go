package lobby

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/namerush/namerush-backend/internal/cache"
	"github.com/namerush/namerush-backend/internal/engine"
	"github.com/namerush/namerush-backend/internal/types"
)

// Group is the broadcast audience a connection currently belongs to.
type Group int

const (
	GroupWaiting Group = iota
	GroupGame
)

type Msg interface{ isLobbyMsg() }

// Join registers a connection's outbox with the lobby.
type Join struct {
	ConnID string
	Group  Group
	Outbox chan types.ServerEvent
}

func (Join) isLobbyMsg() {}

// Leave unregisters a connection cleanly.
type Leave struct{ ConnID string }

func (Leave) isLobbyMsg() {}

// FromClient carries a decoded player action.
type FromClient struct {
	Cmd engine.Command
}

func (FromClient) isLobbyMsg() {}

// Disconnected reports a transport drop. The lobby decides whether that
// means leaving the waiting room or being eliminated mid-round.
type Disconnected struct{ ConnID string }

func (Disconnected) isLobbyMsg() {}

// GetState is test-only: reflect internal state without data races.
type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type tickKind int

const (
	kindCountdown tickKind = iota
	kindSelection
)

type timerTick struct {
	gen  int
	kind tickKind
}

func (timerTick) isLobbyMsg() {}

type View struct {
	Version    int
	NumClients int
	State      engine.State
}

// PlayerDirectory clears a player's lobby assignment in the relational
// store when they leave for good.
type PlayerDirectory interface {
	ClearPlayerLobby(ctx context.Context, playerID string) error
}

type client struct {
	outbox chan types.ServerEvent
	group  Group
}

// Lobby is the exclusive owner of one lobby's state. All mutation flows
// through its inbox, so read-modify-write against the snapshot is strictly
// sequential; the cache is write-through persistence, not a lock.
type Lobby struct {
	id      string
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]*client

	store   cache.Store
	players PlayerDirectory
	onEmpty func(id string)
	log     *zap.Logger

	tickEvery   time.Duration
	timerGen    int
	timerCancel context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Lobby)

// WithTickInterval shortens the countdown tick for tests.
func WithTickInterval(d time.Duration) Option {
	return func(l *Lobby) { l.tickEvery = d }
}

// WithPlayerDirectory wires the relational store used on permanent leaves.
func WithPlayerDirectory(d PlayerDirectory) Option {
	return func(l *Lobby) { l.players = d }
}

// WithOnEmpty registers the hub callback fired once the lobby deletes
// itself.
func WithOnEmpty(fn func(id string)) Option {
	return func(l *Lobby) { l.onEmpty = fn }
}

func NewLobby(parent context.Context, id string, initial engine.State, store cache.Store, log *zap.Logger, opts ...Option) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		id:        id,
		inbox:     make(chan Msg, 64),
		state:     initial,
		clients:   make(map[string]*client),
		store:     store,
		log:       log.With(zap.String("lobby", id)),
		tickEvery: time.Second,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(l)
	}

	go l.loop()
	return l
}

// Inbox exposes the message channel to the transport layer and tests.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) loop() {
	l.resumeTimers()

	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.clients[msg.ConnID] = &client{outbox: msg.Outbox, group: msg.Group}
				if msg.Group == GroupWaiting {
					// Immediate snapshot so a reconnecting client can
					// reconcile without waiting for the next update.
					l.send(msg.ConnID, types.ServerEvent{Event: string(engine.EvtLobbyUpdate), Data: l.state.Clone()})
				}

			case Leave:
				l.drop(msg.ConnID)

			case FromClient:
				l.handle(msg.Cmd)

			case Disconnected:
				l.handleDisconnect(msg.ConnID)

			case timerTick:
				if msg.gen != l.timerGen {
					// A newer timer superseded this one; a stale tick
					// must never double-fire events.
					continue
				}
				cmd := engine.Command{Type: engine.CmdCountdownTick}
				if msg.kind == kindSelection {
					cmd.Type = engine.CmdSelectionTick
				}
				l.handle(cmd)

			case GetState:
				msg.Reply <- View{Version: l.version, NumClients: len(l.clients), State: l.state.Clone()}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

// resumeTimers restarts a countdown from the last persisted tick count when
// the lobby was hydrated mid-countdown after a restart.
func (l *Lobby) resumeTimers() {
	switch l.state.Phase {
	case engine.PhaseCountdown:
		l.startTimer(kindCountdown)
	case engine.PhaseSelecting:
		if l.state.SelectionsComplete() {
			l.startTimer(kindSelection)
		}
	}
}

func (l *Lobby) handle(cmd engine.Command) {
	events, next, err := engine.Apply(l.state, cmd)
	if err != nil {
		// Guard violations and unknown actors are a silent no-op for the
		// client, observable only here.
		l.log.Debug("command dropped",
			zap.String("cmd", string(cmd.Type)),
			zap.String("player", cmd.PlayerID),
			zap.Error(err))
		return
	}
	l.state = next
	l.version++
	l.persist()

	switch cmd.Type {
	case engine.CmdJoinWaiting, engine.CmdReturnToWaiting:
		l.setGroup(cmd.ConnID, GroupWaiting)
	case engine.CmdJoinGame:
		l.setGroup(cmd.ConnID, GroupGame)
	case engine.CmdLeaveLobby:
		l.clearPlayerRow(cmd.PlayerID)
	}

	for _, ev := range events {
		if !l.dispatch(ev, cmd.ConnID) {
			return // lobby deleted itself
		}
	}
}

func (l *Lobby) handleDisconnect(connID string) {
	l.drop(connID)

	var playerID string
	for i := range l.state.Players {
		if l.state.Players[i].ConnectionID == connID {
			playerID = l.state.Players[i].ID
			break
		}
	}
	if playerID == "" {
		return
	}
	l.handle(engine.LeaveCommand(l.state, playerID))
}

// dispatch routes one event: directives drive the timer and group
// machinery, the rest fan out to their audience. Returns false once the
// lobby is gone.
func (l *Lobby) dispatch(ev engine.Event, callerConn string) bool {
	switch ev.Type {
	case engine.EvtStartCountdown:
		l.startTimer(kindCountdown)
	case engine.EvtStartSelectionTimer:
		l.startTimer(kindSelection)
	case engine.EvtStopTimer:
		l.stopTimer()
	case engine.EvtEnterGameRoom:
		for _, c := range l.clients {
			if c.group == GroupWaiting {
				c.group = GroupGame
			}
		}
	case engine.EvtDeleteLobby:
		l.deleteSelf()
		return false
	default:
		l.broadcast(ev, callerConn)
	}
	return true
}

func (l *Lobby) broadcast(ev engine.Event, callerConn string) {
	out := types.ServerEvent{Event: string(ev.Type), Data: ev.Payload}
	for connID, c := range l.clients {
		switch ev.Audience {
		case engine.AudWaiting:
			if c.group != GroupWaiting {
				continue
			}
		case engine.AudGame:
			if c.group != GroupGame {
				continue
			}
		case engine.AudCaller:
			if connID != callerConn {
				continue
			}
		default:
			continue
		}
		l.send(connID, out)
	}
}

func (l *Lobby) send(connID string, ev types.ServerEvent) {
	c, ok := l.clients[connID]
	if !ok {
		return
	}
	select {
	case c.outbox <- ev:
	default:
		// Client is slow/full - drop them.
		l.drop(connID)
	}
}

func (l *Lobby) setGroup(connID string, g Group) {
	if c, ok := l.clients[connID]; ok {
		c.group = g
	}
}

func (l *Lobby) drop(connID string) {
	if c, ok := l.clients[connID]; ok {
		close(c.outbox)
		delete(l.clients, connID)
	}
}

func (l *Lobby) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := l.store.Put(ctx, l.id, l.state); err != nil {
		l.log.Error("persist snapshot failed", zap.Error(err))
	}
}

func (l *Lobby) clearPlayerRow(playerID string) {
	if l.players == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.players.ClearPlayerLobby(ctx, playerID); err != nil {
			l.log.Warn("clear player lobby assignment failed",
				zap.String("player", playerID), zap.Error(err))
		}
	}()
}

func (l *Lobby) startTimer(kind tickKind) {
	l.stopTimer()
	l.timerGen++
	gen := l.timerGen

	ctx, cancel := context.WithCancel(l.ctx)
	l.timerCancel = cancel

	go func() {
		t := time.NewTicker(l.tickEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				select {
				case l.inbox <- timerTick{gen: gen, kind: kind}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

func (l *Lobby) stopTimer() {
	if l.timerCancel != nil {
		l.timerCancel()
		l.timerCancel = nil
	}
	l.timerGen++
}

func (l *Lobby) deleteSelf() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := l.store.Delete(ctx, l.id); err != nil {
		l.log.Error("delete snapshot failed", zap.Error(err))
	}
	l.log.Info("lobby deleted (empty)")
	l.shutdown()
	if l.onEmpty != nil {
		l.onEmpty(l.id)
	}
}

func (l *Lobby) shutdown() {
	l.stopTimer()
	for id, c := range l.clients {
		close(c.outbox)
		delete(l.clients, id)
	}
	l.cancel()
}
