package hub

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/namerush/namerush-backend/internal/cache"
	"github.com/namerush/namerush-backend/internal/engine"
	"github.com/namerush/namerush-backend/internal/lobby"
	"github.com/namerush/namerush-backend/internal/store"
)

type HubMsg interface{ isHubMsg() }

// EnsureLobby returns the live actor for a lobby id, hydrating it from the
// snapshot cache or, failing that, from the relational record. Reply gets
// nil when the lobby does not exist anywhere.
type EnsureLobby struct {
	ID      string
	OwnerID string // first joiner, used only when the lobby is created fresh
	Reply   chan *lobby.Lobby
}

// GetLobby returns the live actor only; no hydration.
type GetLobby struct {
	ID    string
	Reply chan *lobby.Lobby
}

type RemoveLobby struct {
	ID string
}

// SweepDisconnect fans a dropped connection out to every live lobby, since
// a connection is not guaranteed to have been unbound cleanly.
type SweepDisconnect struct {
	ConnID string
}

type ShutdownHub struct{}

func (EnsureLobby) isHubMsg()     {}
func (GetLobby) isHubMsg()        {}
func (RemoveLobby) isHubMsg()     {}
func (SweepDisconnect) isHubMsg() {}
func (ShutdownHub) isHubMsg()     {}

// Directory reads the relational lobby record used to seed a fresh lobby.
type Directory interface {
	GetLobby(ctx context.Context, id string) (*store.LobbyRecord, error)
}

// Hub owns the lobby table. Like the lobbies themselves it is an actor, so
// creation races between two simultaneous joiners collapse into one lobby.
type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby

	snapshots cache.Store
	records   Directory
	players   lobby.PlayerDirectory
	log       *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, snapshots cache.Store, records Directory, players lobby.PlayerDirectory, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:     make(chan HubMsg, 64),
		lobbies:   make(map[string]*lobby.Lobby),
		snapshots: snapshots,
		records:   records,
		players:   players,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureLobby:
				msg.Reply <- h.ensure(msg.ID, msg.OwnerID)

			case GetLobby:
				msg.Reply <- h.lobbies[msg.ID] // may be nil

			case RemoveLobby:
				delete(h.lobbies, msg.ID)

			case SweepDisconnect:
				for _, lb := range h.lobbies {
					lb.Inbox() <- lobby.Disconnected{ConnID: msg.ConnID}
				}

			case ShutdownHub:
				for _, lb := range h.lobbies {
					lb.Inbox() <- lobby.Shutdown{}
				}
				clear(h.lobbies)
				h.cancel()
			}
		}
	}
}

func (h *Hub) ensure(id, ownerID string) *lobby.Lobby {
	if lb := h.lobbies[id]; lb != nil {
		return lb
	}

	state, err := h.hydrate(id, ownerID)
	if err != nil {
		return nil
	}

	lb := lobby.NewLobby(h.ctx, id, state, h.snapshots, h.log,
		lobby.WithPlayerDirectory(h.players),
		lobby.WithOnEmpty(func(id string) {
			// Fired from the lobby goroutine; re-enter through the inbox.
			select {
			case h.inbox <- RemoveLobby{ID: id}:
			case <-h.ctx.Done():
			}
		}),
	)
	h.lobbies[id] = lb
	return lb
}

// hydrate prefers the cached snapshot (it alone survives reconnects across
// restarts) and falls back to a fresh state seeded from the lobby record.
func (h *Hub) hydrate(id, ownerID string) (engine.State, error) {
	ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
	defer cancel()

	state, err := h.snapshots.Get(ctx, id)
	if err == nil {
		h.log.Info("lobby rehydrated from cache", zap.String("lobby", id))
		return state, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		h.log.Error("snapshot load failed", zap.String("lobby", id), zap.Error(err))
		return engine.State{}, err
	}

	rec, err := h.records.GetLobby(ctx, id)
	if err != nil {
		h.log.Warn("unknown lobby", zap.String("lobby", id), zap.Error(err))
		return engine.State{}, err
	}
	h.log.Info("lobby created", zap.String("lobby", id), zap.String("owner", ownerID))
	return engine.NewState(rec.ID, rec.Code, rec.Name, ownerID), nil
}
