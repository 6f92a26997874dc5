package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/namerush/namerush-backend/internal/engine"
	"github.com/namerush/namerush-backend/internal/hub"
	"github.com/namerush/namerush-backend/internal/lobby"
	"github.com/namerush/namerush-backend/internal/types"
)

// Handler upgrades a connection and bridges it to the lobby actor: one
// writer goroutine draining the outbox, one read loop decoding actions.
func Handler(h *hub.Hub, reg *Registry, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lobbyID := r.URL.Query().Get("lobby")
		playerID := r.URL.Query().Get("player")
		if lobbyID == "" || playerID == "" {
			http.Error(w, "missing lobby or player", http.StatusBadRequest)
			return
		}

		lb := ensureLobby(h, lobbyID, playerID)
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()

		// The outbox is replaced when the client switches lobbies, so each
		// incarnation gets its own drain goroutine. The mutex keeps the old
		// drain from interleaving frames with the new one while it empties.
		var writeMu sync.Mutex
		drain := func(out <-chan types.ServerEvent) {
			for ev := range out {
				payload, err := json.Marshal(ev)
				if err != nil {
					log.Error("encode event failed", zap.String("event", ev.Event), zap.Error(err))
					continue
				}
				writeMu.Lock()
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				writeMu.Unlock()
			}
		}

		out := make(chan types.ServerEvent, 16)
		go drain(out)

		lb.Inbox() <- lobby.Join{ConnID: connID, Group: lobby.GroupWaiting, Outbox: out}
		reg.Bind(connID, lobbyID, playerID)
		defer func() {
			// The binding names the lobby the client last switched into; that
			// lobby decides whether the drop means leave or eliminate. When it
			// already deleted itself the sweep clears the conn everywhere else.
			b, ok := reg.Resolve(connID)
			reg.Unbind(connID)
			if !ok {
				return
			}
			if target := getLobby(h, b.LobbyID); target != nil {
				target.Inbox() <- lobby.Disconnected{ConnID: connID}
				return
			}
			h.Inbox() <- hub.SweepDisconnect{ConnID: connID}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, &writeMu, "bad json")
				continue
			}

			if cm.Type == types.TypeSwitchLobby {
				next := ensureLobby(h, cm.NewLobbyID, playerID)
				if next == nil {
					writeError(r.Context(), conn, &writeMu, "lobby not found")
					continue
				}

				lb.Inbox() <- lobby.FromClient{Cmd: engine.Command{
					Type: engine.CmdLeaveLobby, PlayerID: playerID, ConnID: connID,
				}}
				lb.Inbox() <- lobby.Leave{ConnID: connID}

				out = make(chan types.ServerEvent, 16)
				go drain(out)

				lb = next
				lobbyID = cm.NewLobbyID
				lb.Inbox() <- lobby.Join{ConnID: connID, Group: lobby.GroupWaiting, Outbox: out}
				lb.Inbox() <- lobby.FromClient{Cmd: engine.Command{
					Type: engine.CmdJoinWaiting, PlayerID: playerID, ConnID: connID, Name: cm.Name,
				}}
				reg.Bind(connID, lobbyID, playerID)
				continue
			}

			cmd, ok := cm.Command(connID)
			if !ok {
				writeError(r.Context(), conn, &writeMu, "unknown type")
				continue
			}

			lb.Inbox() <- lobby.FromClient{Cmd: cmd}
		}
	}
}

func ensureLobby(h *hub.Hub, lobbyID, playerID string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- hub.EnsureLobby{ID: lobbyID, OwnerID: playerID, Reply: reply}
	return <-reply
}

func getLobby(h *hub.Hub, lobbyID string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- hub.GetLobby{ID: lobbyID, Reply: reply}
	return <-reply
}

func writeError(ctx context.Context, conn *websocket.Conn, mu *sync.Mutex, reason string) {
	ev := types.ServerEvent{Event: "error", Data: map[string]string{"reason": reason}}
	payload, _ := json.Marshal(ev)
	mu.Lock()
	defer mu.Unlock()
	_ = conn.Write(ctx, websocket.MessageText, payload)
}
