package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/namerush/namerush-backend/internal/cache"
	"github.com/namerush/namerush-backend/internal/hub"
	"github.com/namerush/namerush-backend/internal/store"
	"github.com/namerush/namerush-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, st *store.Store, snapshots cache.Store, reg *ws.Registry, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/lobbies", CreateLobby(st, log))
	r.Get("/lobbies", ActiveLobbies(snapshots, log))
	r.Get("/categories/{categoryID}/topics", CategoryTopics(st, log))
	r.Get("/topics/{topicID}/items", TopicItems(st, log))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, reg, log))
	return r
}
