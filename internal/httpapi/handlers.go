package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/namerush/namerush-backend/internal/cache"
	"github.com/namerush/namerush-backend/internal/store"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// CreateLobby inserts the durable lobby row; the session state is created
// lazily when the first player's websocket joins.
func CreateLobby(st *store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		code, err := GenerateCode()
		if err != nil {
			http.Error(w, "failed to generate code", http.StatusInternalServerError)
			return
		}

		rec := &store.LobbyRecord{ID: uuid.NewString(), Code: code, Name: req.Name}
		if err := st.CreateLobby(r.Context(), rec); err != nil {
			log.Error("create lobby failed", zap.Error(err))
			http.Error(w, "failed to create lobby", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			ID   string `json:"id"`
			Code string `json:"code"`
		}{ID: rec.ID, Code: rec.Code})
	}
}

// ActiveLobbies lists the ids of every lobby with a live snapshot.
func ActiveLobbies(snapshots cache.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := snapshots.ListIDs(r.Context())
		if err != nil {
			log.Error("list lobbies failed", zap.Error(err))
			http.Error(w, "failed to list lobbies", http.StatusInternalServerError)
			return
		}
		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, struct {
			Lobbies []string `json:"lobbies"`
		}{Lobbies: ids})
	}
}

// CategoryTopics lists the topics under a category; clients browse these
// when picking what to play.
func CategoryTopics(st *store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "categoryID"))
		if err != nil {
			http.Error(w, "bad category id", http.StatusBadRequest)
			return
		}
		topics, err := st.CategoryTopics(r.Context(), id)
		if err != nil {
			log.Error("list topics failed", zap.Int("category", id), zap.Error(err))
			http.Error(w, "failed to list topics", http.StatusInternalServerError)
			return
		}
		writeJSON(w, topics)
	}
}

// TopicItems lists the items of a topic, the board a round is played on.
func TopicItems(st *store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "topicID"))
		if err != nil {
			http.Error(w, "bad topic id", http.StatusBadRequest)
			return
		}
		items, err := st.TopicItems(r.Context(), id)
		if err != nil {
			log.Error("list items failed", zap.Int("topic", id), zap.Error(err))
			http.Error(w, "failed to list items", http.StatusInternalServerError)
			return
		}
		writeJSON(w, items)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
