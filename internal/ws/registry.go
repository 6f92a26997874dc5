package ws

import "sync"

// Binding ties an active transport connection to the lobby and player it
// speaks for.
type Binding struct {
	LobbyID  string
	PlayerID string
}

// Registry supports reverse lookup on disconnect: given a connection id,
// which lobby needs to hear about the drop.
type Registry struct {
	mu    sync.Mutex
	conns map[string]Binding
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Binding)}
}

func (r *Registry) Bind(connID, lobbyID, playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = Binding{LobbyID: lobbyID, PlayerID: playerID}
}

func (r *Registry) Resolve(connID string) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.conns[connID]
	return b, ok
}

func (r *Registry) Unbind(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
}
