package cache

import (
	"context"
	"errors"

	"github.com/namerush/namerush-backend/internal/engine"
)

// ErrNotFound is returned when no snapshot exists for a lobby id.
var ErrNotFound = errors.New("lobby snapshot not found")

// Store persists one serialized lobby snapshot per lobby id. Every Put
// renews the entry's TTL, so an idle lobby eventually expires on its own.
// The store is persistence only, never synchronization: all writes for one
// lobby come from that lobby's actor goroutine.
type Store interface {
	Get(ctx context.Context, id string) (engine.State, error)
	Put(ctx context.Context, id string, s engine.State) error
	Delete(ctx context.Context, id string) error
	ListIDs(ctx context.Context) ([]string, error)
}

const keyPrefix = "lobby:"
