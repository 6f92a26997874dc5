package ws

import "testing"

func TestRegistry_BindResolveUnbind(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Resolve("c1"); ok {
		t.Fatalf("unbound connection should not resolve")
	}

	r.Bind("c1", "l1", "p1")
	b, ok := r.Resolve("c1")
	if !ok || b.LobbyID != "l1" || b.PlayerID != "p1" {
		t.Fatalf("want binding l1/p1, got %+v ok=%v", b, ok)
	}

	// Rebinding the same connection replaces the old binding.
	r.Bind("c1", "l2", "p2")
	b, _ = r.Resolve("c1")
	if b.LobbyID != "l2" || b.PlayerID != "p2" {
		t.Fatalf("rebind should win, got %+v", b)
	}

	r.Unbind("c1")
	if _, ok := r.Resolve("c1"); ok {
		t.Fatalf("unbound connection still resolves")
	}
	r.Unbind("c1") // idempotent
}
