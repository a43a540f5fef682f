package testsupport

import (
	"context"
	"testing"

	"paperreel/internal/config"
	"paperreel/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewTask creates a new queue item for tests using the provided store.
func NewTask(t testing.TB, store *queue.Store, documentURL, title string) *queue.Item {
	t.Helper()

	item, err := store.NewTask(context.Background(), documentURL, title)
	if err != nil {
		t.Fatalf("store.NewTask: %v", err)
	}
	return item
}
