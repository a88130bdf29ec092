package index

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/starford/csaharvest/internal/catalog"
	"github.com/starford/csaharvest/internal/storage"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_CatalogReindexed(t *testing.T) {
	db := testDB(t)
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string
	go Watch(ctx, db, store, logger, func(name string) {
		mu.Lock()
		events = append(events, name)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	if err := catalog.SaveHauls(store, sampleHauls()); err != nil {
		t.Fatalf("SaveHauls: %v", err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, total, _ := db.ListHauls(0, 0, 0)
		return total == 3
	}, "hauls catalog not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == catalog.HaulsFile {
				return true
			}
		}
		return false
	}, "callback not called for hauls catalog")

	if err := os.Remove(store.Root() + "/" + catalog.HaulsFile); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, total, _ := db.ListHauls(0, 0, 0)
		return total == 0
	}, "removed catalog still indexed")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	db := testDB(t)
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string
	go Watch(ctx, db, store, logger, func(name string) {
		mu.Lock()
		events = append(events, name)
		mu.Unlock()
	})
	time.Sleep(100 * time.Millisecond)

	_ = store.Write("products.json", []byte(`{"products": []}`))
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 0 {
		t.Errorf("unexpected events: %v", events)
	}
}
