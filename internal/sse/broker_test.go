package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCatalogEventType(t *testing.T) {
	tests := map[string]string{
		"csa_hauls.json":   "hauls.updated",
		"csa_recipes.json": "recipes.updated",
		"products.json":    "products.updated",
	}
	for file, want := range tests {
		if got := CatalogEventType(file); got != want {
			t.Errorf("CatalogEventType(%q) = %q, want %q", file, got, want)
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishCatalogEvent_Throttle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishCatalogEvent("csa_hauls.json")
	b.PublishCatalogEvent("csa_recipes.json")

	time.Sleep(50 * time.Millisecond)
	refreshCount := 0
	var catalogEvents []string
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "index.updated") {
				refreshCount++
			} else {
				catalogEvents = append(catalogEvents, s)
			}
		default:
			break loop
		}
	}

	if len(catalogEvents) != 2 {
		t.Fatalf("catalog events = %d, want 2", len(catalogEvents))
	}
	if !strings.Contains(catalogEvents[0], "event: hauls.updated") || !strings.Contains(catalogEvents[0], `"file":"csa_hauls.json"`) {
		t.Errorf("first event = %q", catalogEvents[0])
	}
	if !strings.HasPrefix(catalogEvents[0], "id: 1\n") || !strings.HasPrefix(catalogEvents[1], "id: 3\n") {
		t.Errorf("event ids = %q, %q", catalogEvents[0], catalogEvents[1])
	}
	if refreshCount != 1 {
		t.Errorf("index.updated events = %d, want 1 (throttled)", refreshCount)
	}
}

// flushRecorder guards the recorder body so the test can read it while the
// handler goroutine writes.
type flushRecorder struct {
	mu sync.Mutex
	*httptest.ResponseRecorder
}

func (f *flushRecorder) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ResponseRecorder.Write(p)
}

func (f *flushRecorder) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ResponseRecorder.Flush()
}

func (f *flushRecorder) body() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ResponseRecorder.Body.String()
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := &flushRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishCatalogEvent("csa_recipes.json")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	if body := w.body(); !strings.Contains(body, "event: recipes.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Buffer holds 64; the rest must be dropped without blocking.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]int{"i": i}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.Publish(Event{Type: "hauls.updated", Data: map[string]string{"file": "csa_hauls.json"}})
	b.PublishCatalogEvent("csa_hauls.json")
}
