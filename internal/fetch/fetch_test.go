package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestURL(t *testing.T) {
	c := NewClient(Options{})
	got := c.URL(2019, 4)
	want := "https://front9farm.com/index.php/2019-csa-week-4-recipes"
	if got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
}

func TestFetch(t *testing.T) {
	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.UserAgent())
		if r.URL.Path != "/2020/7" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html><body><h1>Week 7</h1></body></html>`))
	}))
	defer srv.Close()

	c := NewClient(Options{URLTemplate: srv.URL + "/{year}/{week}", UserAgent: "csa-test"})
	doc, err := c.Fetch(context.Background(), 2020, 7)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := doc.Find("h1").Text(); got != "Week 7" {
		t.Errorf("h1 = %q", got)
	}
	if got, _ := ua.Load().(string); got != "csa-test" {
		t.Errorf("User-Agent = %q", got)
	}
}

func TestFetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient(Options{URLTemplate: srv.URL + "/{year}/{week}"})
	_, err := c.Fetch(context.Background(), 2020, 1)
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Errorf("err = %v, want status 404", err)
	}
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewClient(Options{URLTemplate: srv.URL + "/{year}/{week}", Timeout: 50 * time.Millisecond})
	if _, err := c.Fetch(context.Background(), 2020, 1); err == nil {
		t.Error("expected timeout error")
	}
}

func TestFetch_Delay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<p>ok</p>`))
	}))
	defer srv.Close()

	delay := 100 * time.Millisecond
	c := NewClient(Options{URLTemplate: srv.URL + "/{year}/{week}", Delay: delay})
	start := time.Now()
	for week := 1; week <= 3; week++ {
		if _, err := c.Fetch(context.Background(), 2020, week); err != nil {
			t.Fatalf("Fetch: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 2*delay-10*time.Millisecond {
		t.Errorf("three requests took %v, want at least %v", elapsed, 2*delay)
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := NewClient(Options{URLTemplate: srv.URL + "/{year}/{week}"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Fetch(ctx, 2020, 1); err == nil {
		t.Error("expected error for cancelled context")
	}
}
