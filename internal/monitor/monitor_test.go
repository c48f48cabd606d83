package monitor

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/streamscan/streamscan/internal/report"
)

// fakeClock is a manually advanced clock for staleness tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeVerifier answers liveness from a mutable URL table.
type fakeVerifier struct {
	mu   sync.Mutex
	live map[string]bool
}

func newFakeVerifier(liveURLs ...string) *fakeVerifier {
	v := &fakeVerifier{live: make(map[string]bool)}
	for _, url := range liveURLs {
		v.live[url] = true
	}
	return v
}

func (v *fakeVerifier) set(url string, live bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.live[url] = live
}

func (v *fakeVerifier) Verify(_ context.Context, url string) Verification {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.live[url] {
		return Verification{Live: true, ContentType: "video/mp4", Size: 2048}
	}
	return Verification{}
}

// newTestMonitor wires a monitor with fakes and temp-dir persistence.
func newTestMonitor(t *testing.T, clock *fakeClock, verifier Verifier) (*Monitor, *report.DocumentStore, *report.DocumentStore) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	dir := t.TempDir()
	active := report.NewDocumentStore(filepath.Join(dir, "active_streams.json"), logger)
	history := report.NewDocumentStore(filepath.Join(dir, "stream_history.json"), logger)

	m := New(active, history,
		WithVerifier(verifier),
		WithLogger(logger),
		withClock(clock.Now),
	)
	return m, active, history
}

// TestMonitorActivation tests the unverified to active transition.
func TestMonitorActivation(t *testing.T) {
	t.Parallel()

	const url = "http://192.168.1.20:8081/stream/index.m3u8"

	clock := newFakeClock()
	m, active, _ := newTestMonitor(t, clock, newFakeVerifier(url))

	if err := m.cycle(context.Background(), []string{url}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := active.Load().Find(url)
	if rec == nil {
		t.Fatal("record not persisted after first successful probe")
	}
	if !rec.Active || !rec.FirstSeen.Equal(clock.Now()) || !rec.LastActive.Equal(clock.Now()) {
		t.Errorf("unexpected record: %+v", rec)
	}
	if len(m.Active()) != 1 {
		t.Errorf("expected 1 active URL, got %v", m.Active())
	}
}

// TestMonitorRefresh tests that re-probes update LastActive only.
func TestMonitorRefresh(t *testing.T) {
	t.Parallel()

	const url = "http://192.168.1.20:8081/stream/index.m3u8"

	clock := newFakeClock()
	firstSeen := clock.Now()
	m, active, _ := newTestMonitor(t, clock, newFakeVerifier(url))

	if err := m.cycle(context.Background(), []string{url}); err != nil {
		t.Fatal(err)
	}

	clock.Advance(30 * time.Second)
	if err := m.cycle(context.Background(), []string{url}); err != nil {
		t.Fatal(err)
	}

	doc := active.Load()
	if len(doc.Streams) != 1 {
		t.Fatalf("expected 1 record, got %d", len(doc.Streams))
	}
	rec := doc.Streams[0]
	if !rec.FirstSeen.Equal(firstSeen) {
		t.Errorf("FirstSeen must not move on refresh: %v", rec.FirstSeen)
	}
	if !rec.LastActive.Equal(clock.Now()) {
		t.Errorf("LastActive not refreshed: %v", rec.LastActive)
	}
}

// TestMonitorStaleness tests the expiry boundary around the threshold.
func TestMonitorStaleness(t *testing.T) {
	t.Parallel()

	const url = "http://192.168.1.20:8081/stream/index.m3u8"

	t.Run("301 seconds stale expires and moves to history", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		verifier := newFakeVerifier(url)
		m, active, history := newTestMonitor(t, clock, verifier)

		if err := m.cycle(context.Background(), []string{url}); err != nil {
			t.Fatal(err)
		}

		// Stream goes dark, then the threshold elapses.
		verifier.set(url, false)
		clock.Advance(301 * time.Second)
		if err := m.cycle(context.Background(), []string{url}); err != nil {
			t.Fatal(err)
		}

		if got := m.Active(); len(got) != 0 {
			t.Errorf("expected empty registry, got %v", got)
		}
		if rec := active.Load().Find(url); rec != nil {
			t.Errorf("expired record still in active document: %+v", rec)
		}

		hist := history.Load().Find(url)
		if hist == nil {
			t.Fatal("expired record missing from history")
		}
		if hist.Active {
			t.Error("history record must be marked inactive")
		}
	})

	t.Run("299 seconds stale is retained", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		verifier := newFakeVerifier(url)
		m, active, history := newTestMonitor(t, clock, verifier)

		if err := m.cycle(context.Background(), []string{url}); err != nil {
			t.Fatal(err)
		}

		verifier.set(url, false)
		clock.Advance(299 * time.Second)
		if err := m.cycle(context.Background(), []string{url}); err != nil {
			t.Fatal(err)
		}

		if got := m.Active(); len(got) != 1 {
			t.Errorf("expected record retained, got %v", got)
		}
		if rec := active.Load().Find(url); rec == nil || !rec.Active {
			t.Errorf("record must survive below the threshold: %+v", rec)
		}
		if len(history.Load().Streams) != 0 {
			t.Error("nothing should be in history yet")
		}
	})
}

// TestMonitorRediscovery tests that expiry is terminal for the record.
func TestMonitorRediscovery(t *testing.T) {
	t.Parallel()

	const url = "http://192.168.1.20:8081/stream/index.m3u8"

	clock := newFakeClock()
	verifier := newFakeVerifier(url)
	m, active, _ := newTestMonitor(t, clock, verifier)

	if err := m.cycle(context.Background(), []string{url}); err != nil {
		t.Fatal(err)
	}
	originalFirstSeen := clock.Now()

	// Expire the record.
	verifier.set(url, false)
	clock.Advance(301 * time.Second)
	if err := m.cycle(context.Background(), []string{url}); err != nil {
		t.Fatal(err)
	}

	// Come back online: a fresh record, not a revival.
	verifier.set(url, true)
	clock.Advance(10 * time.Second)
	if err := m.cycle(context.Background(), []string{url}); err != nil {
		t.Fatal(err)
	}

	rec := active.Load().Find(url)
	if rec == nil {
		t.Fatal("rediscovered stream not persisted")
	}
	if rec.FirstSeen.Equal(originalFirstSeen) {
		t.Error("rediscovery must create a fresh record, not revive the old one")
	}
	if !rec.FirstSeen.Equal(clock.Now()) {
		t.Errorf("fresh record FirstSeen should be now, got %v", rec.FirstSeen)
	}
}

// TestMonitorRestore tests registry recovery from the active document.
func TestMonitorRestore(t *testing.T) {
	t.Parallel()

	const url = "rtsp://192.168.1.30:554/live"

	clock := newFakeClock()
	verifier := newFakeVerifier(url)
	first, active, history := newTestMonitor(t, clock, verifier)

	if err := first.cycle(context.Background(), []string{url}); err != nil {
		t.Fatal(err)
	}

	// A second monitor over the same documents picks the record up.
	logger := slog.New(slog.DiscardHandler)
	second := New(active, history,
		WithVerifier(verifier),
		WithLogger(logger),
		withClock(clock.Now),
	)
	second.restore()

	if got := second.Active(); len(got) != 1 || got[0] != url {
		t.Errorf("expected restored registry [%s], got %v", url, got)
	}
}

// TestMonitorStop tests cooperative shutdown at the cycle boundary.
func TestMonitorStop(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	m, _, _ := newTestMonitor(t, clock, newFakeVerifier())

	done := make(chan error, 1)
	go func() {
		done <- m.Start(context.Background(), nil)
	}()

	m.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("stop must end the loop cleanly, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not observe stop request")
	}

	// A second Stop is a no-op, not a panic.
	m.Stop()
}

// TestMonitorContextCancel tests shutdown via context.
func TestMonitorContextCancel(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	m, _, _ := newTestMonitor(t, clock, newFakeVerifier())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.Start(ctx, nil)
	}()

	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not observe cancellation")
	}
}
