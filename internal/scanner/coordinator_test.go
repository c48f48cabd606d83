package scanner

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/streamscan/streamscan/internal/model"
)

// TestScanCoordinator tests bounded fan-out across a host list.
func TestScanCoordinator(t *testing.T) {
	t.Parallel()

	t.Run("empty host list returns empty set", func(t *testing.T) {
		t.Parallel()

		c := NewScanCoordinator(nil)
		results, err := c.ScanNetwork(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("expected empty set, got %v", results.URLs())
		}
	})

	t.Run("merges and deduplicates across hosts", func(t *testing.T) {
		t.Parallel()

		port := openPort(t)
		cat := testCatalog(t, map[string]int{"rtsp": port})
		url := "rtsp://127.0.0.1:" + strconv.Itoa(port) + "/live"

		stub := &stubProber{
			protocol:   "rtsp",
			candidates: []model.StreamCandidate{model.NewStreamCandidate(url, "rtsp")},
		}
		scanner := NewHostScanner(cat, testGate(), WithPortPace(0), WithProber(stub))
		c := NewScanCoordinator(scanner, WithHostConcurrency(4))

		// The same host listed twice produces the same URL twice; the
		// merged set must carry it once.
		results, err := c.ScanNetwork(context.Background(), []string{"127.0.0.1", "127.0.0.1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := results.URLs(); len(got) != 1 || got[0] != url {
			t.Errorf("expected exactly [%s], got %v", url, got)
		}

		snap := c.Progress()
		if snap.Scanned != 2 || snap.Successful != 2 || snap.Failed != 0 {
			t.Errorf("unexpected progress: %+v", snap)
		}
		if snap.Percent() != 100 {
			t.Errorf("expected 100%% completion, got %f", snap.Percent())
		}
	})

	t.Run("prober failures count the host as failed", func(t *testing.T) {
		t.Parallel()

		port := openPort(t)
		cat := testCatalog(t, map[string]int{"rtsp": port})

		stub := &stubProber{protocol: "rtsp", err: errors.New("handshake exploded")}
		scanner := NewHostScanner(cat, testGate(), WithPortPace(0), WithProber(stub))
		c := NewScanCoordinator(scanner)

		results, err := c.ScanNetwork(context.Background(), []string{"127.0.0.1"})
		if err != nil {
			t.Fatalf("isolated failures must not fail the batch: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("expected empty set, got %v", results.URLs())
		}

		snap := c.Progress()
		if snap.Scanned != 1 || snap.Failed != 1 {
			t.Errorf("unexpected progress: %+v", snap)
		}
	})

	t.Run("cancelled context stops host admission", func(t *testing.T) {
		t.Parallel()

		port := openPort(t)
		cat := testCatalog(t, map[string]int{"rtsp": port})
		stub := &stubProber{protocol: "rtsp"}
		scanner := NewHostScanner(cat, testGate(), WithPortPace(0), WithProber(stub))
		c := NewScanCoordinator(scanner)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		results, err := c.ScanNetwork(ctx, []string{"127.0.0.1", "127.0.0.2"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(results) != 0 {
			t.Errorf("expected empty partial set, got %v", results.URLs())
		}
		if got := stub.calls.Load(); got != 0 {
			t.Errorf("expected no prober calls after cancellation, got %d", got)
		}

		// Hosts whose goroutines never scanned must not move the
		// counters.
		snap := c.Progress()
		if snap.Scanned != 0 || snap.Successful != 0 || snap.Failed != 0 {
			t.Errorf("expected untouched counters after cancellation, got %+v", snap)
		}
	})
}
