package prober

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/streamscan/streamscan/internal/catalog"
)

// rtspFixture runs a minimal RTSP server that answers 200 OK for the
// given paths and 404 for everything else.
func rtspFixture(t *testing.T, okPaths ...string) (host string, port int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()

				line, err := bufio.NewReader(c).ReadString('\n')
				if err != nil {
					return
				}

				// Request line: OPTIONS rtsp://host:port/path RTSP/1.0
				ok := false
				for _, p := range okPaths {
					if strings.Contains(line, "/"+p+" ") {
						ok = true
						break
					}
				}

				if ok {
					_, _ = c.Write([]byte("RTSP/1.0 200 OK\r\nCSeq: 1\r\nPublic: OPTIONS, DESCRIBE, SETUP, PLAY\r\n\r\n"))
				} else {
					_, _ = c.Write([]byte("RTSP/1.0 404 Not Found\r\nCSeq: 1\r\n\r\n"))
				}
			}(conn)
		}
	}()

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("failed to split addr: %v", err)
	}
	p, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("failed to parse port: %v", err)
	}
	return "127.0.0.1", p
}

// rtspTestSpec returns a small catalog spec for fixture probing.
func rtspTestSpec(paths ...string) catalog.Spec {
	return catalog.Spec{
		Name:    "rtsp",
		Paths:   paths,
		Timeout: 2 * time.Second,
		Retries: 2,
	}
}

// TestRTSPProber tests the OPTIONS handshake prober.
func TestRTSPProber(t *testing.T) {
	t.Parallel()

	t.Run("confirms exactly the answering path", func(t *testing.T) {
		t.Parallel()

		host, port := rtspFixture(t, "live")

		p := NewRTSPProber(rtspTestSpec("live", "stream", "cam"), WithRetryDelay(10*time.Millisecond))
		candidates, err := p.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := "rtsp://" + host + ":" + strconv.Itoa(port) + "/live"
		if len(candidates) != 1 {
			t.Fatalf("expected exactly 1 candidate, got %d: %v", len(candidates), candidates)
		}
		if candidates[0].URL != want {
			t.Errorf("expected %q, got %q", want, candidates[0].URL)
		}
		if candidates[0].Confidence.String() != "CONFIRMED" {
			t.Errorf("expected CONFIRMED, got %s", candidates[0].Confidence)
		}
	})

	t.Run("no answering path yields no candidates", func(t *testing.T) {
		t.Parallel()

		host, port := rtspFixture(t)

		p := NewRTSPProber(rtspTestSpec("live"), WithRetryDelay(time.Millisecond))
		candidates, err := p.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(candidates) != 0 {
			t.Errorf("expected no candidates, got %v", candidates)
		}
	})

	t.Run("unreachable port yields no candidates and no error", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		_, portStr, _ := net.SplitHostPort(ln.Addr().String())
		port, _ := strconv.Atoi(portStr)
		_ = ln.Close()

		spec := rtspTestSpec("live")
		spec.Retries = 1
		p := NewRTSPProber(spec, WithRetryDelay(time.Millisecond))

		candidates, err := p.Probe(context.Background(), "127.0.0.1", port)
		if err != nil {
			t.Fatalf("connection failure must not be an error: %v", err)
		}
		if len(candidates) != 0 {
			t.Errorf("expected no candidates, got %v", candidates)
		}
	})

	t.Run("two consecutive probes produce identical results", func(t *testing.T) {
		t.Parallel()

		host, port := rtspFixture(t, "live", "cam")

		p := NewRTSPProber(rtspTestSpec("live", "stream", "cam"), WithRetryDelay(time.Millisecond))
		first, err := p.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := p.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(first) != len(second) {
			t.Fatalf("probe not idempotent: %d vs %d candidates", len(first), len(second))
		}
		for i := range first {
			if first[i].URL != second[i].URL {
				t.Errorf("candidate %d differs: %q vs %q", i, first[i].URL, second[i].URL)
			}
		}
	})
}
