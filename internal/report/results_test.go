package report

import (
	"os"
	"path/filepath"
	"testing"
)

// TestWriteURLList tests the plain-text results file format.
func TestWriteURLList(t *testing.T) {
	t.Parallel()

	t.Run("writes sorted deduplicated lines", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "streams.txt")
		urls := []string{
			"rtsp://192.168.1.30:554/live",
			"http://192.168.1.20:8081/stream/index.m3u8",
			"rtsp://192.168.1.30:554/live",
			"",
		}

		if err := WriteURLList(path, urls); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read back: %v", err)
		}

		want := "http://192.168.1.20:8081/stream/index.m3u8\nrtsp://192.168.1.30:554/live\n"
		if string(data) != want {
			t.Errorf("expected %q, got %q", want, string(data))
		}
	})

	t.Run("empty list produces empty file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "streams.txt")
		if err := WriteURLList(path, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read back: %v", err)
		}
		if len(data) != 0 {
			t.Errorf("expected empty file, got %q", string(data))
		}
	})
}

// TestReadURLList tests reading the results file back.
func TestReadURLList(t *testing.T) {
	t.Parallel()

	t.Run("round-trips written URLs", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "streams.txt")
		urls := []string{
			"rtsp://192.168.1.30:554/live",
			"http://192.168.1.20:8081/stream/index.m3u8",
		}
		if err := WriteURLList(path, urls); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := ReadURLList(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 URLs, got %v", got)
		}
	})

	t.Run("missing file yields empty list", func(t *testing.T) {
		t.Parallel()

		got, err := ReadURLList(filepath.Join(t.TempDir(), "absent.txt"))
		if err != nil {
			t.Fatalf("missing file must not be an error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty list, got %v", got)
		}
	})

	t.Run("blank lines are skipped", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "streams.txt")
		content := "rtsp://192.168.1.30:554/live\n\n  \nhttp://192.168.1.20:8081/stream\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		got, err := ReadURLList(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 URLs, got %v", got)
		}
	})
}
