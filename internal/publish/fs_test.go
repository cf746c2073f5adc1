package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeStaged(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(raw)
}

func TestFSSwapFreshDestination(t *testing.T) {
	base := t.TempDir()
	staged := filepath.Join(base, "staged", "gen-1")
	live := filepath.Join(base, "live", "view")
	writeStaged(t, staged, map[string]string{"part-00000.ndjson": "a\nb\n"})

	s := NewFSSwapper(nil)
	if err := s.Swap(context.Background(), staged, live); err != nil {
		t.Fatalf("Swap: %v", err)
	}

	if got := readFile(t, filepath.Join(live, "part-00000.ndjson")); got != "a\nb\n" {
		t.Fatalf("live content=%q", got)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatal("staged directory still present after swap")
	}
}

func TestFSSwapReplacesPrevious(t *testing.T) {
	base := t.TempDir()
	staged := filepath.Join(base, "gen-2")
	live := filepath.Join(base, "view")
	writeStaged(t, live, map[string]string{"part-00000.ndjson": "old\n"})
	writeStaged(t, staged, map[string]string{"part-00000.ndjson": "new\n"})

	s := NewFSSwapper(nil)
	if err := s.Swap(context.Background(), staged, live); err != nil {
		t.Fatalf("Swap: %v", err)
	}

	if got := readFile(t, filepath.Join(live, "part-00000.ndjson")); got != "new\n" {
		t.Fatalf("live content=%q, want replaced", got)
	}

	// No set-aside copy of the previous view may linger.
	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatalf("read base: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "view" {
			t.Fatalf("leftover entry %q", e.Name())
		}
	}
}

func TestFSSwapMissingStagedLeavesLiveUntouched(t *testing.T) {
	base := t.TempDir()
	live := filepath.Join(base, "view")
	writeStaged(t, live, map[string]string{"part-00000.ndjson": "old\n"})

	s := NewFSSwapper(nil)
	if err := s.Swap(context.Background(), filepath.Join(base, "absent"), live); err == nil {
		t.Fatal("Swap succeeded, want error")
	}
	if got := readFile(t, filepath.Join(live, "part-00000.ndjson")); got != "old\n" {
		t.Fatalf("live content=%q, want untouched", got)
	}
}

func TestFSSwapCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewFSSwapper(nil)
	if err := s.Swap(ctx, "staged", "live"); err == nil {
		t.Fatal("Swap succeeded on cancelled context")
	}
}
