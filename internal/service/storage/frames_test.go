package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"printwatch/internal/apperr"
	"printwatch/internal/config"
	"printwatch/internal/logger"
)

func setupFrameStore(t *testing.T) (*FrameStore, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{FramesDir: dir}
	return NewFrameStore(cfg, logger.NewWithWriter(io.Discard, false)), dir
}

func createTestFrame(t *testing.T, dir, name string, content []byte) {
	t.Helper()

	if content == nil {
		content = []byte("fake jpeg data")
	}
	if err := os.WriteFile(filepath.Join(dir, name), content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func TestFrameStore_LatestEmptyDirectory(t *testing.T) {
	store, _ := setupFrameStore(t)

	_, err := store.Latest()
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestFrameStore_LatestMissingDirectory(t *testing.T) {
	cfg := &config.Config{FramesDir: filepath.Join(t.TempDir(), "nope")}
	store := NewFrameStore(cfg, logger.NewWithWriter(io.Discard, false))

	_, err := store.Latest()
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestFrameStore_LatestIsLexicographicMax(t *testing.T) {
	store, dir := setupFrameStore(t)
	createTestFrame(t, dir, "frame_20250101_120000.jpg", nil)
	createTestFrame(t, dir, "frame_20250102_080000.jpg", nil)
	createTestFrame(t, dir, "frame_20241231_235959.jpg", nil)
	createTestFrame(t, dir, "zzz_notes.txt", nil)
	if err := os.Mkdir(filepath.Join(dir, "zzz.jpg"), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}

	latest, err := store.Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}

	want := filepath.Join(dir, "frame_20250102_080000.jpg")
	if latest != want {
		t.Errorf("Expected %s, got %s", want, latest)
	}
}

func TestFrameStore_List(t *testing.T) {
	store, dir := setupFrameStore(t)
	createTestFrame(t, dir, "frame_b.jpg", nil)
	createTestFrame(t, dir, "frame_a.jpg", nil)
	createTestFrame(t, dir, "frame_c.png", nil)

	names, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(names) != 2 || names[0] != "frame_a.jpg" || names[1] != "frame_b.jpg" {
		t.Errorf("Unexpected list: %v", names)
	}
}

func TestFrameStore_Prune(t *testing.T) {
	tests := []struct {
		name        string
		files       int
		max         int
		wantRemoved int
	}{
		{"disabled", 5, 0, 0},
		{"under limit", 3, 5, 0},
		{"at limit", 5, 5, 0},
		{"over limit", 7, 4, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, dir := setupFrameStore(t)
			for i := 0; i < tt.files; i++ {
				createTestFrame(t, dir, "frame_2025010"+string(rune('1'+i))+"_000000.jpg", nil)
			}

			removed, err := store.Prune(tt.max)
			if err != nil {
				t.Fatalf("Prune failed: %v", err)
			}
			if len(removed) != tt.wantRemoved {
				t.Errorf("Expected %d removed, got %d", tt.wantRemoved, len(removed))
			}

			names, _ := store.List()
			if len(names) != tt.files-tt.wantRemoved {
				t.Errorf("Expected %d remaining, got %d", tt.files-tt.wantRemoved, len(names))
			}
		})
	}
}

func TestFrameStore_PruneRemovesOldest(t *testing.T) {
	store, dir := setupFrameStore(t)
	createTestFrame(t, dir, "frame_20250101_000000.jpg", nil)
	createTestFrame(t, dir, "frame_20250103_000000.jpg", nil)
	createTestFrame(t, dir, "frame_20250102_000000.jpg", nil)

	removed, err := store.Prune(2)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	if len(removed) != 1 || removed[0] != filepath.Join(dir, "frame_20250101_000000.jpg") {
		t.Errorf("Expected oldest frame removed, got %v", removed)
	}
}

func TestFrameStore_DirectorySize(t *testing.T) {
	store, dir := setupFrameStore(t)
	createTestFrame(t, dir, "frame_1.jpg", make([]byte, 100))
	createTestFrame(t, dir, "frame_2.jpg", make([]byte, 50))
	createTestFrame(t, dir, "other.txt", make([]byte, 1000))

	size, err := store.DirectorySize()
	if err != nil {
		t.Fatalf("DirectorySize failed: %v", err)
	}
	if size != 150 {
		t.Errorf("Expected 150 bytes, got %d", size)
	}
}
