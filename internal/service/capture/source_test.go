package capture

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"printwatch/internal/apperr"
	"printwatch/internal/config"
	"printwatch/internal/logger"
)

func newTestSource(t *testing.T, streamURL, framesDir string) *StreamSource {
	t.Helper()

	cfg := &config.Config{StreamURL: streamURL, FramesDir: framesDir}
	return NewStreamSource(cfg, logger.NewWithWriter(io.Discard, false))
}

func TestFrameName(t *testing.T) {
	ts := time.Date(2025, 3, 7, 9, 5, 2, 0, time.Local)

	if got := FrameName(ts); got != "frame_20250307_090502.jpg" {
		t.Errorf("FrameName = %q, expected frame_20250307_090502.jpg", got)
	}
}

func TestParseFrameName(t *testing.T) {
	ts := time.Date(2025, 12, 31, 23, 59, 58, 0, time.Local)

	got, err := ParseFrameName(filepath.Join("frames", FrameName(ts)))
	if err != nil {
		t.Fatalf("ParseFrameName failed: %v", err)
	}
	if !got.Equal(ts) {
		t.Errorf("Expected %v, got %v", ts, got)
	}
}

func TestParseFrameName_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"image.jpg",
		"frame_2025.jpg",
		"frame_20250101_120000.png",
		"snapshot_20250101_120000.jpg",
	}

	for _, name := range invalid {
		if _, err := ParseFrameName(name); err == nil {
			t.Errorf("Expected %q to be rejected", name)
		}
	}
}

func TestFrameNamesSortChronologically(t *testing.T) {
	earlier := FrameName(time.Date(2025, 1, 9, 23, 0, 0, 0, time.Local))
	later := FrameName(time.Date(2025, 1, 10, 1, 0, 0, 0, time.Local))

	if !(earlier < later) {
		t.Errorf("Expected %s < %s", earlier, later)
	}
}

func TestGrabFrame_UnreadableStream(t *testing.T) {
	framesDir := filepath.Join(t.TempDir(), "frames")
	source := newTestSource(t, filepath.Join(t.TempDir(), "missing.mjpg"), framesDir)

	path, err := source.GrabFrame(context.Background())
	if err == nil {
		t.Fatalf("Expected capture error, got path %s", path)
	}
	if !apperr.IsKind(err, apperr.KindCapture) {
		t.Errorf("Expected capture error, got %v", err)
	}

	if info, statErr := os.Stat(framesDir); statErr != nil || !info.IsDir() {
		t.Errorf("Expected frames directory to be created: %v", statErr)
	}
	entries, _ := os.ReadDir(framesDir)
	if len(entries) != 0 {
		t.Errorf("Expected no frame files, got %d", len(entries))
	}
}

func TestGrabFrame_FramesDirNotCreatable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	source := newTestSource(t, "unused", filepath.Join(blocker, "frames"))

	_, err := source.GrabFrame(context.Background())
	if !apperr.IsKind(err, apperr.KindWrite) {
		t.Errorf("Expected write error, got %v", err)
	}
}

func TestGrabFrame_Cancelled(t *testing.T) {
	source := newTestSource(t, "unused", t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := source.GrabFrame(ctx); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
