package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"printwatch/internal/config"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, false)

	l.Debug("hidden %d", 1)
	l.Info("info %s", "line")
	l.Warning("warning line")
	l.Error("error %v", "line")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Expected debug entry to be suppressed")
	}
	for _, want := range []string{"INFO", "info line", "WARNING", "warning line", "ERROR", "error line"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "logger_test.go") {
		t.Errorf("Expected caller file in output, got:\n%s", out)
	}
}

func TestLogger_Debug(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, true)

	l.Debug("visible %d", 2)

	if !l.DebugEnabled() || !strings.Contains(buf.String(), "visible 2") {
		t.Errorf("Expected debug entry, got %q", buf.String())
	}
}

func TestNewLogger_WritesLevelFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l := NewLogger(&config.Config{LogDirectory: dir})
	defer l.Close()

	l.Info("started")
	l.Error("failed")

	info, err := os.ReadFile(filepath.Join(dir, "info.log"))
	if err != nil || !strings.Contains(string(info), "started") {
		t.Errorf("Expected info.log to contain entry, got %q (%v)", info, err)
	}
	errs, err := os.ReadFile(filepath.Join(dir, "error.log"))
	if err != nil || !strings.Contains(string(errs), "failed") {
		t.Errorf("Expected error.log to contain entry, got %q (%v)", errs, err)
	}
}
