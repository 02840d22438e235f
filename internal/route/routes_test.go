package route

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"printwatch/internal/config"
	"printwatch/internal/logger"
	"printwatch/internal/model"
	"printwatch/internal/service"
	"printwatch/internal/service/ai"
	"printwatch/internal/service/storage"
)

type brokenSource struct{}

func (brokenSource) GrabFrame(ctx context.Context) (string, error) {
	return "", errors.New("stream unreachable")
}

type unusedDetector struct{}

func (unusedDetector) Detect(ctx context.Context, imagePath string) (*ai.Result, error) {
	return nil, errors.New("not expected")
}

func (unusedDetector) Close() error { return nil }

type silentNotifier struct{}

func (silentNotifier) Notify(ctx context.Context, verdict model.Verdict, imagePath string) bool {
	return false
}

func setupRouter(t *testing.T, token string) http.Handler {
	t.Helper()

	log := logger.NewWithWriter(io.Discard, false)
	cfg := &config.Config{FramesDir: t.TempDir(), LogDirectory: t.TempDir(), APIToken: token}
	manager := service.NewManager(cfg, brokenSource{}, unusedDetector{}, silentNotifier{}, nil, nil, nil, nil, log)
	return SetupRoutes(manager, cfg, log, nil, nil, storage.NewFrameStore(cfg, log), nil)
}

func TestSetupRoutes(t *testing.T) {
	router := setupRouter(t, "")

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/check", http.StatusInternalServerError},
		{http.MethodPost, "/check", http.StatusInternalServerError},
		{http.MethodDelete, "/check", http.StatusMethodNotAllowed},
		{http.MethodGet, "/ultima.jpg", http.StatusNotFound},
		{http.MethodPost, "/ultima.jpg", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/history", http.StatusNotFound},
		{http.MethodGet, "/logs/info", http.StatusNotFound},
		{http.MethodGet, "/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestSetupRoutes_Token(t *testing.T) {
	router := setupRouter(t, "secret")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected open /health, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ultima.jpg", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/ultima.jpg", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 with token and no frames, got %d", rec.Code)
	}
}
