package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"printwatch/internal/config"
	"printwatch/internal/logger"
	"printwatch/internal/model"
)

func newTestNotifier(url string, timeout time.Duration) *WebhookNotifier {
	cfg := &config.Config{WebhookURL: url, WebhookTimeout: timeout}
	n := NewWebhookNotifier(cfg, logger.NewWithWriter(io.Discard, false))
	n.now = func() time.Time { return time.Date(2025, 6, 15, 14, 30, 5, 123456000, time.Local) }
	return n
}

func errorVerdict() model.Verdict {
	class := "spaghetti"
	conf := 0.93
	return model.Verdict{
		Error: true,
		Detections: []model.Detection{
			{ClassID: 0, ClassName: "spaghetti", Confidence: 0.93},
		},
		MainClass:      &class,
		MainConfidence: &conf,
	}
}

func TestNotify_NoErrorMakesNoRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	n := newTestNotifier(server.URL, time.Second)
	verdict := errorVerdict()
	verdict.Error = false
	verdict.Warning = true

	if n.Notify(context.Background(), verdict, "/frames/frame.jpg") {
		t.Error("Expected false for a non-error verdict")
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("Expected no webhook call, got %d", calls)
	}
}

func TestNotify_SendsPayload(t *testing.T) {
	var got map[string]interface{}
	var contentType, method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := newTestNotifier(server.URL, time.Second)

	if !n.Notify(context.Background(), errorVerdict(), "/frames/frame_20250615_143005.jpg") {
		t.Fatal("Expected delivery to succeed")
	}

	if method != http.MethodPost {
		t.Errorf("Expected POST, got %s", method)
	}
	if contentType != "application/json" {
		t.Errorf("Expected application/json, got %s", contentType)
	}
	if got["class"] != "spaghetti" {
		t.Errorf("Expected class spaghetti, got %v", got["class"])
	}
	if got["confidence"] != 0.93 {
		t.Errorf("Expected confidence 0.93, got %v", got["confidence"])
	}
	if got["timestamp"] != "2025-06-15T14:30:05.123456" {
		t.Errorf("Unexpected timestamp %v", got["timestamp"])
	}
	if got["image_local_path"] != "/frames/frame_20250615_143005.jpg" {
		t.Errorf("Unexpected image path %v", got["image_local_path"])
	}
	detections, ok := got["detections"].([]interface{})
	if !ok || len(detections) != 1 {
		t.Errorf("Expected 1 detection, got %v", got["detections"])
	}
}

func TestNotify_OmitsEmptyImagePath(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer server.Close()

	n := newTestNotifier(server.URL, time.Second)
	if !n.Notify(context.Background(), errorVerdict(), "") {
		t.Fatal("Expected delivery to succeed")
	}

	if _, exists := got["image_local_path"]; exists {
		t.Error("Expected image_local_path to be omitted")
	}
}

func TestNotify_StatusCodes(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusOK, true},
		{http.StatusNoContent, true},
		{http.StatusNotModified, true},
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
		{http.StatusInternalServerError, false},
		{http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			n := newTestNotifier(server.URL, time.Second)
			if got := n.Notify(context.Background(), errorVerdict(), ""); got != tt.want {
				t.Errorf("Notify with status %d = %v, expected %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestNotify_UnreachableEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	n := newTestNotifier(url, time.Second)
	if n.Notify(context.Background(), errorVerdict(), "") {
		t.Error("Expected false for an unreachable endpoint")
	}
}

func TestNotify_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()
	defer close(release)

	n := newTestNotifier(server.URL, 50*time.Millisecond)
	if n.Notify(context.Background(), errorVerdict(), "") {
		t.Error("Expected false when the webhook times out")
	}
}

func TestNotify_EmptyURL(t *testing.T) {
	n := newTestNotifier("", time.Second)
	if n.Notify(context.Background(), errorVerdict(), "") {
		t.Error("Expected false for an unset webhook URL")
	}
}

func TestBuildPayload_NilDetections(t *testing.T) {
	payload := BuildPayload(model.Verdict{Error: true}, "", time.Now())

	if payload.Detections == nil {
		t.Error("Expected empty non-nil detections")
	}
	if payload.Class != nil || payload.Confidence != nil {
		t.Error("Expected nil class and confidence")
	}
}
