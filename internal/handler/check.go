package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"printwatch/internal/dto"
	"printwatch/internal/logger"
	"printwatch/internal/model"
)

// CycleRunner runs one capture-and-check cycle.
type CycleRunner interface {
	CaptureAndCheck(ctx context.Context) (*model.CaptureResult, error)
}

// HealthHandler reports liveness.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok"}, nil)
	}
}

// CheckHandler runs a full cycle on GET or POST /check. Any capture or
// inference failure becomes a 500 carrying the error message; the manager
// has already logged it.
func CheckHandler(manager CycleRunner, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		result, err := manager.CaptureAndCheck(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.CheckResponse{Success: false, Error: err.Error()}, logger)
			return
		}

		writeJSON(w, http.StatusOK, dto.CheckResponse{Success: true, Result: result}, logger)
	}
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}
