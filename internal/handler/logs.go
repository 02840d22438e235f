package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"printwatch/internal/config"
	"printwatch/internal/logger"
)

// ShowLogsHandler serves one of the level log files (info.log, warning.log,
// error.log) as text/plain.
func ShowLogsHandler(cfg *config.Config, filename string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		serveLogFile(w, r, cfg.LogDirectory, filename)
	}
}

// serveLogFile is a helper that sets headers and serves a log file if it exists.
func serveLogFile(w http.ResponseWriter, r *http.Request, logDir, filename string) {
	filePath := filepath.Join(logDir, filename)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Log file not found: " + filename))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	http.ServeFile(w, r, filePath)
}

// RotateLogsHandler starts fresh log files on POST; previous files are kept
// as compressed backups.
func RotateLogsHandler(logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := logger.Rotate(); err != nil {
			logger.Error("Error rotating logs: %v", err)
			http.Error(w, "Error rotating logs", http.StatusInternalServerError)
			return
		}
		logger.Info("Log files rotated")
		w.WriteHeader(http.StatusNoContent)
	}
}
