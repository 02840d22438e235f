package handler

import (
	"net/http"
	"os"
	"strconv"

	"printwatch/internal/apperr"
	"printwatch/internal/logger"
)

// FrameLocator finds the most recently saved frame.
type FrameLocator interface {
	Latest() (string, error)
}

// LatestFrameHandler serves the newest frame on disk as JPEG. It never opens
// the camera stream.
func LatestFrameHandler(frames FrameLocator, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		path, err := frames.Latest()
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			logger.Error("Error locating latest frame: %v", err)
			http.Error(w, "Error reading latest frame: "+err.Error(), http.StatusInternalServerError)
			return
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("Error reading frame %s: %v", path, err)
			http.Error(w, "Error reading latest frame: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Cache-Control", "no-store")
		w.Write(data)
	}
}
