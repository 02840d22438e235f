package route

import (
	"net/http"

	"printwatch/internal/config"
	"printwatch/internal/handler"
	"printwatch/internal/logger"
	"printwatch/internal/middleware"
	"printwatch/internal/repository"
	"printwatch/internal/service"
	"printwatch/internal/service/storage"
	"printwatch/internal/service/websocket"
)

// SetupRoutes registers the check endpoints, the history API, the live feed
// and log access, and wraps the mux with the token middleware. History
// routes are only mounted when checkRepo is set.
func SetupRoutes(manager *service.Manager, cfg *config.Config, logger *logger.Logger,
	checkRepo repository.CheckRepository, detectionRepo repository.DetectionRepository,
	frames *storage.FrameStore, hub *websocket.HubService) http.Handler {
	mux := http.NewServeMux()

	// Core endpoints
	mux.HandleFunc("/health", handler.HealthHandler())
	mux.HandleFunc("/check", handler.CheckHandler(manager, logger))
	mux.HandleFunc("/ultima.jpg", handler.LatestFrameHandler(frames, logger))

	// API endpoints
	if checkRepo != nil {
		mux.HandleFunc("/api/history", handler.GetHistoryHandler(logger, checkRepo, detectionRepo, frames))
		mux.HandleFunc("/api/history/view", handler.ViewCheckHandler(logger, checkRepo, detectionRepo))
	}
	if hub != nil {
		mux.HandleFunc("/api/live", handler.LiveWebsocketHandler(hub, logger))
	}

	// Log endpoints
	mux.HandleFunc("/logs/info", handler.ShowLogsHandler(cfg, "info.log"))
	mux.HandleFunc("/logs/warning", handler.ShowLogsHandler(cfg, "warning.log"))
	mux.HandleFunc("/logs/error", handler.ShowLogsHandler(cfg, "error.log"))
	mux.HandleFunc("/logs/rotate", handler.RotateLogsHandler(logger))

	// Apply middleware
	return middleware.AuthMiddleware(cfg.APIToken, mux)
}
