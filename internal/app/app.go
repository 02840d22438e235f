package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"printwatch/internal/config"
	"printwatch/internal/logger"
	"printwatch/internal/repository"
	"printwatch/internal/repository/sqlite"
	"printwatch/internal/route"
	"printwatch/internal/service"
	"printwatch/internal/service/ai"
	"printwatch/internal/service/ai/yolo"
	"printwatch/internal/service/capture"
	"printwatch/internal/service/notify"
	"printwatch/internal/service/storage"
	"printwatch/internal/service/websocket"
)

const shutdownTimeout = 10 * time.Second

// App holds everything built at startup. Handlers receive what they need
// from it; nothing is kept in package globals.
type App struct {
	config        *config.Config
	logger        *logger.Logger
	db            *sqlite.DB
	detector      ai.Detector
	frameStore    *storage.FrameStore
	hubService    *websocket.HubService
	checkRepo     repository.CheckRepository
	detectionRepo repository.DetectionRepository
	manager       *service.Manager
}

// NewApp loads the configuration and builds the application. Configuration
// errors (missing config file, missing model) are returned before anything
// is served.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// New builds the application from an already loaded configuration.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.NewLogger(cfg)
	if unknown := cfg.UnknownClasses(); len(unknown) > 0 {
		log.Warning("Classes %v are not listed in class_names and will never trigger error or warning", unknown)
	}

	detector, err := yolo.NewDetectorService(cfg, log)
	if err != nil {
		log.Close()
		return nil, err
	}

	a := &App{
		config:     cfg,
		logger:     log,
		detector:   detector,
		frameStore: storage.NewFrameStore(cfg, log),
		hubService: websocket.NewHubService(log),
	}

	if cfg.DatabasePath != "" {
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		a.db = db
		a.checkRepo = sqlite.NewCheckRepository(db)
		a.detectionRepo = sqlite.NewDetectionRepository(db)
	} else {
		log.Warning("DB_PATH is empty - check history disabled")
	}

	a.manager = service.NewManager(cfg,
		capture.NewStreamSource(cfg, log),
		detector,
		notify.NewWebhookNotifier(cfg, log),
		a.checkRepo,
		a.detectionRepo,
		a.hubService,
		a.frameStore,
		log,
	)

	return a, nil
}

// Manager returns the capture-and-check orchestrator.
func (a *App) Manager() *service.Manager {
	return a.manager
}

// Run serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start background services
	go a.hubService.Run(ctx)

	// Setup routes
	router := route.SetupRoutes(a.manager, a.config, a.logger, a.checkRepo, a.detectionRepo, a.frameStore, a.hubService)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("🚀 Print Watch Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📷 Stream: %s\n", a.config.StreamURL)
	fmt.Printf("📁 Frames: %s\n", a.config.FramesDir)
	fmt.Printf("🤖 AI Model: %s\n", a.config.ModelPath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// Close releases the model, the database and the log files.
func (a *App) Close() error {
	var errs []error
	if a.detector != nil {
		errs = append(errs, a.detector.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.logger != nil {
		errs = append(errs, a.logger.Close())
	}
	return errors.Join(errs...)
}
