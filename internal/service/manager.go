package service

import (
	"context"
	"sync"
	"time"

	"printwatch/internal/apperr"
	"printwatch/internal/config"
	"printwatch/internal/logger"
	"printwatch/internal/model"
	"printwatch/internal/repository"
	"printwatch/internal/service/ai"
	"printwatch/internal/service/capture"
	"printwatch/internal/service/summary"

	"github.com/google/uuid"
)

// Notifier delivers an error verdict to the home automation hub.
type Notifier interface {
	Notify(ctx context.Context, verdict model.Verdict, imagePath string) bool
}

// ResultBroadcaster pushes finished cycles to live viewers.
type ResultBroadcaster interface {
	BroadcastResult(result *model.CaptureResult)
}

// FramePruner removes old frames and reports which paths are gone.
type FramePruner interface {
	Prune(max int) ([]string, error)
}

// Manager runs capture-and-check cycles. History, viewers and frame
// rotation are optional; a nil dependency turns that step off.
type Manager struct {
	source        capture.FrameSource
	detector      ai.Detector
	notifier      Notifier
	rules         summary.Rules
	checkRepo     repository.CheckRepository
	detectionRepo repository.DetectionRepository
	broadcaster   ResultBroadcaster
	frames        FramePruner
	maxFrames     int
	logger        *logger.Logger

	now   func() time.Time
	newID func() string

	mu sync.Mutex // one cycle at a time
}

func NewManager(config *config.Config, source capture.FrameSource, detector ai.Detector, notifier Notifier,
	checkRepo repository.CheckRepository, detectionRepo repository.DetectionRepository,
	broadcaster ResultBroadcaster, frames FramePruner, logger *logger.Logger) *Manager {
	return &Manager{
		source:        source,
		detector:      detector,
		notifier:      notifier,
		rules:         summary.RulesFromConfig(config),
		checkRepo:     checkRepo,
		detectionRepo: detectionRepo,
		broadcaster:   broadcaster,
		frames:        frames,
		maxFrames:     config.MaxFrames,
		logger:        logger,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// CaptureAndCheck grabs one frame, runs the detector on it, summarizes the
// detections and notifies the hub when the verdict is an error. Capture and
// inference failures end the cycle; a failed notification does not.
// Cancelling ctx does not abort a cycle: once started it always runs to the
// end, webhook included. Failures are logged here, callers only report them.
func (m *Manager) CaptureAndCheck(ctx context.Context) (*model.CaptureResult, error) {
	const op = "manager.CaptureAndCheck"

	// A client hanging up on /check must not drop the webhook.
	ctx = context.WithoutCancel(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	imagePath, err := m.source.GrabFrame(ctx)
	if err != nil {
		m.logger.Error("Frame capture failed: %v", err)
		return nil, apperr.Wrap(apperr.KindCapture, op, "frame capture failed", err)
	}
	m.logger.Debug("Captured frame %s", imagePath)

	raw, err := m.detector.Detect(ctx, imagePath)
	if err != nil {
		m.logger.Error("Inference failed for %s: %v", imagePath, err)
		return nil, apperr.Wrap(apperr.KindInference, op, "inference failed", err)
	}

	verdict := summary.Summarize(raw, m.rules)

	notified := false
	if verdict.Error {
		m.logger.Warning("Print failure detected: %s (%.2f)", verdict.MainClassName(), *verdict.MainConfidence)
		notified = m.notifier.Notify(ctx, verdict, imagePath)
	}

	result := &model.CaptureResult{
		ID:        m.newID(),
		ImagePath: imagePath,
		CheckedAt: m.now(),
		Verdict:   verdict,
	}
	if raw != nil {
		result.AnnotatedPath = raw.AnnotatedPath
	}

	m.logger.Info("Check %s: %d detection(s), error=%t warning=%t",
		result.ID, len(verdict.Detections), verdict.Error, verdict.Warning)

	m.record(result, notified)
	if m.broadcaster != nil {
		m.broadcaster.BroadcastResult(result)
	}
	m.prune()

	return result, nil
}

// record stores the cycle in the history database. Failures are only logged.
func (m *Manager) record(result *model.CaptureResult, notified bool) {
	if m.checkRepo == nil {
		return
	}

	if err := m.checkRepo.Insert(model.NewCheckRecord(result, notified)); err != nil {
		m.logger.Error("Error saving check %s: %v", result.ID, err)
		return
	}

	if m.detectionRepo != nil && len(result.Detections) > 0 {
		if err := m.detectionRepo.InsertBatch(result.ID, result.Detections); err != nil {
			m.logger.Error("Error saving detections for check %s: %v", result.ID, err)
		}
	}
}

// prune keeps the frames directory within maxFrames and drops the history
// of the deleted frames.
func (m *Manager) prune() {
	if m.frames == nil || m.maxFrames <= 0 {
		return
	}

	removed, err := m.frames.Prune(m.maxFrames)
	if err != nil {
		m.logger.Error("Error pruning frames: %v", err)
		return
	}

	if m.checkRepo == nil {
		return
	}
	for _, path := range removed {
		if err := m.checkRepo.DeleteByImagePath(path); err != nil {
			m.logger.Error("Error deleting history of %s: %v", path, err)
		}
	}
}
