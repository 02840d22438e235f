// Package capture grabs still frames from the printer camera stream.
package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"printwatch/internal/apperr"
	"printwatch/internal/config"
	"printwatch/internal/logger"

	"gocv.io/x/gocv"
)

const (
	// FramePrefix and FrameExt delimit the frame file names.
	FramePrefix = "frame_"
	FrameExt    = ".jpg"
	// FrameTimeLayout is the timestamp part of a frame file name.
	FrameTimeLayout = "20060102_150405"
)

// FrameSource captures one frame on demand and returns where it was stored.
type FrameSource interface {
	GrabFrame(ctx context.Context) (string, error)
}

// StreamSource opens the configured stream for every capture, reads exactly
// one frame and releases the stream before returning.
type StreamSource struct {
	streamURL string
	framesDir string
	logger    *logger.Logger
	now       func() time.Time
}

var _ FrameSource = (*StreamSource)(nil)

// NewStreamSource creates a StreamSource for config.StreamURL.
func NewStreamSource(config *config.Config, logger *logger.Logger) *StreamSource {
	return &StreamSource{
		streamURL: config.StreamURL,
		framesDir: config.FramesDir,
		logger:    logger,
		now:       time.Now,
	}
}

// GrabFrame stores a single frame as frame_<YYYYMMDD_HHMMSS>.jpg in the frames
// directory. There is no retry: a failed read fails the call.
func (s *StreamSource) GrabFrame(ctx context.Context) (string, error) {
	const op = "capture.GrabFrame"

	if err := ctx.Err(); err != nil {
		return "", apperr.Wrap(apperr.KindCapture, op, "capture cancelled", err)
	}

	if err := os.MkdirAll(s.framesDir, 0755); err != nil {
		return "", apperr.Wrap(apperr.KindWrite, op, "cannot create frames directory", err)
	}

	s.logger.Debug("Opening stream: %s", s.streamURL)

	frame, err := s.readFrame()
	if err != nil {
		return "", err
	}
	defer frame.Close()

	path := filepath.Join(s.framesDir, FrameName(s.now()))
	if !gocv.IMWrite(path, frame) {
		return "", apperr.New(apperr.KindWrite, op, fmt.Sprintf("cannot save frame to %s", path))
	}

	s.logger.Debug("Frame saved to %s", path)
	return path, nil
}

// readFrame reads one frame; the stream is closed on every path.
func (s *StreamSource) readFrame() (gocv.Mat, error) {
	const op = "capture.readFrame"

	stream, err := gocv.OpenVideoCapture(s.streamURL)
	if err != nil {
		return gocv.Mat{}, apperr.Wrap(apperr.KindCapture, op, "cannot open stream", err)
	}
	defer stream.Close()

	frame := gocv.NewMat()
	if ok := stream.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		return gocv.Mat{}, apperr.New(apperr.KindCapture, op, "cannot read frame from stream")
	}
	return frame, nil
}

// FrameName returns the file name of a frame captured at t.
func FrameName(t time.Time) string {
	return FramePrefix + t.Format(FrameTimeLayout) + FrameExt
}

// ParseFrameName extracts the capture time from a frame file name.
// The time is interpreted in the local time zone, as FrameName formats it.
func ParseFrameName(name string) (time.Time, error) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, FramePrefix) || !strings.HasSuffix(base, FrameExt) {
		return time.Time{}, fmt.Errorf("not a frame file name: %s", base)
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(base, FramePrefix), FrameExt)
	t, err := time.ParseInLocation(FrameTimeLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid frame timestamp in %s: %w", base, err)
	}
	return t, nil
}
