// Package yolo runs YOLOv8 ONNX models through the OpenCV DNN module.
package yolo

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"printwatch/internal/apperr"
	"printwatch/internal/config"
	"printwatch/internal/logger"
	"printwatch/internal/service/ai"

	"gocv.io/x/gocv"
)

const (
	// NMSThreshold is the IoU above which overlapping boxes of the same class are merged.
	NMSThreshold = 0.45
	// classOffset shifts boxes of different classes apart so NMS never merges them.
	classOffset = 7680
)

// DetectorService wraps a YOLOv8 network loaded once at startup.
type DetectorService struct {
	net           gocv.Net
	inputSize     image.Point
	minConfidence float32
	names         map[int]string
	resultsDir    string
	logger        *logger.Logger
	mu            sync.Mutex
}

var _ ai.Detector = (*DetectorService)(nil)

// NewDetectorService loads the model at config.ModelPath. A missing or
// unreadable model is a configuration error.
func NewDetectorService(config *config.Config, logger *logger.Logger) (*DetectorService, error) {
	service := &DetectorService{
		inputSize:     image.Pt(config.ImgSize, config.ImgSize),
		minConfidence: float32(config.MinConfidence),
		names:         config.ClassNameMap(),
		resultsDir:    config.ResultsDir,
		logger:        logger,
	}

	if err := service.initializeNet(config.ModelPath); err != nil {
		return nil, err
	}
	return service, nil
}

// initializeNet loads the ONNX network and sets backend/target preferences.
func (s *DetectorService) initializeNet(modelPath string) error {
	const op = "yolo.initializeNet"

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return apperr.New(apperr.KindConfig, op, fmt.Sprintf("YOLO model not found in %s", modelPath))
	}

	s.logger.Debug("Loading YOLO model from %s", modelPath)
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return apperr.New(apperr.KindConfig, op, fmt.Sprintf("failed to load YOLO model from %s", modelPath))
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return apperr.New(apperr.KindConfig, op, "failed to set preferable backend or target")
	}

	s.net = net
	s.logger.Info("Detection network initialized (%dx%d, min confidence %.2f)", s.inputSize.X, s.inputSize.Y, s.minConfidence)
	return nil
}

// Detect runs the network on the frame at imagePath and saves an annotated
// copy under <results>/predict. gocv.Net is not safe for concurrent use, so
// calls are serialized.
func (s *DetectorService) Detect(ctx context.Context, imagePath string) (*ai.Result, error) {
	const op = "yolo.Detect"

	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInference, op, "inference cancelled", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("Running inference on %s", imagePath)

	img := gocv.IMRead(imagePath, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return nil, apperr.New(apperr.KindInference, op, fmt.Sprintf("cannot read image %s", imagePath))
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0, s.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")

	output := s.net.Forward("")
	defer output.Close()

	// YOLOv8 output: [1, 4+classes, candidates]
	dims := output.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, apperr.New(apperr.KindInference, op, fmt.Sprintf("unexpected model output shape %v", dims))
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInference, op, "cannot read model output", err)
	}

	scaleX := float32(img.Cols()) / float32(s.inputSize.X)
	scaleY := float32(img.Rows()) / float32(s.inputSize.Y)
	candidates := decodeOutput(data, dims[1], dims[2], s.minConfidence, scaleX, scaleY)
	boxes := s.suppress(candidates, image.Rect(0, 0, img.Cols(), img.Rows()))

	annotatedPath, err := s.saveAnnotated(img, boxes, imagePath)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Inference on %s found %d object(s)", imagePath, len(boxes))

	return &ai.Result{
		Boxes:         boxes,
		Names:         s.names,
		AnnotatedPath: annotatedPath,
	}, nil
}

// suppress applies per-class non-maximum suppression and clips the kept boxes
// to the frame bounds. The kept boxes are ordered by descending confidence.
func (s *DetectorService) suppress(candidates []ai.Box, bounds image.Rectangle) []ai.Box {
	if len(candidates) == 0 {
		return []ai.Box{}
	}

	rects := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		offset := image.Pt(c.ClassID*classOffset, c.ClassID*classOffset)
		rects[i] = c.Rect.Add(offset)
		scores[i] = float32(c.Confidence)
	}

	indices := gocv.NMSBoxes(rects, scores, s.minConfidence, NMSThreshold)

	boxes := make([]ai.Box, 0, len(indices))
	for _, idx := range indices {
		box := candidates[idx]
		box.Rect = box.Rect.Intersect(bounds)
		boxes = append(boxes, box)
	}
	return boxes
}

// saveAnnotated draws the boxes on a copy of the frame and writes it to the
// fixed predict folder, overwriting any previous file with the same name.
func (s *DetectorService) saveAnnotated(img gocv.Mat, boxes []ai.Box, imagePath string) (string, error) {
	const op = "yolo.saveAnnotated"

	dir := filepath.Join(s.resultsDir, ai.PredictSubdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperr.Wrap(apperr.KindInference, op, "cannot create results directory", err)
	}

	annotated := img.Clone()
	defer annotated.Close()

	if err := s.drawBoxes(&annotated, boxes); err != nil {
		return "", apperr.Wrap(apperr.KindInference, op, "cannot annotate frame", err)
	}

	path := filepath.Join(dir, filepath.Base(imagePath))
	if !gocv.IMWrite(path, annotated) {
		return "", apperr.New(apperr.KindInference, op, fmt.Sprintf("cannot save annotated frame to %s", path))
	}
	return path, nil
}

// drawBoxes draws every detection with its label and confidence.
func (s *DetectorService) drawBoxes(mat *gocv.Mat, boxes []ai.Box) error {
	red := color.RGBA{R: 255, G: 0, B: 0, A: 0}

	for _, box := range boxes {
		if err := gocv.Rectangle(mat, box.Rect, red, 2); err != nil {
			return fmt.Errorf("failed to draw rectangle: %w", err)
		}

		label := fmt.Sprintf("%s %.2f", s.className(box.ClassID), box.Confidence)
		pt := image.Pt(box.Rect.Min.X, box.Rect.Min.Y-5)
		if err := gocv.PutText(mat, label, pt, gocv.FontHersheySimplex, 0.5, red, 1); err != nil {
			return fmt.Errorf("failed to draw text: %w", err)
		}
	}
	return nil
}

func (s *DetectorService) className(id int) string {
	if name, ok := s.names[id]; ok {
		return name
	}
	return fmt.Sprintf("%d", id)
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Close()
}

// decodeOutput turns the transposed YOLOv8 tensor into candidate boxes in
// frame coordinates. data is laid out channel-major: data[c*count+i] is
// channel c of candidate i, channels 0-3 being cx, cy, w, h in model input
// pixels and the rest one score per class.
func decodeOutput(data []float32, channels, count int, minConfidence, scaleX, scaleY float32) []ai.Box {
	var boxes []ai.Box

	for i := 0; i < count; i++ {
		bestScore := float32(0)
		bestClass := 0
		for c := 4; c < channels; c++ {
			if score := data[c*count+i]; score > bestScore {
				bestScore = score
				bestClass = c - 4
			}
		}

		if bestScore < minConfidence {
			continue
		}

		cx := data[0*count+i]
		cy := data[1*count+i]
		w := data[2*count+i]
		h := data[3*count+i]

		boxes = append(boxes, ai.Box{
			ClassID:    bestClass,
			Confidence: float64(bestScore),
			Rect: image.Rect(
				int((cx-w/2)*scaleX),
				int((cy-h/2)*scaleY),
				int((cx+w/2)*scaleX),
				int((cy+h/2)*scaleY),
			),
		})
	}

	return boxes
}
