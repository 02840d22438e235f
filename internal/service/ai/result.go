package ai

import (
	"context"
	"image"
)

// PredictSubdir is the fixed folder under the results directory that receives
// annotated frames. It is reused by every call.
const PredictSubdir = "predict"

// Box is one raw detection as produced by the model.
type Box struct {
	ClassID    int
	Confidence float64
	Rect       image.Rectangle
}

// Result is the native output of one inference call. Names maps class ids
// to labels; ids missing from it have no known label.
type Result struct {
	Boxes         []Box
	Names         map[int]string
	AnnotatedPath string
}

// Detector runs the pretrained model on a frame stored on disk.
type Detector interface {
	Detect(ctx context.Context, imagePath string) (*Result, error)
	Close() error
}
