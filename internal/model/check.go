package model

import "time"

// CaptureResult is the outcome of one capture-and-check cycle.
// The verdict fields are flattened next to image_path in JSON.
type CaptureResult struct {
	ID            string    `json:"id"`
	ImagePath     string    `json:"image_path"`
	AnnotatedPath string    `json:"annotated_path,omitempty"`
	CheckedAt     time.Time `json:"checked_at"`
	Verdict
}

// CheckRecord is a persisted cycle.
type CheckRecord struct {
	ID             string      `json:"id"`
	ImagePath      string      `json:"image_path"`
	AnnotatedPath  string      `json:"annotated_path,omitempty"`
	Error          bool        `json:"error"`
	Warning        bool        `json:"warning"`
	MainClass      *string     `json:"main_class"`
	MainConfidence *float64    `json:"main_confidence"`
	Notified       bool        `json:"notified"`
	CreatedAt      time.Time   `json:"created_at"`
	Detections     []Detection `json:"detections,omitempty"`
}

// NewCheckRecord builds the history entry for result.
func NewCheckRecord(result *CaptureResult, notified bool) *CheckRecord {
	return &CheckRecord{
		ID:             result.ID,
		ImagePath:      result.ImagePath,
		AnnotatedPath:  result.AnnotatedPath,
		Error:          result.Error,
		Warning:        result.Warning,
		MainClass:      result.MainClass,
		MainConfidence: result.MainConfidence,
		Notified:       notified,
		CreatedAt:      result.CheckedAt,
		Detections:     result.Detections,
	}
}
