package dto

import "printwatch/internal/model"

// CheckResponse is the body of /check.
type CheckResponse struct {
	Success bool                 `json:"success"`
	Result  *model.CaptureResult `json:"result,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status string `json:"status"`
}
