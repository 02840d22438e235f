package dto

import "printwatch/internal/model"

// WebhookPayload is the JSON body posted to the Home Assistant webhook.
type WebhookPayload struct {
	Class          *string           `json:"class"`
	Confidence     *float64          `json:"confidence"`
	Detections     []model.Detection `json:"detections"`
	Timestamp      string            `json:"timestamp"`
	ImageLocalPath string            `json:"image_local_path,omitempty"`
}
