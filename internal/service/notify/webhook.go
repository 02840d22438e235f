// Package notify delivers failure verdicts to the Home Assistant webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"printwatch/internal/apperr"
	"printwatch/internal/config"
	"printwatch/internal/dto"
	"printwatch/internal/logger"
	"printwatch/internal/model"
)

const (
	// TimestampLayout is the ISO-8601 local wall-clock format of the payload timestamp.
	TimestampLayout = "2006-01-02T15:04:05.000000"
	// maxLoggedBody bounds how much of the webhook response is logged.
	maxLoggedBody = 512
)

// WebhookNotifier posts error verdicts to a webhook URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *logger.Logger
	now    func() time.Time
}

// NewWebhookNotifier creates a notifier for config.WebhookURL using
// config.WebhookTimeout as the whole-request timeout.
func NewWebhookNotifier(config *config.Config, logger *logger.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    config.WebhookURL,
		client: newHTTPClient(config.WebhookTimeout),
		logger: logger,
		now:    time.Now,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// BuildPayload creates the webhook body for verdict. imagePath is omitted when empty.
func BuildPayload(verdict model.Verdict, imagePath string, now time.Time) dto.WebhookPayload {
	detections := verdict.Detections
	if detections == nil {
		detections = []model.Detection{}
	}
	return dto.WebhookPayload{
		Class:          verdict.MainClass,
		Confidence:     verdict.MainConfidence,
		Detections:     detections,
		Timestamp:      now.Format(TimestampLayout),
		ImageLocalPath: imagePath,
	}
}

// Notify sends the verdict when it is flagged as an error and reports
// whether the webhook accepted it. It never returns an error: every failure
// is logged and reported as false.
func (n *WebhookNotifier) Notify(ctx context.Context, verdict model.Verdict, imagePath string) bool {
	if !verdict.Error {
		n.logger.Debug("No error detected, webhook not sent")
		return false
	}

	payload := BuildPayload(verdict, imagePath, n.now())
	n.logger.Debug("Sending webhook to Home Assistant: %s", n.url)

	if err := n.send(ctx, payload); err != nil {
		n.logger.Error("Error sending webhook to Home Assistant: %v", err)
		return false
	}
	return true
}

func (n *WebhookNotifier) send(ctx context.Context, payload dto.WebhookPayload) error {
	const op = "notify.send"

	body, err := json.Marshal(payload)
	if err != nil {
		return apperr.Wrap(apperr.KindNotify, op, "cannot encode payload", err)
	}
	n.logger.Debug("Payload: %s", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return apperr.Wrap(apperr.KindNotify, op, "cannot build webhook request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindNotify, op, "webhook request failed", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	n.logger.Debug("Webhook response: %d %s", resp.StatusCode, respBody)

	if resp.StatusCode >= http.StatusBadRequest {
		return apperr.New(apperr.KindNotify, op, fmt.Sprintf("webhook returned status %d", resp.StatusCode))
	}
	return nil
}
