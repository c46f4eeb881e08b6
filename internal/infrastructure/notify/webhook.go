package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/homeshine/conflict-engine/internal/application/port"
)

// WebhookHook delivers case notifications by POSTing JSON to a configured
// endpoint. Delivery is fire-and-forget: the dispatcher logs and drops any
// error this returns, so a broken endpoint never touches case processing.
type WebhookHook struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookHook creates a webhook notification hook
func NewWebhookHook(url string, timeout time.Duration, logger *zap.Logger) *WebhookHook {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookHook{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Notify posts the event payload to the webhook endpoint
func (h *WebhookHook) Notify(ctx context.Context, eventName string, payload map[string]interface{}) error {
	if h.url == "" {
		return nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"event":   eventName,
		"payload": payload,
		"sent_at": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}

	h.logger.Debug("Notification delivered", zap.String("event", eventName))
	return nil
}

// Verify interface compliance
var _ port.NotificationHook = (*WebhookHook)(nil)
