package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rryowa/nexus/internal/models"
)

const (
	webhookTimeout = 5 * time.Second

	eventRefreshTokenReuse = "session.refresh_token_reused"
)

// securityEvent is the JSON body posted to WEBHOOK_URL.
type securityEvent struct {
	Event      string    `json:"event"`
	UserID     string    `json:"userId"`
	IPAddress  string    `json:"ipAddress,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// WebhookService posts security events to an external endpoint. An empty URL disables it.
type WebhookService struct {
	client     *http.Client
	log        *zap.SugaredLogger
	webhookURL string
	now        func() time.Time
}

func NewWebhookService(log *zap.SugaredLogger, webhookURL string) *WebhookService {
	return &WebhookService{
		client:     &http.Client{Timeout: webhookTimeout},
		log:        log,
		webhookURL: webhookURL,
		now:        time.Now,
	}
}

// NotifyTokenReuse reports that every session of userID was revoked. Delivery
// runs in the background and outlives ctx.
func (s *WebhookService) NotifyTokenReuse(ctx context.Context, userID string, meta models.ClientMeta) {
	if s.webhookURL == "" {
		return
	}
	event := securityEvent{
		Event:      eventRefreshTokenReuse,
		UserID:     userID,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		OccurredAt: s.now().UTC(),
	}
	go s.deliver(context.WithoutCancel(ctx), event)
}

func (s *WebhookService) deliver(ctx context.Context, event securityEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Errorw("failed to marshal webhook payload", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		s.log.Errorw("failed to create webhook request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Errorw("failed to send webhook", "event", event.Event, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		s.log.Warnw("webhook returned non-2xx status", "event", event.Event, "status", resp.StatusCode)
	}
}
