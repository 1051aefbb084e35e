package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rryowa/nexus/internal/models"
)

func TestWebhookService_NotifyTokenReuse(t *testing.T) {
	received := make(chan securityEvent, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev securityEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err == nil {
			received <- ev
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	svc := NewWebhookService(zap.NewNop().Sugar(), srv.URL)
	svc.now = fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	svc.NotifyTokenReuse(ctx, "u1", models.ClientMeta{IPAddress: "10.0.0.1", UserAgent: "curl"})
	cancel()

	select {
	case ev := <-received:
		assert.Equal(t, eventRefreshTokenReuse, ev.Event)
		assert.Equal(t, "u1", ev.UserID)
		assert.Equal(t, "10.0.0.1", ev.IPAddress)
		assert.True(t, ev.OccurredAt.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	case <-time.After(5 * time.Second):
		require.FailNow(t, "webhook was not delivered")
	}
}

func TestWebhookService_DisabledWithoutURL(t *testing.T) {
	svc := NewWebhookService(zap.NewNop().Sugar(), "")
	assert.NotPanics(t, func() {
		svc.NotifyTokenReuse(context.Background(), "u1", models.ClientMeta{})
	})
}
