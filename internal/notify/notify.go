// Package notify delivers chat-ops notifications. Sends are
// fire-and-forget: failures are logged and never propagated.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// LogSink writes notifications to the structured log. Used in development
// and as the default when no webhook is configured.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a log-backed sink
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("sink", "log").Logger()}
}

// Send logs the message
func (s *LogSink) Send(_ context.Context, channel, message string) {
	s.log.Info().Str("channel", channel).Msg(message)
}

// WebhookSink posts notifications to a chat webhook
type WebhookSink struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

// NewWebhookSink creates a webhook-backed sink
func NewWebhookSink(url string, log zerolog.Logger) *WebhookSink {
	return &WebhookSink{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log.With().Str("sink", "webhook").Logger(),
	}
}

// Send posts the message. Failures are logged, never returned.
func (s *WebhookSink) Send(ctx context.Context, channel, message string) {
	payload, err := json.Marshal(map[string]string{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode notification")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to build notification request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Str("channel", channel).Msg("Notification delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.log.Warn().
			Int("status", resp.StatusCode).
			Str("channel", channel).
			Msg("Notification rejected")
	}
}
