package notify

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// ErrWebhookNotConfigured is returned by Send when no webhook URL is set
var ErrWebhookNotConfigured = errors.New("slack webhook not configured")

// Slack posts plain text alerts to an incoming webhook
type Slack struct {
	url        string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewSlack creates a webhook client. An empty url yields a disabled client.
func NewSlack(url string, logger zerolog.Logger) *Slack {
	return &Slack{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With().Str("channel", "slack").Logger(),
	}
}

// Enabled reports whether a webhook URL is configured
func (s *Slack) Enabled() bool {
	return s != nil && s.url != ""
}

// Send posts text to the webhook
func (s *Slack) Send(ctx context.Context, text string) error {
	if !s.Enabled() {
		return ErrWebhookNotConfigured
	}
	s.logger.Debug().Msg("sending slack notification")
	return slack.PostWebhookCustomHTTPContext(ctx, s.url, s.httpClient, &slack.WebhookMessage{Text: text})
}
