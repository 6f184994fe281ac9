package slack

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/couchcryptid/weather-notify/internal/domain"
)

// Sender posts plain-text messages to a Slack incoming webhook.
type Sender struct {
	webhookURL string
	httpClient *http.Client
	dryRun     bool
	out        io.Writer
	logger     *slog.Logger
}

// NewSender creates a webhook sender. With dryRun set, Send makes no network
// call and writes the message to out instead.
func NewSender(webhookURL string, timeout time.Duration, dryRun bool, out io.Writer, logger *slog.Logger) *Sender {
	return &Sender{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
		dryRun:     dryRun,
		out:        out,
		logger:     logger,
	}
}

// DryRun reports whether the sender suppresses network calls.
func (s *Sender) DryRun() bool {
	return s.dryRun
}

// Send posts {"text": message} to the webhook. There is no retry; any
// network failure or non-200 response wraps domain.ErrSend.
func (s *Sender) Send(ctx context.Context, message string) error {
	if s.dryRun {
		rule := strings.Repeat("-", 40)
		fmt.Fprintf(s.out, "%s\n%s\n%s\n", rule, message, rule)
		return nil
	}

	msg := &slackapi.WebhookMessage{Text: message}
	if err := slackapi.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.httpClient, msg); err != nil {
		return fmt.Errorf("%w: post webhook: %w", domain.ErrSend, err)
	}
	s.logger.Debug("webhook posted", "bytes", len(message))
	return nil
}
