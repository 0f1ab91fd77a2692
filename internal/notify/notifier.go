package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/signalengine/internal/contracts"
	"github.com/wonny/signalengine/pkg/httputil"
	"github.com/wonny/signalengine/pkg/logger"
)

// Webhook posts digests as JSON to a URL
type Webhook struct {
	client *httputil.Client
	url    string
	logger *logger.Logger
}

// NewWebhook creates a webhook notifier
func NewWebhook(client *httputil.Client, url string, log *logger.Logger) *Webhook {
	return &Webhook{
		client: client,
		url:    url,
		logger: log.WithField("module", "notify"),
	}
}

type webhookPayload struct {
	Subject    string             `json:"subject"`
	Message    string             `json:"message"`
	MarketOpen bool               `json:"market_open"`
	Signals    []contracts.Signal `json:"signals"`
}

// Notify delivers the digest. Any non-2xx response is an error.
func (w *Webhook) Notify(ctx context.Context, digest contracts.Digest) error {
	resp, err := w.client.PostJSON(ctx, w.url, webhookPayload{
		Subject:    digest.Subject,
		Message:    digest.Message,
		MarketOpen: digest.MarketOpen,
		Signals:    digest.Signals,
	})
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook rejected digest: status %d", resp.StatusCode)
	}

	w.logger.WithFields(map[string]interface{}{
		"subject": digest.Subject,
		"signals": len(digest.Signals),
	}).Info("Digest delivered")
	return nil
}

// Log writes digests to the logger, for local runs without a webhook
type Log struct {
	logger *logger.Logger
}

// NewLog creates a logging notifier
func NewLog(log *logger.Logger) *Log {
	return &Log{logger: log.WithField("module", "notify")}
}

// Notify logs the digest
func (l *Log) Notify(_ context.Context, digest contracts.Digest) error {
	l.logger.WithFields(map[string]interface{}{
		"subject":     digest.Subject,
		"market_open": digest.MarketOpen,
		"signals":     len(digest.Signals),
		"message":     digest.Message,
	}).Info("Signal digest")
	return nil
}

var (
	_ contracts.Notifier = (*Webhook)(nil)
	_ contracts.Notifier = (*Log)(nil)
)
