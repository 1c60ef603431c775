// Package notifications delivers answer events to webhook subscribers.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/ziadkadry99/udaplay/internal/logging"
	"github.com/ziadkadry99/udaplay/internal/output"
)

// Dispatcher POSTs webhook events to a fixed set of subscriber URLs.
type Dispatcher struct {
	urls   []string
	client *resty.Client
	logger *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = logging.OrNop(l) }
}

// WithTimeout sets the per-delivery timeout.
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.client.SetTimeout(t)
		}
	}
}

// NewDispatcher creates a Dispatcher for urls. Empty entries are ignored.
func NewDispatcher(urls []string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client: resty.New().
			SetTimeout(10*time.Second).
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", "udaplay-webhook"),
		logger: zap.NewNop(),
	}
	for _, u := range urls {
		if u != "" {
			d.urls = append(d.urls, u)
		}
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enabled reports whether any subscriber is configured.
func (d *Dispatcher) Enabled() bool { return len(d.urls) > 0 }

// Dispatch sends event to every subscriber. One failed delivery does not
// stop the others; all failures are joined into the returned error.
func (d *Dispatcher) Dispatch(ctx context.Context, event output.Webhook) error {
	var errs []error
	for _, url := range d.urls {
		if err := d.SendWebhook(ctx, url, event); err != nil {
			d.logger.Warn("webhook delivery failed",
				zap.String("url", url),
				zap.String("event_id", event.EventID),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		d.logger.Debug("webhook delivered", zap.String("url", url), zap.String("event_type", event.EventType))
	}
	return errors.Join(errs...)
}

// SendWebhook POSTs payload as JSON to url.
func (d *Dispatcher) SendWebhook(ctx context.Context, url string, payload any) error {
	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(url)
	if err != nil {
		return fmt.Errorf("sending webhook to %s: %w", url, err)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("webhook %s returned status %d", url, resp.StatusCode())
	}
	return nil
}
