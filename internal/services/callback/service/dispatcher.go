// Package service implements result delivery to the configured callback URL
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	perr "inferd/internal/platform/errors"
	"inferd/internal/platform/logger"
)

// SignatureHeader carries the payload HMAC on outbound deliveries
const SignatureHeader = "X-Signature"

// Config for the dispatcher
type Config struct {
	URL        string        // delivery endpoint, required
	Secret     string        // HMAC key; empty disables signing
	Timeout    time.Duration // per-attempt POST deadline
	MaxRetries int           // extra attempts after the first failure
}

// Dispatcher posts finished batches to the callback endpoint, signing the
// exact serialized bytes when a shared secret is configured
type Dispatcher struct {
	cfg    Config
	client *http.Client
	log    *logger.Logger
}

// New builds a dispatcher. A missing secret is a degraded but legal mode;
// deliveries go out unsigned
func New(cfg Config) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	log := logger.Named("callback")
	if cfg.Secret == "" {
		log.Warn().Msg("no shared secret configured, deliveries are unsigned")
	}
	return &Dispatcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

// Deliver serializes payload once, signs those bytes, and posts them to url,
// falling back to the configured endpoint when url is empty. Failed attempts
// retry with a linear backoff until MaxRetries is spent
func (d *Dispatcher) Deliver(ctx context.Context, url, requestID string, payload any) error {
	if url == "" {
		url = d.cfg.URL
	}
	if url == "" {
		return perr.Configf("callback url is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDelivery, "serialize callback payload")
	}

	var lastErr error
	for attempt := 0; attempt <= d.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 1500 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return perr.Wrap(ctx.Err(), perr.ErrorCodeDelivery, "callback canceled")
			}
		}

		if lastErr = d.post(ctx, url, body); lastErr == nil {
			d.log.Info().
				Str("request_id", requestID).
				Int("attempt", attempt+1).
				Msg("callback delivered")
			return nil
		}
		d.log.Warn().
			Str("request_id", requestID).
			Int("attempt", attempt+1).
			Err(lastErr).
			Msg("callback attempt failed")
	}
	return perr.Wrapf(lastErr, perr.ErrorCodeDelivery, "callback to %s", url)
}

func (d *Dispatcher) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.cfg.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(d.cfg.Secret, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return perr.Deliveryf("callback endpoint returned %d", resp.StatusCode)
	}
	return nil
}
