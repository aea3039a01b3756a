// Package webhook posts HMAC-signed run notifications.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderSignature = "X-Photocompress-Signature"
	HeaderTimestamp = "X-Photocompress-Timestamp"
	HeaderEvent     = "X-Photocompress-Event"
)

type Config struct {
	SigningSecret  string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type Client struct {
	httpClient     *http.Client
	signingSecret  string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func NewClient(cfg Config) *Client {
	c := &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		signingSecret:  cfg.SigningSecret,
		maxAttempts:    max(1, cfg.MaxAttempts),
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
	}
	if c.httpClient.Timeout <= 0 {
		c.httpClient.Timeout = 10 * time.Second
	}
	if c.initialBackoff <= 0 {
		c.initialBackoff = 500 * time.Millisecond
	}
	c.maxBackoff = max(c.maxBackoff, c.initialBackoff)
	return c
}

// errPermanent marks responses a retry cannot fix.
var errPermanent = errors.New("permanent webhook failure")

// Send POSTs event as signed JSON to endpoint. Transport errors, 429 and 5xx
// responses are retried with exponential backoff; other non-2xx responses
// fail at once. An empty endpoint is a no-op.
func (c *Client) Send(ctx context.Context, endpoint string, event Event) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event.Name(), err)
	}
	timestamp := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	signature := Sign(c.signingSecret, timestamp, body)

	wait := c.initialBackoff
	for attempt := 1; ; attempt++ {
		err := c.post(ctx, endpoint, event.Name(), timestamp, signature, body)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, errPermanent), ctx.Err() != nil:
			return fmt.Errorf("deliver %s: %w", event.Name(), err)
		case attempt >= c.maxAttempts:
			return fmt.Errorf("deliver %s: gave up after %d attempts: %w", event.Name(), attempt, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait = min(wait*2, c.maxBackoff)
	}
}

func (c *Client) post(ctx context.Context, endpoint, event, timestamp, signature string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", errPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, event)
	req.Header.Set(HeaderTimestamp, timestamp)
	req.Header.Set(HeaderSignature, signature)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return fmt.Errorf("endpoint returned status=%d", resp.StatusCode)
	default:
		return fmt.Errorf("%w: endpoint returned status=%d", errPermanent, resp.StatusCode)
	}
}

// Sign returns the signature header value for a timestamp and body.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches the timestamp and body.
func Verify(secret, timestamp string, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, timestamp, body)), []byte(signature))
}
