// Package webhook delivers job lifecycle notifications to configured
// HTTP endpoints, signed so receivers can verify the sender.
package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hlspress/hlspress/internal/config"
	"github.com/hlspress/hlspress/internal/events"
	"github.com/hlspress/hlspress/internal/logging"
)

const (
	deliveryTimeout = 30 * time.Second
	maxAttempts     = 3
)

// Event is the JSON body POSTed to each endpoint
type Event struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Service fans job events out to the configured endpoints. It
// implements events.Sink; per-rendition progress and list broadcasts
// are websocket-only and are not delivered as webhooks.
type Service struct {
	client    *http.Client
	endpoints []config.WebhookEndpoint
	log       *logging.Logger
}

// NewService creates a webhook service
func NewService(endpoints []config.WebhookEndpoint, log *logging.Logger) *Service {
	return &Service{
		client:    &http.Client{Timeout: deliveryTimeout},
		endpoints: endpoints,
		log:       log,
	}
}

// Emit delivers terminal job events to every endpoint in the
// background. Delivery failures are logged, never surfaced to the
// transcoding path.
func (s *Service) Emit(event string, payload interface{}) {
	if event != events.EventJobComplete && event != events.EventJobFailed {
		return
	}

	body, err := json.Marshal(Event{
		ID:        uuid.New().String(),
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	})
	if err != nil {
		s.log.WithError(err).Error("failed to marshal webhook payload")
		return
	}

	for _, endpoint := range s.endpoints {
		go s.deliver(endpoint, event, body)
	}
}

// deliver POSTs one payload with bounded retries
func (s *Service) deliver(endpoint config.WebhookEndpoint, event string, body []byte) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := s.post(endpoint, event, body); err == nil {
			return
		} else if attempt == maxAttempts {
			s.log.WithError(err).WithField("url", endpoint.URL).Error("webhook delivery failed")
			return
		}
		time.Sleep(time.Duration(attempt) * time.Second)
	}
}

func (s *Service) post(endpoint config.WebhookEndpoint, event string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "hlspress-webhook/1.0")
	req.Header.Set("X-Webhook-Event", event)
	if endpoint.Secret != "" {
		req.Header.Set("X-Webhook-Signature", Sign(body, endpoint.Secret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &deliveryError{status: resp.StatusCode}
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 signature header value for a body
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

type deliveryError struct {
	status int
}

func (e *deliveryError) Error() string {
	return fmt.Sprintf("endpoint returned status %d", e.status)
}
