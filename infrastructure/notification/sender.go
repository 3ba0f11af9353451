// Package notification delivers workflow notifications to the in-app
// inbox, signed webhooks, NATS subjects and the log.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/notification"
)

// SenderConfig tunes webhook delivery. Zero fields take the defaults.
type SenderConfig struct {
	Timeout time.Duration
	// Attempts is the total number of tries per delivery.
	Attempts int
	// Backoff is the first retry delay; later delays grow by Multiplier.
	Backoff    time.Duration
	Multiplier float64
	// BreakerThreshold consecutive failures open an endpoint's circuit
	// for BreakerTimeout.
	BreakerThreshold int
	BreakerTimeout   time.Duration
	UserAgent        string
	Client           *http.Client
}

// DefaultSenderConfig returns the delivery defaults.
func DefaultSenderConfig() SenderConfig {
	return SenderConfig{
		Timeout:          10 * time.Second,
		Attempts:         3,
		Backoff:          500 * time.Millisecond,
		Multiplier:       2,
		BreakerThreshold: 5,
		BreakerTimeout:   30 * time.Second,
		UserAgent:        "proposal-workflow-webhook/1.0",
	}
}

func (c SenderConfig) withDefaults() SenderConfig {
	d := DefaultSenderConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.Attempts <= 0 {
		c.Attempts = d.Attempts
	}
	if c.Backoff <= 0 {
		c.Backoff = d.Backoff
	}
	if c.Multiplier <= 0 {
		c.Multiplier = d.Multiplier
	}
	if c.BreakerThreshold <= 0 {
		c.BreakerThreshold = d.BreakerThreshold
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = d.BreakerTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	return c
}

// Sender POSTs notifications as JSON. Each endpoint URL gets its own
// circuit breaker; retries run inside the breaker.
type Sender struct {
	config   SenderConfig
	client   *http.Client
	signer   *Signer
	retrier  retry.Retry[struct{}]
	breakers sync.Map // url -> circuitbreaker.CircuitBreaker[struct{}]
}

// NewSender creates a sender.
func NewSender(config SenderConfig) *Sender {
	config = config.withDefaults()
	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	return &Sender{
		config: config,
		client: client,
		signer: NewSigner(),
		retrier: retry.New[struct{}](retry.Config{
			MaxAttempts:        config.Attempts,
			InitialDelay:       config.Backoff,
			BackoffPolicy:      retry.BackoffExponential,
			Multiplier:         config.Multiplier,
			NonRetryableErrors: []error{notification.ErrEndpointRejected},
		}),
	}
}

// Send delivers n to endpoint. 4xx responses fail at once with
// ErrEndpointRejected; transport errors and 5xx are retried and end as
// ErrEndpointUnavailable.
func (s *Sender) Send(ctx context.Context, endpoint *notification.Endpoint, n *notification.Notification) error {
	if endpoint == nil || endpoint.URL == "" {
		return notification.ErrInvalidEndpoint
	}
	if err := n.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("serialize notification: %w", err)
	}
	headers := map[string]string{
		"Content-Type":        "application/json",
		"User-Agent":          s.config.UserAgent,
		"X-Notification-ID":   n.ID,
		"X-Notification-Type": string(n.Type),
	}
	for k, v := range endpoint.Headers {
		headers[k] = v
	}
	if endpoint.Secret != "" {
		for k, v := range s.signer.SignedHeaders(payload, endpoint.Secret, s.signer.now()) {
			headers[k] = v
		}
	}

	_, err = s.breaker(endpoint.URL).Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return s.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.post(ctx, endpoint.URL, payload, headers)
		})
	})
	return err
}

func (s *Sender) post(ctx context.Context, url string, payload []byte, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", notification.ErrInvalidEndpoint, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", notification.ErrEndpointUnavailable, err)
	}
	defer resp.Body.Close()
	return classify(resp)
}

func classify(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: server error %d: %s", notification.ErrEndpointUnavailable, resp.StatusCode, body)
	}
	return fmt.Errorf("%w: status %d: %s", notification.ErrEndpointRejected, resp.StatusCode, body)
}

func (s *Sender) breaker(url string) circuitbreaker.CircuitBreaker[struct{}] {
	if cb, ok := s.breakers.Load(url); ok {
		return cb.(circuitbreaker.CircuitBreaker[struct{}])
	}
	threshold := uint32(s.config.BreakerThreshold) // #nosec G115 -- positive after withDefaults
	cb, _ := s.breakers.LoadOrStore(url, circuitbreaker.New[struct{}](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    s.config.BreakerTimeout,
		Timeout:     s.config.BreakerTimeout,
		ReadyToTrip: func(c circuitbreaker.Counts) bool { return c.ConsecutiveFailures >= threshold },
	}))
	return cb.(circuitbreaker.CircuitBreaker[struct{}])
}

// BreakerState reports an endpoint's circuit state, or "unknown" before
// its first delivery.
func (s *Sender) BreakerState(url string) string {
	cb, ok := s.breakers.Load(url)
	if !ok {
		return "unknown"
	}
	return cb.(circuitbreaker.CircuitBreaker[struct{}]).State().String()
}
