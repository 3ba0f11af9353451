package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/notification"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/logging"
)

// WebhookEmitterConfig configures the webhook emitter.
type WebhookEmitterConfig struct {
	// Endpoints are the webhook endpoints to notify.
	Endpoints []*notification.Endpoint
	// SenderConfig configures the HTTP sender.
	SenderConfig SenderConfig
	// Logger receives delivery failures. Defaults to logging.Get().
	Logger *bolt.Logger
}

// WebhookEmitter posts notifications to every enabled endpoint whose
// filter accepts them.
type WebhookEmitter struct {
	mu        sync.RWMutex
	endpoints []*notification.Endpoint
	sender    *Sender
	logger    *bolt.Logger
	closed    bool
}

// NewWebhookEmitter creates a new webhook emitter.
func NewWebhookEmitter(config WebhookEmitterConfig) *WebhookEmitter {
	logger := config.Logger
	if logger == nil {
		logger = logging.Get()
	}
	return &WebhookEmitter{
		endpoints: append([]*notification.Endpoint(nil), config.Endpoints...),
		sender:    NewSender(config.SenderConfig),
		logger:    logger,
	}
}

// Emit delivers n to all matching endpoints concurrently. Failures from
// individual endpoints are joined.
func (w *WebhookEmitter) Emit(ctx context.Context, n *notification.Notification) error {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return notification.ErrEmitterClosed
	}
	endpoints := make([]*notification.Endpoint, 0, len(w.endpoints))
	for _, ep := range w.endpoints {
		if ep.Enabled && (ep.Filter == nil || ep.Filter(n)) {
			endpoints = append(endpoints, ep)
		}
	}
	w.mu.RUnlock()

	if len(endpoints) == 0 {
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, ep := range endpoints {
		wg.Add(1)
		go func(ep *notification.Endpoint) {
			defer wg.Done()

			if err := w.sender.Send(ctx, ep, n); err != nil {
				logging.NewEvent(w.logger.Error()).With(
					logging.Str("endpoint", ep.URL),
					logging.Str("endpoint_name", ep.Name),
					logging.ProposalID(n.ProposalID),
					logging.NotificationType(string(n.Type)),
					logging.ErrorField(err),
				).Msg("webhook delivery failed")

				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", endpointLabel(ep), err))
				mu.Unlock()
			}
		}(ep)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func endpointLabel(ep *notification.Endpoint) string {
	if ep.Name != "" {
		return ep.Name
	}
	return ep.URL
}

// AddEndpoint adds a new endpoint.
func (w *WebhookEmitter) AddEndpoint(endpoint *notification.Endpoint) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.endpoints = append(w.endpoints, endpoint)
}

// RemoveEndpoint removes an endpoint by URL.
func (w *WebhookEmitter) RemoveEndpoint(url string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	filtered := make([]*notification.Endpoint, 0, len(w.endpoints))
	for _, ep := range w.endpoints {
		if ep.URL != url {
			filtered = append(filtered, ep)
		}
	}
	w.endpoints = filtered
}

// Endpoints returns a copy of the configured endpoints.
func (w *WebhookEmitter) Endpoints() []*notification.Endpoint {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*notification.Endpoint(nil), w.endpoints...)
}

// Sender returns the underlying HTTP sender.
func (w *WebhookEmitter) Sender() *Sender {
	return w.sender
}

// Close stops the emitter. Later Emit calls return ErrEmitterClosed.
func (w *WebhookEmitter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

var _ notification.Emitter = (*WebhookEmitter)(nil)
