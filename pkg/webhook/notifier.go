// Package webhook delivers owner notifications for security-relevant
// events: orders blocked by mandate, audit tampering, mandates signed.
// Delivery is asynchronous and best-effort; a slow or dead endpoint
// never blocks a trading decision.
package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jcgs2503/vestbridge/pkg/config"
)

// Event types emitted by the core.
const (
	EventOrderBlocked  = "order.blocked"
	EventAuditTampered = "audit.tampered"
	EventMandateSigned = "mandate.signed"
)

// Event is the JSON body POSTed to each configured endpoint.
type Event struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

const (
	queueSize    = 64
	maxAttempts  = 3
	retryBackoff = 2 * time.Second
)

// Notifier fans events out to the configured webhook endpoints from a
// single background worker. Events are dropped (with a log line) when
// the queue is full.
type Notifier struct {
	hooks  []config.HookConfig
	client *http.Client
	logger *zap.Logger

	queue chan Event
	done  chan struct{}
	wg    sync.WaitGroup
}

// NewNotifier starts the delivery worker. A nil logger disables logging.
func NewNotifier(hooks []config.HookConfig, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Notifier{
		hooks:  hooks,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
		queue:  make(chan Event, queueSize),
		done:   make(chan struct{}),
	}
	n.wg.Add(1)
	go n.run()
	return n
}

// Notify enqueues an event for delivery. Never blocks.
func (n *Notifier) Notify(eventType string, payload map[string]any) {
	event := Event{Type: eventType, Timestamp: time.Now().UTC(), Payload: payload}
	select {
	case n.queue <- event:
	default:
		n.logger.Warn("webhook queue full, dropping event", zap.String("type", eventType))
	}
}

// Close stops the worker after draining queued events.
func (n *Notifier) Close() {
	close(n.done)
	n.wg.Wait()
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for {
		select {
		case event := <-n.queue:
			n.deliver(event)
		case <-n.done:
			for {
				select {
				case event := <-n.queue:
					n.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) deliver(event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("marshal webhook event", zap.Error(err))
		return
	}

	for _, hook := range n.hooks {
		if !hook.Wants(event.Type) {
			continue
		}
		if err := n.post(hook, body); err != nil {
			n.logger.Warn("webhook delivery failed",
				zap.String("url", hook.URL),
				zap.String("type", event.Type),
				zap.Error(err))
		}
	}
}

func (n *Notifier) post(hook config.HookConfig, body []byte) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(retryBackoff * time.Duration(attempt-1))
		}

		req, err := http.NewRequest(http.MethodPost, hook.URL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if hook.Secret != "" {
			req.Header.Set("X-Vest-Signature", Signature(hook.Secret, body))
		}

		resp, err := n.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("endpoint returned %s", resp.Status)
	}
	return lastErr
}

// Signature computes the hook signature header value:
// "sha256=" + hex(HMAC-SHA256(secret, body)).
func Signature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
