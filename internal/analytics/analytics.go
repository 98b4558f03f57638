// Package analytics emits fire-and-forget usage events. Delivery is
// best effort: failures are logged at debug level and never surface to
// callers.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/camp-network/marketplace/pkg/logger"
)

// Event is a single tracked occurrence.
type Event struct {
	Name       string         `json:"event"`
	UserID     string         `json:"user_id,omitempty"`
	SessionID  string         `json:"session_id"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Config holds tracker settings.
type Config struct {
	// Endpoint receiving event batches. Empty disables delivery; events
	// are still accepted and dropped.
	Endpoint string
	Enabled  bool
}

// Tracker queues events and posts them asynchronously. One tracker per
// process; sessions are distinguished by the session id stamped on each
// event.
type Tracker struct {
	cfg        Config
	sessionID  string
	httpClient *http.Client
	log        *logger.Logger

	mu     sync.Mutex
	userID string
}

// New creates a tracker with a fresh session id.
func New(cfg Config, log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewDefault("analytics")
	}
	return &Tracker{
		cfg:        cfg,
		sessionID:  uuid.NewString(),
		httpClient: &http.Client{Timeout: 5 * time.Second},
		log:        log,
	}
}

// Identify associates subsequent events with a user. An empty id
// reverts to anonymous.
func (t *Tracker) Identify(userID string) {
	t.mu.Lock()
	t.userID = userID
	t.mu.Unlock()
}

// Track records an event. It returns immediately; delivery happens on a
// background goroutine and failures are swallowed.
func (t *Tracker) Track(name string, properties map[string]any) {
	if !t.cfg.Enabled || t.cfg.Endpoint == "" {
		return
	}

	t.mu.Lock()
	userID := t.userID
	t.mu.Unlock()

	event := Event{
		Name:       name,
		UserID:     userID,
		SessionID:  t.sessionID,
		Properties: properties,
		Timestamp:  time.Now().UTC(),
	}

	go t.deliver(event)
}

func (t *Tracker) deliver(event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.log.WithError(err).Debug("analytics delivery failed")
		return
	}
	resp.Body.Close()
}
