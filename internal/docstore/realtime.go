package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ChangeAction classifies a collection change.
type ChangeAction string

const (
	ChangeInsert ChangeAction = "INSERT"
	ChangeUpdate ChangeAction = "UPDATE"
	ChangeDelete ChangeAction = "DELETE"
)

// ChangeEvent is a single document change delivered over the realtime feed.
type ChangeEvent struct {
	Collection string          `json:"collection"`
	Action     ChangeAction    `json:"action"`
	Record     json.RawMessage `json:"record"`
	OldRecord  json.RawMessage `json:"old_record,omitempty"`
}

// ChangeHandler receives collection change events. Handlers run on their
// own goroutine; a slow handler does not stall the feed.
type ChangeHandler func(ChangeEvent)

// Realtime maintains a websocket connection to the document backend's
// change feed and fans events out to per-collection watchers.
type Realtime struct {
	mu       sync.RWMutex
	url      string
	conn     *websocket.Conn
	watchers map[string]map[int]ChangeHandler
	nextID   int
	ref      int
	done     chan struct{}
}

// NewRealtime builds a realtime feed client from the backend base URL.
func NewRealtime(baseURL, apiKey string) *Realtime {
	wsURL := baseURL
	if strings.HasPrefix(wsURL, "https") {
		wsURL = "wss" + wsURL[len("https"):]
	} else if strings.HasPrefix(wsURL, "http") {
		wsURL = "ws" + wsURL[len("http"):]
	}
	wsURL += "/realtime/v1/websocket?apikey=" + apiKey

	return &Realtime{
		url:      wsURL,
		watchers: make(map[string]map[int]ChangeHandler),
		done:     make(chan struct{}),
	}
}

// Connect dials the feed and starts the reader and heartbeat loops.
func (r *Realtime) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	r.conn = conn
	r.done = make(chan struct{})

	go r.readLoop()
	go r.heartbeat()
	return nil
}

// Close tears down the connection. Registered watchers are kept and
// resume if Connect is called again.
func (r *Realtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}

	close(r.done)
	_ = r.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := r.conn.Close()
	r.conn = nil
	return err
}

// Watch registers a handler for changes to one collection and returns a
// disposer that removes exactly this registration. Disposing twice is a
// no-op.
func (r *Realtime) Watch(ctx context.Context, collection string, handler ChangeHandler) (func(), error) {
	r.mu.Lock()
	if r.watchers[collection] == nil {
		r.watchers[collection] = make(map[int]ChangeHandler)
		if err := r.sendJoinLocked(collection); err != nil {
			delete(r.watchers, collection)
			r.mu.Unlock()
			return nil, err
		}
	}
	r.nextID++
	id := r.nextID
	r.watchers[collection][id] = handler
	r.mu.Unlock()

	var once sync.Once
	dispose := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.watchers[collection], id)
			if len(r.watchers[collection]) == 0 {
				delete(r.watchers, collection)
				r.sendLeaveLocked(collection)
			}
		})
	}
	return dispose, nil
}

func (r *Realtime) sendJoinLocked(collection string) error {
	if r.conn == nil {
		return fmt.Errorf("realtime not connected")
	}
	r.ref++
	return r.conn.WriteJSON(map[string]any{
		"topic":   "realtime:public:" + collection,
		"event":   "phx_join",
		"payload": map[string]any{},
		"ref":     strconv.Itoa(r.ref),
	})
}

func (r *Realtime) sendLeaveLocked(collection string) {
	if r.conn == nil {
		return
	}
	r.ref++
	_ = r.conn.WriteJSON(map[string]any{
		"topic":   "realtime:public:" + collection,
		"event":   "phx_leave",
		"payload": map[string]any{},
		"ref":     strconv.Itoa(r.ref),
	})
}

// wireMessage is the phoenix-framed envelope carried on the socket.
type wireMessage struct {
	Topic   string `json:"topic"`
	Event   string `json:"event"`
	Payload struct {
		Type      string          `json:"type"`
		Record    json.RawMessage `json:"record"`
		OldRecord json.RawMessage `json:"old_record"`
	} `json:"payload"`
}

func (r *Realtime) readLoop() {
	for {
		select {
		case <-r.done:
			return
		default:
		}

		r.mu.RLock()
		conn := r.conn
		r.mu.RUnlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg wireMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		collection := strings.TrimPrefix(msg.Topic, "realtime:public:")
		action := msg.Event
		if msg.Payload.Type != "" {
			action = msg.Payload.Type
		}
		switch ChangeAction(action) {
		case ChangeInsert, ChangeUpdate, ChangeDelete:
		default:
			continue
		}

		event := ChangeEvent{
			Collection: collection,
			Action:     ChangeAction(action),
			Record:     msg.Payload.Record,
			OldRecord:  msg.Payload.OldRecord,
		}

		r.mu.RLock()
		for _, handler := range r.watchers[collection] {
			go handler(event)
		}
		r.mu.RUnlock()
	}
}

func (r *Realtime) heartbeat() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.conn != nil {
				r.ref++
				_ = r.conn.WriteJSON(map[string]any{
					"topic":   "phoenix",
					"event":   "heartbeat",
					"payload": map[string]any{},
					"ref":     strconv.Itoa(r.ref),
				})
			}
			r.mu.Unlock()
		}
	}
}
