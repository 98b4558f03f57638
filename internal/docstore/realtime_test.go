package docstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// feedServer is a fake change-feed endpoint. It records join/leave
// frames and lets tests push change events down the socket.
type feedServer struct {
	*httptest.Server
	frames chan map[string]any
	conns  chan *websocket.Conn
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()
	upgrader := websocket.Upgrader{}
	fs := &feedServer{
		frames: make(chan map[string]any, 16),
		conns:  make(chan *websocket.Conn, 1),
	}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/realtime/v1/websocket") {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		fs.conns <- conn
		for {
			var frame map[string]any
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			fs.frames <- frame
		}
	}))
	return fs
}

func (fs *feedServer) conn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-fs.conns:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("client never connected")
		return nil
	}
}

func (fs *feedServer) frame(t *testing.T) map[string]any {
	t.Helper()
	select {
	case f := <-fs.frames:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
		return nil
	}
}

func (fs *feedServer) push(t *testing.T, conn *websocket.Conn, topic, action string, record any) {
	t.Helper()
	raw, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	err = conn.WriteJSON(map[string]any{
		"topic": topic,
		"event": action,
		"payload": map[string]any{
			"type":   action,
			"record": json.RawMessage(raw),
		},
	})
	if err != nil {
		t.Fatalf("push event: %v", err)
	}
}

func newConnectedRealtime(t *testing.T, fs *feedServer) *Realtime {
	t.Helper()
	rt := NewRealtime(fs.URL, "anon-key")
	if err := rt.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestWatchJoinsTopicAndDispatches(t *testing.T) {
	fs := newFeedServer(t)
	defer fs.Close()

	rt := newConnectedRealtime(t, fs)
	conn := fs.conn(t)

	events := make(chan ChangeEvent, 4)
	dispose, err := rt.Watch(context.Background(), CollectionAgents, func(ev ChangeEvent) {
		events <- ev
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer dispose()

	join := fs.frame(t)
	if join["event"] != "phx_join" || join["topic"] != "realtime:public:agents" {
		t.Fatalf("first frame = %v, want phx_join on realtime:public:agents", join)
	}

	fs.push(t, conn, "realtime:public:agents", "INSERT", map[string]string{"id": "agent-9", "symbol": "NEW"})

	select {
	case ev := <-events:
		if ev.Collection != CollectionAgents || ev.Action != ChangeInsert {
			t.Errorf("event = %+v, want agents INSERT", ev)
		}
		var rec struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(ev.Record, &rec); err != nil || rec.ID != "agent-9" {
			t.Errorf("record = %s (err %v), want id agent-9", ev.Record, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("change event not dispatched")
	}
}

func TestWatchIgnoresNonChangeFrames(t *testing.T) {
	fs := newFeedServer(t)
	defer fs.Close()

	rt := newConnectedRealtime(t, fs)
	conn := fs.conn(t)

	events := make(chan ChangeEvent, 4)
	dispose, err := rt.Watch(context.Background(), CollectionAgents, func(ev ChangeEvent) {
		events <- ev
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer dispose()
	fs.frame(t) // join

	// Reply frames and heartbeat acks carry no change payload.
	if err := conn.WriteJSON(map[string]any{
		"topic":   "realtime:public:agents",
		"event":   "phx_reply",
		"payload": map[string]any{"status": "ok"},
	}); err != nil {
		t.Fatalf("push reply: %v", err)
	}
	fs.push(t, conn, "realtime:public:agents", "UPDATE", map[string]string{"id": "agent-1"})

	select {
	case ev := <-events:
		if ev.Action != ChangeUpdate {
			t.Errorf("action = %q, want UPDATE (reply frame leaked through)", ev.Action)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("update not dispatched")
	}
}

func TestDisposeLeavesTopicOnce(t *testing.T) {
	fs := newFeedServer(t)
	defer fs.Close()

	rt := newConnectedRealtime(t, fs)

	noop := func(ChangeEvent) {}
	first, err := rt.Watch(context.Background(), CollectionAgents, noop)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	second, err := rt.Watch(context.Background(), CollectionAgents, noop)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	fs.frame(t) // single join for both watchers

	// Dropping one watcher keeps the topic joined.
	first()
	select {
	case f := <-fs.frames:
		t.Fatalf("unexpected frame after partial dispose: %v", f)
	case <-time.After(100 * time.Millisecond):
	}

	second()
	leave := fs.frame(t)
	if leave["event"] != "phx_leave" {
		t.Fatalf("frame = %v, want phx_leave", leave)
	}

	// Double dispose must not send a second leave.
	second()
	select {
	case f := <-fs.frames:
		t.Fatalf("unexpected frame after double dispose: %v", f)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatchWithoutConnectFails(t *testing.T) {
	rt := NewRealtime("http://localhost:1", "anon-key")
	if _, err := rt.Watch(context.Background(), CollectionAgents, func(ChangeEvent) {}); err == nil {
		t.Fatal("Watch on unconnected client accepted")
	}
}
