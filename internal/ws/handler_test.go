package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/louismark-dev/listen-together/internal/relay"
	"github.com/louismark-dev/listen-together/pkg/protocol"
)

func dialHandler(t *testing.T, ctx context.Context, h *relay.Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(Handler(h, zap.NewNop()))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) protocol.Frame {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	f, err := protocol.DecodeFrame(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return f
}

func writeEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	f, err := protocol.NewFrame(event, payload)
	if err != nil {
		t.Fatalf("build %s: %v", event, err)
	}
	b, err := f.Marshal()
	if err != nil {
		t.Fatalf("marshal %s: %v", event, err)
	}
	if err := conn.Write(ctx, websocket.MessageText, b); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

func startedSession(t *testing.T, ctx context.Context, conn *websocket.Conn) string {
	t.Helper()
	writeEvent(t, ctx, conn, protocol.EventStartSession, nil)
	f := readFrame(t, ctx, conn)
	if f.Event != protocol.EventSessionStarted {
		t.Fatalf("got %s, want %s", f.Event, protocol.EventSessionStarted)
	}
	started, err := protocol.DecodePayload[protocol.SessionStarted](f)
	if err != nil {
		t.Fatalf("decode sessionStarted: %v", err)
	}
	return started.SessionID
}

func lookupRoom(t *testing.T, h *relay.Hub, code string) *relay.Room {
	t.Helper()
	reply := make(chan *relay.Room, 1)
	h.Inbox() <- relay.LookupRoom{Code: code, Reply: reply}
	select {
	case room := <-reply:
		return room
	case <-time.After(time.Second):
		t.Fatalf("timed out looking up %s", code)
		return nil // unreachable
	}
}

// A connection holds one room membership at a time: starting a second
// session leaves the first, so the abandoned session empties out and is
// removed instead of keeping the connection's outbox registered twice.
func TestHandler_StartingSecondSessionLeavesFirst(t *testing.T) {
	hub := relay.NewHub(context.Background(), zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialHandler(t, ctx, hub)
	if f := readFrame(t, ctx, conn); f.Event != protocol.EventAssigningID {
		t.Fatalf("got %s, want %s", f.Event, protocol.EventAssigningID)
	}

	first := startedSession(t, ctx, conn)
	second := startedSession(t, ctx, conn)
	if first == second {
		t.Fatalf("second start reused session %s", first)
	}

	deadline := time.After(time.Second)
	for lookupRoom(t, hub, first) != nil {
		select {
		case <-deadline:
			t.Fatalf("abandoned session %s lingers in the hub", first)
		case <-time.After(10 * time.Millisecond):
		}
	}
	if lookupRoom(t, hub, second) == nil {
		t.Fatalf("live session %s missing from the hub", second)
	}
}
