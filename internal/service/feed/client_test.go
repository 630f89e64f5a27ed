package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	applogger "SignalFlow/pkg/logger"
)

func TestClientReadSession(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"signal","owner_id":"u1","payload":{"instrument":"EURUSD"}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.Close()
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := NewClient(url, "", 10*time.Millisecond, 10*time.Millisecond, applogger.Nop())

	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !c.IsConnected() {
		t.Fatal("not connected after Connect")
	}

	envCh, errCh := c.Read(ctx)

	select {
	case env := <-envCh:
		if env.OwnerID != "u1" {
			t.Errorf("owner = %s, want u1", env.OwnerID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no envelope received")
	}

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected read error once the server hung up")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no error after server hang-up")
	}

	// The session's channels close with its read loop.
	select {
	case _, ok := <-envCh:
		if ok {
			t.Error("envelope channel still open after session end")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("envelope channel never closed")
	}

	_ = c.Close()
	if c.IsConnected() {
		t.Error("still connected after Close")
	}
}
