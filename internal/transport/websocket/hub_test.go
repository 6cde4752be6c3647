package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-2048/internal/engine"
	"github.com/vovakirdan/tui-2048/internal/session"
)

func startHub(t *testing.T, handler CommandHandler) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(handler, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	snap := session.New(nil, engine.NewRand(1)).Snapshot()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, Message{Event: EventState, State: &snap})
	}))

	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return msg
}

func TestInitialMessage(t *testing.T) {
	_, server := startHub(t, nil)
	conn := dial(t, server)

	msg := readMessage(t, conn)

	if msg.Event != EventState {
		t.Errorf("event = %q, want %q", msg.Event, EventState)
	}
	if msg.State == nil {
		t.Fatal("initial message has no state")
	}
	if n := engine.CountTiles(msg.State.Grid); n != 2 {
		t.Errorf("initial board has %d tiles, want 2", n)
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub, server := startHub(t, nil)
	a := dial(t, server)
	b := dial(t, server)
	readMessage(t, a)
	readMessage(t, b)

	if hub.ClientCount() != 2 {
		t.Fatalf("ClientCount() = %d, want 2", hub.ClientCount())
	}

	hub.BroadcastState(session.Snapshot{Score: 42, State: "active"})

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		if msg.State == nil || msg.State.Score != 42 {
			t.Errorf("broadcast state = %+v, want score 42", msg.State)
		}
	}
}

func TestCommandHandlerReply(t *testing.T) {
	received := make(chan Command, 1)
	handler := func(cmd Command) *Message {
		received <- cmd
		if cmd.Action != "move" {
			return &Message{Event: EventError, Error: "unknown action"}
		}
		return nil
	}

	_, server := startHub(t, handler)
	conn := dial(t, server)
	readMessage(t, conn)

	if err := conn.WriteJSON(Command{Action: "move", Direction: "left"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case cmd := <-received:
		if cmd.Direction != "left" {
			t.Errorf("direction = %q, want left", cmd.Direction)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}

	if err := conn.WriteJSON(Command{Action: "dance"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	<-received
	msg := readMessage(t, conn)
	if msg.Event != EventError || msg.Error != "unknown action" {
		t.Errorf("reply = %+v, want unknown action error", msg)
	}
}

func TestInvalidJSONGetsError(t *testing.T) {
	_, server := startHub(t, nil)
	conn := dial(t, server)
	readMessage(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{nope")); err != nil {
		t.Fatalf("write: %v", err)
	}

	msg := readMessage(t, conn)
	if msg.Event != EventError {
		t.Errorf("event = %q, want %q", msg.Event, EventError)
	}
}

func TestClientCountDropsOnDisconnect(t *testing.T) {
	hub, server := startHub(t, nil)
	conn := dial(t, server)
	readMessage(t, conn)

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d after disconnect, want 0", hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBroadcastAfterShutdownDoesNotBlock(t *testing.T) {
	hub := NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBuffer*2; i++ {
			hub.Broadcast(Message{Event: EventState})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked after the hub stopped")
	}
}
