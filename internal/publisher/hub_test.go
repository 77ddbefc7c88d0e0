package publisher

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHubBroadcastsToConnectedClient(t *testing.T) {
	t.Parallel()
	hub := NewHub(testLogger())
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		NewClient(hub, conn)
	}))
	defer srv.Close()

	wsURL := "ws" + srv.URL[len("http"):]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// give the hub loop a moment to register the client
	time.Sleep(50 * time.Millisecond)

	hub.Publish("execution", map[string]int{"remaining": 5})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(msg) == 0 {
		t.Error("expected non-empty broadcast frame")
	}
}

func TestPublishOnFullBufferDoesNotBlock(t *testing.T) {
	t.Parallel()
	hub := NewHub(testLogger())
	hub.broadcast = make(chan []byte, 1)

	hub.Publish("execution", 1)
	done := make(chan struct{})
	go func() {
		hub.Publish("execution", 2)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on full broadcast buffer")
	}
}
