package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newSocketPair upgrades a loopback connection and returns the server-side
// wrapper plus the raw client socket.
func newSocketPair(t *testing.T) (*Connection, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	serverConn := make(chan *Connection, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		serverConn <- NewConnection(ws, 30*time.Second)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	conn := <-serverConn
	t.Cleanup(func() { conn.Close() })
	return conn, client
}

func TestConnectionWriteJSON(t *testing.T) {
	conn, client := newSocketPair(t)

	if err := conn.WriteJSON(map[string]string{"event": "ping"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("client read failed: %v", err)
	}

	var decoded map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded["event"] != "ping" {
		t.Fatalf("got %v, want event=ping", decoded)
	}
}

func TestConnectionWriteAfterClose(t *testing.T) {
	conn, _ := newSocketPair(t)

	if err := conn.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := conn.WriteJSON(map[string]string{"event": "late"}); err != ErrConnectionClosed {
		t.Fatalf("got %v, want ErrConnectionClosed", err)
	}
}

func TestConnectionCloseIdempotent(t *testing.T) {
	conn, _ := newSocketPair(t)

	if err := conn.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
}

func TestConnectionBind(t *testing.T) {
	conn, _ := newSocketPair(t)

	if conn.IsBound() {
		t.Fatal("fresh connection should not be bound")
	}
	if conn.ID() == "" {
		t.Fatal("connection needs an ID before binding")
	}

	conn.Bind("u1", "u1@example.com")
	if !conn.IsBound() {
		t.Fatal("connection should be bound")
	}
	if conn.UserID() != "u1" || conn.Email() != "u1@example.com" {
		t.Fatalf("unexpected identity: %s / %s", conn.UserID(), conn.Email())
	}

	// Rebinding replaces the identity.
	conn.Bind("u2", "u2@example.com")
	if conn.UserID() != "u2" {
		t.Fatalf("got %s, want u2", conn.UserID())
	}
}

func TestConnectionIDsUnique(t *testing.T) {
	a, _ := newSocketPair(t)
	b, _ := newSocketPair(t)
	if a.ID() == b.ID() {
		t.Fatal("connection IDs must be unique")
	}
}
