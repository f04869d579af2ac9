package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"

	"matchbox/internal/websocket"
	"matchbox/pkg/types"
)

func newPair(t *testing.T) (*websocket.Connection, *gorilla.Conn) {
	t.Helper()

	upgrader := gorilla.Upgrader{}
	serverConn := make(chan *websocket.Connection, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		serverConn <- websocket.NewConnection(ws, 30*time.Second)
	}))
	t.Cleanup(srv.Close)

	client, _, err := gorilla.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	conn := <-serverConn
	t.Cleanup(func() { conn.Close() })
	return conn, client
}

func readFrame(t *testing.T, client *gorilla.Conn) (string, json.RawMessage) {
	t.Helper()
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := client.ReadJSON(&frame); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return frame.Event, frame.Data
}

func TestBroadcastReachesRoom(t *testing.T) {
	registry := websocket.NewRegistry()
	b := NewBroadcaster(registry)

	connA, clientA := newPair(t)
	connB, clientB := newPair(t)
	registry.Register(connA)
	registry.Register(connB)
	registry.JoinRoom("g1", connA)
	registry.JoinRoom("g1", connB)

	b.Broadcast("g1", types.EventCardCheckResult, types.CardCheckResultPayload{CardIndex: 5, IsCorrect: true}, "")

	for _, client := range []*gorilla.Conn{clientA, clientB} {
		event, data := readFrame(t, client)
		if event != types.EventCardCheckResult {
			t.Fatalf("got event %q, want card_check_result", event)
		}
		var payload types.CardCheckResultPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if payload.CardIndex != 5 || !payload.IsCorrect {
			t.Fatalf("unexpected payload: %+v", payload)
		}
	}
}

func TestBroadcastExcludes(t *testing.T) {
	registry := websocket.NewRegistry()
	b := NewBroadcaster(registry)

	connA, clientA := newPair(t)
	connB, clientB := newPair(t)
	registry.Register(connA)
	registry.Register(connB)
	registry.JoinRoom("g1", connA)
	registry.JoinRoom("g1", connB)

	b.Broadcast("g1", types.EventGameJoined, types.GameJoinedPayload{GameID: "g1"}, connA.ID())

	if event, _ := readFrame(t, clientB); event != types.EventGameJoined {
		t.Fatal("included connection should receive the event")
	}

	clientA.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var frame json.RawMessage
	if err := clientA.ReadJSON(&frame); err == nil {
		t.Fatalf("excluded connection received %s", frame)
	}
}

func TestRelayInvite(t *testing.T) {
	registry := websocket.NewRegistry()
	relay := NewRelay(registry)

	conn, client := newPair(t)
	registry.Register(conn)
	registry.Bind(conn, "u2", "u2@example.com")

	if relay.Invite("g1", "u1@example.com", "offline@example.com") {
		t.Fatal("offline recipient should report undelivered")
	}

	if !relay.Invite("g1", "u1@example.com", "u2@example.com") {
		t.Fatal("online recipient should report delivered")
	}

	event, data := readFrame(t, client)
	if event != types.EventGameInvitation {
		t.Fatalf("got event %q, want game_invitation", event)
	}
	var payload types.GameInvitationPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if payload.GameID != "g1" || payload.SenderEmail != "u1@example.com" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
