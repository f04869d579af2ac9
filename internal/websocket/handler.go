package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"matchbox/pkg/types"
)

// EventHandler routes decoded client events. Declared here so the transport
// layer does not import the routing layer.
type EventHandler interface {
	HandleEvent(ctx context.Context, conn *Connection, event *types.Event)
}

// Handler upgrades HTTP requests to WebSocket connections and runs their
// read pumps. Events are dispatched synchronously from each connection's
// pump, which preserves per-client ordering without a shared queue.
type Handler struct {
	registry     *Registry
	events       EventHandler
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	readTimeout  time.Duration
}

// NewHandler creates a WebSocket handler backed by the given registry and
// event router.
func NewHandler(registry *Registry, events EventHandler, pingInterval, readTimeout time.Duration) *Handler {
	return &Handler{
		registry: registry,
		events:   events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		pingInterval: pingInterval,
		readTimeout:  readTimeout,
	}
}

// HandleWebSocket upgrades the request and services the connection until
// the peer goes away.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket: upgrade failed: %v", err)
		return
	}

	conn := NewConnection(ws, h.pingInterval)
	if err := h.registry.Register(conn); err != nil {
		log.Printf("websocket: register failed: %v", err)
		conn.Close()
		return
	}

	log.Printf("websocket: connected conn=%s remote=%s", conn.ID(), r.RemoteAddr)
	h.readLoop(conn, ws)
}

func (h *Handler) readLoop(conn *Connection, ws *websocket.Conn) {
	defer func() {
		h.registry.OnDisconnect(conn)
		conn.Close()
		log.Printf("websocket: disconnected conn=%s", conn.ID())
	}()

	ws.SetReadDeadline(time.Now().Add(h.readTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(h.readTimeout))
		return nil
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket: read error conn=%s: %v", conn.ID(), err)
			}
			return
		}

		var event types.Event
		if err := json.Unmarshal(data, &event); err != nil || event.Name == "" {
			conn.WriteJSON(types.Envelope{
				Name: types.EventError,
				Data: types.ErrorPayload{
					Kind:    types.ErrorKindMalformedEvent,
					Message: "malformed event frame",
				},
			})
			continue
		}

		h.events.HandleEvent(context.Background(), conn, &event)
	}
}
