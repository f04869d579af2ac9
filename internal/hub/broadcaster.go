// Package hub fans events out to game rooms and individual clients.
package hub

import (
	"log"

	"matchbox/internal/websocket"
	"matchbox/pkg/types"
)

// Broadcaster delivers events to every connection in a game room.
// Delivery is best effort; a slow or dead connection is logged and
// skipped rather than stalling the room.
type Broadcaster struct {
	registry *websocket.Registry
}

// NewBroadcaster creates a broadcaster over the given registry.
func NewBroadcaster(registry *websocket.Registry) *Broadcaster {
	return &Broadcaster{registry: registry}
}

// Broadcast sends an event to every connection in the room. When exclude
// is non-empty, the connection with that ID is skipped.
func (b *Broadcaster) Broadcast(gameID, event string, payload any, exclude string) {
	envelope := types.Envelope{Name: event, Data: payload}

	for _, conn := range b.registry.ConnectionsInRoom(gameID) {
		if exclude != "" && conn.ID() == exclude {
			continue
		}
		if err := conn.WriteJSON(envelope); err != nil {
			log.Printf("hub: dropped %s for conn=%s in game=%s: %v", event, conn.ID(), gameID, err)
		}
	}
}

// SendTo delivers an event to a single connection.
func (b *Broadcaster) SendTo(conn *websocket.Connection, event string, payload any) {
	if err := conn.WriteJSON(types.Envelope{Name: event, Data: payload}); err != nil {
		log.Printf("hub: dropped %s for conn=%s: %v", event, conn.ID(), err)
	}
}
