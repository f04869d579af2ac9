package hub

import (
	"log"

	"matchbox/internal/websocket"
	"matchbox/pkg/types"
)

// Relay delivers targeted events to a single user looked up by email.
type Relay struct {
	registry *websocket.Registry
}

// NewRelay creates a relay over the given registry.
func NewRelay(registry *websocket.Registry) *Relay {
	return &Relay{registry: registry}
}

// Invite delivers a game invitation to the connection bound to
// receiverEmail. Returns false when the recipient is not connected; the
// invitation is silently dropped in that case.
func (r *Relay) Invite(gameID, senderEmail, receiverEmail string) bool {
	conn, ok := r.registry.ByEmail(receiverEmail)
	if !ok {
		log.Printf("hub: invitation dropped, recipient offline game=%s email=%s", gameID, receiverEmail)
		return false
	}

	payload := types.GameInvitationPayload{
		GameID:      gameID,
		SenderEmail: senderEmail,
	}
	if err := conn.WriteJSON(types.Envelope{Name: types.EventGameInvitation, Data: payload}); err != nil {
		log.Printf("hub: invitation write failed game=%s email=%s: %v", gameID, receiverEmail, err)
		return false
	}

	return true
}
