package types

import (
	"encoding/json"
	"time"
)

// Inbound event names accepted on a socket connection.
const (
	EventRegister     = "register"
	EventCreateGame   = "create_game"
	EventInvitePlayer = "invite_player"
	EventJoinGame     = "join_game"
	EventCardSelected = "card_selected"
	EventCheckCard    = "check_card"
	EventSyncState    = "sync_state"
)

// Outbound event names emitted to clients.
const (
	EventGameCreated        = "game_created"
	EventGameInvitation     = "game_invitation"
	EventGameJoined         = "game_joined"
	EventCardSelectedUpdate = "card_selected_update"
	EventCardCheckResult    = "card_check_result"
	EventGameState          = "game_state"
	EventError              = "error"
)

// Game lifecycle statuses. Pending is initial; completed and abandoned are
// terminal.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusAbandoned = "abandoned"
)

// Game is the durable record of one two-party session.
// ReceiverID is nil until a second player is admitted and is set at most
// once; SenderID is immutable after creation. Rows are never deleted by the
// coordinator.
type Game struct {
	ID         string    `json:"id" db:"id"`
	SenderID   string    `json:"sender_id" db:"sender_id"`
	ReceiverID *string   `json:"receiver_id,omitempty" db:"receiver_id"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// User is the identity record persisted after token verification. The
// coordinator never fabricates or mutates these values; they come from the
// external identity collaborator.
type User struct {
	ID    string `json:"user_id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Event is one inbound JSON frame: an event name plus a payload decoded
// lazily by the dispatcher.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Envelope is an outbound frame carrying an already-built payload.
type Envelope struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// ErrorKind tags the error event reported back to an offending connection.
// Errors are never broadcast to a room.
type ErrorKind string

const (
	ErrorKindNotFound          ErrorKind = "not_found"
	ErrorKindAlreadyFull       ErrorKind = "already_full"
	ErrorKindInvalidCredential ErrorKind = "invalid_credential"
	ErrorKindPersistence       ErrorKind = "persistence_error"
	ErrorKindMalformedEvent    ErrorKind = "malformed_event"
	ErrorKindRateLimited       ErrorKind = "rate_limited"
)

// Inbound payloads. Index and boolean fields are pointers so a missing field
// can be told apart from a zero value during validation.

type RegisterPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type CreateGamePayload struct {
	SenderID string `json:"sender_id"`
}

type InvitePlayerPayload struct {
	Email       string `json:"email"`
	GameID      string `json:"game_id"`
	SenderEmail string `json:"sender_email"`
}

type JoinGamePayload struct {
	GameID string `json:"game_id"`
	UserID string `json:"user_id"`
}

type CardSelectedPayload struct {
	GameID    string `json:"game_id"`
	CardIndex *int   `json:"card_index"`
	UserID    string `json:"user_id"`
}

type CheckCardPayload struct {
	GameID    string `json:"game_id"`
	CardIndex *int   `json:"card_index"`
	IsCorrect *bool  `json:"is_correct"`
}

type SyncStatePayload struct {
	GameID string `json:"game_id"`
}

// Outbound payloads.

type GameCreatedPayload struct {
	GameID string `json:"game_id"`
}

type GameInvitationPayload struct {
	GameID      string `json:"game_id"`
	SenderEmail string `json:"sender_email"`
}

// GameJoinedPayload carries first_player_id so clients can assign turn order
// without an extra lookup.
type GameJoinedPayload struct {
	GameID        string `json:"game_id"`
	FirstPlayerID string `json:"first_player_id"`
}

type CardSelectedUpdatePayload struct {
	CardIndex int    `json:"card_index"`
	UserID    string `json:"user_id"`
}

type CardCheckResultPayload struct {
	CardIndex int  `json:"card_index"`
	IsCorrect bool `json:"is_correct"`
}

// CardSnapshot is the last-known state of one card, replayed to reconnecting
// clients via game_state.
type CardSnapshot struct {
	CardIndex  int    `json:"card_index"`
	SelectedBy string `json:"selected_by,omitempty"`
	Checked    bool   `json:"checked"`
	Matched    bool   `json:"matched"`
}

type GameStatePayload struct {
	GameID string         `json:"game_id"`
	Cards  []CardSnapshot `json:"cards"`
}

type ErrorPayload struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}
