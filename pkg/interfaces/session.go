package interfaces

import (
	"context"

	"matchbox/pkg/types"
)

// SessionManager owns the game lifecycle state machine. It is the single
// writer of status and receiver_id; every other component treats Game
// records as read-only.
type SessionManager interface {
	// Create persists a fresh pending game for senderID and returns it. The
	// ID is an unguessable random token, unique for the process lifetime.
	Create(ctx context.Context, senderID string) (*types.Game, error)

	// Join admits userID into the game. The boolean is true only when this
	// call performed the pending-to-active transition; retries by the same
	// receiver and rejoins by the creator succeed without it. Exactly one
	// caller of concurrent joins wins; losers get ErrAlreadyFull.
	Join(ctx context.Context, gameID, userID string) (*types.Game, bool, error)

	// Get retrieves a game by ID.
	Get(ctx context.Context, gameID string) (*types.Game, error)

	// Complete transitions an active game to completed.
	Complete(ctx context.Context, gameID string) error

	// Abandon transitions a pending or active game to abandoned.
	Abandon(ctx context.Context, gameID string) error
}
