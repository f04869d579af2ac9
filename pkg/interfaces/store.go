package interfaces

import (
	"context"
	"time"

	"matchbox/pkg/types"
)

// GameStore handles all durable persistence for games and users. Each method
// is a single logical write with all-or-nothing semantics; partial updates
// are never visible to readers.
type GameStore interface {
	// CreateGame persists a new pending game.
	CreateGame(ctx context.Context, game *types.Game) error

	// GetGame retrieves a game by ID, returning ErrGameNotFound if absent.
	GetGame(ctx context.Context, gameID string) (*types.Game, error)

	// ClaimReceiver atomically sets receiver_id and flips pending to active,
	// but only if the game is still pending with no receiver and userID is
	// not the creator. Returns true when this call won the claim. Concurrent
	// claims on one game are linearized here.
	ClaimReceiver(ctx context.Context, gameID, userID string) (bool, error)

	// SetStatus conditionally transitions a game's status. The update applies
	// only when the current status is one of from; returns true if a row
	// changed.
	SetStatus(ctx context.Context, gameID, to string, from ...string) (bool, error)

	// AbandonPendingBefore marks pending games created before cutoff as
	// abandoned, returning the number of rows changed. Intended for an
	// external housekeeping caller, never the event path.
	AbandonPendingBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// UpsertUser inserts or refreshes a user record, unique by ID and email.
	UpsertUser(ctx context.Context, user *types.User) error

	// GetUser retrieves a user by ID, returning ErrUserNotFound if absent.
	GetUser(ctx context.Context, userID string) (*types.User, error)

	// HealthCheck verifies store connectivity.
	HealthCheck(ctx context.Context) error

	// Close flushes pending writes and releases the store.
	Close() error
}
