package game

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"matchbox/pkg/interfaces"
	"matchbox/pkg/types"
)

// Manager implements the SessionManager interface. It is the only component
// that writes status or receiver_id; the linearization point for concurrent
// joins is the store's conditional ClaimReceiver update.
type Manager struct {
	store interfaces.GameStore
}

var _ interfaces.SessionManager = (*Manager)(nil)

// NewManager creates a new session lifecycle manager.
func NewManager(store interfaces.GameStore) *Manager {
	return &Manager{store: store}
}

// NewGameID returns a fresh unguessable game token. Random UUIDs rather than
// a sequence: game IDs double as join capabilities.
func NewGameID() string {
	return "game_" + uuid.NewString()
}

// Create persists a new pending game for senderID and returns it. On a
// persistence failure no other component observes any side effect.
func (m *Manager) Create(ctx context.Context, senderID string) (*types.Game, error) {
	if !types.IsValidUserID(senderID) {
		return nil, ErrInvalidSenderID
	}

	game := &types.Game{
		ID:        NewGameID(),
		SenderID:  senderID,
		Status:    types.StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := m.store.CreateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	log.Printf("Created game: id=%s sender=%s", game.ID, game.SenderID)
	return game, nil
}

// Join admits userID into the game. The returned boolean is true only when
// this call won the pending-to-active transition. A retry by the admitted
// receiver and a rejoin by the creator both succeed without it, so callers
// can treat those as room (re)entry rather than a state change.
func (m *Manager) Join(ctx context.Context, gameID, userID string) (*types.Game, bool, error) {
	if !types.IsValidUserID(userID) {
		return nil, false, ErrInvalidUserID
	}

	game, err := m.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, false, err
	}

	// The creator's own client emits join_game too; that is a room rejoin,
	// never a receiver claim.
	if game.SenderID == userID {
		return game, false, nil
	}

	if game.ReceiverID != nil {
		if *game.ReceiverID == userID {
			return game, false, nil
		}
		return nil, false, ErrAlreadyFull
	}

	if game.Status != types.StatusPending {
		return nil, false, ErrNotJoinable
	}

	claimed, err := m.store.ClaimReceiver(ctx, gameID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to join game: %w", err)
	}

	if !claimed {
		// Lost the race. Re-read to tell a retry of the winner apart from a
		// genuine loser.
		current, err := m.store.GetGame(ctx, gameID)
		if err != nil {
			return nil, false, err
		}
		if current.ReceiverID != nil && *current.ReceiverID == userID {
			return current, false, nil
		}
		if current.ReceiverID != nil {
			return nil, false, ErrAlreadyFull
		}
		return nil, false, ErrNotJoinable
	}

	game.ReceiverID = &userID
	game.Status = types.StatusActive

	log.Printf("Game activated: id=%s sender=%s receiver=%s", game.ID, game.SenderID, userID)
	return game, true, nil
}

// Get retrieves a game by ID.
func (m *Manager) Get(ctx context.Context, gameID string) (*types.Game, error) {
	return m.store.GetGame(ctx, gameID)
}

// Complete transitions an active game to completed.
func (m *Manager) Complete(ctx context.Context, gameID string) error {
	return m.transition(ctx, gameID, types.StatusCompleted, types.StatusActive)
}

// Abandon transitions a pending or active game to abandoned.
func (m *Manager) Abandon(ctx context.Context, gameID string) error {
	return m.transition(ctx, gameID, types.StatusAbandoned, types.StatusPending, types.StatusActive)
}

func (m *Manager) transition(ctx context.Context, gameID, to string, from ...string) error {
	changed, err := m.store.SetStatus(ctx, gameID, to, from...)
	if err != nil {
		return fmt.Errorf("failed to update game status: %w", err)
	}
	if changed {
		log.Printf("Game %s: id=%s", to, gameID)
		return nil
	}

	// No row changed: either the game is unknown or already terminal.
	if _, err := m.store.GetGame(ctx, gameID); err != nil {
		return err
	}
	return fmt.Errorf("%w: cannot move to %s", ErrInvalidTransition, to)
}

// AbandonStale marks pending games older than maxAge as abandoned. Intended
// for an external housekeeping caller; nothing in the event path invokes it.
func (m *Manager) AbandonStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	swept, err := m.store.AbandonPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale games: %w", err)
	}
	if swept > 0 {
		log.Printf("Abandoned %d stale pending games", swept)
	}
	return swept, nil
}
