package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	dbconfig "matchbox/pkg/database"
	"matchbox/pkg/interfaces"
	"matchbox/pkg/types"
)

// Store implements the GameStore interface on SQLite. All mutations funnel
// through a single writer goroutine; reads go straight to the pool.
type Store struct {
	db           *sql.DB
	config       *dbconfig.Config
	writeChannel chan writeOperation
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex
}

type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

var _ interfaces.GameStore = (*Store)(nil)

// NewStore opens the database and starts the writer goroutine.
func NewStore(config *dbconfig.Config) (*Store, error) {
	db, err := sql.Open("sqlite3", config.DatabasePath+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxConnections)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := dbconfig.ApplySQLiteOptimizations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply SQLite optimizations: %w", err)
	}

	store := &Store{
		db:           db,
		config:       config,
		writeChannel: make(chan writeOperation, 100),
		shutdown:     make(chan struct{}),
	}

	store.wg.Add(1)
	go store.writeLoop()

	return store, nil
}

// writeLoop processes all write operations in a single goroutine. Transient
// failures get one retry after a backoff.
func (s *Store) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case op := <-s.writeChannel:
			err := op.operation(s.db)
			if err != nil {
				log.Printf("Database write failed, retrying in 5 seconds: %v", err)
				time.Sleep(5 * time.Second)
				err = op.operation(s.db)
				if err != nil {
					log.Printf("Database write failed after retry: %v", err)
				}
			}
			op.result <- err

		case <-s.shutdown:
			log.Println("Database write loop shutting down")
			return
		}
	}
}

func (s *Store) executeWrite(operation func(*sql.DB) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	result := make(chan error, 1)

	select {
	case s.writeChannel <- writeOperation{operation: operation, result: result}:
		return <-result
	case <-time.After(30 * time.Second):
		return fmt.Errorf("write operation timeout")
	case <-s.shutdown:
		return fmt.Errorf("store is shutting down")
	}
}

// CreateGame persists a new game row inside a transaction.
func (s *Store) CreateGame(ctx context.Context, game *types.Game) error {
	return s.executeWrite(func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		query := `
			INSERT INTO games (id, sender_id, receiver_id, status, created_at)
			VALUES (?, ?, ?, ?, ?)
		`
		_, err = tx.ExecContext(ctx, query,
			game.ID,
			game.SenderID,
			game.ReceiverID,
			game.Status,
			game.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert game: %w", err)
		}

		if err = tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit game creation: %w", err)
		}

		return nil
	})
}

// GetGame retrieves a game by ID.
func (s *Store) GetGame(ctx context.Context, gameID string) (*types.Game, error) {
	query := `
		SELECT id, sender_id, receiver_id, status, created_at
		FROM games
		WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, gameID)

	var game types.Game
	var receiverID sql.NullString

	err := row.Scan(
		&game.ID,
		&game.SenderID,
		&receiverID,
		&game.Status,
		&game.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, interfaces.ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to query game: %w", err)
	}

	if receiverID.Valid {
		game.ReceiverID = &receiverID.String
	}

	return &game, nil
}

// ClaimReceiver performs the conditional update that linearizes concurrent
// joins: only one caller can observe a pending row with a NULL receiver.
func (s *Store) ClaimReceiver(ctx context.Context, gameID, userID string) (bool, error) {
	var claimed bool
	err := s.executeWrite(func(db *sql.DB) error {
		query := `
			UPDATE games
			SET receiver_id = ?, status = ?
			WHERE id = ? AND status = ? AND receiver_id IS NULL AND sender_id <> ?
		`
		res, err := db.ExecContext(ctx, query,
			userID, types.StatusActive,
			gameID, types.StatusPending, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to claim receiver: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read claim result: %w", err)
		}
		claimed = n == 1
		return nil
	})
	return claimed, err
}

// SetStatus transitions a game's status only from the given current states.
func (s *Store) SetStatus(ctx context.Context, gameID, to string, from ...string) (bool, error) {
	if !types.IsValidStatus(to) {
		return false, fmt.Errorf("%w: %s", types.ErrInvalidStatus, to)
	}
	if len(from) == 0 {
		return false, fmt.Errorf("at least one source status is required")
	}

	var changed bool
	err := s.executeWrite(func(db *sql.DB) error {
		placeholders := strings.Repeat("?,", len(from))
		placeholders = placeholders[:len(placeholders)-1]
		query := fmt.Sprintf(
			"UPDATE games SET status = ? WHERE id = ? AND status IN (%s)",
			placeholders,
		)

		args := make([]any, 0, len(from)+2)
		args = append(args, to, gameID)
		for _, f := range from {
			args = append(args, f)
		}

		res, err := db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update game status: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read status update result: %w", err)
		}
		changed = n == 1
		return nil
	})
	return changed, err
}

// AbandonPendingBefore sweeps pending games older than cutoff.
func (s *Store) AbandonPendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var swept int64
	err := s.executeWrite(func(db *sql.DB) error {
		query := `
			UPDATE games
			SET status = ?
			WHERE status = ? AND created_at < ?
		`
		res, err := db.ExecContext(ctx, query, types.StatusAbandoned, types.StatusPending, cutoff)
		if err != nil {
			return fmt.Errorf("failed to abandon stale games: %w", err)
		}
		swept, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read sweep result: %w", err)
		}
		return nil
	})
	return swept, err
}

// UpsertUser inserts or refreshes a user record. Idempotent per ID.
func (s *Store) UpsertUser(ctx context.Context, user *types.User) error {
	return s.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO users (id, email, name)
			VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET email = excluded.email, name = excluded.name
		`
		if _, err := db.ExecContext(ctx, query, user.ID, user.Email, user.Name); err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}
		return nil
	})
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*types.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, name FROM users WHERE id = ?", userID)

	var user types.User
	if err := row.Scan(&user.ID, &user.Email, &user.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, interfaces.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// HealthCheck validates database connectivity.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM games LIMIT 1").Scan(&count); err != nil {
		return fmt.Errorf("database read test failed: %w", err)
	}

	return nil
}

// DB exposes the underlying connection for migrations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close shuts down the writer and the connection pool.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.shutdown)
	s.wg.Wait()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
