package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	dbconfig "matchbox/pkg/database"
	"matchbox/pkg/interfaces"
	"matchbox/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := dbconfig.DefaultConfig()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "test.db")
	// Point at a nonexistent directory so the embedded baseline schema is
	// used instead of deploy files.
	cfg.MigrationsPath = filepath.Join(t.TempDir(), "no-migrations")

	store, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := dbconfig.NewMigrationManager(store.DB(), cfg.MigrationsPath).ApplyMigrations(); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return store
}

func newTestGame(sender string) *types.Game {
	return &types.Game{
		ID:        "game_" + sender + "_test",
		SenderID:  sender,
		Status:    types.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestCreateAndGetGame(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	game := newTestGame("u1")
	if err := store.CreateGame(ctx, game); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := store.GetGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.SenderID != "u1" || got.Status != types.StatusPending {
		t.Errorf("unexpected game: %+v", got)
	}
	if got.ReceiverID != nil {
		t.Error("fresh game should have nil receiver")
	}
}

func TestGetGameNotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetGame(context.Background(), "game_missing"); !errors.Is(err, interfaces.ErrGameNotFound) {
		t.Fatalf("got %v, want ErrGameNotFound", err)
	}
}

func TestClaimReceiver(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	game := newTestGame("u1")
	store.CreateGame(ctx, game)

	claimed, err := store.ClaimReceiver(ctx, game.ID, "u2")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if !claimed {
		t.Fatal("first claim should win")
	}

	got, _ := store.GetGame(ctx, game.ID)
	if got.Status != types.StatusActive {
		t.Errorf("got status %q, want active", got.Status)
	}
	if got.ReceiverID == nil || *got.ReceiverID != "u2" {
		t.Errorf("got receiver %v, want u2", got.ReceiverID)
	}

	// Second claim, same or different user, must miss.
	if claimed, _ := store.ClaimReceiver(ctx, game.ID, "u2"); claimed {
		t.Error("retry claim should not win again")
	}
	if claimed, _ := store.ClaimReceiver(ctx, game.ID, "u3"); claimed {
		t.Error("third player claim should not win")
	}
}

func TestClaimReceiverRejectsSender(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	game := newTestGame("u1")
	store.CreateGame(ctx, game)

	if claimed, _ := store.ClaimReceiver(ctx, game.ID, "u1"); claimed {
		t.Fatal("creator must not claim their own game")
	}

	got, _ := store.GetGame(ctx, game.ID)
	if got.Status != types.StatusPending || got.ReceiverID != nil {
		t.Errorf("game mutated by rejected claim: %+v", got)
	}
}

func TestClaimReceiverConcurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	game := newTestGame("u1")
	store.CreateGame(ctx, game)

	const contenders = 8
	var wg sync.WaitGroup
	wins := make(chan string, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := fmt.Sprintf("joiner%d", n)
			if claimed, err := store.ClaimReceiver(ctx, game.ID, userID); err == nil && claimed {
				wins <- userID
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	if len(winners) != 1 {
		t.Fatalf("got %d winners, want exactly 1: %v", len(winners), winners)
	}

	got, _ := store.GetGame(ctx, game.ID)
	if got.ReceiverID == nil || *got.ReceiverID != winners[0] {
		t.Errorf("receiver %v does not match winner %s", got.ReceiverID, winners[0])
	}
}

func TestSetStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	game := newTestGame("u1")
	store.CreateGame(ctx, game)
	store.ClaimReceiver(ctx, game.ID, "u2")

	changed, err := store.SetStatus(ctx, game.ID, types.StatusCompleted, types.StatusActive)
	if err != nil {
		t.Fatalf("set status failed: %v", err)
	}
	if !changed {
		t.Fatal("active game should complete")
	}

	// Terminal state: no further transitions.
	changed, _ = store.SetStatus(ctx, game.ID, types.StatusAbandoned, types.StatusPending, types.StatusActive)
	if changed {
		t.Error("completed game should not transition")
	}

	// Unknown game changes nothing.
	changed, _ = store.SetStatus(ctx, "game_missing", types.StatusCompleted, types.StatusActive)
	if changed {
		t.Error("unknown game should not transition")
	}
}

func TestAbandonPendingBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := newTestGame("u1")
	old.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	store.CreateGame(ctx, old)

	fresh := newTestGame("u2")
	store.CreateGame(ctx, fresh)

	swept, err := store.AbandonPendingBefore(ctx, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if swept != 1 {
		t.Fatalf("got %d swept, want 1", swept)
	}

	got, _ := store.GetGame(ctx, old.ID)
	if got.Status != types.StatusAbandoned {
		t.Errorf("old game: got %q, want abandoned", got.Status)
	}
	got, _ = store.GetGame(ctx, fresh.ID)
	if got.Status != types.StatusPending {
		t.Errorf("fresh game: got %q, want pending", got.Status)
	}
}

func TestUpsertUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &types.User{ID: "u1", Email: "u1@example.com", Name: "Player One"}
	if err := store.UpsertUser(ctx, user); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	// Re-upserting with changed claims refreshes the row.
	user.Name = "P. One"
	if err := store.UpsertUser(ctx, user); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	got, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if got.Name != "P. One" || got.Email != "u1@example.com" {
		t.Errorf("unexpected user: %+v", got)
	}
}

func TestGetUserNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetUser(context.Background(), "nobody"); !errors.Is(err, interfaces.ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}

func TestHealthCheck(t *testing.T) {
	store := newTestStore(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Fatalf("health check failed: %v", err)
	}
}

func TestCloseRejectsWrites(t *testing.T) {
	store := newTestStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := store.CreateGame(context.Background(), newTestGame("u9")); err == nil {
		t.Fatal("write after close should fail")
	}
}
