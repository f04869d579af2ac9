package game

import (
	"sort"
	"sync"

	"matchbox/pkg/types"
)

// BoardTracker keeps a per-game last-known snapshot of card events so a
// reconnecting client can request a deterministic replay instead of missing
// whatever was broadcast while it was away. Purely in-memory; it records what
// clients claimed and never validates game rules.
type BoardTracker struct {
	mu     sync.RWMutex
	boards map[string]map[int]*types.CardSnapshot
}

// NewBoardTracker creates an empty tracker.
func NewBoardTracker() *BoardTracker {
	return &BoardTracker{
		boards: make(map[string]map[int]*types.CardSnapshot),
	}
}

// RecordSelection notes that userID selected cardIndex.
func (t *BoardTracker) RecordSelection(gameID string, cardIndex int, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	card := t.card(gameID, cardIndex)
	card.SelectedBy = userID
}

// RecordResult notes the check outcome for cardIndex.
func (t *BoardTracker) RecordResult(gameID string, cardIndex int, matched bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	card := t.card(gameID, cardIndex)
	card.Checked = true
	card.Matched = matched
}

// card returns the tracked state for one card, creating board and card
// entries as needed. Callers hold the write lock.
func (t *BoardTracker) card(gameID string, cardIndex int) *types.CardSnapshot {
	board, ok := t.boards[gameID]
	if !ok {
		board = make(map[int]*types.CardSnapshot)
		t.boards[gameID] = board
	}
	card, ok := board[cardIndex]
	if !ok {
		card = &types.CardSnapshot{CardIndex: cardIndex}
		board[cardIndex] = card
	}
	return card
}

// Snapshot returns the recorded state for a game ordered by card index, so
// replays are deterministic. Unknown games yield an empty slice.
func (t *BoardTracker) Snapshot(gameID string) []types.CardSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	board := t.boards[gameID]
	cards := make([]types.CardSnapshot, 0, len(board))
	for _, card := range board {
		cards = append(cards, *card)
	}

	sort.Slice(cards, func(i, j int) bool {
		return cards[i].CardIndex < cards[j].CardIndex
	})

	return cards
}

// Drop discards a game's board state.
func (t *BoardTracker) Drop(gameID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.boards, gameID)
}
