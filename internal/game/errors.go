package game

import "errors"

// Lifecycle manager error types.
var (
	ErrInvalidSenderID   = errors.New("sender_id must be a valid user ID")
	ErrInvalidUserID     = errors.New("user_id must be a valid user ID")
	ErrAlreadyFull       = errors.New("game already has two players")
	ErrNotJoinable       = errors.New("game is not accepting players")
	ErrInvalidTransition = errors.New("invalid game status transition")
)
