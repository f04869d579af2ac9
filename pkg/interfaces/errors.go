package interfaces

import "errors"

// Common errors shared across component boundaries.
var (
	ErrGameNotFound = errors.New("game not found")
	ErrUserNotFound = errors.New("user not found")
)
