package types

import "errors"

var (
	ErrMissingField  = errors.New("missing required payload field")
	ErrInvalidUserID = errors.New("user ID must be 1-100 characters, alphanumeric plus underscore/hyphen/dot")
	ErrInvalidEmail  = errors.New("email must be a plausible address")
	ErrInvalidStatus = errors.New("invalid game status")
)
