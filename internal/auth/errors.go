package auth

import "errors"

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrMissingClientID   = errors.New("google client ID is required")
)
