package types

import (
	"fmt"
	"regexp"
	"strings"
)

// Compiled once; user IDs include Google subject claims, which are numeric.
var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+$`)

// IsValidUserID checks a client-supplied identity token for shape only.
// Binding it to a verified identity is the HTTP auth boundary's job.
func IsValidUserID(userID string) bool {
	if len(userID) < 1 || len(userID) > 100 {
		return false
	}
	return userIDRegex.MatchString(userID)
}

// IsValidEmail is a routing-key sanity check, not RFC validation. Invitation
// delivery only needs the address to be usable as a registry lookup key.
func IsValidEmail(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

// IsValidStatus reports whether s is one of the four lifecycle statuses.
func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted, StatusAbandoned:
		return true
	default:
		return false
	}
}

func (p *RegisterPayload) Validate() error {
	if !IsValidUserID(p.UserID) {
		return fmt.Errorf("%w: user_id", ErrInvalidUserID)
	}
	if !IsValidEmail(p.Email) {
		return fmt.Errorf("%w: email", ErrInvalidEmail)
	}
	return nil
}

func (p *CreateGamePayload) Validate() error {
	if p.SenderID == "" {
		return fmt.Errorf("%w: sender_id", ErrMissingField)
	}
	if !IsValidUserID(p.SenderID) {
		return fmt.Errorf("%w: sender_id", ErrInvalidUserID)
	}
	return nil
}

func (p *InvitePlayerPayload) Validate() error {
	if p.GameID == "" {
		return fmt.Errorf("%w: game_id", ErrMissingField)
	}
	if p.Email == "" {
		return fmt.Errorf("%w: email", ErrMissingField)
	}
	if p.SenderEmail == "" {
		return fmt.Errorf("%w: sender_email", ErrMissingField)
	}
	return nil
}

func (p *JoinGamePayload) Validate() error {
	if p.GameID == "" {
		return fmt.Errorf("%w: game_id", ErrMissingField)
	}
	if p.UserID == "" {
		return fmt.Errorf("%w: user_id", ErrMissingField)
	}
	if !IsValidUserID(p.UserID) {
		return fmt.Errorf("%w: user_id", ErrInvalidUserID)
	}
	return nil
}

func (p *CardSelectedPayload) Validate() error {
	if p.GameID == "" {
		return fmt.Errorf("%w: game_id", ErrMissingField)
	}
	if p.CardIndex == nil {
		return fmt.Errorf("%w: card_index", ErrMissingField)
	}
	if p.UserID == "" {
		return fmt.Errorf("%w: user_id", ErrMissingField)
	}
	return nil
}

func (p *CheckCardPayload) Validate() error {
	if p.GameID == "" {
		return fmt.Errorf("%w: game_id", ErrMissingField)
	}
	if p.CardIndex == nil {
		return fmt.Errorf("%w: card_index", ErrMissingField)
	}
	if p.IsCorrect == nil {
		return fmt.Errorf("%w: is_correct", ErrMissingField)
	}
	return nil
}

func (p *SyncStatePayload) Validate() error {
	if p.GameID == "" {
		return fmt.Errorf("%w: game_id", ErrMissingField)
	}
	return nil
}
