package interfaces

// Connection is one live transport-level client attachment, bound to at most
// one identity at a time.
type Connection interface {
	// WriteJSON sends a JSON frame to the client. Thread-safe; all
	// implementations must serialize writes.
	WriteJSON(v any) error

	// Close tears down the connection and its writer.
	Close() error

	// ID returns the unique handle for this transport connection.
	ID() string

	// UserID and Email return the bound identity, empty until Bind.
	UserID() string
	Email() string

	// IsBound reports whether an identity has been bound.
	IsBound() bool

	// Bind associates an identity with the connection. Last write wins.
	Bind(userID, email string)
}
