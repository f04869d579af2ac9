package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"matchbox/pkg/interfaces"
)

var _ interfaces.Connection = (*Connection)(nil)

// Connection wraps one live WebSocket attachment. Writes are serialized
// through a single writer goroutine; identity fields are bound later by a
// register event, so access to them is guarded separately.
type Connection struct {
	id        string
	conn      *websocket.Conn
	writeCh   chan []byte
	userID    string
	email     string
	bound     bool
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	mu        sync.RWMutex
}

// NewConnection creates a connection wrapper and starts its writer. The
// writer goroutine owns all socket writes, including keepalive pings.
func NewConnection(conn *websocket.Conn, pingInterval time.Duration) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:      uuid.NewString(),
		conn:    conn,
		writeCh: make(chan []byte, 100),
		ctx:     ctx,
		cancel:  cancel,
	}

	go c.writeLoop(pingInterval)

	return c
}

// writeLoop is the single writer for the underlying socket.
func (c *Connection) writeLoop(pingInterval time.Duration) {
	// writeCh is never closed: WriteJSON may race teardown, and a send on a
	// closed channel panics. Senders bail out on ctx instead.
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// WriteJSON queues a JSON frame for delivery. Thread-safe; returns
// ErrConnectionClosed once the connection is torn down.
func (c *Connection) WriteJSON(v any) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ErrInvalidJSON
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-time.After(5 * time.Second):
		return ErrWriteTimeout
	case <-c.ctx.Done():
		return ErrConnectionClosed
	}
}

// Close tears down the connection exactly once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// ID returns the unique handle for this transport connection.
func (c *Connection) ID() string {
	return c.id
}

// Bind associates an identity with the connection. Last write wins; a
// connection represents one logical client at a time.
func (c *Connection) Bind(userID, email string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.userID = userID
	c.email = email
	c.bound = true
}

func (c *Connection) IsBound() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bound
}

func (c *Connection) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Connection) Email() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.email
}
