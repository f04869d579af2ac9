package websocket

import (
	"log"
	"sync"
)

// Registry tracks live connections, their bound identities, and game room
// membership. All state here is transient; nothing a disconnect does is
// allowed to touch durable game records.
type Registry struct {
	mu          sync.RWMutex
	conns       map[string]*Connection            // connection ID -> connection
	byUser      map[string]*Connection            // bound user ID -> connection
	byEmail     map[string]*Connection            // bound email -> connection
	rooms       map[string]map[string]*Connection // game ID -> connection ID -> connection
	memberships map[string]map[string]struct{}    // connection ID -> game IDs joined
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:       make(map[string]*Connection),
		byUser:      make(map[string]*Connection),
		byEmail:     make(map[string]*Connection),
		rooms:       make(map[string]map[string]*Connection),
		memberships: make(map[string]map[string]struct{}),
	}
}

// Register adds a freshly upgraded connection.
func (r *Registry) Register(conn *Connection) error {
	if conn == nil {
		return ErrNilConnection
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[conn.ID()] = conn
	return nil
}

// Bind records an identity for a connection. If the identity was bound to
// another connection, that stale index entry is replaced but the old
// connection itself keeps running; a client reconnecting quickly should not
// kill its own replacement by racing the old socket's teardown.
func (r *Registry) Bind(conn *Connection, userID, email string) error {
	if conn == nil {
		return ErrNilConnection
	}

	conn.Bind(userID, email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byUser[userID]; ok && prev.ID() != conn.ID() {
		log.Printf("registry: rebinding user_id=%s from conn=%s to conn=%s", userID, prev.ID(), conn.ID())
	}
	r.byUser[userID] = conn
	if email != "" {
		r.byEmail[email] = conn
	}

	return nil
}

// JoinRoom adds a connection to a game room. Idempotent.
func (r *Registry) JoinRoom(gameID string, conn *Connection) error {
	if conn == nil {
		return ErrNilConnection
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[gameID]
	if !ok {
		room = make(map[string]*Connection)
		r.rooms[gameID] = room
	}
	room[conn.ID()] = conn

	games, ok := r.memberships[conn.ID()]
	if !ok {
		games = make(map[string]struct{})
		r.memberships[conn.ID()] = games
	}
	games[gameID] = struct{}{}

	return nil
}

// LeaveRoom removes a connection from a game room. Idempotent.
func (r *Registry) LeaveRoom(gameID string, conn *Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeFromRoom(gameID, conn.ID())
}

// removeFromRoom must be called with the write lock held.
func (r *Registry) removeFromRoom(gameID, connID string) {
	if room, ok := r.rooms[gameID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(r.rooms, gameID)
		}
	}
	if games, ok := r.memberships[connID]; ok {
		delete(games, gameID)
		if len(games) == 0 {
			delete(r.memberships, connID)
		}
	}
}

// ConnectionsInRoom returns a snapshot of the connections in a game room.
func (r *Registry) ConnectionsInRoom(gameID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[gameID]
	conns := make([]*Connection, 0, len(room))
	for _, c := range room {
		conns = append(conns, c)
	}
	return conns
}

// ByUser returns the connection currently bound to a user ID, if any.
func (r *Registry) ByUser(userID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byUser[userID]
	return c, ok
}

// ByEmail returns the connection currently bound to an email, if any.
func (r *Registry) ByEmail(email string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byEmail[email]
	return c, ok
}

// OnDisconnect drops a connection from every index and room. It only
// mutates in-memory routing state; game records are untouched so a player
// can reconnect and resume.
func (r *Registry) OnDisconnect(conn *Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	connID := conn.ID()
	delete(r.conns, connID)

	for gameID := range r.memberships[connID] {
		r.removeFromRoom(gameID, connID)
	}
	delete(r.memberships, connID)

	if c, ok := r.byUser[conn.UserID()]; ok && c.ID() == connID {
		delete(r.byUser, conn.UserID())
	}
	if c, ok := r.byEmail[conn.Email()]; ok && c.ID() == connID {
		delete(r.byEmail, conn.Email())
	}
}

// Stats reports registry counters for health reporting.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]int{
		"connections": len(r.conns),
		"bound_users": len(r.byUser),
		"rooms":       len(r.rooms),
	}
}

// CloseAll closes every registered connection and clears the registry.
// Used during shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.conns = make(map[string]*Connection)
	r.byUser = make(map[string]*Connection)
	r.byEmail = make(map[string]*Connection)
	r.rooms = make(map[string]map[string]*Connection)
	r.memberships = make(map[string]map[string]struct{})
	r.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
