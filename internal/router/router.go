// Package router dispatches decoded client events to game session
// operations and fans the results back out through the hub.
//
// Event payloads carry the caller's user ID and are trusted as-is once a
// connection has registered; per-event token verification is not performed.
// Deployments that need a hard identity boundary must front the socket
// endpoint with an authenticating proxy.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"matchbox/internal/game"
	"matchbox/internal/hub"
	"matchbox/internal/websocket"
	"matchbox/pkg/interfaces"
	"matchbox/pkg/types"
)

// Router implements websocket.EventHandler. Handlers run synchronously on
// each connection's read pump, so events from one client apply in the
// order they were sent while separate clients proceed in parallel.
type Router struct {
	registry *websocket.Registry
	sessions interfaces.SessionManager
	boards   *game.BoardTracker
	caster   *hub.Broadcaster
	relay    *hub.Relay
	limiter  *RateLimiter
}

// New creates the event router.
func New(
	registry *websocket.Registry,
	sessions interfaces.SessionManager,
	boards *game.BoardTracker,
	caster *hub.Broadcaster,
	relay *hub.Relay,
) *Router {
	return &Router{
		registry: registry,
		sessions: sessions,
		boards:   boards,
		caster:   caster,
		relay:    relay,
		limiter:  NewRateLimiter(100, time.Minute),
	}
}

// HandleEvent routes one inbound event. Failures are reported only to the
// offending connection as an error event; room peers never see them.
func (r *Router) HandleEvent(ctx context.Context, conn *websocket.Connection, event *types.Event) {
	if !r.limiter.Allow(conn.ID()) {
		r.sendError(conn, types.ErrorKindRateLimited, "too many events, slow down")
		return
	}

	switch event.Name {
	case types.EventRegister:
		r.handleRegister(conn, event.Data)
	case types.EventCreateGame:
		r.handleCreate(ctx, conn, event.Data)
	case types.EventInvitePlayer:
		r.handleInvite(conn, event.Data)
	case types.EventJoinGame:
		r.handleJoin(ctx, conn, event.Data)
	case types.EventCardSelected:
		r.handleCardSelected(conn, event.Data)
	case types.EventCheckCard:
		r.handleCheckCard(conn, event.Data)
	case types.EventSyncState:
		r.handleSyncState(conn, event.Data)
	default:
		r.sendError(conn, types.ErrorKindMalformedEvent, "unknown event: "+event.Name)
	}
}

func (r *Router) handleRegister(conn *websocket.Connection, data json.RawMessage) {
	var payload types.RegisterPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		r.sendError(conn, types.ErrorKindMalformedEvent, "invalid register payload")
		return
	}
	if err := payload.Validate(); err != nil {
		r.sendError(conn, kindOf(err), err.Error())
		return
	}

	if err := r.registry.Bind(conn, payload.UserID, payload.Email); err != nil {
		r.sendError(conn, types.ErrorKindPersistence, "registration failed")
		return
	}
	log.Printf("router: registered conn=%s user_id=%s", conn.ID(), payload.UserID)
}

func (r *Router) handleCreate(ctx context.Context, conn *websocket.Connection, data json.RawMessage) {
	var payload types.CreateGamePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		r.sendError(conn, types.ErrorKindMalformedEvent, "invalid create_game payload")
		return
	}
	if err := payload.Validate(); err != nil {
		r.sendError(conn, kindOf(err), err.Error())
		return
	}

	g, err := r.sessions.Create(ctx, payload.SenderID)
	if err != nil {
		// The creator joins the room only after the record is durable.
		r.sendError(conn, kindOf(err), "could not create game")
		return
	}

	r.registry.JoinRoom(g.ID, conn)
	r.caster.SendTo(conn, types.EventGameCreated, types.GameCreatedPayload{GameID: g.ID})
}

func (r *Router) handleInvite(conn *websocket.Connection, data json.RawMessage) {
	var payload types.InvitePlayerPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		r.sendError(conn, types.ErrorKindMalformedEvent, "invalid invite_player payload")
		return
	}
	if err := payload.Validate(); err != nil {
		r.sendError(conn, kindOf(err), err.Error())
		return
	}

	// Offline recipients are a silent no-op; the sender gets no receipt
	// either way.
	r.relay.Invite(payload.GameID, payload.SenderEmail, payload.Email)
}

func (r *Router) handleJoin(ctx context.Context, conn *websocket.Connection, data json.RawMessage) {
	var payload types.JoinGamePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		r.sendError(conn, types.ErrorKindMalformedEvent, "invalid join_game payload")
		return
	}
	if err := payload.Validate(); err != nil {
		r.sendError(conn, kindOf(err), err.Error())
		return
	}

	g, changed, err := r.sessions.Join(ctx, payload.GameID, payload.UserID)
	if err != nil {
		r.sendError(conn, kindOf(err), err.Error())
		return
	}

	r.registry.JoinRoom(g.ID, conn)

	joined := types.GameJoinedPayload{
		GameID:        g.ID,
		FirstPlayerID: g.SenderID,
	}
	if changed {
		// The admission that activated the game is announced to the whole
		// room; rejoins only refresh the caller.
		r.caster.Broadcast(g.ID, types.EventGameJoined, joined, "")
	} else {
		r.caster.SendTo(conn, types.EventGameJoined, joined)
	}
}

func (r *Router) handleCardSelected(conn *websocket.Connection, data json.RawMessage) {
	var payload types.CardSelectedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		r.sendError(conn, types.ErrorKindMalformedEvent, "invalid card_selected payload")
		return
	}
	if err := payload.Validate(); err != nil {
		r.sendError(conn, kindOf(err), err.Error())
		return
	}

	r.boards.RecordSelection(payload.GameID, *payload.CardIndex, payload.UserID)
	r.caster.Broadcast(payload.GameID, types.EventCardSelectedUpdate, types.CardSelectedUpdatePayload{
		CardIndex: *payload.CardIndex,
		UserID:    payload.UserID,
	}, "")
}

func (r *Router) handleCheckCard(conn *websocket.Connection, data json.RawMessage) {
	var payload types.CheckCardPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		r.sendError(conn, types.ErrorKindMalformedEvent, "invalid check_card payload")
		return
	}
	if err := payload.Validate(); err != nil {
		r.sendError(conn, kindOf(err), err.Error())
		return
	}

	r.boards.RecordResult(payload.GameID, *payload.CardIndex, *payload.IsCorrect)
	r.caster.Broadcast(payload.GameID, types.EventCardCheckResult, types.CardCheckResultPayload{
		CardIndex: *payload.CardIndex,
		IsCorrect: *payload.IsCorrect,
	}, "")
}

func (r *Router) handleSyncState(conn *websocket.Connection, data json.RawMessage) {
	var payload types.SyncStatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		r.sendError(conn, types.ErrorKindMalformedEvent, "invalid sync_state payload")
		return
	}
	if err := payload.Validate(); err != nil {
		r.sendError(conn, kindOf(err), err.Error())
		return
	}

	r.caster.SendTo(conn, types.EventGameState, types.GameStatePayload{
		GameID: payload.GameID,
		Cards:  r.boards.Snapshot(payload.GameID),
	})
}

func (r *Router) sendError(conn *websocket.Connection, kind types.ErrorKind, message string) {
	r.caster.SendTo(conn, types.EventError, types.ErrorPayload{Kind: kind, Message: message})
}

// Stop releases router background resources.
func (r *Router) Stop() {
	r.limiter.Stop()
}

// kindOf maps domain errors to the wire-level error taxonomy.
func kindOf(err error) types.ErrorKind {
	switch {
	case errors.Is(err, interfaces.ErrGameNotFound), errors.Is(err, interfaces.ErrUserNotFound):
		return types.ErrorKindNotFound
	case errors.Is(err, game.ErrAlreadyFull), errors.Is(err, game.ErrNotJoinable):
		return types.ErrorKindAlreadyFull
	case errors.Is(err, types.ErrMissingField),
		errors.Is(err, types.ErrInvalidUserID),
		errors.Is(err, types.ErrInvalidEmail),
		errors.Is(err, game.ErrInvalidSenderID),
		errors.Is(err, game.ErrInvalidUserID):
		return types.ErrorKindMalformedEvent
	default:
		return types.ErrorKindPersistence
	}
}
