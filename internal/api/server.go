// Package api exposes the HTTP surface: sign-in, health, and game
// inspection. Real-time play happens over the WebSocket endpoint; these
// routes cover everything that fits request/response.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"matchbox/internal/auth"
	"matchbox/internal/game"
	"matchbox/internal/websocket"
	"matchbox/pkg/interfaces"
	"matchbox/pkg/types"
)

// Roster reports live connection state for health and game views.
type Roster interface {
	ConnectionsInRoom(gameID string) []*websocket.Connection
	Stats() map[string]int
}

// Server handles the HTTP routes.
type Server struct {
	sessions interfaces.SessionManager
	store    interfaces.GameStore
	roster   Roster
	verifier auth.Verifier
	router   *httprouter.Router
}

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse reports service liveness plus connection counters.
type HealthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Database    string         `json:"database"`
	Connections map[string]int `json:"connections"`
}

// AuthRequest carries the Google ID token presented by a signing-in client.
type AuthRequest struct {
	Token string `json:"token"`
}

// GameResponse is the inspection view of one game.
type GameResponse struct {
	Game            *types.Game `json:"game"`
	ConnectionCount int         `json:"connection_count"`
}

// NewServer creates the HTTP server. verifier may be nil when Google
// sign-in is not configured; the auth route then reports unavailable.
func NewServer(sessions interfaces.SessionManager, store interfaces.GameStore, roster Roster, verifier auth.Verifier) *Server {
	s := &Server{
		sessions: sessions,
		store:    store,
		roster:   roster,
		verifier: verifier,
		router:   httprouter.New(),
	}

	s.router.POST("/auth/google", s.handleGoogleAuth)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/api/games/:id", s.handleGetGame)
	s.router.DELETE("/api/games/:id", s.handleAbandonGame)

	return s
}

// ServeHTTP implements http.Handler with CORS applied to every route.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.router.ServeHTTP(w, r)
}

// handleGoogleAuth verifies a Google ID token and upserts the resulting
// identity. Nothing is persisted when verification fails.
func (s *Server) handleGoogleAuth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.verifier == nil {
		s.writeError(w, http.StatusServiceUnavailable, "auth_unavailable", "google sign-in is not configured")
		return
	}

	var req AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := s.verifier.Verify(ctx, req.Token)
	if err != nil {
		log.Printf("api: token verification failed: %v", err)
		s.writeError(w, http.StatusBadRequest, "invalid_credential", "token verification failed")
		return
	}

	if err := s.store.UpsertUser(ctx, user); err != nil {
		log.Printf("api: user upsert failed user_id=%s: %v", user.ID, err)
		s.writeError(w, http.StatusInternalServerError, "persistence_error", "could not save user")
		return
	}

	log.Printf("api: authenticated user_id=%s", user.ID)
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Database:    "connected",
		Connections: s.roster.Stats(),
	}

	status := http.StatusOK
	if err := s.store.HealthCheck(r.Context()); err != nil {
		log.Printf("api: health check failed: %v", err)
		resp.Status = "unhealthy"
		resp.Database = "disconnected"
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, resp)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	g, err := s.sessions.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		if errors.Is(err, interfaces.ErrGameNotFound) {
			s.writeError(w, http.StatusNotFound, "not_found", "game not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "persistence_error", "could not load game")
		return
	}

	s.writeJSON(w, http.StatusOK, GameResponse{
		Game:            g,
		ConnectionCount: len(s.roster.ConnectionsInRoom(g.ID)),
	})
}

func (s *Server) handleAbandonGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("id")
	if err := s.sessions.Abandon(r.Context(), gameID); err != nil {
		switch {
		case errors.Is(err, interfaces.ErrGameNotFound):
			s.writeError(w, http.StatusNotFound, "not_found", "game not found")
		case errors.Is(err, game.ErrInvalidTransition):
			s.writeError(w, http.StatusConflict, "invalid_transition", "game is already finished")
		default:
			s.writeError(w, http.StatusInternalServerError, "persistence_error", "could not abandon game")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"id":     gameID,
		"status": types.StatusAbandoned,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: response encode failed: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
