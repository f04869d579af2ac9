// Package app wires the coordinator together: storage, session manager,
// connection registry, event router, and the HTTP server.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"matchbox/internal/api"
	"matchbox/internal/auth"
	"matchbox/internal/config"
	"matchbox/internal/database"
	"matchbox/internal/game"
	"matchbox/internal/hub"
	"matchbox/internal/router"
	"matchbox/internal/websocket"
	dbconfig "matchbox/pkg/database"
)

// Application owns every component's lifecycle.
type Application struct {
	config   *config.Config
	store    *database.Store
	registry *websocket.Registry
	router   *router.Router
	server   *http.Server
}

// New builds the application from configuration. Components come up in
// dependency order; any failure tears down what already started.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dbCfg := dbconfig.DefaultConfig()
	dbCfg.DatabasePath = cfg.Database.Path

	store, err := database.NewStore(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	migrations := dbconfig.NewMigrationManager(store.DB(), dbCfg.MigrationsPath)
	if err := migrations.ApplyMigrations(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	sessions := game.NewManager(store)
	boards := game.NewBoardTracker()
	registry := websocket.NewRegistry()
	caster := hub.NewBroadcaster(registry)
	relay := hub.NewRelay(registry)
	events := router.New(registry, sessions, boards, caster, relay)

	var verifier auth.Verifier
	if cfg.Auth.GoogleClientID != "" {
		v, err := auth.NewGoogleVerifier(ctx, cfg.Auth.GoogleClientID)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to initialize google verifier: %w", err)
		}
		verifier = v
	} else {
		log.Printf("app: google sign-in disabled, no client ID configured")
	}

	apiServer := api.NewServer(sessions, store, registry, verifier)
	wsHandler := websocket.NewHandler(registry, events, cfg.WebSocket.PingInterval, cfg.WebSocket.ReadTimeout)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)
	mux.Handle("/", apiServer)

	return &Application{
		config:   cfg,
		store:    store,
		registry: registry,
		router:   events,
		server: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      mux,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		},
	}, nil
}

// Start runs the HTTP listener and blocks briefly to surface immediate
// startup failures such as a busy port.
func (a *Application) Start() error {
	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		log.Printf("app: listening on %s", a.config.Addr())
		return nil
	}
}

// Stop shuts down in reverse order: stop accepting requests, close live
// sockets, then flush and close the store.
func (a *Application) Stop(ctx context.Context) error {
	log.Printf("app: shutting down")

	if err := a.server.Shutdown(ctx); err != nil {
		log.Printf("app: http shutdown error: %v", err)
	}

	a.registry.CloseAll()
	a.router.Stop()

	if err := a.store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}

	log.Printf("app: shutdown complete")
	return nil
}

// Addr returns the configured listen address.
func (a *Application) Addr() string {
	return a.config.Addr()
}
