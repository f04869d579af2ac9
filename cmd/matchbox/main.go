package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"matchbox/internal/app"
	"matchbox/internal/config"
)

const shutdownTimeout = 30 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "matchbox",
		Short: "Two-player card game session coordinator",
		Long: `Matchbox coordinates two-player real-time card game sessions: it admits
players into games, relays invitations, and broadcasts card events to game
rooms over WebSocket connections.`,
		RunE: run,
	}

	flags := rootCmd.Flags()
	flags.String("bind", "0.0.0.0", "address to listen on")
	flags.Int("port", 8080, "port to listen on")
	flags.String("database", "./data/matchbox.db", "path to the SQLite database file")
	flags.String("google-client-id", "", "OAuth client ID for Google sign-in (empty disables it)")
	flags.Duration("read-timeout", 15*time.Second, "HTTP read timeout")
	flags.Duration("write-timeout", 15*time.Second, "HTTP write timeout")
	flags.Duration("ping-interval", 30*time.Second, "WebSocket keepalive ping interval")
	flags.Duration("ws-read-timeout", 90*time.Second, "WebSocket read deadline, reset by pongs")

	viper.SetEnvPrefix("matchbox")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	flags.VisitAll(func(f *pflag.Flag) {
		if err := viper.BindPFlag(f.Name, flags.Lookup(f.Name)); err != nil {
			log.Fatalf("failed to bind flag %s: %v", f.Name, err)
		}
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	cfg.HTTP.Host = viper.GetString("bind")
	cfg.HTTP.Port = viper.GetInt("port")
	cfg.HTTP.ReadTimeout = viper.GetDuration("read-timeout")
	cfg.HTTP.WriteTimeout = viper.GetDuration("write-timeout")
	cfg.Database.Path = viper.GetString("database")
	cfg.WebSocket.PingInterval = viper.GetDuration("ping-interval")
	cfg.WebSocket.ReadTimeout = viper.GetDuration("ws-read-timeout")
	cfg.Auth.GoogleClientID = viper.GetString("google-client-id")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(ctx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	if err := application.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received %v, shutting down", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	return application.Stop(shutdownCtx)
}
