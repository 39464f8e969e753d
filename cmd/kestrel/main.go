package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/kestrelhq/kestrel/internal/accounts"
	"github.com/kestrelhq/kestrel/internal/auditquery"
	"github.com/kestrelhq/kestrel/internal/config"
	"github.com/kestrelhq/kestrel/internal/directory"
	"github.com/kestrelhq/kestrel/internal/events"
	"github.com/kestrelhq/kestrel/internal/notify"
	"github.com/kestrelhq/kestrel/internal/refdata"
	"github.com/kestrelhq/kestrel/internal/reports"
	"github.com/kestrelhq/kestrel/internal/server"
	"github.com/kestrelhq/kestrel/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("KESTREL_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("KESTREL_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis.
	pubsub, err := events.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	// Create the directory client with OAuth2 client credentials.
	dir := directory.New(ctx, directory.Config{
		BaseURL:           cfg.Directory.BaseURL,
		TokenURL:          cfg.Directory.TokenURL,
		ClientID:          cfg.Directory.ClientID,
		ClientSecret:      cfg.Directory.ClientSecret,
		Scopes:            cfg.Directory.Scopes,
		RequestsPerSecond: cfg.Directory.RequestsPerSecond,
		Burst:             cfg.Directory.Burst,
	})

	// Load the product-name reference data when a CSV is configured.
	names := refdata.NewCache()
	if cfg.RefData.ProductNamesCSV != "" {
		if loadErr := names.LoadFile(cfg.RefData.ProductNamesCSV); loadErr != nil {
			return fmt.Errorf("product names: %w", loadErr)
		}
		log.Info().Int("entries", names.Len()).Str("path", cfg.RefData.ProductNamesCSV).Msg("product names loaded")
	}

	// Create the audit-query orchestrator.
	orchestrator := auditquery.NewOrchestrator(dir, pubsub, cfg.Query.MaxLookback)

	// Create the report service.
	reportSvc := reports.New(dir, names)

	// Create the Slack notifier when configured.
	var notifier accounts.Notifier
	if cfg.Slack.BotToken != "" && cfg.Slack.Channel != "" {
		notifier = notify.NewSlackNotifier(slacklib.New(cfg.Slack.BotToken), cfg.Slack.Channel)
		log.Info().Str("channel", cfg.Slack.Channel).Msg("Slack notifications enabled")
	}

	// Create the accounts service.
	accountSvc := accounts.New(dir, store.Actions(), notifier)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(cfg, orchestrator, reportSvc, accountSvc, pubsub)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
