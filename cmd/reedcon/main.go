package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/reedfamily/reedcon/internal/config"
	"github.com/reedfamily/reedcon/internal/db"
	"github.com/reedfamily/reedcon/internal/docker"
	"github.com/reedfamily/reedcon/internal/rcon"
	"github.com/reedfamily/reedcon/internal/server"
	"github.com/reedfamily/reedcon/internal/wsrelay"
)

// transport is a console transport that owns its reconnect loop.
type transport interface {
	rcon.Transport
	Run(ctx context.Context) error
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg)
	log.Info().Str("module", "main").Str("transport", cfg.Transport.Kind).Str("game", cfg.Game).Msg("reedcon starting")

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	t, cleanup, err := newTransport(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := server.New(ctx, cfg, database, t)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// No write timeout: websocket handlers hold the connection open.
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := t.Run(gctx); err != nil {
			return fmt.Errorf("transport: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("module", "main").Str("addr", cfg.ListenAddr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Str("module", "main").Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newTransport(cfg *config.Config) (transport, func(), error) {
	switch cfg.Transport.Kind {
	case config.TransportDocker:
		cli, err := docker.NewClient()
		if err != nil {
			return nil, nil, err
		}
		console := docker.NewConsole(cli, cfg.Transport.Docker.Container, cfg.Transport.ReconnectDelay, cfg.Transport.Docker.Coalesce)
		return console, func() { cli.Close() }, nil
	default:
		relay := wsrelay.New(cfg.Transport.Relay.URL, cfg.Transport.Relay.Token, cfg.Transport.ReconnectDelay)
		return relay, func() {}, nil
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
