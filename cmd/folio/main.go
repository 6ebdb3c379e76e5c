package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/folio/internal/auth"
	"github.com/gosuda/folio/internal/config"
	"github.com/gosuda/folio/internal/domain"
	"github.com/gosuda/folio/internal/profileclient"
	"github.com/gosuda/folio/internal/server"
	"github.com/gosuda/folio/internal/session"
	"github.com/gosuda/folio/internal/store/postgres"
	redisstore "github.com/gosuda/folio/internal/store/redis"
	"github.com/gosuda/folio/internal/tenant"
	"github.com/gosuda/folio/web"
)

func main() {
	var err error
	if len(os.Args) > 1 && os.Args[1] == "token" {
		err = issueToken(os.Args[2:])
	} else {
		err = run()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func initLogging() {
	logLevel := os.Getenv("FOLIO_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil || logLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("FOLIO_LOG_FORMAT") == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

func run() error {
	initLogging()

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

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	// Profile cache shared by the resolver and the profile loader.
	var cache domain.ProfileCache
	switch cfg.Resolver.CacheBackend {
	case config.CacheBackendRedis:
		client, dialErr := redisstore.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if dialErr != nil {
			return dialErr
		}
		defer client.Close()
		cache = redisstore.NewProfileCache(client, cfg.Resolver.CacheTTL)
	default:
		cache = tenant.NewMemoryCache(cfg.Resolver.CacheTTL)
	}

	// Slug lookups go to the remote profile API when configured, otherwise
	// straight to the database.
	var fetcher domain.ProfileFetcher = store.ProfileRepo()
	if cfg.Resolver.ProfileAPIURL != "" {
		client, clientErr := profileclient.New(cfg.Resolver.ProfileAPIURL)
		if clientErr != nil {
			return clientErr
		}
		fetcher = client
	}

	log.Info().
		Str("cache", cfg.Resolver.CacheBackend).
		Bool("remote_profiles", cfg.Resolver.ProfileAPIURL != "").
		Dur("fetch_timeout", cfg.Resolver.FetchTimeout).
		Msg("tenant resolution configured")

	// Prepare embedded SPA assets (strip "build/" prefix from fs paths).
	webAssets, err := fs.Sub(web.Assets, "build")
	if err != nil {
		return fmt.Errorf("web assets: %w", err)
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sessions := session.NewRegistry(ctx, cfg.Server.SessionIdle)

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, store, fetcher, cache, sessions, webAssets)

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

// issueToken prints an owner access token signed with FOLIO_JWT_SECRET.
func issueToken(args []string) error {
	initLogging()

	fset := flag.NewFlagSet("token", flag.ContinueOnError)
	userID := fset.Int64("user", 0, "owner user id")
	slug := fset.String("slug", "", "owner portfolio slug")
	ttl := fset.Duration("ttl", 0, "token lifetime (default FOLIO_JWT_ACCESS_TTL)")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if *userID <= 0 {
		return errors.New("token: -user must be a positive id")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *ttl <= 0 {
		*ttl = cfg.JWT.AccessTTL
	}

	tok, err := auth.IssueAccessToken(cfg.JWT.Secret, *userID, domain.NormalizeSlug(*slug), *ttl)
	if err != nil {
		return err
	}

	fmt.Println(tok)
	return nil
}
