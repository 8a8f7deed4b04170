// Package commands implements the authctl subcommands.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/benvon/smart-auth/internal/config"
	"github.com/benvon/smart-auth/internal/database"
	"github.com/benvon/smart-auth/internal/logger"
	"github.com/benvon/smart-auth/internal/password"
	"github.com/benvon/smart-auth/internal/services/auth"
	"github.com/benvon/smart-auth/internal/tokenstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App holds the collaborators a command runs against
type App struct {
	Users database.UserDirectory
	// Service is nil unless the command asked for token access
	Service *auth.Service
	// EnsureSchema applies the embedded schema
	EnsureSchema func(ctx context.Context) error
}

// Opener connects the backends a command needs and returns a cleanup func
type Opener func(ctx context.Context, withTokens bool) (*App, func(), error)

// ConfigLoader loads the service configuration
type ConfigLoader func() (*config.Config, error)

// AddCommands registers every authctl subcommand on root
func AddCommands(root *cobra.Command, open Opener, load ConfigLoader) {
	root.AddCommand(NewUserCmd(open))
	root.AddCommand(NewMigrateCmd(open))
	root.AddCommand(NewCheckOAuthCmd(load))
}

// DefaultOpener connects to Postgres, and to Redis when withTokens is set
func DefaultOpener(ctx context.Context, withTokens bool) (*App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}

	users := database.NewUserRepository(db)
	app := &App{Users: users, EnsureSchema: db.EnsureSchema}
	if !withTokens {
		return app, closeDB, nil
	}

	log, err := logger.NewDevelopmentLogger(cfg.ServerDebugMode)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	redisClient, err := tokenstore.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	app.Service = newService(cfg, users, tokenstore.NewRedisStore(redisClient), password.NewBcryptHasher(0), log)

	return app, func() {
		_ = logger.Sync(log)
		if err := redisClient.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close redis: %v\n", err)
		}
		closeDB()
	}, nil
}

// newService builds the auth service the token commands run against
func newService(cfg *config.Config, users database.UserDirectory, store tokenstore.Store, hasher auth.PasswordHasher, log *zap.Logger) *auth.Service {
	return auth.NewService(auth.Deps{
		Users:      users,
		Store:      store,
		Codec:      auth.NewJWTCodec(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL),
		Hasher:     hasher,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		Logger:     log,
	})
}
