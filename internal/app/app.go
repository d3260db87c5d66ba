// Package app assembles the pieces shared by the gateway and mock API binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fastservices/gateway/internal/auth"
	"github.com/fastservices/gateway/internal/config"
	"github.com/fastservices/gateway/internal/db"
	"github.com/fastservices/gateway/internal/http/handlers"
	"github.com/fastservices/gateway/internal/mockbackend"
	"github.com/fastservices/gateway/internal/observability"
	"github.com/fastservices/gateway/internal/repo/memory"
	"github.com/fastservices/gateway/internal/repo/postgres"
)

// Tokens builds the gateway's token manager. Backend tokens are checked
// against JWT_SECRET; tokens the gateway mints for token-less registrations
// (and, in mock mode, the in-process backend's tokens) use their own key.
func Tokens(cfg config.Config, log *slog.Logger) *auth.Manager {
	if cfg.SessionTokenSecret == "" && cfg.SessionStore == "redis" {
		log.Warn("SESSION_TOKEN_SECRET not set, sessions minted by this process will not survive a restart")
	}
	return auth.NewManager(cfg.JWTSecret, cfg.JWTAccessTTL, auth.WithSigningKey(cfg.SessionTokenSecret))
}

// BackendTokens builds the token manager of the standalone mock API. It plays
// the backend, so it signs with JWT_SECRET, the key gateways verify with.
func BackendTokens(cfg config.Config) *auth.Manager {
	return auth.NewManager(cfg.JWTSecret, cfg.JWTAccessTTL, auth.WithSigningKey(cfg.JWTSecret))
}

// MockBackend builds the in-process backend. Accounts live in memory unless
// MOCK_DIRECTORY=postgres. The returned close func releases the pool.
func MockBackend(ctx context.Context, cfg config.Config, prom *observability.Prom, tokens *auth.Manager) (*mockbackend.Backend, []handlers.Check, func(), error) {
	var (
		store  mockbackend.AccountStore = memory.NewAccountsRepo()
		checks []handlers.Check
		closer = func() {}
	)

	if cfg.MockDirectory == "postgres" {
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("db connect: %w", err)
		}
		repo := postgres.NewAccountsRepo(pool, prom)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		store = repo
		checks = append(checks, handlers.Check{Name: "postgres", Ping: pool.Ping})
		closer = pool.Close
	}

	b, err := mockbackend.New(ctx, store, tokens)
	if err != nil {
		closer()
		return nil, nil, nil, fmt.Errorf("mock backend: %w", err)
	}
	return b, checks, closer, nil
}
