// Command heartbridge is the command-line HeartBridge client: it runs the
// phone/OTP login, restores the session from local state and updates the
// stored profile.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/heartbridge/heartbridge/internal/api"
	"github.com/heartbridge/heartbridge/internal/auth"
	"github.com/heartbridge/heartbridge/internal/config"
	"github.com/heartbridge/heartbridge/internal/credential"
	"github.com/heartbridge/heartbridge/internal/infra"
	"github.com/heartbridge/heartbridge/internal/logging"
	"github.com/heartbridge/heartbridge/internal/profile"
	"github.com/heartbridge/heartbridge/internal/session"
)

const usage = `usage: heartbridge <command> [flags]

commands:
  status    show the stored session
  login     sign in with a phone number and verification code
  logout    forget the stored profile and token
  profile   fetch the signed-in account from the server
  videos    list the caregiver video library
  points    adjust the stored points balance (-delta N)
  tier      change the stored subscription tier (-set TIER)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateClient(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens, closeTokens, err := openCredentialStore(ctx, cfg)
	if err != nil {
		logger.Error("open credential store", "backend", cfg.CredentialBackend, "error", err)
		os.Exit(1)
	}
	defer closeTokens()

	client, err := api.NewClient(cfg.BaseURL, tokens, api.WithLogger(logger))
	if err != nil {
		logger.Error("build api client", "error", err)
		os.Exit(1)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		tokens:   tokens,
		auth:     auth.NewService(client),
		sessions: session.NewManager(profile.NewFileStore(cfg.ProfilePath()), tokens, logger),
		in:       os.Stdin,
		out:      os.Stdout,
	}
	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", api.Message(err))
		os.Exit(1)
	}
}

func openCredentialStore(ctx context.Context, cfg config.Config) (credential.Store, func(), error) {
	noop := func() {}
	switch cfg.CredentialBackend {
	case config.CredentialMemory:
		return credential.NewMemoryStore(), noop, nil
	case config.CredentialRedis:
		cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return credential.NewRedisStore(cache, cfg.CredentialService, cfg.CredentialAccount), closer(cache), nil
	default:
		store, err := credential.NewFileStore(cfg.CredentialPath(), cfg.CredentialSecret, cfg.CredentialService, cfg.CredentialAccount)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	}
}

func closer(cache *redis.Client) func() {
	return func() { _ = cache.Close() }
}
