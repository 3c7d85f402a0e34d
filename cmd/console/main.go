// Command console serves the laundry role-family panels behind their session
// and permission gate.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lavanderia/ops-console/internal/api"
	"github.com/lavanderia/ops-console/internal/api/handler"
	"github.com/lavanderia/ops-console/internal/api/metrics"
	"github.com/lavanderia/ops-console/internal/core/domain"
	"github.com/lavanderia/ops-console/internal/core/family"
	"github.com/lavanderia/ops-console/internal/core/ports"
	"github.com/lavanderia/ops-console/internal/core/service"
	"github.com/lavanderia/ops-console/internal/core/session"
	"github.com/lavanderia/ops-console/internal/infrastructure/db"
	mongodb "github.com/lavanderia/ops-console/internal/infrastructure/db/mongo"
	redisdb "github.com/lavanderia/ops-console/internal/infrastructure/db/redis"
	"github.com/lavanderia/ops-console/internal/infrastructure/upstream"
	"github.com/lavanderia/ops-console/internal/pkg/config"
	"github.com/lavanderia/ops-console/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "ops-console",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("console stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := db.NewStorage(ctx, db.StorageConfig{
		Driver: cfg.Session.Driver,
		Prefix: cfg.Session.Prefix,
		Redis: redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
	})
	if err != nil {
		return err
	}
	defer storage.Close()

	families := family.Defaults()
	registry, err := family.NewRegistry(family.Options{
		Families:     families,
		Storage:      storage,
		Logger:       log,
		Observer:     metrics.Observer{},
		StoreOptions: session.Options{Timeout: cfg.Session.RehydrateTimeout},
	})
	if err != nil {
		return err
	}
	registry.StartAll(ctx)

	readiness := map[string]handler.Pinger{"storage": storage}
	var (
		authn ports.Authenticator
		proxy handler.Upstream
	)
	switch cfg.AuthMode {
	case config.AuthModeUpstream:
		tokenKeys := make(map[string]string, len(families))
		for _, f := range families {
			tokenKeys[f.Name] = f.TokenKey
		}
		client := upstream.New(upstream.Config{
			BaseURL: cfg.Upstream.URL,
			Timeout: cfg.Upstream.Timeout,
		}, storage, tokenKeys, log)
		authn, proxy = client, client
		log.Info().Str("upstream", cfg.Upstream.URL).Msg("using upstream login")

	default:
		mclient, mdb, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = mclient.Disconnect(dctx)
		}()

		repo := mongodb.NewAccountRepository(mdb)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		auth := service.NewAuthService(repo, cfg.JWTSecret, cfg.TokenTTL)
		if err := seed(ctx, auth, cfg.Seed, log); err != nil {
			return err
		}
		authn = auth
		readiness["mongodb"] = handler.PingFunc(func(ctx context.Context) error {
			return mclient.Ping(ctx, nil)
		})
		log.Info().Str("db", cfg.Mongo.Database).Msg("using local login")
	}

	sessions := service.NewSessionService(registry, authn, log)
	e := api.NewRouter(api.Deps{
		Registry:  registry,
		Sessions:  sessions,
		Upstream:  proxy,
		Readiness: readiness,
		Heartbeat: cfg.Session.Heartbeat,
		Logger:    logger.Component("http"),
	})
	// Event streams end with the process context instead of holding up
	// shutdown.
	e.Server.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("console listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// seed creates the bootstrap operator account when one is configured.
func seed(ctx context.Context, auth *service.AuthService, cfg config.SeedConfig, log zerolog.Logger) error {
	if cfg.Email == "" {
		return nil
	}
	_, err := auth.Register(ctx, ports.RegisterInput{
		Name:     cfg.Name,
		Email:    cfg.Email,
		Password: cfg.Password,
		Role:     cfg.Role,
	})
	switch {
	case errors.Is(err, domain.ErrUserExists):
		log.Debug().Str("email", cfg.Email).Msg("seed account already present")
		return nil
	case err != nil:
		return err
	}
	log.Info().Str("email", cfg.Email).Str("role", cfg.Role).Msg("seed account created")
	return nil
}
