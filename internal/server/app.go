// Package server wires the spendkeeper server: configuration, logging,
// storage, the revocation store, the gRPC API, the metrics endpoint and the
// background revocation sweeper.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	"github.com/dmitrijs2005/spendkeeper/internal/server/auth"
	"github.com/dmitrijs2005/spendkeeper/internal/server/config"
	"github.com/dmitrijs2005/spendkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/spendkeeper/internal/server/services"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/spendkeeper/internal/server/grpc"
)

const shutdownTimeout = 5 * time.Second

// Seams for tests.
var (
	openDB                   = repomanager.OpenPostgres
	newRepoManager           = func() repomanager.RepositoryManager { return repomanager.NewPostgresRepositoryManager() }
	logOutput      io.Writer = os.Stdout
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	metrics *metrics.Metrics

	db     *sql.DB
	closer io.Closer

	revocations *services.RevocationService
	grpcServer  *gs.GRPCServer
}

// newRevocationStore picks the revocation backend named in the config. The
// returned closer is nil when the backend owns no connection of its own.
func newRevocationStore(ctx context.Context, c *config.Config, m repomanager.RepositoryManager, db *sql.DB) (revocations.Repository, io.Closer, error) {
	switch c.RevocationBackend {
	case config.RevocationBackendPostgres, "":
		return m.Revocations(db), nil, nil
	case config.RevocationBackendMemory:
		return revocations.NewMemoryRepository(), nil, nil
	case config.RevocationBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis init error: %w", err)
		}
		return revocations.NewRedisRepository(client, c.RedisKeyPrefix), client, nil
	default:
		return nil, nil, fmt.Errorf("unknown revocation backend %q", c.RevocationBackend)
	}
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewLogger(logOutput, c.LogLevel, c.LogFormat)

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, closer, err := newRevocationStore(ctx, c, rm, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	codec, err := auth.NewTokenCodec(auth.CodecConfig{
		Secret:     c.SecretKey,
		Algorithm:  c.SigningAlgorithm,
		AccessTTL:  c.AccessTokenValidityDuration,
		RefreshTTL: c.RefreshTokenValidityDuration,
	}, auth.SystemClock{})
	if err != nil {
		_ = db.Close()
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("token codec init error: %w", err)
	}

	m := metrics.New()

	as := services.NewAuthService(db, rm, auth.NewHasher(c.PasswordHashCost), codec, logger.With("module", "auth"), m)
	rs := services.NewRevocationService(store, codec, auth.SystemClock{}, logger.With("module", "revocations"), m)
	authn := services.NewAuthenticator(codec, rs, logger.With("module", "authenticator"), m)
	sm := services.NewSessionManager(as, authn, rs, logger.With("module", "sessions"), m)

	grpcServer := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, gs.Services{
		Auth:          as,
		Sessions:      sm,
		Authenticator: authn,
		Transactions:  services.NewTransactionService(db, rm, logger.With("module", "transactions")),
		Receipts:      services.NewReceiptService(db, rm, c, logger.With("module", "receipts")),
	})

	return &App{
		config:      c,
		logger:      logger,
		metrics:     m,
		db:          db,
		closer:      closer,
		revocations: rs,
		grpcServer:  grpcServer,
	}, nil
}

// Close releases the database and, for the redis backend, the redis client.
func (app *App) Close() error {
	var errs []error
	if app.closer != nil {
		errs = append(errs, app.closer.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}

func (app *App) runMetricsServer(ctx context.Context) error {
	if app.config.EndpointAddrMetrics == "" {
		return nil
	}

	srv := &http.Server{
		Addr:              app.config.EndpointAddrMetrics,
		Handler:           metrics.NewMux(app.metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "Starting metrics server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		app.logger.Info(ctx, "Stopping metrics server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Run serves until ctx is cancelled or one of the components fails; a
// failure stops the others.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...", "revocation_backend", app.config.RevocationBackend)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.grpcServer.Run(ctx)
	})
	g.Go(func() error {
		return app.runMetricsServer(ctx)
	})
	g.Go(func() error {
		return app.revocations.RunSweeper(ctx, app.config.SweepInterval)
	})

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}

// Sweep removes expired revocation records once and reports what is left.
func (app *App) Sweep(ctx context.Context) error {
	removed, stats, err := app.revocations.Sweep(ctx)
	if err != nil {
		app.logger.Error(ctx, "sweep failed", "error", err)
		return err
	}

	app.logger.Info(ctx, "sweep finished",
		"removed", removed,
		"total", stats.Total,
		"active", stats.Active,
		"expired", stats.Expired,
	)
	return nil
}
