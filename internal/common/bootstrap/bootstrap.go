package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"

	"github.com/AlibekovAA/dashboard-auth/internal/common/clock"
	"github.com/AlibekovAA/dashboard-auth/internal/common/config"
	"github.com/AlibekovAA/dashboard-auth/internal/common/constants"
	"github.com/AlibekovAA/dashboard-auth/internal/common/db"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
	"github.com/AlibekovAA/dashboard-auth/internal/common/resilience"
	userrepo "github.com/AlibekovAA/dashboard-auth/internal/user/repository"
)

type AuthApp struct {
	Log      *logger.Logger
	Config   config.AuthConfig
	Clock    clock.Clock
	Pool     *pgxpool.Pool
	UserRepo userrepo.Repository
}

// NewAuthApp loads configuration and opens the user store selected by
// STORE_DRIVER. Background pool metrics stop when ctx is cancelled.
func NewAuthApp(ctx context.Context) (*AuthApp, error) {
	envErr := loadDotEnv()

	log, err := initializeLogger("auth")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if envErr != nil {
		log.Warnf("failed to read .env: %v", envErr)
	}

	cfg, err := config.LoadAuthConfig()
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return nil, err
	}

	app := &AuthApp{
		Log:    log,
		Config: cfg,
		Clock:  clock.NewRealClock(),
	}

	switch cfg.StoreDriver {
	case constants.StoreDriverPostgres:
		if err := app.openPostgres(ctx); err != nil {
			return nil, err
		}
	default:
		repo, err := userrepo.NewFileRepository(cfg.UsersFile, app.Clock, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open users file: %w", err)
		}
		app.UserRepo = repo
		log.Infof("user store: file %s", cfg.UsersFile)
	}

	return app, nil
}

func (a *AuthApp) openPostgres(ctx context.Context) error {
	pool, err := db.NewPool(ctx, a.Log, a.Config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database pool: %w", err)
	}

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  a.Config.CircuitBreakerThreshold,
		Timeout:    a.Config.CircuitBreakerTimeout,
		ResetAfter: a.Config.CircuitBreakerReset,
		Name:       "user_store",
		Ignore:     userrepo.IsBusinessError,
		Clock:      a.Clock,
		Logger:     a.Log,
	})

	repo := userrepo.NewPgRepository(pool, breaker, a.Log)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to prepare users schema: %w", err)
	}

	db.StartPoolMetrics(ctx, pool, constants.DBPoolMetricsInterval)

	a.Pool = pool
	a.UserRepo = repo
	a.Log.Infof("user store: postgres")
	return nil
}

func (a *AuthApp) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// loadDotEnv fills unset variables from ./.env (or ENV_FILE). Variables
// already present in the environment win.
func loadDotEnv() error {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func initializeLogger(serviceName string) (*logger.Logger, error) {
	return logger.New(os.Getenv("LOG_DIR"), serviceName, os.Getenv("LOG_LEVEL"))
}
