package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authcleanup "github.com/AlibekovAA/dashboard-auth/internal/auth/cleanup"
	authhttp "github.com/AlibekovAA/dashboard-auth/internal/auth/http"
	authrepo "github.com/AlibekovAA/dashboard-auth/internal/auth/repository"
	"github.com/AlibekovAA/dashboard-auth/internal/auth/service"
	"github.com/AlibekovAA/dashboard-auth/internal/common/bootstrap"
	"github.com/AlibekovAA/dashboard-auth/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/dashboard-auth/internal/common/crypto"
	commonhttp "github.com/AlibekovAA/dashboard-auth/internal/common/http"
	srv "github.com/AlibekovAA/dashboard-auth/internal/common/server"
	"github.com/AlibekovAA/dashboard-auth/internal/common/sessionauth"
	"github.com/AlibekovAA/dashboard-auth/internal/common/sessioncookie"
	userhttp "github.com/AlibekovAA/dashboard-auth/internal/user/http"
	userrepo "github.com/AlibekovAA/dashboard-auth/internal/user/repository"
	userservice "github.com/AlibekovAA/dashboard-auth/internal/user/service"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.NewAuthApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start auth service: %v\n", err)
		os.Exit(1)
	}

	log := app.Log
	cfg := app.Config

	sessionRepo := authrepo.NewMemorySessionRepository(app.Clock)
	hasher := commoncrypto.NewBcryptHasher(cfg.BcryptCost)

	verifier, err := service.NewVerifier(app.UserRepo, hasher, log)
	if err != nil {
		log.Fatalf("failed to prepare credential verifier: %v", err)
	}

	sessions := service.NewSessionManager(
		sessionRepo,
		commoncrypto.NewRandomTokenGenerator(),
		app.Clock,
		cfg.SessionTTL,
		log,
	)
	authService := service.NewAuthService(app.UserRepo, hasher, verifier, sessions, app.Clock, log)
	userService := userservice.NewUserService(app.UserRepo, sessions, log)

	codec, err := sessioncookie.NewCodec(sessioncookie.Config{
		Secret: cfg.SessionSecret,
		TTL:    cfg.SessionTTL,
		Secure: cfg.SessionCookieSecure,
	})
	if err != nil {
		log.Fatalf("failed to create session cookie codec: %v", err)
	}
	guard := sessionauth.NewGuard(sessions, codec, sessioncookie.FromRequest, log)

	go authcleanup.StartCleanup(ctx, sessionRepo, cfg.SessionSweepInterval, log, "session")
	userrepo.StartCountMetrics(ctx, app.UserRepo, log, constants.UserStoreMetricsInterval)

	mux := http.NewServeMux()
	authhttp.Register(mux, authService, codec, sessioncookie.FromRequest, guard, cfg.RequestTimeout, log)
	userhttp.Register(mux, userService, guard, cfg.RequestTimeout, log)
	mux.Handle("/metrics", promhttp.Handler())

	rateLimiter := commonhttp.NewStrictRateLimiter(cfg.TrustedProxies)
	handler := commonhttp.BuildBaseHandler("auth", log, rateLimiter, mux)
	server := srv.New(cfg.HTTPPort, cfg.RequestTimeout, handler)

	hooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			log.Infof("auth service: stopping background workers")
			cancel()
			rateLimiter.Stop()
			return nil
		},
		func(ctx context.Context) error {
			app.Close()
			return nil
		},
	}

	if err := srv.Run(ctx, server, log, "auth", hooks); err != nil {
		app.Close()
		log.Fatalf("auth service stopped: %v", err)
	}
}
