package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"eduauth/internal/authz"
	"eduauth/internal/config"
	"eduauth/internal/jobs"
	"eduauth/internal/observability/logging"
	"eduauth/internal/observability/metrics"
	"eduauth/internal/observability/middleware"
	impl "eduauth/internal/service/impl"
	"eduauth/internal/store"
	httpx "eduauth/internal/transport/http"
	"eduauth/pkg/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: "eduauth",
		Environment: env,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	slog.SetDefault(logger)

	logger.Info("starting service")

	cfg := config.Load()
	metrics.MustRegister("eduauth")

	gdb, err := db.OpenGorm(db.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		logger.Error("gorm open", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		logger.Error("migrate", "error", err)
		os.Exit(1)
	}

	st := store.New(gdb)

	pw := impl.NewPasswordServiceArgon2id()
	identity := impl.NewIdentityServiceImpl(st)
	factors := impl.NewFactorServiceImpl(st)
	tokens := impl.NewTokenServiceHS256(impl.TokenConfig{
		Issuer:     cfg.Issuer,
		Audience:   cfg.Audience,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		SigningKey: []byte(cfg.SigningKey),
	}, st)
	auth := impl.NewAuthServiceImpl(
		st, pw, identity, factors, tokens, cfg.SessionTTL,
		impl.NewOTPVerifier(st),
		impl.NewBackupTokenVerifier(st),
	)
	mfa := impl.NewMFAServiceImpl(st)

	purger, err := jobs.StartSessionPurge(st, cfg.PurgeSchedule)
	if err != nil {
		logger.Error("purge schedule", "error", err)
		os.Exit(1)
	}
	defer purger.Stop()

	router := httpx.NewRouter(httpx.Services{
		Auth:     auth,
		Tokens:   tokens,
		Identity: identity,
		MFA:      mfa,
		Authz:    authz.NewDeps(auth, identity, st),
	})

	handler := middleware.WithRequestAndTrace(router)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("eduauth listening", "addr", srv.Addr, "issuer", cfg.Issuer)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
