package main

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/restaurant-management/pkg/auth"
	"github.com/diagnosis/restaurant-management/pkg/config"
	"github.com/diagnosis/restaurant-management/pkg/database"
	"github.com/diagnosis/restaurant-management/pkg/events"
	"github.com/diagnosis/restaurant-management/pkg/logger"
	mw "github.com/diagnosis/restaurant-management/pkg/middleware"
	"github.com/diagnosis/restaurant-management/pkg/ratelimit"
	"github.com/diagnosis/restaurant-management/pkg/server"
	"github.com/diagnosis/restaurant-management/pkg/tracking"
	"github.com/diagnosis/restaurant-management/services/identity/internal/handlers"
	"github.com/diagnosis/restaurant-management/services/identity/internal/mailer"
	"github.com/diagnosis/restaurant-management/services/identity/internal/repository"
	"github.com/diagnosis/restaurant-management/services/identity/internal/security"
	"github.com/diagnosis/restaurant-management/services/identity/internal/service"
)

const serviceName = "identity"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}

	flush, err := tracking.Init(cfg, serviceName)
	if err != nil {
		logger.Warn("Error tracking disabled", "error", err)
	}
	defer flush()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer pool.Close()

	eventBus, err := events.Connect(cfg.NATS.Enabled, cfg.NATS.URL, serviceName)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}
	defer eventBus.Close()

	limiter, closeLimiter, err := ratelimit.New(ctx, cfg, pool)
	if err != nil {
		logger.Fatal("Failed to init rate limiter", "error", err)
	}
	defer closeLimiter()

	passwords, err := security.NewPasswordHasher(cfg.Security)
	if err != nil {
		logger.Fatal("Failed to init password hasher", "error", err)
	}

	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		Key:      cfg.JWT.Key,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.AccessTokenTTL(),
	})
	if err != nil {
		logger.Fatal("Failed to init token issuer", "error", err)
	}

	mail, err := mailer.New(cfg.Email)
	if err != nil {
		logger.Fatal("Failed to init mailer", "error", err)
	}

	authService := service.NewAuthService(
		repository.NewStore(pool),
		passwords,
		issuer,
		service.NewRefreshManager(security.NewRefreshHasher(cfg.Security), cfg.JWT.RefreshTokenTTL()),
		service.NewLockoutPolicy(cfg.Security.MaxFailedLoginAttempts, cfg.Security.LockoutDuration),
		service.NewVerificationManager(cfg.Security.VerificationCodeTTL, cfg.Security.ResendCooldown),
		mail,
		eventBus,
	)

	h := handlers.New(authService, limiter, cfg)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName(serviceName))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(mw.Health)
	r.Use(mw.Metrics(serviceName))

	h.Routes(r)

	srv := server.New(config.Port("IDENTITY_PORT", "8081"), r, cfg.Server)
	if err := server.Run(ctx, serviceName, srv, cfg.Server.ShutdownTimeout); err != nil {
		logger.Error("Identity service error", "error", err)
	}
}
