package main

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/restaurant-management/pkg/config"
	"github.com/diagnosis/restaurant-management/pkg/logger"
	mw "github.com/diagnosis/restaurant-management/pkg/middleware"
	"github.com/diagnosis/restaurant-management/pkg/server"
	"github.com/diagnosis/restaurant-management/pkg/tracking"
	"github.com/diagnosis/restaurant-management/services/gateway/internal/handlers"
	"github.com/diagnosis/restaurant-management/services/gateway/internal/proxy"
)

const serviceName = "gateway"

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

	// Backends get the full write budget; the gateway times out with them.
	timeout := cfg.Server.WriteTimeout
	h := handlers.New(
		proxy.NewServiceProxy("identity", cfg.Services.IdentityURL, timeout),
		proxy.NewServiceProxy("organization", cfg.Services.OrganizationURL, timeout),
		proxy.NewServiceProxy("menu", cfg.Services.MenuURL, timeout),
	)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName(serviceName))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(mw.CORS(cfg.Server.AllowedOrigins))
	r.Use(mw.Health)
	r.Use(mw.Metrics(serviceName))

	h.Routes(r)

	srv := server.New(config.Port("GATEWAY_PORT", "8080"), r, cfg.Server)
	if err := server.Run(context.Background(), serviceName, srv, cfg.Server.ShutdownTimeout); err != nil {
		logger.Error("Gateway server error", "error", err)
	}
}
