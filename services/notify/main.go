package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/restaurant-management/pkg/config"
	"github.com/diagnosis/restaurant-management/pkg/events"
	"github.com/diagnosis/restaurant-management/pkg/logger"
	mw "github.com/diagnosis/restaurant-management/pkg/middleware"
	"github.com/diagnosis/restaurant-management/pkg/response"
	"github.com/diagnosis/restaurant-management/pkg/server"
	"github.com/diagnosis/restaurant-management/pkg/tracking"
	"github.com/diagnosis/restaurant-management/services/notify/internal/consumer"
)

const serviceName = "notify"

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

	if !cfg.NATS.Enabled {
		logger.Warn("NATS disabled, notify will receive no events")
	}
	bus, err := events.Connect(cfg.NATS.Enabled, cfg.NATS.URL, serviceName)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}
	defer bus.Close()

	if err := consumer.New(bus, serviceName).Start(); err != nil {
		logger.Fatal("Failed to start consumer", "error", err)
	}

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName(serviceName))
	r.Use(mw.Recover)
	r.Use(mw.Health)
	r.Use(mw.Metrics(serviceName))
	r.Get("/subjects", func(w http.ResponseWriter, _ *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string][]string{"subjects": consumer.Subjects})
	})

	srv := server.New(config.Port("NOTIFY_PORT", "8086"), r, cfg.Server)
	if err := server.Run(context.Background(), serviceName, srv, cfg.Server.ShutdownTimeout); err != nil {
		logger.Error("Notify service error", "error", err)
	}
}
