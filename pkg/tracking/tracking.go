// Package tracking reports unexpected errors to Sentry. With no DSN configured
// every call is a no-op.
package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/diagnosis/restaurant-management/pkg/config"
	"github.com/diagnosis/restaurant-management/pkg/logger"
)

// Init configures the Sentry client and returns a flush func for shutdown.
func Init(cfg *config.Config, service string) (func(), error) {
	if cfg.Sentry.DSN == "" {
		return func() {}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.App.Environment,
		ServerName:       service,
		SampleRate:       cfg.Sentry.SampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return func() {}, fmt.Errorf("failed to init sentry: %w", err)
	}

	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureError sends err with request-scoped tags.
func CaptureError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		if id := logger.RequestID(ctx); id != "" {
			scope.SetTag("request_id", id)
		}
		if svc, ok := ctx.Value(logger.ServiceKey).(string); ok {
			scope.SetTag("service", svc)
		}
		if uid := ctx.Value(logger.UserIDKey); uid != nil {
			scope.SetUser(sentry.User{ID: fmt.Sprint(uid)})
		}
	})
	hub.CaptureException(err)
}

// CapturePanic reports a recovered panic value.
func CapturePanic(ctx context.Context, v any) {
	CaptureError(ctx, fmt.Errorf("panic: %v", v))
}
