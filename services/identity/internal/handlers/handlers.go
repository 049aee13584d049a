package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/restaurant-management/pkg/config"
	mw "github.com/diagnosis/restaurant-management/pkg/middleware"
	"github.com/diagnosis/restaurant-management/pkg/ratelimit"
	"github.com/diagnosis/restaurant-management/pkg/response"
	"github.com/diagnosis/restaurant-management/services/identity/internal/service"
)

const serviceName = "identity"

type Handlers struct {
	authService  service.AuthService
	limiter      ratelimit.Limiter
	rateRequests int
	rateWindow   time.Duration
	exposeDetail bool
}

func New(authService service.AuthService, limiter ratelimit.Limiter, cfg *config.Config) *Handlers {
	return &Handlers{
		authService:  authService,
		limiter:      limiter,
		rateRequests: cfg.RateLimit.Requests,
		rateWindow:   cfg.RateLimit.Window,
		exposeDetail: !cfg.IsProduction(),
	}
}

// Routes mounts the /auth endpoints on r.
func (h *Handlers) Routes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Use(mw.RateLimit(h.limiter, serviceName, h.rateRequests, h.rateWindow))

		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.RefreshToken)
		r.Post("/verify", h.VerifyEmail)
		r.Post("/resend-verification", h.ResendVerification)
	})
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	response.Error(w, r, err, h.exposeDetail)
}
