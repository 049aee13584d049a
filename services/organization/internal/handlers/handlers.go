package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/diagnosis/restaurant-management/pkg/apperr"
	"github.com/diagnosis/restaurant-management/pkg/auth"
	mw "github.com/diagnosis/restaurant-management/pkg/middleware"
	"github.com/diagnosis/restaurant-management/pkg/response"
	"github.com/diagnosis/restaurant-management/services/organization/internal/service"
)

type Handlers struct {
	organizations service.OrganizationService
	locations     service.LocationService
	tokens        auth.Parser
	exposeDetail  bool
}

func New(organizations service.OrganizationService, locations service.LocationService, tokens auth.Parser, exposeDetail bool) *Handlers {
	return &Handlers{
		organizations: organizations,
		locations:     locations,
		tokens:        tokens,
		exposeDetail:  exposeDetail,
	}
}

// Routes mounts the organization and location endpoints; all require a JWT.
func (h *Handlers) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireJWT(h.tokens))

		r.Post("/api/users/{userId}/organizations/register", h.RegisterOrganization)

		r.Route("/api/locations", func(r chi.Router) {
			r.Get("/{organizationId}", h.ListLocations)
			r.Post("/{organizationId}", h.CreateLocation)
			r.Put("/{locationId}", h.UpdateLocation)
			r.Delete("/{locationId}", h.CloseLocation)
		})
	})
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	response.Error(w, r, err, h.exposeDetail)
}

// actorID returns the authenticated caller's id.
func actorID(r *http.Request) (uuid.UUID, error) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return uuid.Nil, apperr.Unauthorized("Missing authentication")
	}
	id, err := claims.UserID()
	if err != nil {
		return uuid.Nil, apperr.Unauthorized("Invalid token subject")
	}
	return id, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.Validation(name + " must be a valid id")
	}
	return id, nil
}
