package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/diagnosis/restaurant-management/pkg/apperr"
	"github.com/diagnosis/restaurant-management/pkg/auth"
	mw "github.com/diagnosis/restaurant-management/pkg/middleware"
	"github.com/diagnosis/restaurant-management/pkg/response"
	"github.com/diagnosis/restaurant-management/services/menu/internal/domain"
	"github.com/diagnosis/restaurant-management/services/menu/internal/service"
)

type Handlers struct {
	menus        service.MenuService
	tokens       auth.Parser
	exposeDetail bool
}

func New(menus service.MenuService, tokens auth.Parser, exposeDetail bool) *Handlers {
	return &Handlers{menus: menus, tokens: tokens, exposeDetail: exposeDetail}
}

func (h *Handlers) Routes(r chi.Router) {
	r.Route("/api/menus", func(r chi.Router) {
		r.Use(mw.RequireJWT(h.tokens))

		r.Post("/create", h.CreateMenu)
		r.Get("/organization/{organizationId}", h.ListByOrganization)
		r.Get("/location/{locationId}", h.ListByLocation)
		r.Put("/{menuId}", h.UpdateMenu)
		r.Delete("/{menuId}", h.DeleteMenu)
		r.Post("/{menuId}/locations/{locationId}", h.AttachLocation)
		r.Delete("/{menuId}/locations/{locationId}", h.DetachLocation)
	})
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	response.Error(w, r, err, h.exposeDetail)
}

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

// params resolves the caller and the named path ids.
func params(r *http.Request, names ...string) (uuid.UUID, []uuid.UUID, error) {
	actor, err := actorID(r)
	if err != nil {
		return uuid.Nil, nil, err
	}
	ids := make([]uuid.UUID, len(names))
	for i, name := range names {
		id, err := uuid.Parse(chi.URLParam(r, name))
		if err != nil {
			return uuid.Nil, nil, apperr.Validation(name + " must be a valid id")
		}
		ids[i] = id
	}
	return actor, ids, nil
}

func (h *Handlers) CreateMenu(w http.ResponseWriter, r *http.Request) {
	actor, _, err := params(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req domain.CreateMenuRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	menu, err := h.menus.Create(r.Context(), actor, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, menu)
}

func (h *Handlers) UpdateMenu(w http.ResponseWriter, r *http.Request) {
	actor, ids, err := params(r, "menuId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req domain.UpdateMenuRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	menu, err := h.menus.Update(r.Context(), actor, ids[0], &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, menu)
}

func (h *Handlers) DeleteMenu(w http.ResponseWriter, r *http.Request) {
	actor, ids, err := params(r, "menuId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.menus.Delete(r.Context(), actor, ids[0]); err != nil {
		h.fail(w, r, err)
		return
	}

	response.NoContent(w)
}

func (h *Handlers) AttachLocation(w http.ResponseWriter, r *http.Request) {
	actor, ids, err := params(r, "menuId", "locationId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.menus.AttachLocation(r.Context(), actor, ids[0], ids[1]); err != nil {
		h.fail(w, r, err)
		return
	}

	response.NoContent(w)
}

func (h *Handlers) DetachLocation(w http.ResponseWriter, r *http.Request) {
	actor, ids, err := params(r, "menuId", "locationId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.menus.DetachLocation(r.Context(), actor, ids[0], ids[1]); err != nil {
		h.fail(w, r, err)
		return
	}

	response.NoContent(w)
}

func (h *Handlers) ListByOrganization(w http.ResponseWriter, r *http.Request) {
	actor, ids, err := params(r, "organizationId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	menus, err := h.menus.ListByOrganization(r.Context(), actor, ids[0])
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, menus)
}

func (h *Handlers) ListByLocation(w http.ResponseWriter, r *http.Request) {
	actor, ids, err := params(r, "locationId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	menus, err := h.menus.ListByLocation(r.Context(), actor, ids[0])
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, menus)
}
