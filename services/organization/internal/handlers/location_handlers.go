package handlers

import (
	"net/http"

	"github.com/diagnosis/restaurant-management/pkg/response"
	"github.com/diagnosis/restaurant-management/services/organization/internal/domain"
)

func (h *Handlers) ListLocations(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	orgID, err := pathUUID(r, "organizationId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	locations, err := h.locations.List(r.Context(), actor, orgID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, locations)
}

func (h *Handlers) CreateLocation(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	orgID, err := pathUUID(r, "organizationId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req domain.CreateLocationRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	loc, err := h.locations.Create(r.Context(), actor, orgID, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, loc)
}

func (h *Handlers) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	locationID, err := pathUUID(r, "locationId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req domain.UpdateLocationRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	loc, err := h.locations.Update(r.Context(), actor, locationID, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, loc)
}

// CloseLocation soft-deletes a location
func (h *Handlers) CloseLocation(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	locationID, err := pathUUID(r, "locationId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.locations.Close(r.Context(), actor, locationID); err != nil {
		h.fail(w, r, err)
		return
	}

	response.NoContent(w)
}
