package handlers

import (
	"net/http"

	"github.com/diagnosis/restaurant-management/pkg/response"
	"github.com/diagnosis/restaurant-management/services/organization/internal/domain"
)

// RegisterOrganization creates a trial organization owned by {userId}
func (h *Handlers) RegisterOrganization(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	userID, err := pathUUID(r, "userId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req domain.CreateOrganizationRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.organizations.Register(r.Context(), actor, userID, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, resp)
}
