package handlers

import (
	"net/http"

	"github.com/diagnosis/restaurant-management/pkg/response"
	"github.com/diagnosis/restaurant-management/services/identity/internal/domain"
)

// Register handles user registration
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, resp)
}

// Login handles user authentication
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, resp)
}

// RefreshToken exchanges a refresh secret for a new token pair
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.authService.RefreshToken(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, resp)
}

// VerifyEmail handles email verification
func (h *Handlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyEmailRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	msg, err := h.authService.VerifyEmail(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.WriteText(w, http.StatusOK, msg)
}

// ResendVerification handles resending verification emails
func (h *Handlers) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendVerificationRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	msg, err := h.authService.ResendVerification(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.WriteText(w, http.StatusOK, msg)
}
