package handler

import (
	"errors"
	"net/http"

	"github.com/natthaphols/identity-api/services/identity-service/internal/payload"
	"github.com/natthaphols/identity-api/services/identity-service/internal/usecase"
)

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	h.respondJSON(w, http.StatusOK, payload.NewUserResponse(user))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req payload.UpdateProfileRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.userUsecase.UpdateProfile(r.Context(), user.ID.Hex(), usecase.UpdateProfileParams{
		Email: &req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmailTaken):
			h.respondError(w, http.StatusConflict, "email already registered")
		case errors.Is(err, usecase.ErrUserNotFound):
			h.respondError(w, http.StatusNotFound, "user not found")
		default:
			h.respondInternalError(w, err, "failed to update profile")
		}

		return
	}

	h.respondJSON(w, http.StatusOK, payload.NewUserResponse(updated))
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req payload.ChangePasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	err := h.userUsecase.ChangePassword(r.Context(), user.ID.Hex(), req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNoPassword):
			h.respondError(w, http.StatusConflict, "account has no password")
		case errors.Is(err, usecase.ErrWrongPassword):
			h.respondError(w, http.StatusUnauthorized, "current password is incorrect")
		default:
			h.respondInternalError(w, err, "failed to change password")
		}

		return
	}

	h.respondJSON(w, http.StatusOK, nil)
}

func (h *Handler) deactivateAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.userUsecase.Deactivate(r.Context(), user.ID.Hex()); err != nil {
		h.respondInternalError(w, err, "failed to deactivate account")
		return
	}

	h.respondJSON(w, http.StatusOK, nil)
}

func (h *Handler) activateAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.userUsecase.Activate(r.Context(), user.ID.Hex()); err != nil {
		h.respondInternalError(w, err, "failed to activate account")
		return
	}

	h.respondJSON(w, http.StatusOK, nil)
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.userUsecase.Delete(r.Context(), user.ID.Hex()); err != nil {
		h.respondInternalError(w, err, "failed to delete account")
		return
	}

	h.respondJSON(w, http.StatusNoContent, nil)
}
