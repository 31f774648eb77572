package handler

import (
	"errors"
	"net/http"

	"github.com/natthaphols/identity-api/services/identity-service/internal/payload"
	"github.com/natthaphols/identity-api/services/identity-service/internal/usecase"
)

func (h *Handler) twoFactorSetup(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	setup, err := h.twoFactorUsecase.Setup(r.Context(), user.ID.Hex())
	if err != nil {
		if errors.Is(err, usecase.ErrTwoFactorAlreadyEnabled) {
			h.respondError(w, http.StatusConflict, "two-factor authentication is already enabled")
			return
		}

		h.respondInternalError(w, err, "failed to start two-factor setup")

		return
	}

	h.respondJSON(w, http.StatusOK, payload.TwoFactorSetupResponse{
		Secret: setup.Secret,
		URI:    setup.URI,
	})
}

func (h *Handler) twoFactorConfirm(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req payload.TwoFactorCodeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.twoFactorUsecase.Confirm(r.Context(), user.ID.Hex(), req.Code); err != nil {
		switch {
		case errors.Is(err, usecase.ErrTwoFactorAlreadyEnabled):
			h.respondError(w, http.StatusConflict, "two-factor authentication is already enabled")
		case errors.Is(err, usecase.ErrTwoFactorSetupNotStarted):
			h.respondError(w, http.StatusConflict, "two-factor setup not started")
		case errors.Is(err, usecase.ErrInvalidTwoFactorCode):
			h.respondError(w, http.StatusUnauthorized, "invalid two-factor code")
		default:
			h.respondInternalError(w, err, "failed to confirm two-factor setup")
		}

		return
	}

	h.respondJSON(w, http.StatusOK, payload.TwoFactorStatusResponse{Enabled: true})
}

func (h *Handler) twoFactorDisable(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req payload.TwoFactorCodeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.twoFactorUsecase.Disable(r.Context(), user.ID.Hex(), req.Code); err != nil {
		switch {
		case errors.Is(err, usecase.ErrTwoFactorNotEnabled):
			h.respondError(w, http.StatusConflict, "two-factor authentication is not enabled")
		case errors.Is(err, usecase.ErrInvalidTwoFactorCode):
			h.respondError(w, http.StatusUnauthorized, "invalid two-factor code")
		default:
			h.respondInternalError(w, err, "failed to disable two-factor authentication")
		}

		return
	}

	h.respondJSON(w, http.StatusOK, payload.TwoFactorStatusResponse{Enabled: false})
}

func (h *Handler) twoFactorStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	enabled, err := h.twoFactorUsecase.Status(r.Context(), user.ID.Hex())
	if err != nil {
		h.respondInternalError(w, err, "failed to read two-factor status")
		return
	}

	h.respondJSON(w, http.StatusOK, payload.TwoFactorStatusResponse{Enabled: enabled})
}
