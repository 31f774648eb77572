package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/natthaphols/identity-api/services/identity-service/internal/payload"
	"github.com/natthaphols/identity-api/services/identity-service/internal/usecase"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userUsecase.Register(r.Context(), usecase.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrEmailTaken) {
			h.respondError(w, http.StatusConflict, "email already registered")
			return
		}

		h.respondInternalError(w, err, "failed to register user")

		return
	}

	h.respondJSON(w, http.StatusCreated, payload.NewUserResponse(user))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			h.respondError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, usecase.ErrAccountDeactivated):
			h.respondError(w, http.StatusForbidden, "account deactivated")
		default:
			h.respondInternalError(w, err, "failed to log in")
		}

		return
	}

	h.respondJSON(w, http.StatusOK, loginResponse(result))
}

func (h *Handler) twoFactorLogin(w http.ResponseWriter, r *http.Request) {
	var req payload.TwoFactorLoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	tokens, err := h.authUsecase.CompleteTwoFactorLogin(r.Context(), req.UserID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound),
			errors.Is(err, usecase.ErrTwoFactorNotEnabled),
			errors.Is(err, usecase.ErrInvalidTwoFactorCode):
			h.respondError(w, http.StatusUnauthorized, "invalid two-factor code")
		default:
			h.respondInternalError(w, err, "failed to complete two-factor login")
		}

		return
	}

	h.respondJSON(w, http.StatusOK, payload.LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

func (h *Handler) refreshTokens(w http.ResponseWriter, r *http.Request) {
	var req payload.TokenRefreshRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	tokens, err := h.authUsecase.RotateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidRefreshToken) {
			h.respondError(w, http.StatusUnauthorized, "invalid or expired refresh token")
			return
		}

		h.respondInternalError(w, err, "failed to rotate refresh token")

		return
	}

	h.respondJSON(w, http.StatusOK, payload.LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var req payload.TokenRevokeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	revoked, err := h.authUsecase.RevokeRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.respondInternalError(w, err, "failed to revoke refresh token")
		return
	}

	h.respondJSON(w, http.StatusOK, payload.TokenRevokeResponse{Revoked: revoked})
}

func (h *Handler) logoutAll(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	count, err := h.authUsecase.RevokeAllTokens(r.Context(), user.ID.Hex())
	if err != nil {
		h.respondInternalError(w, err, "failed to revoke tokens")
		return
	}

	h.respondJSON(w, http.StatusOK, payload.RevokeAllResponse{RevokedCount: count})
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.respondError(w, http.StatusBadRequest, "token is required")
		return
	}

	user, err := h.userUsecase.VerifyEmail(r.Context(), token)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidVerificationToken) {
			h.respondError(w, http.StatusUnauthorized, "invalid or expired verification token")
			return
		}

		h.respondInternalError(w, err, "failed to verify email")

		return
	}

	h.respondJSON(w, http.StatusOK, payload.NewUserResponse(user))
}

func (h *Handler) requestEmailVerification(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.userUsecase.RequestEmailVerification(r.Context(), user.ID.Hex()); err != nil {
		if errors.Is(err, usecase.ErrEmailAlreadyVerified) {
			h.respondError(w, http.StatusConflict, "email already verified")
			return
		}

		h.respondInternalError(w, err, "failed to send verification email")

		return
	}

	h.respondJSON(w, http.StatusAccepted, nil)
}

func (h *Handler) googleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.Redirect(w, r, h.oauthUsecase.GoogleLoginURL(state), http.StatusTemporaryRedirect)
}

func (h *Handler) googleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		h.respondError(w, http.StatusBadRequest, "code is required")
		return
	}

	result, err := h.oauthUsecase.LoginWithGoogle(r.Context(), code)
	if err != nil {
		if errors.Is(err, usecase.ErrOAuthLoginFailed) {
			h.respondError(w, http.StatusUnauthorized, "google login failed")
			return
		}

		h.respondInternalError(w, err, "failed to complete google login")

		return
	}

	h.respondJSON(w, http.StatusOK, loginResponse(result))
}

func loginResponse(result *usecase.LoginResult) payload.LoginResponse {
	if result.TwoFactorRequired {
		return payload.LoginResponse{
			TwoFactorRequired: true,
			UserID:            result.UserID,
		}
	}

	return payload.LoginResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	}
}
