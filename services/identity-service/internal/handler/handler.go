// Package handler exposes the identity service over HTTP.
package handler

import (
	"github.com/go-chi/chi/v5"
	enlocale "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/rs/zerolog"

	"github.com/natthaphols/identity-api/services/identity-service/internal/usecase"
)

// Handler wires the usecases to HTTP routes.
type Handler struct {
	authUsecase      usecase.AuthUsecase
	userUsecase      usecase.UserUsecase
	twoFactorUsecase usecase.TwoFactorUsecase
	oauthUsecase     usecase.OAuthUsecase
	logger           *zerolog.Logger
	validate         *validator.Validate
	translator       ut.Translator
}

// New creates a Handler with field validation messages translated to
// English.
func New(
	authUsecase usecase.AuthUsecase,
	userUsecase usecase.UserUsecase,
	twoFactorUsecase usecase.TwoFactorUsecase,
	oauthUsecase usecase.OAuthUsecase,
	logger *zerolog.Logger,
) *Handler {
	english := enlocale.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := entranslations.RegisterDefaultTranslations(validate, translator); err != nil {
		logger.Fatal().Err(err).Msg("failed to register validation translations")
	}

	return &Handler{
		authUsecase:      authUsecase,
		userUsecase:      userUsecase,
		twoFactorUsecase: twoFactorUsecase,
		oauthUsecase:     oauthUsecase,
		logger:           logger,
		validate:         validate,
		translator:       translator,
	}
}

// Routes builds the route tree. Session endpoints are public; account and
// second-factor management require a valid access token.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/login/2fa", h.twoFactorLogin)
		r.Post("/refresh", h.refreshTokens)
		r.Post("/logout", h.logout)
		r.Get("/verify-email", h.verifyEmail)

		r.Get("/google/login", h.googleLogin)
		r.Get("/google/callback", h.googleCallback)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/logout-all", h.logoutAll)
			r.Post("/verify-email/request", h.requestEmailVerification)
		})
	})

	r.Route("/users/me", func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/", h.currentUser)
		r.Patch("/", h.updateProfile)
		r.Delete("/", h.deleteAccount)
		r.Post("/change-password", h.changePassword)
		r.Post("/deactivate", h.deactivateAccount)
		r.Post("/activate", h.activateAccount)

		r.Route("/2fa", func(r chi.Router) {
			r.Get("/", h.twoFactorStatus)
			r.Post("/setup", h.twoFactorSetup)
			r.Post("/confirm", h.twoFactorConfirm)
			r.Post("/disable", h.twoFactorDisable)
		})
	})

	return r
}
