package usecase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/natthaphols/identity-api/services/identity-service/internal/model"
	"github.com/natthaphols/identity-api/services/identity-service/internal/repository"
	"github.com/natthaphols/identity-api/shared/provider"
)

// OAuthUsecase resolves third-party identities to local users and runs the
// provider login flow.
type OAuthUsecase interface {
	// GoogleLoginURL builds the consent-page URL for the Google flow.
	GoogleLoginURL(state string) string

	// LoginWithGoogle exchanges the callback code, resolves or creates the
	// local user, and completes login (including the second-factor marker
	// when enabled).
	LoginWithGoogle(ctx context.Context, code string) (*LoginResult, error)

	// GetOrCreateUser resolves a provider identity in three tiers: an
	// existing link wins, then an email match gets linked, otherwise a new
	// user is created with no password and a verified email.
	GetOrCreateUser(ctx context.Context, providerName, providerUserID, email string) (*model.User, error)
}

// ErrOAuthLoginFailed is the single failure surfaced for both a failed
// code exchange and a failed user-info fetch.
var ErrOAuthLoginFailed = errors.New("oauth login failed")

type oauthUsecase struct {
	userRepo  repository.UserRepository
	oauthRepo repository.OAuthAccountRepository
	google    *provider.GoogleOAuthProvider
	authUC    AuthUsecase
}

// NewOAuthUsecase creates a new OAuthUsecase.
func NewOAuthUsecase(
	userRepo repository.UserRepository,
	oauthRepo repository.OAuthAccountRepository,
	google *provider.GoogleOAuthProvider,
	authUC AuthUsecase,
) OAuthUsecase {
	return &oauthUsecase{
		userRepo:  userRepo,
		oauthRepo: oauthRepo,
		google:    google,
		authUC:    authUC,
	}
}

func (u *oauthUsecase) GoogleLoginURL(state string) string {
	return u.google.LoginURL(state)
}

func (u *oauthUsecase) LoginWithGoogle(ctx context.Context, code string) (*LoginResult, error) {
	accessToken, err := u.google.ExchangeCode(ctx, code)
	if err != nil {
		if errors.Is(err, provider.ErrGoogleExchangeFailed) {
			return nil, ErrOAuthLoginFailed
		}

		return nil, err
	}

	userInfo, err := u.google.GetUserInfo(ctx, accessToken)
	if err != nil {
		if errors.Is(err, provider.ErrGoogleUserInfoFailed) {
			return nil, ErrOAuthLoginFailed
		}

		return nil, err
	}

	user, err := u.GetOrCreateUser(ctx, "google", userInfo.Id, userInfo.Email)
	if err != nil {
		return nil, err
	}

	return u.authUC.CompleteLogin(ctx, user)
}

func (u *oauthUsecase) GetOrCreateUser(
	ctx context.Context,
	providerName, providerUserID, email string,
) (*model.User, error) {
	// Tier 1: an existing link for this provider identity.
	account, err := u.oauthRepo.GetByProvider(ctx, providerName, providerUserID)
	if err == nil {
		return u.userRepo.GetUser(ctx, account.UserID)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// Tier 2: a user with the same email gets this identity linked.
	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err == nil {
		if _, err := u.oauthRepo.CreateOAuthAccount(ctx, &model.OAuthAccount{
			UserID:         user.ID.Hex(),
			Provider:       providerName,
			ProviderUserID: providerUserID,
		}); err != nil {
			return nil, err
		}

		return user, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// Tier 3: a new user. The provider vouched for the email, so the
	// account starts verified; there is no password to set.
	user, err = u.userRepo.CreateUser(ctx, &model.User{
		Email:      email,
		IsActive:   true,
		IsVerified: true,
	})
	if err != nil {
		return nil, err
	}

	if _, err := u.oauthRepo.CreateOAuthAccount(ctx, &model.OAuthAccount{
		UserID:         user.ID.Hex(),
		Provider:       providerName,
		ProviderUserID: providerUserID,
	}); err != nil {
		// A passwordless user without a provider link is unreachable, so
		// undo the first insert rather than leave it orphaned.
		_ = u.userRepo.DeleteUser(ctx, user.ID.Hex())
		return nil, err
	}

	return user, nil
}
