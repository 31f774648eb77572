package usecase

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/natthaphols/identity-api/services/identity-service/internal/config"
	"github.com/natthaphols/identity-api/services/identity-service/internal/model"
	"github.com/natthaphols/identity-api/services/identity-service/internal/repository"
	authtypes "github.com/natthaphols/identity-api/services/identity-service/pkg/types"
	"github.com/natthaphols/identity-api/shared/auth"
	"github.com/natthaphols/identity-api/shared/security"
)

// AuthUsecase defines the session lifecycle: password login, token
// issuance and rotation, revocation, and access-token resolution.
type AuthUsecase interface {
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// CompleteLogin finishes authentication for an already-verified user:
	// it either issues a token pair or signals that a second factor is
	// required.
	CompleteLogin(ctx context.Context, user *model.User) (*LoginResult, error)

	// CompleteTwoFactorLogin finishes a login that was answered with a
	// second-factor marker. No lockout state is kept here; rate limiting
	// lives at the edge.
	CompleteTwoFactorLogin(ctx context.Context, userID, code string) (*authtypes.Tokens, error)

	// IssueTokens mints an access/refresh pair and persists the refresh
	// token record. This and rotation are the only places records are
	// created.
	IssueTokens(ctx context.Context, user *model.User) (*authtypes.Tokens, error)

	// RotateRefreshToken exchanges a refresh token for a fresh pair,
	// revoking the presented token. Each refresh token is single-use.
	RotateRefreshToken(ctx context.Context, refreshToken string) (*authtypes.Tokens, error)

	// RevokeRefreshToken marks the matching record revoked and reports
	// whether a record matched.
	RevokeRefreshToken(ctx context.Context, refreshToken string) (bool, error)

	// RevokeAllTokens revokes every active refresh token for the user and
	// returns the count affected.
	RevokeAllTokens(ctx context.Context, userID string) (int64, error)

	// GetUserFromAccessToken resolves an access token to its user without
	// touching refresh-token state.
	GetUserFromAccessToken(ctx context.Context, accessToken string) (*model.User, error)
}

// LoginParams defines the parameters for password login.
type LoginParams struct {
	Email    string
	Password string
}

// LoginResult either carries a token pair or signals that the caller must
// complete a second-factor step for the given user.
type LoginResult struct {
	Tokens            *authtypes.Tokens
	TwoFactorRequired bool
	UserID            string
}

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountDeactivated   = errors.New("account deactivated")
	ErrUserNotFound         = errors.New("user not found")
	ErrTwoFactorNotEnabled  = errors.New("two-factor authentication is not enabled")
	ErrInvalidTwoFactorCode = errors.New("invalid two-factor code")
	ErrInvalidRefreshToken  = errors.New("invalid or expired refresh token")
	ErrInvalidAccessToken   = errors.New("invalid access token")
)

type authUsecase struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	codec            *auth.TokenCodec
	cfg              *config.IdentityServiceConfig
}

// NewAuthUsecase creates a new AuthUsecase.
func NewAuthUsecase(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	codec *auth.TokenCodec,
	cfg *config.IdentityServiceConfig,
) AuthUsecase {
	return &authUsecase{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		codec:            codec,
		cfg:              cfg,
	}
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	// OAuth-only accounts have no password to verify.
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}

	if ok, err := security.VerifyPassword(params.Password, *user.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	// Deactivation is only reported once the password has verified.
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	return u.CompleteLogin(ctx, user)
}

func (u *authUsecase) CompleteLogin(ctx context.Context, user *model.User) (*LoginResult, error) {
	if user.TwoFactorEnabled {
		return &LoginResult{
			TwoFactorRequired: true,
			UserID:            user.ID.Hex(),
		}, nil
	}

	tokens, err := u.IssueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Tokens: tokens}, nil
}

func (u *authUsecase) CompleteTwoFactorLogin(ctx context.Context, userID, code string) (*authtypes.Tokens, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	if !user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		return nil, ErrTwoFactorNotEnabled
	}

	if !security.VerifyTOTP(*user.TwoFactorSecret, code, time.Now(), u.cfg.TOTP.DriftWindow) {
		return nil, ErrInvalidTwoFactorCode
	}

	return u.IssueTokens(ctx, user)
}

func (u *authUsecase) IssueTokens(ctx context.Context, user *model.User) (*authtypes.Tokens, error) {
	subject := user.ID.Hex()

	accessToken, err := u.codec.Mint(subject, auth.TokenKindAccess, u.cfg.Token.AccessTokenExpiresIn)
	if err != nil {
		return nil, err
	}

	refreshToken, err := u.codec.Mint(subject, auth.TokenKindRefresh, u.cfg.Token.RefreshTokenExpiresIn)
	if err != nil {
		return nil, err
	}

	if _, err := u.refreshTokenRepo.CreateToken(ctx, &model.RefreshToken{
		UserID:    subject,
		TokenHash: security.HashToken(refreshToken),
		ExpiresAt: time.Now().Add(u.cfg.Token.RefreshTokenExpiresIn),
	}); err != nil {
		return nil, err
	}

	return &authtypes.Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (u *authUsecase) RotateRefreshToken(ctx context.Context, refreshToken string) (*authtypes.Tokens, error) {
	claims, err := u.codec.Decode(refreshToken)
	if err != nil || claims.Kind() != auth.TokenKindRefresh {
		return nil, ErrInvalidRefreshToken
	}

	// The compare-and-set below is the serialization point: of two
	// concurrent rotations of the same token, exactly one observes
	// revoked=false and wins.
	record, err := u.refreshTokenRepo.RevokeActiveByTokenHash(ctx, security.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidRefreshToken
		}

		return nil, err
	}

	if time.Now().After(record.ExpiresAt) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := u.userRepo.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidRefreshToken
		}

		return nil, err
	}

	return u.IssueTokens(ctx, user)
}

func (u *authUsecase) RevokeRefreshToken(ctx context.Context, refreshToken string) (bool, error) {
	// Lookup is by digest only, not filtered on the revoked flag, so
	// revoking the same token twice reports success both times.
	return u.refreshTokenRepo.RevokeByTokenHash(ctx, security.HashToken(refreshToken))
}

func (u *authUsecase) RevokeAllTokens(ctx context.Context, userID string) (int64, error) {
	return u.refreshTokenRepo.RevokeAllByUserID(ctx, userID)
}

func (u *authUsecase) GetUserFromAccessToken(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := u.codec.Decode(accessToken)
	if err != nil || claims.Kind() != auth.TokenKindAccess {
		return nil, ErrInvalidAccessToken
	}

	user, err := u.userRepo.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidAccessToken
		}

		return nil, err
	}

	return user, nil
}
