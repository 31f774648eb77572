package usecase

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/natthaphols/identity-api/services/identity-service/internal/config"
	"github.com/natthaphols/identity-api/services/identity-service/internal/model"
	"github.com/natthaphols/identity-api/services/identity-service/internal/repository"
	"github.com/natthaphols/identity-api/shared/security"
)

// TwoFactorUsecase drives the TOTP second-factor lifecycle. A user moves
// from disabled to pending (secret stored, not yet confirmed) to enabled,
// and back to disabled on explicit disable; no other transitions exist.
type TwoFactorUsecase interface {
	// Setup generates a fresh secret and stores it without enabling the
	// second factor. The returned URI is rendered as a QR code by the
	// caller.
	Setup(ctx context.Context, userID string) (*TwoFactorSetup, error)

	// Confirm verifies a code against the pending secret and enables the
	// second factor. A wrong code keeps the pending secret so the user can
	// retry without re-scanning.
	Confirm(ctx context.Context, userID, code string) error

	// Disable turns the second factor off and clears the secret. A valid
	// code is required.
	Disable(ctx context.Context, userID, code string) error

	// Status reports whether the second factor is enabled.
	Status(ctx context.Context, userID string) (bool, error)
}

// TwoFactorSetup carries the fresh secret and the otpauth provisioning URI
// for the authenticator app.
type TwoFactorSetup struct {
	Secret string
	URI    string
}

var (
	ErrTwoFactorAlreadyEnabled  = errors.New("two-factor authentication is already enabled")
	ErrTwoFactorSetupNotStarted = errors.New("two-factor setup not started")
)

type twoFactorUsecase struct {
	userRepo repository.UserRepository
	cfg      *config.IdentityServiceConfig
}

// NewTwoFactorUsecase creates a new TwoFactorUsecase.
func NewTwoFactorUsecase(
	userRepo repository.UserRepository,
	cfg *config.IdentityServiceConfig,
) TwoFactorUsecase {
	return &twoFactorUsecase{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

func (u *twoFactorUsecase) Setup(ctx context.Context, userID string) (*TwoFactorSetup, error) {
	user, err := u.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	secret, err := security.GenerateTOTPSecret()
	if err != nil {
		return nil, err
	}

	if err := u.userRepo.SetTwoFactorSecret(ctx, userID, secret); err != nil {
		return nil, err
	}

	return &TwoFactorSetup{
		Secret: secret,
		URI:    security.BuildTOTPURI(secret, user.Email, u.cfg.TOTP.Issuer),
	}, nil
}

func (u *twoFactorUsecase) Confirm(ctx context.Context, userID, code string) error {
	user, err := u.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if user.TwoFactorEnabled {
		return ErrTwoFactorAlreadyEnabled
	}

	if user.TwoFactorSecret == nil {
		return ErrTwoFactorSetupNotStarted
	}

	if !security.VerifyTOTP(*user.TwoFactorSecret, code, time.Now(), u.cfg.TOTP.DriftWindow) {
		return ErrInvalidTwoFactorCode
	}

	return u.userRepo.EnableTwoFactor(ctx, userID)
}

func (u *twoFactorUsecase) Disable(ctx context.Context, userID, code string) error {
	user, err := u.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if !user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		return ErrTwoFactorNotEnabled
	}

	if !security.VerifyTOTP(*user.TwoFactorSecret, code, time.Now(), u.cfg.TOTP.DriftWindow) {
		return ErrInvalidTwoFactorCode
	}

	return u.userRepo.DisableTwoFactor(ctx, userID)
}

func (u *twoFactorUsecase) Status(ctx context.Context, userID string) (bool, error) {
	user, err := u.getUser(ctx, userID)
	if err != nil {
		return false, err
	}

	return user.TwoFactorEnabled, nil
}

func (u *twoFactorUsecase) getUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return user, nil
}
