package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/natthaphols/identity-api/services/identity-service/internal/config"
	"github.com/natthaphols/identity-api/services/identity-service/internal/model"
	"github.com/natthaphols/identity-api/services/identity-service/internal/repository"
	"github.com/natthaphols/identity-api/shared/security"
)

// UserUsecase covers account management: registration, password changes,
// activation, deletion, and email verification.
type UserUsecase interface {
	Register(ctx context.Context, params RegisterParams) (*model.User, error)

	// UpdateProfile applies the non-nil fields of params to the user and
	// returns the updated record.
	UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (*model.User, error)

	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	Deactivate(ctx context.Context, userID string) error
	Activate(ctx context.Context, userID string) error

	// Delete removes the user together with their OAuth links, refresh
	// tokens, and pending verification tokens.
	Delete(ctx context.Context, userID string) error

	// RequestEmailVerification issues a fresh verification token and
	// mails it to the user, replacing any earlier one.
	RequestEmailVerification(ctx context.Context, userID string) error

	// VerifyEmail consumes a verification token and marks the user
	// verified.
	VerifyEmail(ctx context.Context, token string) (*model.User, error)
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Email    string
	Password string
}

// UpdateProfileParams defines the optional profile fields to change. Only
// the fields that are not nil will be updated.
type UpdateProfileParams struct {
	Email *string
}

// EmailSender is the slice of the mailer this usecase needs.
type EmailSender interface {
	SendHTML(to []string, subject, htmlBody string) error
}

var (
	ErrEmailTaken               = errors.New("email already registered")
	ErrNoPassword               = errors.New("account has no password")
	ErrWrongPassword            = errors.New("current password is incorrect")
	ErrEmailAlreadyVerified     = errors.New("email already verified")
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
)

type userUsecase struct {
	userRepo       repository.UserRepository
	oauthRepo      repository.OAuthAccountRepository
	refreshRepo    repository.RefreshTokenRepository
	emailTokenRepo repository.EmailVerificationTokenRepository
	mailer         EmailSender
	cfg            *config.IdentityServiceConfig
}

// NewUserUsecase creates a new UserUsecase.
func NewUserUsecase(
	userRepo repository.UserRepository,
	oauthRepo repository.OAuthAccountRepository,
	refreshRepo repository.RefreshTokenRepository,
	emailTokenRepo repository.EmailVerificationTokenRepository,
	mailer EmailSender,
	cfg *config.IdentityServiceConfig,
) UserUsecase {
	return &userUsecase{
		userRepo:       userRepo,
		oauthRepo:      oauthRepo,
		refreshRepo:    refreshRepo,
		emailTokenRepo: emailTokenRepo,
		mailer:         mailer,
		cfg:            cfg,
	}
}

func (u *userUsecase) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Email:        params.Email,
		PasswordHash: &passwordHash,
		IsActive:     true,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}

		return nil, err
	}

	return user, nil
}

func (u *userUsecase) UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (*model.User, error) {
	if params.Email == nil {
		user, err := u.userRepo.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrUserNotFound
			}

			return nil, err
		}

		return user, nil
	}

	user, err := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		Email: params.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, ErrEmailTaken
		}

		return nil, err
	}

	return user, nil
}

func (u *userUsecase) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}

		return err
	}

	if user.PasswordHash == nil {
		return ErrNoPassword
	}

	if ok, err := security.VerifyPassword(currentPassword, *user.PasswordHash); err != nil {
		return err
	} else if !ok {
		return ErrWrongPassword
	}

	newHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	_, err = u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		PasswordHash: &newHash,
	})

	return err
}

func (u *userUsecase) Deactivate(ctx context.Context, userID string) error {
	return u.setActive(ctx, userID, false)
}

func (u *userUsecase) Activate(ctx context.Context, userID string) error {
	return u.setActive(ctx, userID, true)
}

func (u *userUsecase) Delete(ctx context.Context, userID string) error {
	if _, err := u.refreshRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	if err := u.refreshRepo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	if err := u.oauthRepo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	if err := u.emailTokenRepo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}

	if err := u.userRepo.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}

		return err
	}

	return nil
}

func (u *userUsecase) RequestEmailVerification(ctx context.Context, userID string) error {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}

		return err
	}

	if user.IsVerified {
		return ErrEmailAlreadyVerified
	}

	// One active token per user.
	if err := u.emailTokenRepo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}

	token := uuid.NewString()
	if _, err := u.emailTokenRepo.CreateToken(ctx, &model.EmailVerificationToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(u.cfg.Token.VerificationTokenExpiresIn),
	}); err != nil {
		return err
	}

	verifyLink := fmt.Sprintf("%s/api/v1/auth/verify-email?token=%s", u.cfg.AppBaseURL, token)
	htmlBody := fmt.Sprintf(`
		<p>Hi,</p>
		<p>Thank you for registering! Please click the link below to verify your email address:</p>

		<p><a href="%s">%s</a></p>

		<p>This link will expire in %s.</p>
		<p>If you did not create an account, you can safely ignore this email.</p>
	`, verifyLink, verifyLink, u.cfg.Token.VerificationTokenExpiresIn)

	return u.mailer.SendHTML([]string{user.Email}, "Verify Your Email Address", htmlBody)
}

func (u *userUsecase) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	record, err := u.emailTokenRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidVerificationToken
		}

		return nil, err
	}

	// The TTL index collects expired tokens lazily, so expiry is still
	// checked here.
	if time.Now().After(record.ExpiresAt) {
		_ = u.emailTokenRepo.DeleteByID(ctx, record.ID)
		return nil, ErrInvalidVerificationToken
	}

	if err := u.userRepo.MarkVerified(ctx, record.UserID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidVerificationToken
		}

		return nil, err
	}

	if err := u.emailTokenRepo.DeleteByID(ctx, record.ID); err != nil {
		return nil, err
	}

	return u.userRepo.GetUser(ctx, record.UserID)
}

func (u *userUsecase) setActive(ctx context.Context, userID string, active bool) error {
	if err := u.userRepo.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}

		return err
	}

	return nil
}
