package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natthaphols/identity-api/services/identity-service/internal/model"
	"github.com/natthaphols/identity-api/shared/security"
)

type userFixture struct {
	users       *memUserRepo
	accounts    *memOAuthAccountRepo
	tokens      *memRefreshTokenRepo
	emailTokens *memEmailTokenRepo
	mailer      *memMailer
	usecase     UserUsecase
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()

	cfg := newTestConfig()
	users := newMemUserRepo()
	accounts := newMemOAuthAccountRepo()
	tokens := newMemRefreshTokenRepo()
	emailTokens := newMemEmailTokenRepo()
	mailer := &memMailer{}

	return &userFixture{
		users:       users,
		accounts:    accounts,
		tokens:      tokens,
		emailTokens: emailTokens,
		mailer:      mailer,
		usecase:     NewUserUsecase(users, accounts, tokens, emailTokens, mailer, cfg),
	}
}

func TestRegister(t *testing.T) {
	f := newUserFixture(t)

	user, err := f.usecase.Register(context.Background(), RegisterParams{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsVerified)
	require.NotNil(t, user.PasswordHash)

	ok, err := security.VerifyPassword("password123", *user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.usecase.Register(context.Background(), RegisterParams{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = f.usecase.Register(context.Background(), RegisterParams{
		Email:    "alice@example.com",
		Password: "different456",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdateProfile_ChangesEmail(t *testing.T) {
	f := newUserFixture(t)
	user, err := f.usecase.Register(context.Background(), RegisterParams{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	newEmail := "alice+new@example.com"
	updated, err := f.usecase.UpdateProfile(context.Background(), user.ID.Hex(), UpdateProfileParams{
		Email: &newEmail,
	})
	require.NoError(t, err)
	assert.Equal(t, newEmail, updated.Email)

	stored, err := f.users.GetUser(context.Background(), user.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, newEmail, stored.Email)
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	f := newUserFixture(t)
	_, err := f.usecase.Register(context.Background(), RegisterParams{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	bob, err := f.usecase.Register(context.Background(), RegisterParams{
		Email:    "bob@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	takenEmail := "alice@example.com"
	_, err = f.usecase.UpdateProfile(context.Background(), bob.ID.Hex(), UpdateProfileParams{
		Email: &takenEmail,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	stored, err := f.users.GetUser(context.Background(), bob.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", stored.Email)
}

func TestUpdateProfile_NoFieldsReturnsCurrentUser(t *testing.T) {
	f := newUserFixture(t)
	user, err := f.usecase.Register(context.Background(), RegisterParams{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	unchanged, err := f.usecase.UpdateProfile(context.Background(), user.ID.Hex(), UpdateProfileParams{})
	require.NoError(t, err)
	assert.Equal(t, user.Email, unchanged.Email)
}

func TestUpdateProfile_UnknownUser(t *testing.T) {
	f := newUserFixture(t)

	email := "ghost@example.com"
	_, err := f.usecase.UpdateProfile(context.Background(), "64f000000000000000000000", UpdateProfileParams{
		Email: &email,
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	f := newUserFixture(t)
	user, err := f.usecase.Register(context.Background(), RegisterParams{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	err = f.usecase.ChangePassword(context.Background(), user.ID.Hex(), "wrong", "newpassword456")
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = f.usecase.ChangePassword(context.Background(), user.ID.Hex(), "password123", "newpassword456")
	require.NoError(t, err)

	stored, err := f.users.GetUser(context.Background(), user.ID.Hex())
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordHash)

	ok, err := security.VerifyPassword("newpassword456", *stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChangePassword_PasswordlessAccount(t *testing.T) {
	f := newUserFixture(t)

	user, err := f.users.CreateUser(context.Background(), &model.User{
		Email:    "oauth-only@example.com",
		IsActive: true,
	})
	require.NoError(t, err)

	err = f.usecase.ChangePassword(context.Background(), user.ID.Hex(), "anything", "newpassword456")
	assert.ErrorIs(t, err, ErrNoPassword)
}

func TestDeactivateAndActivate(t *testing.T) {
	f := newUserFixture(t)
	user, err := f.usecase.Register(context.Background(), RegisterParams{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	require.NoError(t, f.usecase.Deactivate(context.Background(), user.ID.Hex()))

	stored, err := f.users.GetUser(context.Background(), user.ID.Hex())
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	require.NoError(t, f.usecase.Activate(context.Background(), user.ID.Hex()))

	stored, err = f.users.GetUser(context.Background(), user.ID.Hex())
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}

func TestDelete_CascadesOwnedRecords(t *testing.T) {
	f := newUserFixture(t)
	user, err := f.usecase.Register(context.Background(), RegisterParams{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	userID := user.ID.Hex()

	_, err = f.accounts.CreateOAuthAccount(context.Background(), &model.OAuthAccount{
		UserID:         userID,
		Provider:       "google",
		ProviderUserID: "g-123",
	})
	require.NoError(t, err)

	_, err = f.tokens.CreateToken(context.Background(), &model.RefreshToken{
		UserID:    userID,
		TokenHash: security.HashToken("some-token"),
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, f.usecase.RequestEmailVerification(context.Background(), userID))

	require.NoError(t, f.usecase.Delete(context.Background(), userID))

	_, err = f.users.GetUser(context.Background(), userID)
	assert.Error(t, err)

	assert.Empty(t, f.accounts.linksForUser(userID))
	assert.Empty(t, f.tokens.tokens)
	assert.Empty(t, f.emailTokens.tokens)
}

func TestDelete_UnknownUser(t *testing.T) {
	f := newUserFixture(t)

	err := f.usecase.Delete(context.Background(), "64f000000000000000000000")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRequestEmailVerification_SendsMailWithToken(t *testing.T) {
	f := newUserFixture(t)
	user, err := f.usecase.Register(context.Background(), RegisterParams{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	require.NoError(t, f.usecase.RequestEmailVerification(context.Background(), user.ID.Hex()))

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, []string{"alice@example.com"}, f.mailer.sent[0].to)

	require.Len(t, f.emailTokens.tokens, 1)
	assert.Contains(t, f.mailer.sent[0].body, f.emailTokens.tokens[0].Token)
}

func TestRequestEmailVerification_ReplacesEarlierToken(t *testing.T) {
	f := newUserFixture(t)
	user, err := f.usecase.Register(context.Background(), RegisterParams{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	require.NoError(t, f.usecase.RequestEmailVerification(context.Background(), user.ID.Hex()))
	firstToken := f.emailTokens.tokens[0].Token

	require.NoError(t, f.usecase.RequestEmailVerification(context.Background(), user.ID.Hex()))
	require.Len(t, f.emailTokens.tokens, 1)
	assert.NotEqual(t, firstToken, f.emailTokens.tokens[0].Token)

	_, err = f.usecase.VerifyEmail(context.Background(), firstToken)
	assert.ErrorIs(t, err, ErrInvalidVerificationToken)
}

func TestRequestEmailVerification_AlreadyVerified(t *testing.T) {
	f := newUserFixture(t)
	user, err := f.usecase.Register(context.Background(), RegisterParams{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	require.NoError(t, f.users.MarkVerified(context.Background(), user.ID.Hex()))

	err = f.usecase.RequestEmailVerification(context.Background(), user.ID.Hex())
	assert.ErrorIs(t, err, ErrEmailAlreadyVerified)
	assert.Empty(t, f.mailer.sent)
}

func TestVerifyEmail_ConsumesToken(t *testing.T) {
	f := newUserFixture(t)
	user, err := f.usecase.Register(context.Background(), RegisterParams{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	require.NoError(t, f.usecase.RequestEmailVerification(context.Background(), user.ID.Hex()))
	token := f.emailTokens.tokens[0].Token

	verified, err := f.usecase.VerifyEmail(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)

	// Single use.
	_, err = f.usecase.VerifyEmail(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidVerificationToken)
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	f := newUserFixture(t)
	user, err := f.usecase.Register(context.Background(), RegisterParams{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = f.emailTokens.CreateToken(context.Background(), &model.EmailVerificationToken{
		UserID:    user.ID.Hex(),
		Token:     "expired-token",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	_, err = f.usecase.VerifyEmail(context.Background(), "expired-token")
	assert.ErrorIs(t, err, ErrInvalidVerificationToken)

	stored, err := f.users.GetUser(context.Background(), user.ID.Hex())
	require.NoError(t, err)
	assert.False(t, stored.IsVerified)
}

func TestVerifyEmail_UnknownToken(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.usecase.VerifyEmail(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidVerificationToken)
}
