package usecase

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/natthaphols/identity-api/services/identity-service/internal/config"
	"github.com/natthaphols/identity-api/services/identity-service/internal/model"
	"github.com/natthaphols/identity-api/services/identity-service/internal/repository"
)

// In-memory repository fakes with the same contract as the MongoDB
// implementations: mongo.ErrNoDocuments on misses and a duplicate-key
// write error on unique-index violations.

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]model.User)}
}

func (r *memUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, duplicateKeyError()
		}
	}

	user.ID = bson.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID.Hex()] = *user

	copied := *user

	return &copied, nil
}

func (r *memUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	return &user, nil
}

func (r *memUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *memUserRepo) UpdateUser(_ context.Context, id string, params repository.UpdateUserParams) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	if params.Email != nil {
		for otherID, other := range r.users {
			if otherID != id && other.Email == *params.Email {
				return nil, duplicateKeyError()
			}
		}
		user.Email = *params.Email
	}
	if params.PasswordHash != nil {
		user.PasswordHash = params.PasswordHash
	}
	user.UpdatedAt = time.Now()
	r.users[id] = user

	copied := user

	return &copied, nil
}

func (r *memUserRepo) SetTwoFactorSecret(_ context.Context, id string, secret string) error {
	return r.mutate(id, func(user *model.User) {
		user.TwoFactorSecret = &secret
	})
}

func (r *memUserRepo) EnableTwoFactor(_ context.Context, id string) error {
	return r.mutate(id, func(user *model.User) {
		user.TwoFactorEnabled = true
	})
}

func (r *memUserRepo) DisableTwoFactor(_ context.Context, id string) error {
	return r.mutate(id, func(user *model.User) {
		user.TwoFactorEnabled = false
		user.TwoFactorSecret = nil
	})
}

func (r *memUserRepo) SetActive(_ context.Context, id string, active bool) error {
	return r.mutate(id, func(user *model.User) {
		user.IsActive = active
	})
}

func (r *memUserRepo) MarkVerified(_ context.Context, id string) error {
	return r.mutate(id, func(user *model.User) {
		user.IsVerified = true
	})
}

func (r *memUserRepo) DeleteUser(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.users, id)

	return nil
}

func (r *memUserRepo) mutate(id string, fn func(*model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	fn(&user)
	user.UpdatedAt = time.Now()
	r.users[id] = user

	return nil
}

type memRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]model.RefreshToken
}

func newMemRefreshTokenRepo() *memRefreshTokenRepo {
	return &memRefreshTokenRepo{tokens: make(map[string]model.RefreshToken)}
}

func (r *memRefreshTokenRepo) CreateToken(_ context.Context, token *model.RefreshToken) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[token.TokenHash]; ok {
		return nil, duplicateKeyError()
	}

	token.ID = bson.NewObjectID()
	token.CreatedAt = time.Now()
	token.Revoked = false
	r.tokens[token.TokenHash] = *token

	copied := *token

	return &copied, nil
}

func (r *memRefreshTokenRepo) RevokeActiveByTokenHash(_ context.Context, tokenHash string) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[tokenHash]
	if !ok || token.Revoked {
		return nil, mongo.ErrNoDocuments
	}

	before := token
	token.Revoked = true
	r.tokens[tokenHash] = token

	return &before, nil
}

func (r *memRefreshTokenRepo) RevokeByTokenHash(_ context.Context, tokenHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[tokenHash]
	if !ok {
		return false, nil
	}

	token.Revoked = true
	r.tokens[tokenHash] = token

	return true, nil
}

func (r *memRefreshTokenRepo) RevokeAllByUserID(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for hash, token := range r.tokens {
		if token.UserID == userID && !token.Revoked {
			token.Revoked = true
			r.tokens[hash] = token
			count++
		}
	}

	return count, nil
}

func (r *memRefreshTokenRepo) DeleteByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for hash, token := range r.tokens {
		if token.UserID == userID {
			delete(r.tokens, hash)
		}
	}

	return nil
}

type memOAuthAccountRepo struct {
	mu       sync.Mutex
	accounts []model.OAuthAccount
}

func newMemOAuthAccountRepo() *memOAuthAccountRepo {
	return &memOAuthAccountRepo{}
}

func (r *memOAuthAccountRepo) CreateOAuthAccount(_ context.Context, account *model.OAuthAccount) (*model.OAuthAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.Provider == account.Provider && existing.ProviderUserID == account.ProviderUserID {
			return nil, duplicateKeyError()
		}
	}

	account.ID = bson.NewObjectID()
	account.CreatedAt = time.Now()
	r.accounts = append(r.accounts, *account)

	copied := *account

	return &copied, nil
}

func (r *memOAuthAccountRepo) GetByProvider(_ context.Context, provider, providerUserID string) (*model.OAuthAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if account.Provider == provider && account.ProviderUserID == providerUserID {
			copied := account
			return &copied, nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *memOAuthAccountRepo) linksForUser(userID string) []model.OAuthAccount {
	r.mu.Lock()
	defer r.mu.Unlock()

	var accounts []model.OAuthAccount
	for _, account := range r.accounts {
		if account.UserID == userID {
			accounts = append(accounts, account)
		}
	}

	return accounts
}

func (r *memOAuthAccountRepo) DeleteByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.accounts[:0]
	for _, account := range r.accounts {
		if account.UserID != userID {
			kept = append(kept, account)
		}
	}
	r.accounts = kept

	return nil
}

type memEmailTokenRepo struct {
	mu     sync.Mutex
	tokens []model.EmailVerificationToken
}

func newMemEmailTokenRepo() *memEmailTokenRepo {
	return &memEmailTokenRepo{}
}

func (r *memEmailTokenRepo) CreateToken(_ context.Context, token *model.EmailVerificationToken) (*model.EmailVerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.tokens {
		if existing.Token == token.Token {
			return nil, duplicateKeyError()
		}
	}

	token.ID = bson.NewObjectID()
	token.CreatedAt = time.Now()
	r.tokens = append(r.tokens, *token)

	copied := *token

	return &copied, nil
}

func (r *memEmailTokenRepo) GetByToken(_ context.Context, token string) (*model.EmailVerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.tokens {
		if existing.Token == token {
			copied := existing
			return &copied, nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *memEmailTokenRepo) DeleteByID(_ context.Context, id bson.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.tokens[:0]
	for _, token := range r.tokens {
		if token.ID != id {
			kept = append(kept, token)
		}
	}
	r.tokens = kept

	return nil
}

func (r *memEmailTokenRepo) DeleteByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.tokens[:0]
	for _, token := range r.tokens {
		if token.UserID != userID {
			kept = append(kept, token)
		}
	}
	r.tokens = kept

	return nil
}

type memMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

type sentMail struct {
	to      []string
	subject string
	body    string
}

func (m *memMailer) SendHTML(to []string, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})

	return nil
}

func newTestConfig() *config.IdentityServiceConfig {
	return &config.IdentityServiceConfig{
		ServiceName: "identity-service",
		AppBaseURL:  "http://localhost:8080",
		Token: config.TokenConfig{
			Secret:                     "test-secret",
			AccessTokenExpiresIn:       30 * time.Minute,
			RefreshTokenExpiresIn:      7 * 24 * time.Hour,
			VerificationTokenExpiresIn: 24 * time.Hour,
		},
		TOTP: config.TOTPConfig{
			Issuer:      "identity-api",
			DriftWindow: 1,
		},
	}
}
