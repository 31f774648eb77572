package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/natthaphols/identity-api/services/identity-service/internal/model"
)

// EmailVerificationTokenRepository defines the interface for email
// verification token operations.
type EmailVerificationTokenRepository interface {
	// CreateToken creates a new verification token.
	CreateToken(ctx context.Context, token *model.EmailVerificationToken) (*model.EmailVerificationToken, error)

	// GetByToken retrieves a token by its opaque value.
	GetByToken(ctx context.Context, token string) (*model.EmailVerificationToken, error)

	// DeleteByID removes a single token.
	DeleteByID(ctx context.Context, id bson.ObjectID) error

	// DeleteByUserID removes every token issued to the user.
	DeleteByUserID(ctx context.Context, userID string) error
}

const emailVerificationTokenCollection = "email_verification_tokens"

type emailVerificationTokenMongoRepository struct {
	db *mongo.Database
}

// NewEmailVerificationTokenMongoRepository creates a MongoDB repository
// for email verification tokens. Expired tokens are collected by a TTL
// index.
func NewEmailVerificationTokenMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) EmailVerificationTokenRepository {
	collection := db.Collection(emailVerificationTokenCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create email verification token indexes")
	}

	return &emailVerificationTokenMongoRepository{db: db}
}

func (r *emailVerificationTokenMongoRepository) CreateToken(
	ctx context.Context,
	token *model.EmailVerificationToken,
) (*model.EmailVerificationToken, error) {
	token.CreatedAt = time.Now()

	result, err := r.db.Collection(emailVerificationTokenCollection).InsertOne(ctx, token)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		token.ID = objectID
	}

	return token, nil
}

func (r *emailVerificationTokenMongoRepository) GetByToken(
	ctx context.Context,
	token string,
) (*model.EmailVerificationToken, error) {
	var record model.EmailVerificationToken
	err := r.db.Collection(emailVerificationTokenCollection).
		FindOne(ctx, bson.M{"token": token}).
		Decode(&record)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *emailVerificationTokenMongoRepository) DeleteByID(ctx context.Context, id bson.ObjectID) error {
	_, err := r.db.Collection(emailVerificationTokenCollection).DeleteOne(ctx, bson.M{"_id": id})

	return err
}

func (r *emailVerificationTokenMongoRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.Collection(emailVerificationTokenCollection).DeleteMany(ctx, bson.M{"user_id": userID})

	return err
}
