package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/natthaphols/identity-api/services/identity-service/internal/model"
)

// RefreshTokenRepository defines the interface for refresh-token record
// operations. Records are looked up by the token digest, never by the raw
// token string.
type RefreshTokenRepository interface {
	CreateToken(ctx context.Context, token *model.RefreshToken) (*model.RefreshToken, error)

	// RevokeActiveByTokenHash atomically flips revoked from false to true
	// and returns the record as it was before the update. It returns
	// mongo.ErrNoDocuments when no non-revoked record matches, which makes
	// it the serialization point for concurrent rotation attempts.
	RevokeActiveByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)

	// RevokeByTokenHash marks the matching record revoked without checking
	// its current revoked state. It reports whether a record matched.
	RevokeByTokenHash(ctx context.Context, tokenHash string) (bool, error)

	// RevokeAllByUserID revokes every non-revoked record for the user and
	// returns the number affected.
	RevokeAllByUserID(ctx context.Context, userID string) (int64, error)

	DeleteByUserID(ctx context.Context, userID string) error
}

const refreshTokenCollection = "refresh_tokens"

type refreshTokenMongoRepository struct {
	db *mongo.Database
}

// NewRefreshTokenMongoRepository creates a MongoDB repository for refresh
// tokens and ensures the unique token_hash index.
func NewRefreshTokenMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) RefreshTokenRepository {
	collection := db.Collection(refreshTokenCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create refresh token indexes")
	}

	return &refreshTokenMongoRepository{db: db}
}

func (r *refreshTokenMongoRepository) CreateToken(
	ctx context.Context,
	token *model.RefreshToken,
) (*model.RefreshToken, error) {
	token.CreatedAt = time.Now()
	token.Revoked = false

	result, err := r.db.Collection(refreshTokenCollection).InsertOne(ctx, token)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		token.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return token, nil
}

func (r *refreshTokenMongoRepository) RevokeActiveByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*model.RefreshToken, error) {
	result := r.db.Collection(refreshTokenCollection).FindOneAndUpdate(
		ctx,
		bson.M{"token_hash": tokenHash, "revoked": false},
		bson.M{"$set": bson.M{"revoked": true}},
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var token model.RefreshToken
	if err := result.Decode(&token); err != nil {
		return nil, err
	}

	return &token, nil
}

func (r *refreshTokenMongoRepository) RevokeByTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	result, err := r.db.Collection(refreshTokenCollection).UpdateOne(
		ctx,
		bson.M{"token_hash": tokenHash},
		bson.M{"$set": bson.M{"revoked": true}},
	)
	if err != nil {
		return false, err
	}

	return result.MatchedCount > 0, nil
}

func (r *refreshTokenMongoRepository) RevokeAllByUserID(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.Collection(refreshTokenCollection).UpdateMany(
		ctx,
		bson.M{"user_id": userID, "revoked": false},
		bson.M{"$set": bson.M{"revoked": true}},
	)
	if err != nil {
		return 0, err
	}

	return result.ModifiedCount, nil
}

func (r *refreshTokenMongoRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.Collection(refreshTokenCollection).DeleteMany(ctx, bson.M{"user_id": userID})

	return err
}
