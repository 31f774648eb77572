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

// OAuthAccountRepository defines the interface for OAuth identity-link
// database operations.
type OAuthAccountRepository interface {
	CreateOAuthAccount(ctx context.Context, account *model.OAuthAccount) (*model.OAuthAccount, error)
	GetByProvider(ctx context.Context, provider, providerUserID string) (*model.OAuthAccount, error)
	DeleteByUserID(ctx context.Context, userID string) error
}

const oauthAccountCollection = "oauth_accounts"

type oauthAccountMongoRepository struct {
	db *mongo.Database
}

// NewOAuthAccountMongoRepository creates a MongoDB repository for OAuth
// accounts and ensures the unique (provider, provider_user_id) index.
func NewOAuthAccountMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) OAuthAccountRepository {
	collection := db.Collection(oauthAccountCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "provider", Value: 1},
				{Key: "provider_user_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create oauth account indexes")
	}

	return &oauthAccountMongoRepository{db: db}
}

func (r *oauthAccountMongoRepository) CreateOAuthAccount(
	ctx context.Context,
	account *model.OAuthAccount,
) (*model.OAuthAccount, error) {
	account.CreatedAt = time.Now()

	result, err := r.db.Collection(oauthAccountCollection).InsertOne(ctx, account)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		account.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return account, nil
}

func (r *oauthAccountMongoRepository) GetByProvider(
	ctx context.Context,
	provider, providerUserID string,
) (*model.OAuthAccount, error) {
	result := r.db.Collection(oauthAccountCollection).FindOne(ctx, bson.M{
		"provider":         provider,
		"provider_user_id": providerUserID,
	})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var account model.OAuthAccount
	if err := result.Decode(&account); err != nil {
		return nil, err
	}

	return &account, nil
}

func (r *oauthAccountMongoRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.Collection(oauthAccountCollection).DeleteMany(ctx, bson.M{"user_id": userID})

	return err
}
