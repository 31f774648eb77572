package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// OAuthAccount links one external-provider identity to exactly one user.
// The (provider, provider_user_id) pair is globally unique. Accounts are
// created by identity linking and only removed when the owning user is
// deleted.
type OAuthAccount struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	UserID         string        `bson:"user_id"`
	Provider       string        `bson:"provider"`
	ProviderUserID string        `bson:"provider_user_id"`
	CreatedAt      time.Time     `bson:"created_at"`
}
