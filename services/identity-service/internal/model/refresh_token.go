package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// RefreshToken is the server-side record of an issued refresh token. Only
// the SHA-256 digest of the token string is stored. Once Revoked is true
// it never reverts; records are kept until the owning user is deleted.
type RefreshToken struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    string        `bson:"user_id"`
	TokenHash string        `bson:"token_hash"`
	ExpiresAt time.Time     `bson:"expires_at"`
	Revoked   bool          `bson:"revoked"`
	CreatedAt time.Time     `bson:"created_at"`
}
