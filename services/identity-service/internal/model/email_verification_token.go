package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// EmailVerificationToken is a single-use opaque token mailed to a user to
// confirm ownership of their address.
type EmailVerificationToken struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    string        `bson:"user_id"`
	Token     string        `bson:"token"`
	ExpiresAt time.Time     `bson:"expires_at"`
	CreatedAt time.Time     `bson:"created_at"`
}
