package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents an account in the identity system. A user with a nil
// PasswordHash is OAuth-only and must have at least one linked
// OAuthAccount. TwoFactorSecret is set while a two-factor setup is pending
// or enabled and cleared on disable.
type User struct {
	ID               bson.ObjectID `bson:"_id,omitempty"`
	Email            string        `bson:"email"`
	PasswordHash     *string       `bson:"password_hash"`
	IsActive         bool          `bson:"is_active"`
	IsVerified       bool          `bson:"is_verified"`
	TwoFactorEnabled bool          `bson:"two_factor_enabled"`
	TwoFactorSecret  *string       `bson:"two_factor_secret"`
	CreatedAt        time.Time     `bson:"created_at"`
	UpdatedAt        time.Time     `bson:"updated_at"`
}
