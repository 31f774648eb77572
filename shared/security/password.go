package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/matthewhartstonge/argon2"
)

var argon = argon2.DefaultConfig()

// HashPassword hashes a plain-text password with argon2id. The encoded
// result embeds the salt and parameters, so hashing the same password
// twice produces different output.
func HashPassword(password string) (string, error) {
	encoded, err := argon.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword reports whether password matches the encoded argon2 hash.
func VerifyPassword(password, hash string) (bool, error) {
	return argon2.VerifyEncoded([]byte(password), []byte(hash))
}

// HashToken returns the hex-encoded SHA-256 digest of an opaque token
// string. Refresh tokens are stored and looked up by this digest; the raw
// token never reaches the database.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
