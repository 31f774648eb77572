package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCodec_MintDecodeRoundtrip(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	token, err := codec.Mint("user-123", TokenKindAccess, 30*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, TokenKindAccess, claims.Kind())
}

func TestTokenCodec_RefreshKindSurvivesRoundtrip(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	token, err := codec.Mint("user-123", TokenKindRefresh, 7*24*time.Hour)
	require.NoError(t, err)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, TokenKindRefresh, claims.Kind())
}

func TestTokenCodec_RejectsExpiredToken(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	token, err := codec.Mint("user-123", TokenKindAccess, -time.Minute)
	require.NoError(t, err)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenCodec_RejectsTamperedToken(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	token, err := codec.Mint("user-123", TokenKindAccess, 30*time.Minute)
	require.NoError(t, err)

	_, err = codec.Decode(token + "x")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenCodec_RejectsWrongSecret(t *testing.T) {
	minter := NewTokenCodec("one-secret")
	verifier := NewTokenCodec("another-secret")

	token, err := minter.Mint("user-123", TokenKindAccess, 30*time.Minute)
	require.NoError(t, err)

	_, err = verifier.Decode(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenCodec_RejectsUnknownKind(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	token, err := codec.Mint("user-123", TokenKind("session"), 30*time.Minute)
	require.NoError(t, err)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenCodec_RejectsEmptySubject(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	token, err := codec.Mint("", TokenKindAccess, 30*time.Minute)
	require.NoError(t, err)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenCodec_RejectsGarbage(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	_, err := codec.Decode("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
