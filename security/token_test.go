package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCodecRoundtrip(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	token, err := codec.Issue("68aa1b2c3d4e5f6a7b8c9d0e", "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "68aa1b2c3d4e5f6a7b8c9d0e", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestTokenCodecWrongSecret(t *testing.T) {
	token, err := NewTokenCodec("secret-a").Issue("id", "a@b.c")
	require.NoError(t, err)

	_, err = NewTokenCodec("secret-b").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodecExpired(t *testing.T) {
	codec := NewTokenCodec("test-secret")
	codec.expiry = -time.Minute

	token, err := codec.Issue("id", "a@b.c")
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodecMalformed(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := codec.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
