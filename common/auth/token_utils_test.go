package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndValidateToken_RoundTrip(t *testing.T) {
	p := NewTokenParser("test-secret")
	userID := uuid.New()

	token, err := p.SignAccessToken(userID, jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()})
	require.NoError(t, err)

	claims, err := p.ParseAndValidateToken(token, "access")
	require.NoError(t, err)

	got, err := UserID(claims)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestParseAndValidateToken_WrongType(t *testing.T) {
	p := NewTokenParser("test-secret")
	token, err := p.SignAccessToken(uuid.New(), jwt.MapClaims{"typ": "refresh"})
	require.NoError(t, err)

	_, err = p.ParseAndValidateToken(token, "access")
	assert.EqualError(t, err, "invalid token type")
}

func TestParseAndValidateToken_Expired(t *testing.T) {
	p := NewTokenParser("test-secret")
	token, err := p.SignAccessToken(uuid.New(), jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})
	require.NoError(t, err)

	_, err = p.ParseAndValidateToken(token, "")
	assert.Error(t, err)
}

func TestParseAndValidateToken_OtherSecret(t *testing.T) {
	token, err := NewTokenParser("one").SignAccessToken(uuid.New(), nil)
	require.NoError(t, err)

	_, err = NewTokenParser("two").ParseAndValidateToken(token, "")
	assert.Error(t, err)
}

func TestParseAndValidateToken_NoSecret(t *testing.T) {
	p := NewTokenParser("  ")
	assert.False(t, p.Enabled())

	_, err := p.ParseAndValidateToken("whatever", "")
	assert.EqualError(t, err, "JWT secret not configured")
}

func TestUserID_FallsBackToSubject(t *testing.T) {
	id := uuid.New()
	got, err := UserID(jwt.MapClaims{"sub": id.String()})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = UserID(jwt.MapClaims{"sub": "42"})
	assert.Error(t, err)

	_, err = UserID(jwt.MapClaims{})
	assert.Error(t, err)
}
