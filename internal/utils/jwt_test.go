package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenloop/waste2fertilizer/internal/model"
)

const testSecret = "unit-test-secret"

func TestSessionTokenRoundTrip(t *testing.T) {
	token, exp, err := NewSessionToken(testSecret, "u-1", "donor@example.com", model.RoleDonor, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ParseSessionToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "donor@example.com", claims.Email)
	assert.Equal(t, "donor", claims.Role)
}

func TestParseSessionTokenWrongSecret(t *testing.T) {
	token, _, err := NewSessionToken(testSecret, "u-1", "a@b.com", model.RoleBuyer, time.Hour)
	require.NoError(t, err)

	_, err = ParseSessionToken(token, "a-different-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseSessionTokenExpired(t *testing.T) {
	token, _, err := NewSessionToken(testSecret, "u-1", "a@b.com", model.RoleBuyer, -time.Minute)
	require.NoError(t, err)

	_, err = ParseSessionToken(token, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseSessionTokenMalformed(t *testing.T) {
	_, err := ParseSessionToken("not.a.jwt", testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseSessionToken("", testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
