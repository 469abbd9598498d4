package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", "15m")

	token, expiresAt, err := svc.GenerateAccessToken("user-1", "company-1", "manager")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.InDelta(t, time.Now().Add(15*time.Minute).Unix(), expiresAt, 5)

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)

	companyID, ok := decoded.Get("company_id")
	require.True(t, ok)
	assert.Equal(t, "company-1", companyID)

	tokenType, ok := decoded.Get("type")
	require.True(t, ok)
	assert.Equal(t, TokenTypeAccess, tokenType)
}

func TestGenerateAccessToken_InvalidDuration(t *testing.T) {
	svc := NewJWTService("test-secret", "forever")

	_, _, err := svc.GenerateAccessToken("user-1", "company-1", "manager")
	assert.Error(t, err)
}
