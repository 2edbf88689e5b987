package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolgate/pkg/domain"
	dErrors "toolgate/pkg/domain-errors"
)

var jwtService = NewJWTService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)
var principal = domain.Principal{
	ID:         domain.NewUserID(),
	Email:      "user@example.com",
	Role:       domain.RoleUser,
	ExternalID: "lms-4711",
}
var expiresIn = time.Hour

func Test_GenerateAccessToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(principal, expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, principal.ID.String(), claims.UserID)
	assert.Equal(t, principal.Email, claims.Email)
	assert.Equal(t, string(principal.Role), claims.Role)
	assert.Equal(t, principal.ExternalID, claims.ExternalID)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	expiresIn := -time.Hour // Expired token

	token, err := jwtService.GenerateAccessToken(principal, expiresIn)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
}

func Test_ValidateToken_AdminRoleRoundTrip(t *testing.T) {
	admin := domain.Principal{
		ID:    domain.NewUserID(),
		Email: "admin@example.com",
		Role:  domain.RoleSuperAdmin,
	}
	token, err := jwtService.GenerateAccessToken(admin, expiresIn)
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "super_admin", claims.Role)
}
