package jwt

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", "1h")
	employeeID := int64(42)

	token, expiresAt, err := svc.GenerateAccessToken(user.Principal{UserID: 7, EmployeeID: &employeeID, Role: user.RoleEmployee})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), expiresAt, 5)

	decoded, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)

	claims := decoded.PrivateClaims()
	assert.Equal(t, "7", claims["user_id"])
	assert.Equal(t, "42", claims["employee_id"])
	assert.Equal(t, "employee", claims["role"])
	assert.Equal(t, TokenTypeAccess, claims["type"])
}

func TestJWTService_NoEmployee(t *testing.T) {
	svc := NewJWTService("test-secret", "1h")

	token, _, err := svc.GenerateAccessToken(user.Principal{UserID: 1, Role: user.RoleOwner})
	require.NoError(t, err)

	decoded, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)
	assert.Nil(t, decoded.PrivateClaims()["employee_id"])
}

func TestJWTService_InvalidExpiration(t *testing.T) {
	svc := NewJWTService("test-secret", "soon")

	_, _, err := svc.GenerateAccessToken(user.Principal{UserID: 1, Role: user.RoleOwner})
	assert.Error(t, err)
}

func TestJWTService_RejectsForeignSignature(t *testing.T) {
	token, _, err := NewJWTService("one", "1h").GenerateAccessToken(user.Principal{UserID: 1, Role: user.RoleOwner})
	require.NoError(t, err)

	_, err = jwtauth.VerifyToken(NewJWTService("two", "1h").JWTAuth(), token)
	assert.Error(t, err)
}
