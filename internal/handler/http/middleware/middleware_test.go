package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/activitylog"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(svc jwt.Service, perm user.Permission, seen *user.Principal) http.Handler {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(svc.JWTAuth()))
	r.Use(AuthRequired(svc.JWTAuth()))
	r.With(RequirePermission(perm)).Get("/", func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFromContext(r.Context())
		*seen = p
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestAuthRequired(t *testing.T) {
	svc := jwt.NewJWTService("secret", "1h")
	employeeID := int64(5)
	token, _, err := svc.GenerateAccessToken(user.Principal{UserID: 3, EmployeeID: &employeeID, Role: user.RoleEmployee})
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		var seen user.Principal
		rec := httptest.NewRecorder()
		protected(svc, user.PermissionLeaveViewOwn, &seen).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "INVALID_TOKEN", errorCode(t, rec))
	})

	t.Run("token signed with another key", func(t *testing.T) {
		foreign, _, err := jwt.NewJWTService("other", "1h").GenerateAccessToken(user.Principal{UserID: 3, Role: user.RoleOwner})
		require.NoError(t, err)

		var seen user.Principal
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+foreign)
		rec := httptest.NewRecorder()
		protected(svc, user.PermissionLeaveViewOwn, &seen).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("principal is loaded", func(t *testing.T) {
		var seen user.Principal
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected(svc, user.PermissionLeaveViewOwn, &seen).ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, int64(3), seen.UserID)
		require.NotNil(t, seen.EmployeeID)
		assert.Equal(t, int64(5), *seen.EmployeeID)
		assert.Equal(t, user.RoleEmployee, seen.Role)
	})

	t.Run("permission denied", func(t *testing.T) {
		var seen user.Principal
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected(svc, user.PermissionLeaveApprove, &seen).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
	})
}

func TestPrincipalFromClaims(t *testing.T) {
	p, ok := principalFromClaims(map[string]interface{}{"user_id": float64(9), "role": "owner"})
	require.True(t, ok)
	assert.Equal(t, int64(9), p.UserID)
	assert.Nil(t, p.EmployeeID)

	_, ok = principalFromClaims(map[string]interface{}{"user_id": "x", "role": "owner"})
	assert.False(t, ok)
	_, ok = principalFromClaims(map[string]interface{}{"user_id": "1"})
	assert.False(t, ok)
	_, ok = principalFromClaims(map[string]interface{}{"user_id": "1", "role": "owner", "employee_id": true})
	assert.False(t, ok)
}

func TestCorrelationID(t *testing.T) {
	var got string
	h := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = activitylog.CorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", got)
	assert.Equal(t, "abc-123", rec.Header().Get(CorrelationIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, got, 36)
	assert.Equal(t, got, rec.Header().Get(CorrelationIDHeader))
}
