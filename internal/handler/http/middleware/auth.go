package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-leave-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type principalKey struct{}

// AuthRequired rejects requests without a verified access token and stores
// the caller's principal in the request context.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			tokenType, ok := claims["type"].(string)
			if tokenType != jwt.TokenTypeAccess || !ok {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			principal, ok := principalFromClaims(claims)
			if !ok {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		}
		return http.HandlerFunc(hfn)
	}
}

func WithPrincipal(ctx context.Context, p user.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller set by AuthRequired.
func PrincipalFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(user.Principal)
	return p, ok
}

func principalFromClaims(claims map[string]interface{}) (user.Principal, bool) {
	userID, ok := claimInt64(claims["user_id"])
	if !ok || userID <= 0 {
		return user.Principal{}, false
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return user.Principal{}, false
	}

	p := user.Principal{UserID: userID, Role: user.Role(role)}
	if raw, present := claims["employee_id"]; present && raw != nil {
		employeeID, ok := claimInt64(raw)
		if !ok {
			return user.Principal{}, false
		}
		p.EmployeeID = &employeeID
	}
	return p, true
}

func claimInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		return n, err == nil
	case float64:
		return int64(val), val == float64(int64(val))
	case int64:
		return val, true
	default:
		return 0, false
	}
}
