package middleware

import (
	"net/http"
	"strings"

	"user-service/pkg/jwtutil"
	"user-service/pkg/response"
)

const bearerScheme = "Bearer "

type AuthMiddleware struct {
	verifier *jwtutil.Verifier
}

func NewAuthMiddleware(verifier *jwtutil.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// extractToken requires the Authorization header to be present and to begin
// with the literal "Bearer " scheme. The prefix check is case-sensitive and
// there is no cookie or query fallback.
func extractToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, bearerScheme) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, bearerScheme)), true
}

// RequireAuth validates the bearer token and puts the subject claims on the
// request context. Any failure is a 401; no partial success path exists.
func (am *AuthMiddleware) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractToken(r)
			if !ok || token == "" {
				response.Error(w, http.StatusUnauthorized, "No bearer token provided")
				return
			}

			claims, err := am.verifier.ParseAndValidate(token)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, setContextValues(r, claims, token))
		})
	}
}
