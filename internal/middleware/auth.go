package middleware

import (
	"net/http"
	"strings"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/handler/response"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
)

// TokenParser validates a bearer token and returns who it was issued to.
type TokenParser interface {
	Parse(token string) (entity.Principal, error)
}

// JWTAuth rejects requests without a valid "Authorization: Bearer <token>"
// header and stores the principal in the request context.
func JWTAuth(parser TokenParser, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			parts := strings.Fields(header)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				log.Debugf("JWTAuth: missing or malformed authorization header path=%s", r.URL.Path)
				response.Fail(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			principal, err := parser.Parse(parts[1])
			if err != nil {
				log.Debugf("JWTAuth: token rejected path=%s: %v", r.URL.Path, err)
				response.Fail(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireCapability must run after JWTAuth.
func RequireCapability(c entity.Capability, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				response.Fail(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !principal.Can(c) {
				log.Warnf("User %s with role %s denied capability %s on %s", principal.UserID, principal.Role, c, r.URL.Path)
				response.Fail(w, http.StatusForbidden, "You do not have permission to perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
