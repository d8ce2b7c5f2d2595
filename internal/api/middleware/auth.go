package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/phrazzld/balance-proxy/internal/api/shared"
	"github.com/phrazzld/balance-proxy/internal/service/auth"
)

// AuthRequiredMessage is the only message sent with a 401.
const AuthRequiredMessage = "Authentication required"

// AuthMiddleware requires a valid session token on the routes it wraps.
type AuthMiddleware struct {
	jwtService auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// Authenticate validates the bearer token from the Authorization header and
// adds the session user ID to the request context. Every failure is a 401
// with the same message.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, AuthRequiredMessage,
				auth.ErrMissingToken)
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), token)
		if err != nil {
			var opts []shared.ResponseOption
			if !errors.Is(err, auth.ErrExpiredToken) {
				opts = append(opts, shared.WithElevatedLogLevel())
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, AuthRequiredMessage, err, opts...)
			return
		}

		ctx := shared.WithSessionUserID(r.Context(), claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
