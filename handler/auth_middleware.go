package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"vidstream-api/common"
	"vidstream-api/repository"
	"vidstream-api/service"
)

type contextKey string

// CurrentUserKey holds the *model.PublicUser resolved by the gate.
const CurrentUserKey contextKey = "currentUser"

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// AuthMiddleware is the request authentication gate: it extracts the access
// token, verifies it, checks the revocation list, resolves the subject, and
// attaches the public identity to the request context.
type AuthMiddleware struct {
	auth    *service.AuthService
	users   repository.IUserRepository
	revoker service.TokenRevoker
}

func NewAuthMiddleware(auth *service.AuthService, users repository.IUserRepository, revoker service.TokenRevoker) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, users: users, revoker: revoker}
}

// extractAccessToken prefers the cookie, then the Authorization header.
func extractAccessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

func (m *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractAccessToken(r)
		if tokenString == "" {
			common.NewAppError(http.StatusUnauthorized, "Unauthorized", nil).Send(w)
			return
		}

		claims, err := m.auth.VerifyAccessToken(tokenString)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrTokenExpired):
				common.NewAppError(http.StatusUnauthorized, "Token expired", err).Send(w)
			case errors.Is(err, common.ErrTokenInvalid):
				common.NewAppError(http.StatusUnauthorized, "Unauthorized", err).Send(w)
			default:
				common.NewAppError(http.StatusInternalServerError, "Internal server error", err).Send(w)
			}
			return
		}

		revoked, err := m.revoker.IsRevoked(r.Context(), tokenString)
		if err != nil {
			common.NewAppError(http.StatusInternalServerError, "Internal server error", err).Send(w)
			return
		}
		if revoked {
			common.NewAppError(http.StatusUnauthorized, "Unauthorized", nil).Send(w)
			return
		}

		user, err := m.users.GetPublicByID(claims.UserID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				common.NewAppError(http.StatusUnauthorized, "Unauthorized", err).Send(w)
			} else {
				common.NewAppError(http.StatusInternalServerError, "Internal server error", err).Send(w)
			}
			return
		}

		ctx := context.WithValue(r.Context(), CurrentUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
