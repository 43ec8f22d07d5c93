package middleware

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"lingo-server/models"
	"lingo-server/utils/errors"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "jwt"

// UserResolver loads a user record by its public ID.
type UserResolver interface {
	ResolveUser(ctx context.Context, publicID string) (models.User, error)
}

type contextKey string

const userContextKey contextKey = "user"

// AuthMiddleware is the session gate for protected routes: it extracts the
// session token from the cookie, verifies it, resolves the embedded user ID
// to a live record and attaches that record to the request context. Any
// failure short-circuits the request.
func AuthMiddleware(jwtSecret string, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				WriteError(w, errors.ErrUnauthorized)
				return
			}

			token, err := jwt.Parse(cookie.Value, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.NewAPIError("INVALID_TOKEN", "Unexpected signing method", http.StatusForbidden)
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				WriteError(w, errors.ErrForbidden)
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				WriteError(w, errors.ErrForbidden)
				return
			}
			userID, ok := claims["userID"].(string)
			if !ok || userID == "" {
				WriteError(w, errors.ErrForbidden)
				return
			}

			user, err := users.ResolveUser(r.Context(), userID)
			if err != nil {
				WriteError(w, errors.Wrap(err, "NOT_FOUND", "User not found", http.StatusNotFound))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a copy of ctx carrying the resolved session user.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFrom extracts the session user attached by AuthMiddleware.
func UserFrom(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}
