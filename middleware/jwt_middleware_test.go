package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingo-server/models"
	"lingo-server/utils/errors"
)

const testSecret = "test-secret"

type fakeResolver struct {
	users map[string]models.User
}

func (f *fakeResolver) ResolveUser(_ context.Context, publicID string) (models.User, error) {
	user, ok := f.users[publicID]
	if !ok {
		return models.User{}, errors.ErrNotFound
	}
	return user, nil
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func gatedHandler(t *testing.T, wantID string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFrom(r.Context())
		require.True(t, ok, "expected user in request context")
		assert.Equal(t, wantID, user.PublicID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareMissingCookie(t *testing.T) {
	resolver := &fakeResolver{}
	handler := AuthMiddleware(testSecret, resolver)(gatedHandler(t, ""))

	req := httptest.NewRequest("GET", "/auth/me", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	resolver := &fakeResolver{}
	handler := AuthMiddleware(testSecret, resolver)(gatedHandler(t, ""))

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not-a-token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	resolver := &fakeResolver{users: map[string]models.User{"u1": {PublicID: "u1"}}}
	handler := AuthMiddleware(testSecret, resolver)(gatedHandler(t, "u1"))

	token := signToken(t, testSecret, jwt.MapClaims{
		"userID": "u1",
		"exp":    time.Now().Add(-time.Hour).Unix(),
	})
	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthMiddlewareWrongSecret(t *testing.T) {
	resolver := &fakeResolver{users: map[string]models.User{"u1": {PublicID: "u1"}}}
	handler := AuthMiddleware(testSecret, resolver)(gatedHandler(t, "u1"))

	token := signToken(t, "other-secret", jwt.MapClaims{
		"userID": "u1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthMiddlewareUserGone(t *testing.T) {
	resolver := &fakeResolver{}
	handler := AuthMiddleware(testSecret, resolver)(gatedHandler(t, "u1"))

	token := signToken(t, testSecret, jwt.MapClaims{
		"userID": "u1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthMiddlewareValidSession(t *testing.T) {
	resolver := &fakeResolver{users: map[string]models.User{
		"u1": {PublicID: "u1", FullName: "Ann Lee"},
	}}
	handler := AuthMiddleware(testSecret, resolver)(gatedHandler(t, "u1"))

	token := signToken(t, testSecret, jwt.MapClaims{
		"userID": "u1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
