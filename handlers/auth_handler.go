package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"lingo-server/middleware"
	"lingo-server/services"
	"lingo-server/utils/errors"
)

var validate = validator.New()

type AuthHandler struct {
	users         *services.UserService
	secureCookies bool
}

func NewAuthHandler(users *services.UserService, secureCookies bool) *AuthHandler {
	return &AuthHandler{users: users, secureCookies: secureCookies}
}

type signupRequest struct {
	FullName string `json:"fullName" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// setSessionCookie attaches the session token as an HTTP-only, same-site
// strict cookie. Secure is enabled in production.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(services.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input signupRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if err := validate.Struct(input); err != nil {
		middleware.WriteError(w, errors.NewAPIError("INVALID_INPUT", "Invalid signup data", http.StatusBadRequest, err.Error()))
		return
	}

	user, token, err := h.users.Signup(r.Context(), input.FullName, input.Email, input.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered",
		"user":    user,
		"success": true,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input loginRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if err := validate.Struct(input); err != nil {
		middleware.WriteError(w, errors.NewAPIError("INVALID_INPUT", "Invalid login data", http.StatusBadRequest, err.Error()))
		return
	}

	user, token, err := h.users.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Login successful",
		"user":    user,
	})
}

// Signout clears the session cookie unconditionally; it is idempotent.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "User signed out"})
}

func (h *AuthHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserFrom(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	var input services.OnboardingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	user, err := h.users.Onboard(r.Context(), me.PublicID, input)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User onboarded successfully",
		"user":    user,
	})
}

// Me returns the session user resolved by the auth gate.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserFrom(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": me})
}
