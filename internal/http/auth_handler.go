package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/gateway"
)

// AuthService is the slice of the gateway the auth handler consumes.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*gateway.AuthResult, error)
	Register(ctx context.Context, email, password, fullName string) (*gateway.AuthResult, error)
}

type AuthHandler struct {
	auth    AuthService
	timeout time.Duration
}

func NewAuthHandler(auth AuthService, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		timeout: timeout,
	}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "missing_field", "email and password are required")
		return
	}

	result, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		// A failed login leaves the session exactly as it was.
		handleGatewayError(w, err)
		return
	}

	sess := sessionFromContext(r.Context())
	if sess != nil {
		sess.SetUser(result.User, result.Token)
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		respondError(w, http.StatusBadRequest, "missing_field", "email, password and full_name are required")
		return
	}

	result, err := h.auth.Register(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		handleGatewayError(w, err)
		return
	}

	sess := sessionFromContext(r.Context())
	if sess != nil {
		sess.SetUser(result.User, result.Token)
	}

	respondJSON(w, http.StatusOK, result)
}

// Logout forgets the cached user. The persisted cart survives logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := sessionFromContext(r.Context()); sess != nil {
		sess.Clear()
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
