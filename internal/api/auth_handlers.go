package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/example/wholesale-clothing/internal/auth"
	"go.uber.org/zap"
)

// AuthHandlers issues admin access tokens
type AuthHandlers struct {
	admin      auth.AdminCredentials
	jwtService *auth.JWTService
	logger     *zap.Logger
}

func NewAuthHandlers(admin auth.AdminCredentials, jwtService *auth.JWTService, logger *zap.Logger) *AuthHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandlers{admin: admin, jwtService: jwtService, logger: logger}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login checks the admin credentials and returns a token, also set as a cookie.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	} else {
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	}

	if err := h.admin.Authenticate(req.Username, req.Password); err != nil {
		h.logger.Warn("login failed", zap.String("username", req.Username), zap.String("remote", r.RemoteAddr))
		respondJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := h.jwtService.GenerateAccessToken(req.Username, auth.RoleAdmin)
	if err != nil {
		h.logger.Error("sign token", zap.Error(err))
		respondJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	respondJSON(w, http.StatusOK, LoginResponse{AccessToken: token, ExpiresAt: expiresAt})
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
