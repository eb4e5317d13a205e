package httpapi

import (
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pranaynookala001/securedocs/internal/auth"
	"github.com/pranaynookala001/securedocs/internal/models"
)

// AuthHandler serves the /api/auth surface.
type AuthHandler struct {
	svc *auth.Service
	log zerolog.Logger
}

func NewAuthHandler(svc *auth.Service, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

type userDTO struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Role          string     `json:"role"`
	IsActive      bool       `json:"isActive"`
	EmailVerified bool       `json:"emailVerified"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func toUserDTO(u *models.User) userDTO {
	return userDTO{
		ID:            u.ID.String(),
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          string(u.Role),
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

type authResponse struct {
	Token        string  `json:"token"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresIn    int     `json:"expiresIn"`
	User         userDTO `json:"user"`
}

func toAuthResponse(pair *auth.TokenPair, user *models.User) authResponse {
	return authResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		User:         toUserDTO(user),
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}

	pair, user, fail := h.svc.Login(r.Context(), req.Username, req.Password, clientIP(r), r.UserAgent())
	if fail != nil {
		respondFailure(w, fail)
		return
	}
	respondJSON(w, http.StatusOK, toAuthResponse(pair, user))
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		respondMessage(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	pair, user, fail := h.svc.Register(r.Context(), auth.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, clientIP(r), r.UserAgent())
	if fail != nil {
		respondFailure(w, fail)
		return
	}
	respondJSON(w, http.StatusOK, toAuthResponse(pair, user))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil || req.RefreshToken == "" {
		respondMessage(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	pair, user, fail := h.svc.Refresh(r.Context(), req.RefreshToken, clientIP(r))
	if fail != nil {
		respondFailure(w, fail)
		return
	}
	respondJSON(w, http.StatusOK, toAuthResponse(pair, user))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if _, fail := h.svc.Logout(r.Context(), identity.UserID, req.RefreshToken, clientIP(r)); fail != nil {
		respondFailure(w, fail)
		return
	}
	respondMessage(w, http.StatusOK, "logged out successfully")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, fail := h.svc.CurrentUser(r.Context(), identity.UserID)
	if fail != nil {
		respondFailure(w, fail)
		return
	}
	respondJSON(w, http.StatusOK, toUserDTO(user))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if fail := h.svc.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword); fail != nil {
		respondFailure(w, fail)
		return
	}
	respondMessage(w, http.StatusOK, "password changed successfully")
}

type validateTokenRequest struct {
	Token string `json:"token"`
}

type validateTokenResponse struct {
	IsValid bool `json:"isValid"`
}

// ValidateToken always answers 200; validity is in the body, so the
// endpoint never leaks anything through status codes.
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	var req validateTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSON(w, http.StatusOK, validateTokenResponse{IsValid: false})
		return
	}
	respondJSON(w, http.StatusOK, validateTokenResponse{IsValid: h.svc.Validate(req.Token)})
}

// clientIP returns the request origin. chi's RealIP middleware has
// already folded trusted forwarding headers into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
