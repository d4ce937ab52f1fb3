package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/markhallen/portfoliopro/internal/common"
	"github.com/markhallen/portfoliopro/internal/interfaces"
	"github.com/markhallen/portfoliopro/internal/models"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// handleRegister creates a new user account and starts a session.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req registerRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		WriteError(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	if len(req.Password) < 8 {
		WriteError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	if _, err := s.app.Store.GetUserByEmail(r.Context(), req.Email); err == nil {
		WriteError(w, http.StatusConflict, "An account with this email already exists")
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		WriteError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
	}
	if err := s.app.Store.SaveUser(r.Context(), user); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save user")
		WriteError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	token, err := s.issueSession(w, user)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")
	WriteJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// handleLogin verifies credentials and starts a session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.app.Store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		// Same response whether the account exists or not.
		WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := checkPassword(user.PasswordHash, req.Password); err != nil {
		WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.issueSession(w, user)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("User logged in")
	WriteJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// handleLogout clears the session cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.app.Config.Auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// handleMe returns the authenticated user.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	uc := common.UserContextFromContext(r.Context())
	if uc == nil {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := s.app.Store.GetUser(r.Context(), uc.UserID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// issueSession signs a JWT for the user and sets the session cookie. The raw
// token is also returned for clients that prefer the Authorization header.
func (s *Server) issueSession(w http.ResponseWriter, user *models.User) (string, error) {
	expiry := s.app.Config.Auth.GetTokenExpiry()
	token, err := signJWT(user, []byte(s.app.Config.Auth.JWTSecret), expiry)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.app.Config.Auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(expiry.Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

func (s *Server) cookieSecure() bool {
	return s.app.Config.Auth.CookieSecure || s.app.Config.IsProduction()
}

// signJWT creates a signed HS256 token for the user.
func signJWT(user *models.User, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"name":  user.FullName(),
		"iat":   now.Unix(),
		"exp":   now.Add(expiry).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// hashPassword hashes a password with bcrypt. bcrypt only reads the first 72
// bytes; truncate explicitly so longer inputs hash deterministically.
func hashPassword(password string) (string, error) {
	b := []byte(password)
	if len(b) > 72 {
		b = b[:72]
	}
	hash, err := bcrypt.GenerateFromPassword(b, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// checkPassword compares a bcrypt hash against a candidate password.
func checkPassword(hash, password string) error {
	b := []byte(password)
	if len(b) > 72 {
		b = b[:72]
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), b)
}
