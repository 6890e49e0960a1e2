package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/iris/internal/clients/gateway"
	"github.com/bobmcallan/iris/internal/common"
	"github.com/bobmcallan/iris/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// signJWT creates an HMAC-signed session token for the user.
func signJWT(user *models.User, config *common.AuthConfig) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.UserID,
		"email": user.Email,
		"name":  strings.TrimSpace(user.FirstName + " " + user.LastName),
		"iss":   "iris-server",
		"iat":   now.Unix(),
		"exp":   now.Add(config.GetTokenExpiry()).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.JWTSecret))
}

// validateJWT parses and validates a JWT token string using the given secret.
func validateJWT(tokenString string, secret []byte) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return token, claims, nil
}

// sessionResponse is the login/signup/session payload returned to the UI.
type sessionResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token,omitempty"`
	Next  string       `json:"next"`
}

// handleAuthLogin handles POST /api/auth/login.
// Authenticates against the gateway, stores the session locally, and returns
// a signed token plus the post-login route: "onboarding" while KYC is
// pending, "dashboard" otherwise.
func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := s.app.Gateway.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if apiErr, ok := err.(*gateway.APIError); ok && apiErr.StatusCode == http.StatusUnauthorized {
			WriteError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Login failed: %v", err))
		return
	}

	if err := s.app.Sessions.Save(r.Context(), user); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to persist session")
	}

	token, err := signJWT(user, &s.app.Config.Auth)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to create session token")
		return
	}

	s.logger.Info().Str("user_id", user.UserID).Str("next", user.NextRoute()).Msg("User logged in")

	WriteJSON(w, http.StatusOK, sessionResponse{
		User:  user,
		Token: token,
		Next:  user.NextRoute(),
	})
}

// handleAuthSignup handles POST /api/auth/signup.
// A duplicate email from the gateway surfaces as 409 with code "email_exists".
func (s *Server) handleAuthSignup(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := s.app.Gateway.Signup(r.Context(), req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		if gateway.IsConflict(err) {
			WriteErrorWithCode(w, http.StatusConflict, "An account with this email already exists", "email_exists")
			return
		}
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Signup failed: %v", err))
		return
	}

	if err := s.app.Sessions.Save(r.Context(), user); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to persist session")
	}

	token, err := signJWT(user, &s.app.Config.Auth)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to create session token")
		return
	}

	s.logger.Info().Str("user_id", user.UserID).Msg("User signed up")

	WriteJSON(w, http.StatusCreated, sessionResponse{
		User:  user,
		Token: token,
		Next:  user.NextRoute(),
	})
}

// handleAuthLogout handles POST /api/auth/logout. Clears the stored session.
func (s *Server) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	uc := common.UserContextFromContext(r.Context())
	if uc == nil {
		WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := s.app.Sessions.Delete(r.Context(), uc.UserID); err != nil {
		s.logger.Error().Err(err).Str("user_id", uc.UserID).Msg("Failed to clear session")
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// handleAuthSession handles GET /api/auth/session. Returns the stored session
// identity for the authenticated user.
func (s *Server) handleAuthSession(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	uc := common.UserContextFromContext(r.Context())
	if uc == nil {
		WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := s.app.Sessions.Get(r.Context(), uc.UserID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	WriteJSON(w, http.StatusOK, sessionResponse{
		User: user,
		Next: user.NextRoute(),
	})
}
