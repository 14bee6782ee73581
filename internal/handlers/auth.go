package handlers

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-console/internal/api"
	"github.com/ukydev/fleet-console/internal/auth"
	"github.com/ukydev/fleet-console/internal/models"
)

// LoginResult is the body of a successful login.
type LoginResult struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	Redirect string      `json:"redirect"`
}

// Login handles user login
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// Validate input
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	if !models.IsValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	sess, err := s.backend.Login(r.Context(), req)
	if err != nil {
		log.WithFields(log.Fields{"username": req.Username, "role": req.Role}).
			WithError(err).Warn("Login failed")
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			writeError(w, http.StatusUnauthorized, api.UserMessage(err, api.MsgInvalidCredentials))
			return
		}
		writeError(w, http.StatusBadGateway, api.MsgLoginFailed)
		return
	}

	// Fetch the fleet for the new session; failures surface on the views.
	_ = s.store.Load(r.Context())

	writeJSON(w, http.StatusOK, LoginResult{
		ID:       sess.UserID,
		Username: sess.Username,
		Role:     sess.Role,
		Redirect: "/dashboard",
	})
}

type registerRequest struct {
	models.RegisterRequest
	ConfirmPassword string `json:"confirmPassword"`
}

// Register handles user registration
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = models.RoleCustomer
	}

	if err := auth.ValidateRegistration(req.RegisterRequest, req.ConfirmPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := s.backend.Register(r.Context(), req.RegisterRequest)
	if err != nil {
		writeBackendError(w, r, err, "Registration failed. Please try again.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": msg, "redirect": "/login"})
}

// Logout ends the session
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Logout(r.Context()); err != nil {
		log.WithError(err).Error("Failed to end session")
		writeError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out", "redirect": "/login"})
}
