package handlers

import (
	"net/http"

	"github.com/ukydev/fleet-console/internal/auth"
	"github.com/ukydev/fleet-console/internal/models"
)

// GetProfile returns the current user's profile
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.backend.Me(r.Context())
	if err != nil {
		writeBackendError(w, r, err, "Failed to load profile.")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile updates the current user's profile
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeUserUpdate(w, r)
	if !ok {
		return
	}
	user, err := s.backend.UpdateMe(r.Context(), in)
	if err != nil {
		writeBackendError(w, r, err, "Failed to update profile.")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetUser returns a user by id
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := s.backend.GetUser(r.Context(), id)
	if err != nil {
		writeBackendError(w, r, err, "Failed to load user.")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUser updates a user by id
func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := decodeUserUpdate(w, r)
	if !ok {
		return
	}
	user, err := s.backend.UpdateUser(r.Context(), id, in)
	if err != nil {
		writeBackendError(w, r, err, "Failed to update user.")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser deletes a user by id
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.backend.DeleteUser(r.Context(), id); err != nil {
		writeBackendError(w, r, err, "Failed to delete user.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeUserUpdate(w http.ResponseWriter, r *http.Request) (models.UserUpdate, bool) {
	var in models.UserUpdate
	if !decodeJSON(w, r, &in) {
		return in, false
	}
	if in.Email != "" {
		if err := auth.ValidateEmail(in.Email); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return in, false
		}
	}
	if in.Password != "" {
		if err := auth.ValidatePassword(in.Password); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return in, false
		}
	}
	return in, true
}
