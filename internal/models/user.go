package models

import (
	"errors"
	"fmt"
	"strings"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleDriver   Role = "driver"
	RoleCustomer Role = "customer"
)

// Roles lists every role in display order.
var Roles = []Role{RoleAdmin, RoleManager, RoleDriver, RoleCustomer}

var ErrInvalidRole = errors.New("invalid role")

// Actions checked by HasPermission.
const (
	ActionViewVehicles     = "view_vehicles"
	ActionManageVehicles   = "manage_vehicles"
	ActionViewTelemetry    = "view_telemetry"
	ActionViewMaintenance  = "view_maintenance"
	ActionViewRoutes       = "view_routes"
	ActionTrainModel       = "train_model"
	ActionManageUsers      = "manage_users"
	ActionViewOwnProfile   = "view_profile"
	ActionUpdateOwnProfile = "update_profile"
)

// User is the profile returned by /users/me and /users/{id}.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
}

// UserUpdate carries the editable profile fields. Empty fields are left
// unchanged by the backend.
type UserUpdate struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	Password  string `json:"password,omitempty"`
}

// LoginRequest represents a login request. The role is the one the user
// selected on the login form; the backend rejects a mismatch.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      Role   `json:"role"`
}

// LoginResponse is the backend's JWT response.
type LoginResponse struct {
	Token    string `json:"token"`
	Type     string `json:"type,omitempty"`
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// MessageResponse is the backend's generic {message} body.
type MessageResponse struct {
	Message string `json:"message"`
}

// Claims represents the JWT claims the console reads from a token.
type Claims struct {
	Subject string `json:"sub"`
	Role    Role   `json:"role,omitempty"`
	Exp     int64  `json:"exp"`
}

// ParseRole maps a role string onto the closed set of roles.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !IsValidRole(r) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleDriver, RoleCustomer:
		return true
	default:
		return false
	}
}

// Title is the capitalised role name used in headings.
func (r Role) Title() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleManager:
		return "Manager"
	case RoleDriver:
		return "Driver"
	case RoleCustomer:
		return "Customer"
	default:
		return string(r)
	}
}

// HasPermission checks if a role may perform a specific action
func (r Role) HasPermission(action string) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleManager:
		return action != ActionManageUsers
	case RoleDriver:
		return action == ActionViewVehicles || action == ActionViewTelemetry ||
			action == ActionViewMaintenance || action == ActionViewRoutes ||
			action == ActionViewOwnProfile || action == ActionUpdateOwnProfile
	case RoleCustomer:
		return action == ActionViewVehicles ||
			action == ActionViewOwnProfile || action == ActionUpdateOwnProfile
	default:
		return false
	}
}
