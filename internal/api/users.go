package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-console/internal/models"
	"github.com/ukydev/fleet-console/internal/session"
)

// Login messages shown to the user.
const (
	MsgLoginFailed        = "Login failed. Please try again."
	MsgInvalidCredentials = "Invalid username or password. Please try again."
)

// Login signs in and starts a session with the role the user selected.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (session.Session, error) {
	if !models.IsValidRole(req.Role) {
		return session.Session{}, fmt.Errorf("%w: %q", models.ErrInvalidRole, req.Role)
	}

	var resp models.LoginResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: req, out: &resp, public: true})
	if err != nil {
		return session.Session{}, err
	}
	if resp.Token == "" {
		return session.Session{}, errors.New(MsgLoginFailed)
	}
	return c.session.Begin(resp, req.Role)
}

// Register creates an account. It does not sign in.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	var resp models.MessageResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/register", body: req, out: &resp, public: true})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Logout tells the backend and clears the session. The session is cleared
// even when the backend call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, request{method: http.MethodPost, path: "/users/logout"})
	if err != nil && !errors.Is(err, ErrUnauthorized) {
		log.WithError(err).Warn("Backend logout failed")
	}
	return c.session.End()
}

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users/me", out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMe updates the signed-in user's profile.
func (c *Client) UpdateMe(ctx context.Context, in models.UserUpdate) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, request{method: http.MethodPut, path: "/users/me", body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUser returns a user by id.
func (c *Client) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, request{method: http.MethodGet, path: userPath(id), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser updates a user by id.
func (c *Client) UpdateUser(ctx context.Context, id int64, in models.UserUpdate) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, request{method: http.MethodPut, path: userPath(id), body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser deletes a user by id.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: userPath(id)})
}

func userPath(id int64) string {
	return fmt.Sprintf("/users/%d", id)
}
