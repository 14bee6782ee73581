package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-console/internal/auth"
	"github.com/ukydev/fleet-console/internal/models"
)

var (
	ErrNoSession  = errors.New("no active session")
	ErrEmptyToken = errors.New("login response carried no token")
)

// Session is the signed-in user's client state.
type Session struct {
	Token    string
	Role     models.Role
	UserID   int64
	Username string
}

// Manager is the explicit session context handed to everything that talks to
// the backend. It reads and writes the four persisted keys of a Store.
type Manager struct {
	mu        sync.Mutex
	store     Store
	inspector *auth.Inspector
}

// NewManager creates a session manager over store
func NewManager(store Store) *Manager {
	return &Manager{store: store, inspector: auth.NewInspector()}
}

// Current returns the stored session. A missing or unknown role falls back to
// customer, the least privileged role.
func (m *Manager) Current() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read()
}

func (m *Manager) read() (Session, error) {
	token, err := m.store.Get(KeyToken)
	if errors.Is(err, ErrNotFound) || (err == nil && token == "") {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to read session: %w", err)
	}

	s := Session{Token: token, Role: models.RoleCustomer}
	if v, err := m.store.Get(KeyRole); err == nil {
		if role, err := models.ParseRole(v); err == nil {
			s.Role = role
		}
	}
	if v, err := m.store.Get(KeyUserID); err == nil {
		s.UserID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, err := m.store.Get(KeyUsername); err == nil {
		s.Username = v
	}
	return s, nil
}

// Token returns the bearer token, or "" when signed out.
func (m *Manager) Token() string {
	s, err := m.Current()
	if err != nil {
		return ""
	}
	return s.Token
}

// Authenticated reports whether a token is stored and has not expired.
func (m *Manager) Authenticated() bool {
	s, err := m.Current()
	if err != nil {
		return false
	}
	_, err = m.inspector.Check(s.Token)
	return err == nil
}

// Begin stores the session returned by a successful login. The role is the
// one the user signed in as.
func (m *Manager) Begin(resp models.LoginResponse, role models.Role) (Session, error) {
	if resp.Token == "" {
		return Session{}, ErrEmptyToken
	}
	// Some backends hand the token back already in header form.
	if strings.HasPrefix(resp.Token, "Bearer ") {
		token, err := auth.ExtractTokenFromHeader(resp.Token)
		if err != nil {
			return Session{}, ErrEmptyToken
		}
		resp.Token = token
	}
	if !models.IsValidRole(role) {
		return Session{}, fmt.Errorf("%w: %q", models.ErrInvalidRole, role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	values := map[string]string{
		KeyToken:    resp.Token,
		KeyRole:     string(role),
		KeyUserID:   strconv.FormatInt(resp.ID, 10),
		KeyUsername: resp.Username,
	}
	for _, k := range Keys {
		if err := m.store.Set(k, values[k]); err != nil {
			return Session{}, fmt.Errorf("failed to store %s: %w", k, err)
		}
	}

	log.WithFields(log.Fields{
		"user_id":  resp.ID,
		"username": resp.Username,
		"role":     role,
	}).Info("Session started")

	return Session{Token: resp.Token, Role: role, UserID: resp.ID, Username: resp.Username}, nil
}

// End clears every persisted session key.
func (m *Manager) End() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Delete(Keys...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	log.Info("Session cleared")
	return nil
}
