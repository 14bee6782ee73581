package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ukydev/fleet-console/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Inspector reads the claims of tokens issued by the backend. The console
// never holds the signing key, so signatures are not verified here; the
// backend stays the authority and answers 401 for a bad token.
type Inspector struct {
	parser *jwt.Parser
	now    func() time.Time
	leeway time.Duration
}

// NewInspector creates a token inspector
func NewInspector() *Inspector {
	return &Inspector{
		parser: jwt.NewParser(),
		now:    time.Now,
		leeway: 5 * time.Second,
	}
}

// Claims decodes a token without verifying its signature.
func (i *Inspector) Claims(tokenString string) (*models.Claims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := i.parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}

	out := &models.Claims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.Exp = exp.Unix()
	}
	if role, ok := claims["role"].(string); ok {
		if r, err := models.ParseRole(strings.TrimPrefix(strings.ToLower(role), "role_")); err == nil {
			out.Role = r
		}
	}
	return out, nil
}

// Check decodes a token and rejects it when it has expired. Tokens without
// an exp claim are accepted.
func (i *Inspector) Check(tokenString string) (*models.Claims, error) {
	claims, err := i.Claims(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Exp != 0 && i.now().Add(-i.leeway).Unix() > claims.Exp {
		return claims, ErrExpiredToken
	}
	return claims, nil
}

// ExtractTokenFromHeader extracts token from Authorization header
func ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters long")
	}
	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return errors.New("invalid email format")
	}
	return nil
}

// ValidateUsername validates username format
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return errors.New("username must be at least 3 characters long")
	}
	if len(username) > 50 {
		return errors.New("username must be less than 50 characters")
	}
	return nil
}

// ValidateRegistration runs the registration form checks in display order.
func ValidateRegistration(req models.RegisterRequest, confirmPassword string) error {
	if err := ValidateUsername(req.Username); err != nil {
		return err
	}
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}
	if err := ValidatePassword(req.Password); err != nil {
		return err
	}
	if req.Password != confirmPassword {
		return errors.New("passwords do not match")
	}
	if !models.IsValidRole(req.Role) {
		return fmt.Errorf("%w: %q", models.ErrInvalidRole, req.Role)
	}
	return nil
}
