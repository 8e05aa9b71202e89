package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

// MinPasswordLength matches the identity provider's own password rule.
const MinPasswordLength = 6

// Credentials is what a successful sign up or login hands back to the client.
type Credentials struct {
	IDToken      string        `json:"idToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresIn    time.Duration `json:"expiresIn"`
	User         *UserClaims   `json:"user"`
}

// IdentityProvider owns accounts and tokens. The service never stores
// passwords itself.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*Credentials, error)
	Login(ctx context.Context, email, password string) (*Credentials, error)
	// Logout revokes every token issued to the user.
	Logout(ctx context.Context, uid string) error
	CurrentUser(ctx context.Context, uid string) (*UserClaims, error)
	VerifyToken(ctx context.Context, idToken string) (*UserClaims, error)
}

// normalizeSignUp trims the email and checks both fields before any call to
// the provider.
func normalizeSignUp(email, password string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	return strings.ToLower(email), nil
}
