package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestLocalAuth() *LocalAuth {
	l := NewLocalAuth()
	l.hashCost = bcrypt.MinCost
	return l
}

func TestLocalAuth_SignUpAndLogin(t *testing.T) {
	ctx := context.Background()
	l := newTestLocalAuth()

	creds, err := l.SignUp(ctx, "  Ravi@Example.com ", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, creds.IDToken)
	assert.NotEmpty(t, creds.RefreshToken)
	assert.Equal(t, DefaultTokenTTL, creds.ExpiresIn)
	assert.Equal(t, "ravi@example.com", creds.User.Email)

	_, err = l.SignUp(ctx, "ravi@example.com", "another1")
	assert.ErrorIs(t, err, ErrEmailExists)

	login, err := l.Login(ctx, "RAVI@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, creds.User.UID, login.User.UID)
	assert.NotEqual(t, creds.IDToken, login.IDToken)

	_, err = l.Login(ctx, "ravi@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = l.Login(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLocalAuth_SignUpValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"missing at sign", "ravi.example.com", "secret123", ErrInvalidEmail},
		{"empty email", "", "secret123", ErrInvalidEmail},
		{"display name form", "Ravi <ravi@example.com>", "secret123", ErrInvalidEmail},
		{"short password", "ravi@example.com", "12345", ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestLocalAuth().SignUp(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLocalAuth_TokensAndLogout(t *testing.T) {
	ctx := context.Background()
	l := newTestLocalAuth()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	creds, err := l.SignUp(ctx, "ravi@example.com", "secret123")
	require.NoError(t, err)

	claims, err := l.VerifyToken(ctx, creds.IDToken)
	require.NoError(t, err)
	assert.Equal(t, creds.User.UID, claims.UID)

	user, err := l.CurrentUser(ctx, creds.User.UID)
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", user.Email)

	_, err = l.CurrentUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	now = now.Add(DefaultTokenTTL)
	_, err = l.VerifyToken(ctx, creds.IDToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	fresh, err := l.Login(ctx, "ravi@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, l.Logout(ctx, creds.User.UID))
	_, err = l.VerifyToken(ctx, fresh.IDToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.ErrorIs(t, l.Logout(ctx, "missing"), ErrUserNotFound)
}

func TestClaimsFromToken(t *testing.T) {
	claims := claimsFromToken("uid-1", map[string]interface{}{
		"email":          "ravi@example.com",
		"email_verified": true,
		"name":           "Ravi",
		"picture":        "https://example.com/p.png",
	})
	assert.Equal(t, &UserClaims{
		UID:         "uid-1",
		Email:       "ravi@example.com",
		DisplayName: "Ravi",
		Picture:     "https://example.com/p.png",
		Verified:    true,
	}, claims)

	bare := claimsFromToken("uid-2", map[string]interface{}{})
	assert.Equal(t, "uid-2", bare.UID)
	assert.False(t, bare.Verified)
}
