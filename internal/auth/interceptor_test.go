package auth

import (
	"context"
	"net/http"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTokenFromHeader(t *testing.T) {
	tests := []struct {
		name        string
		authHeader  string
		expectedErr bool
		errContains string
		wantToken   string
	}{
		{
			name:        "empty header",
			authHeader:  "",
			expectedErr: true,
			errContains: "authorization header is required",
		},
		{
			name:        "no bearer prefix",
			authHeader:  "token123",
			expectedErr: true,
			errContains: "must be Bearer token",
		},
		{
			name:        "wrong prefix",
			authHeader:  "Basic token123",
			expectedErr: true,
			errContains: "must be Bearer token",
		},
		{
			name:        "bearer only no token",
			authHeader:  "Bearer",
			expectedErr: true,
			errContains: "must be Bearer token",
		},
		{
			name:        "valid bearer token",
			authHeader:  "Bearer mytoken123",
			expectedErr: false,
			wantToken:   "mytoken123",
		},
		{
			name:        "bearer lowercase",
			authHeader:  "bearer mytoken456",
			expectedErr: false,
			wantToken:   "mytoken456",
		},
		{
			name:        "bearer mixed case",
			authHeader:  "BEARER mytoken789",
			expectedErr: false,
			wantToken:   "mytoken789",
		},
		{
			name:        "token with spaces",
			authHeader:  "Bearer token with spaces",
			expectedErr: false,
			wantToken:   "token with spaces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := ExtractTokenFromHeader(tt.authHeader)

			if tt.expectedErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
			}
		})
	}
}

func TestContextUserClaims(t *testing.T) {
	t.Run("WithUserClaims adds claims to context", func(t *testing.T) {
		ctx := context.Background()
		claims := &UserClaims{
			UID:         "test-uid",
			Email:       "test@example.com",
			DisplayName: "Test User",
			Picture:     "https://example.com/pic.jpg",
			Verified:    true,
		}

		newCtx := WithUserClaims(ctx, claims)

		retrievedClaims, ok := GetUserClaims(newCtx)
		require.True(t, ok)
		assert.Equal(t, claims.UID, retrievedClaims.UID)
		assert.Equal(t, claims.Email, retrievedClaims.Email)
		assert.Equal(t, claims.DisplayName, retrievedClaims.DisplayName)
		assert.Equal(t, claims.Picture, retrievedClaims.Picture)
		assert.Equal(t, claims.Verified, retrievedClaims.Verified)
	})

	t.Run("GetUserClaims returns false for empty context", func(t *testing.T) {
		ctx := context.Background()

		claims, ok := GetUserClaims(ctx)
		assert.False(t, ok)
		assert.Nil(t, claims)
	})

	t.Run("GetUserID returns UID when claims exist", func(t *testing.T) {
		ctx := context.Background()
		claims := &UserClaims{UID: "user-123"}
		ctx = WithUserClaims(ctx, claims)

		uid, ok := GetUserID(ctx)
		assert.True(t, ok)
		assert.Equal(t, "user-123", uid)
	})

	t.Run("GetUserID returns empty for empty context", func(t *testing.T) {
		ctx := context.Background()

		uid, ok := GetUserID(ctx)
		assert.False(t, ok)
		assert.Empty(t, uid)
	})
}

func TestIsPublicEndpoint(t *testing.T) {
	tests := []struct {
		name      string
		procedure string
		expected  bool
	}{
		{"health endpoint", "/health", true},
		{"ping endpoint", "/ping", true},
		{"sign up", "/credix.v1.CredixService/SignUp", true},
		{"login", "/credix.v1.CredixService/Login", true},
		{"save records", "/credix.v1.CredixService/SaveRecords", false},
		{"watch", "/credix.v1.CredixService/Watch", false},
		{"other endpoint", "/api/v1/users", false},
		{"empty endpoint", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isPublicEndpoint(tt.procedure)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func resolverOf(t *testing.T, i connect.Interceptor) resolveFunc {
	t.Helper()
	ci, ok := i.(*claimsInterceptor)
	require.True(t, ok)
	return ci.resolve
}

func bearer(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func TestAuthInterceptor(t *testing.T) {
	ctx := context.Background()
	provider := NewLocalAuth()
	creds, err := provider.SignUp(ctx, "ravi@example.com", "secret123")
	require.NoError(t, err)

	resolve := resolverOf(t, AuthInterceptor(provider))
	const procedure = "/credix.v1.CredixService/ListRecords"

	t.Run("valid token attaches claims", func(t *testing.T) {
		got, err := resolve(ctx, procedure, bearer(creds.IDToken))
		require.NoError(t, err)
		uid, ok := GetUserID(got)
		require.True(t, ok)
		assert.Equal(t, creds.User.UID, uid)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := resolve(ctx, procedure, bearer(""))
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := resolve(ctx, procedure, bearer("not-a-token"))
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("public endpoint needs no token", func(t *testing.T) {
		got, err := resolve(ctx, "/credix.v1.CredixService/Login", bearer(""))
		require.NoError(t, err)
		_, ok := GetUserClaims(got)
		assert.False(t, ok)
	})

	t.Run("revoked after logout", func(t *testing.T) {
		require.NoError(t, provider.Logout(ctx, creds.User.UID))
		_, err := resolve(ctx, procedure, bearer(creds.IDToken))
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})
}

func TestDebugAuthInterceptor(t *testing.T) {
	ctx := context.Background()
	header := http.Header{}
	header.Set("X-Debug-Impersonate-User", "user-42")

	t.Run("impersonates when auth is skipped", func(t *testing.T) {
		got, err := resolverOf(t, DebugAuthInterceptor(true))(ctx, "/x", header)
		require.NoError(t, err)
		claims, ok := GetUserClaims(got)
		require.True(t, ok)
		assert.Equal(t, "user-42", claims.UID)
		assert.Equal(t, "user-42@debug.local", claims.Email)
	})

	t.Run("ignored when auth is enforced", func(t *testing.T) {
		got, err := resolverOf(t, DebugAuthInterceptor(false))(ctx, "/x", header)
		require.NoError(t, err)
		_, ok := GetUserClaims(got)
		assert.False(t, ok)
	})
}

func TestLocalDevInterceptor(t *testing.T) {
	resolve := resolverOf(t, LocalDevInterceptor())

	got, err := resolve(context.Background(), "/credix.v1.CredixService/Upload", http.Header{})
	require.NoError(t, err)
	uid, _ := GetUserID(got)
	assert.Equal(t, LocalDevUserID, uid)

	impersonated := WithUserClaims(context.Background(), &UserClaims{UID: "user-42"})
	got, err = resolve(impersonated, "/credix.v1.CredixService/Upload", http.Header{})
	require.NoError(t, err)
	uid, _ = GetUserID(got)
	assert.Equal(t, "user-42", uid)
}
