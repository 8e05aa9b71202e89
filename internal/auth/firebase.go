package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// FirebaseAuth handles Firebase authentication. Password sign-in goes
// through the Identity Toolkit relying party API, everything else through
// the Admin SDK.
type FirebaseAuth struct {
	client  *auth.Client
	toolkit *identitytoolkit.RelyingpartyService
}

// UserClaims represents the authenticated user information
type UserClaims struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	Picture     string `json:"picture,omitempty"`
	Verified    bool   `json:"verified"`
}

var _ IdentityProvider = (*FirebaseAuth)(nil)

// NewFirebaseAuth creates a new FirebaseAuth instance. apiKey is the web API
// key of the Firebase project.
func NewFirebaseAuth(ctx context.Context, projectID, apiKey string) (*FirebaseAuth, error) {
	opts := []option.ClientOption{}

	// Check if running on Cloud Run (default credentials work automatically)
	// If locally, check for service account key
	if creds := getServiceAccountPath(); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %v", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Auth client: %v", err)
	}

	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("error creating identity toolkit client: %w", err)
	}

	return &FirebaseAuth{
		client:  client,
		toolkit: svc.Relyingparty,
	}, nil
}

// SignUp creates the account and signs it in.
func (f *FirebaseAuth) SignUp(ctx context.Context, email, password string) (*Credentials, error) {
	email, err := normalizeSignUp(email, password)
	if err != nil {
		return nil, err
	}

	params := (&auth.UserToCreate{}).Email(email).Password(password)
	if _, err := f.client.CreateUser(ctx, params); err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return f.Login(ctx, email, password)
}

// Login exchanges an email and password for an ID token.
func (f *FirebaseAuth) Login(ctx context.Context, email, password string) (*Credentials, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             strings.TrimSpace(email),
		Password:          password,
		ReturnSecureToken: true,
	}
	resp, err := f.toolkit.VerifyPassword(req).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify password: %w", err)
	}

	return &Credentials{
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    time.Duration(resp.ExpiresIn) * time.Second,
		User: &UserClaims{
			UID:         resp.LocalId,
			Email:       resp.Email,
			DisplayName: resp.DisplayName,
			Picture:     resp.PhotoUrl,
		},
	}, nil
}

// Logout revokes the user's refresh tokens. ID tokens minted before this
// call fail VerifyToken from now on.
func (f *FirebaseAuth) Logout(ctx context.Context, uid string) error {
	if err := f.client.RevokeRefreshTokens(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

// CurrentUser looks the user up by UID.
func (f *FirebaseAuth) CurrentUser(ctx context.Context, uid string) (*UserClaims, error) {
	user, err := f.client.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &UserClaims{
		UID:         user.UID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Picture:     user.PhotoURL,
		Verified:    user.EmailVerified,
	}, nil
}

// VerifyToken verifies a Firebase ID token and returns the user claims.
func (f *FirebaseAuth) VerifyToken(ctx context.Context, idToken string) (*UserClaims, error) {
	// Verify the ID token
	token, err := f.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claimsFromToken(token.UID, token.Claims), nil
}

func claimsFromToken(uid string, raw map[string]interface{}) *UserClaims {
	verified, _ := raw["email_verified"].(bool)
	claims := &UserClaims{
		UID:      uid,
		Verified: verified,
	}

	// Get email if available
	if email, ok := raw["email"].(string); ok {
		claims.Email = email
	}

	// Get display name if available
	if name, ok := raw["name"].(string); ok {
		claims.DisplayName = name
	}

	// Get picture URL if available
	if picture, ok := raw["picture"].(string); ok {
		claims.Picture = picture
	}

	return claims
}

// ExtractTokenFromHeader extracts the Bearer token from Authorization header
func ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is required")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("authorization header must be Bearer token")
	}

	return parts[1], nil
}

// getServiceAccountPath returns the path to service account key file if available
func getServiceAccountPath() string {
	for _, envVar := range []string{
		"GOOGLE_APPLICATION_CREDENTIALS",
		"FIREBASE_SERVICE_ACCOUNT_KEY",
	} {
		if path := os.Getenv(envVar); path != "" {
			return path
		}
	}
	return ""
}
