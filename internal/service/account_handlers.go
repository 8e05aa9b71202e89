package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/credix-app/credix/backend/internal/auth"
	"github.com/credix-app/credix/backend/internal/ledger"
	"github.com/credix-app/credix/backend/internal/store"
)

// SignUp creates an account and signs it in.
func (s *CredixService) SignUp(ctx context.Context, req *connect.Request[CredentialsRequest]) (*connect.Response[AuthResponse], error) {
	creds, err := s.identity.SignUp(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		return nil, mapError("sign up", err)
	}
	s.log.Info().Str("user_id", creds.User.UID).Msg("account created")
	return s.signedIn(creds), nil
}

// Login exchanges credentials for tokens and opens the user's session.
func (s *CredixService) Login(ctx context.Context, req *connect.Request[CredentialsRequest]) (*connect.Response[AuthResponse], error) {
	creds, err := s.identity.Login(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		return nil, mapError("login", err)
	}
	return s.signedIn(creds), nil
}

func (s *CredixService) signedIn(creds *auth.Credentials) *connect.Response[AuthResponse] {
	s.sessions.Open(creds.User.UID)
	return connect.NewResponse(&AuthResponse{
		IDToken:          creds.IDToken,
		RefreshToken:     creds.RefreshToken,
		ExpiresInSeconds: int64(creds.ExpiresIn.Seconds()),
		User:             creds.User,
	})
}

// Logout revokes the caller's tokens and ends every live subscription.
func (s *CredixService) Logout(ctx context.Context, req *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	s.sessions.Close(claims.UID)
	if err := s.identity.Logout(ctx, claims.UID); err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		return nil, mapError("logout", err)
	}
	s.log.Info().Str("user_id", claims.UID).Msg("signed out")
	return connect.NewResponse(&LogoutResponse{}), nil
}

// GetCurrentUser returns the signed-in user and their profile. A user the
// provider no longer knows has their session closed.
func (s *CredixService) GetCurrentUser(ctx context.Context, req *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	user := claims
	if !s.trustClaims {
		user, err = s.identity.CurrentUser(ctx, claims.UID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				s.sessions.Close(claims.UID)
			}
			return nil, mapError("get current user", err)
		}
	}

	profile, err := s.loadProfile(ctx, user)
	if err != nil {
		return nil, mapError("get profile", err)
	}
	s.sessions.Open(user.UID)

	return connect.NewResponse(&GetCurrentUserResponse{
		User:    user,
		Profile: profile,
	}), nil
}

// loadProfile returns the stored profile, or an empty one for users who
// never set a photo.
func (s *CredixService) loadProfile(ctx context.Context, user *auth.UserClaims) (*ledger.Profile, error) {
	profile, err := s.store.GetProfile(ctx, user.UID)
	if errors.Is(err, store.ErrNotFound) {
		return &ledger.Profile{UserID: user.UID, Email: user.Email}, nil
	}
	if err != nil {
		return nil, err
	}
	if profile.Email == "" {
		profile.Email = user.Email
	}
	return profile, nil
}
