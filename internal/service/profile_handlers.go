package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/credix-app/credix/backend/internal/auth"
)

var errNoAssetHost = errors.New("asset host is not configured")

// UploadProfilePhoto stores the image on the asset host and records its URL
// on the profile.
func (s *CredixService) UploadProfilePhoto(ctx context.Context, req *connect.Request[UploadProfilePhotoRequest]) (*connect.Response[ProfileResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if s.assets == nil {
		return nil, connect.NewError(connect.CodeUnavailable, errNoAssetHost)
	}

	url, err := s.assets.Upload(ctx, claims.UID, req.Msg.Filename, req.Msg.ContentType, req.Msg.Data)
	if err != nil {
		return nil, mapError("upload photo", err)
	}

	profile, err := s.loadProfile(ctx, claims)
	if err != nil {
		return nil, mapError("get profile", err)
	}
	profile.PhotoURL = url
	profile.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		return nil, mapError("update profile", err)
	}
	return connect.NewResponse(&ProfileResponse{Profile: profile}), nil
}

// GetProfile returns the caller's profile.
func (s *CredixService) GetProfile(ctx context.Context, req *connect.Request[GetProfileRequest]) (*connect.Response[ProfileResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.loadProfile(ctx, claims)
	if err != nil {
		return nil, mapError("get profile", err)
	}
	return connect.NewResponse(&ProfileResponse{Profile: profile}), nil
}
