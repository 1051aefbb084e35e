package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/storage"
)

type ProfileService struct {
	storage storage.Storage
	avatars AvatarPresigner
}

func NewProfileService(storage storage.Storage, avatars AvatarPresigner) *ProfileService {
	return &ProfileService{storage: storage, avatars: avatars}
}

func (s *ProfileService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	user, err := s.storage.UpdateProfile(ctx, userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUserNotFound):
			return nil, ErrNotFound
		case errors.Is(err, storage.ErrUsernameTaken):
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// PublicProfile is what visitors of /<username> see.
func (s *ProfileService) PublicProfile(ctx context.Context, username string) (*models.PublicProfile, error) {
	user, err := s.storage.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	links, err := s.storage.ListLinks(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get profile links: %w", err)
	}

	return &models.PublicProfile{
		Name:      user.Name,
		Username:  username,
		Bio:       user.Bio,
		AvatarKey: user.AvatarKey,
		Links:     links,
	}, nil
}

// CreateAvatarUpload reserves a new object key for the user's avatar and
// returns a URL the client uploads the image to.
func (s *ProfileService) CreateAvatarUpload(ctx context.Context, userID, contentType string) (*models.AvatarUpload, error) {
	key := fmt.Sprintf("avatars/%s/%s", userID, uuid.NewString())

	url, err := s.avatars.PresignPut(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("avatar upload: %w", err)
	}

	if err := s.storage.SetAvatarKey(ctx, userID, key); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("avatar upload: %w", err)
	}
	return &models.AvatarUpload{UploadURL: url, Key: key}, nil
}

func (s *ProfileService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	users, err := s.storage.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
