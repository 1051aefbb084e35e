package service

import (
	"context"

	"github.com/rryowa/nexus/internal/models"
)

// PasswordHasher is a one-way hash with verification.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// SecurityNotifier is told when every session of a user was revoked
// because a refresh token was replayed.
type SecurityNotifier interface {
	NotifyTokenReuse(ctx context.Context, userID string, meta models.ClientMeta)
}

// AvatarPresigner issues a short-lived URL the browser can PUT an image to.
type AvatarPresigner interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
}
