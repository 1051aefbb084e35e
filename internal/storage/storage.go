package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rryowa/nexus/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrLinkNotFound         = errors.New("link not found")
	ErrLinkSetMismatch      = errors.New("link ids do not match the user's links")
)

// DBTX is the subset of database/sql used by the repositories.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetPrincipal(ctx context.Context, id string) (*models.Principal, error)
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)
	SetAvatarKey(ctx context.Context, id, key string) error
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, error)
}

type RefreshTokenRepository interface {
	CreateRefreshToken(ctx context.Context, token models.RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	ListUserRefreshTokens(ctx context.Context, userID string) ([]models.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	// ConsumeRefreshToken deletes the record and fails with ErrRefreshTokenNotFound
	// when no record was deleted, so only one redeemer of a token can succeed.
	ConsumeRefreshToken(ctx context.Context, token string) error
	DeleteUserRefreshTokens(ctx context.Context, userID string) error
}

type LinkRepository interface {
	CreateLink(ctx context.Context, link models.Link) (*models.Link, error)
	GetLink(ctx context.Context, userID, id string) (*models.Link, error)
	ListLinks(ctx context.Context, userID string) ([]models.Link, error)
	UpdateLink(ctx context.Context, link models.Link) (*models.Link, error)
	DeleteLink(ctx context.Context, userID, id string) error
	SetLinkPositions(ctx context.Context, userID string, ids []string) error
}

type ConsentRepository interface {
	CreateConsent(ctx context.Context, consent models.Consent) (*models.Consent, error)
	ListConsents(ctx context.Context, userID string) ([]models.Consent, error)
}

// Repositories is the set of repositories available inside a unit of work.
type Repositories interface {
	UserRepository
	RefreshTokenRepository
	LinkRepository
	ConsentRepository
}

// Storage runs fn inside a single atomic transaction. Concurrent readers observe
// either the state before the transaction or after it, never a partial one.
type Storage interface {
	Repositories
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// CheckPermutation verifies that ids lists every key of owned exactly once.
func CheckPermutation(owned map[string]bool, ids []string) error {
	if len(ids) != len(owned) {
		return ErrLinkSetMismatch
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !owned[id] || seen[id] {
			return ErrLinkSetMismatch
		}
		seen[id] = true
	}
	return nil
}
