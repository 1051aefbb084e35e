package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/storage"
)

// Storage is an in-process storage.Storage. Transactions run on a copy of the
// data that replaces the live copy only when fn succeeds.
type Storage struct {
	mu   sync.RWMutex
	data *dataset
	log  *zap.SugaredLogger
}

var _ storage.Storage = (*Storage)(nil)

func NewStorage(log *zap.SugaredLogger) *Storage {
	return NewStorageWithClock(log, time.Now)
}

func NewStorageWithClock(log *zap.SugaredLogger, now func() time.Time) *Storage {
	return &Storage{
		data: newDataset(now),
		log:  log,
	}
}

func (s *Storage) WithTx(ctx context.Context, fn func(ctx context.Context, repos storage.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.data.clone()
	if err := fn(ctx, tx); err != nil {
		s.log.Debugw("Transaction rolled back", "error", err)
		return err
	}
	s.data = tx
	return nil
}

func read[T any](s *Storage, fn func(d *dataset) (T, error)) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

func write[T any](s *Storage, fn func(d *dataset) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func writeErr(s *Storage, fn func(d *dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	return write(s, func(d *dataset) (*models.User, error) { return d.CreateUser(ctx, user) })
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return read(s, func(d *dataset) (*models.User, error) { return d.GetUserByID(ctx, id) })
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return read(s, func(d *dataset) (*models.User, error) { return d.GetUserByEmail(ctx, email) })
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return read(s, func(d *dataset) (*models.User, error) { return d.GetUserByUsername(ctx, username) })
}

func (s *Storage) GetPrincipal(ctx context.Context, id string) (*models.Principal, error) {
	return read(s, func(d *dataset) (*models.Principal, error) { return d.GetPrincipal(ctx, id) })
}

func (s *Storage) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	return write(s, func(d *dataset) (*models.User, error) { return d.UpdateProfile(ctx, id, upd) })
}

func (s *Storage) SetAvatarKey(ctx context.Context, id, key string) error {
	return writeErr(s, func(d *dataset) error { return d.SetAvatarKey(ctx, id, key) })
}

func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return read(s, func(d *dataset) ([]models.User, error) { return d.ListUsers(ctx, limit, offset) })
}

func (s *Storage) CreateRefreshToken(ctx context.Context, token models.RefreshToken) error {
	s.log.Debugw("Refresh token created", "userID", token.UserID, "expiresAt", token.ExpiresAt)
	return writeErr(s, func(d *dataset) error { return d.CreateRefreshToken(ctx, token) })
}

func (s *Storage) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return read(s, func(d *dataset) (*models.RefreshToken, error) { return d.GetRefreshToken(ctx, token) })
}

func (s *Storage) ListUserRefreshTokens(ctx context.Context, userID string) ([]models.RefreshToken, error) {
	return read(s, func(d *dataset) ([]models.RefreshToken, error) { return d.ListUserRefreshTokens(ctx, userID) })
}

func (s *Storage) DeleteRefreshToken(ctx context.Context, token string) error {
	return writeErr(s, func(d *dataset) error { return d.DeleteRefreshToken(ctx, token) })
}

func (s *Storage) ConsumeRefreshToken(ctx context.Context, token string) error {
	return writeErr(s, func(d *dataset) error { return d.ConsumeRefreshToken(ctx, token) })
}

func (s *Storage) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	s.log.Debugw("Deleting all refresh tokens", "userID", userID)
	return writeErr(s, func(d *dataset) error { return d.DeleteUserRefreshTokens(ctx, userID) })
}

func (s *Storage) CreateLink(ctx context.Context, link models.Link) (*models.Link, error) {
	return write(s, func(d *dataset) (*models.Link, error) { return d.CreateLink(ctx, link) })
}

func (s *Storage) GetLink(ctx context.Context, userID, id string) (*models.Link, error) {
	return read(s, func(d *dataset) (*models.Link, error) { return d.GetLink(ctx, userID, id) })
}

func (s *Storage) ListLinks(ctx context.Context, userID string) ([]models.Link, error) {
	return read(s, func(d *dataset) ([]models.Link, error) { return d.ListLinks(ctx, userID) })
}

func (s *Storage) UpdateLink(ctx context.Context, link models.Link) (*models.Link, error) {
	return write(s, func(d *dataset) (*models.Link, error) { return d.UpdateLink(ctx, link) })
}

func (s *Storage) DeleteLink(ctx context.Context, userID, id string) error {
	return writeErr(s, func(d *dataset) error { return d.DeleteLink(ctx, userID, id) })
}

func (s *Storage) SetLinkPositions(ctx context.Context, userID string, ids []string) error {
	return writeErr(s, func(d *dataset) error { return d.SetLinkPositions(ctx, userID, ids) })
}

func (s *Storage) CreateConsent(ctx context.Context, consent models.Consent) (*models.Consent, error) {
	return write(s, func(d *dataset) (*models.Consent, error) { return d.CreateConsent(ctx, consent) })
}

func (s *Storage) ListConsents(ctx context.Context, userID string) ([]models.Consent, error) {
	return read(s, func(d *dataset) ([]models.Consent, error) { return d.ListConsents(ctx, userID) })
}
