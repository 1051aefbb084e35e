package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/storage"
	"github.com/rryowa/nexus/internal/util"
)

type TokenService struct {
	access        *TokenCodec
	refresh       *TokenCodec
	refreshTokens storage.RefreshTokenRepository
	now           func() time.Time
}

func NewTokenService(cfg *util.TokenConfig, refreshTokens storage.RefreshTokenRepository) *TokenService {
	return &TokenService{
		access:        NewTokenCodec(cfg.AccessSecret, cfg.AccessTTL),
		refresh:       NewTokenCodec(cfg.RefreshSecret, cfg.RefreshTTL),
		refreshTokens: refreshTokens,
		now:           time.Now,
	}
}

// WithClock replaces the time source of the service and both codecs.
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	ts.now = now
	ts.access.now = now
	ts.refresh.now = now
	return ts
}

func (ts *TokenService) RefreshTTL() time.Duration { return ts.refresh.TTL() }

// IssueSession signs a new access/refresh pair for the subject and stores the
// refresh half. When tx is non-nil the record is written through it, so the
// issue can be part of a larger transaction.
func (ts *TokenService) IssueSession(
	ctx context.Context,
	tx storage.RefreshTokenRepository,
	subjectID string,
	role models.Role,
) (*models.TokenPair, error) {
	accessToken, err := ts.access.Sign(Claims{SubjectID: subjectID, Role: role})
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := ts.refresh.Sign(Claims{SubjectID: subjectID})
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	repo := tx
	if repo == nil {
		repo = ts.refreshTokens
	}

	now := ts.now()
	err = repo.CreateRefreshToken(ctx, models.RefreshToken{
		ID:        uuid.NewString(),
		Token:     refreshToken,
		UserID:    subjectID,
		ExpiresAt: now.Add(ts.refresh.TTL()),
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &models.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (ts *TokenService) VerifyAccessToken(token string) (*Claims, error) {
	return ts.access.Verify(token)
}

func (ts *TokenService) VerifyRefreshToken(token string) (*Claims, error) {
	return ts.refresh.Verify(token)
}
