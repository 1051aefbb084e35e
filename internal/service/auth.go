package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/storage"
)

// dummyPassword is hashed once and compared against when a login names an
// unknown email, so both failure paths cost one hash comparison.
const dummyPassword = "nexus-dummy-password"

type AuthService struct {
	storage  storage.Storage
	tokens   *TokenService
	hasher   PasswordHasher
	notifier SecurityNotifier
	log      *zap.SugaredLogger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	storage storage.Storage,
	tokens *TokenService,
	hasher PasswordHasher,
	notifier SecurityNotifier,
	log *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		storage:  storage,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for refresh-record expiry checks.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

func (s *AuthService) RefreshTTL() time.Duration { return s.tokens.RefreshTTL() }

type AuthResult struct {
	Tokens models.TokenPair
	User   *models.User
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates the user and its first session in one transaction.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*AuthResult, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var result AuthResult
	err = s.storage.WithTx(ctx, func(ctx context.Context, repos storage.Repositories) error {
		user, err := repos.CreateUser(ctx, models.User{
			ID:           uuid.NewString(),
			Email:        normalizeEmail(req.Email),
			PasswordHash: hash,
			Name:         strings.TrimSpace(req.Name),
			Role:         models.RoleUser,
		})
		if err != nil {
			return err
		}

		pair, err := s.tokens.IssueSession(ctx, repos, user.ID, user.Role)
		if err != nil {
			return err
		}

		result = AuthResult{Tokens: *pair, User: user}
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("signup: %w", err)
	}
	return &result, nil
}

// Login fails with ErrIncorrectCredentials both for an unknown email and for a
// wrong password.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*AuthResult, error) {
	user, err := s.storage.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.compareDummy(req.Password)
			return nil, ErrIncorrectCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, ErrIncorrectCredentials.WithCause(err)
	}

	pair, err := s.tokens.IssueSession(ctx, nil, user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &AuthResult{Tokens: *pair, User: user}, nil
}

func (s *AuthService) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.log.Errorw("failed to prepare dummy password hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_ = s.hasher.Compare(s.dummyHash, password)
	}
}

// Logout deletes the record of refreshToken. An empty token is a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.storage.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Refresh redeems a refresh token and returns a new pair. The redeemed record is
// deleted and the new one created in the same transaction.
//
// A token that verifies but has no stored record was either redeemed before or
// never issued here; every session of its subject is revoked in that case.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta models.ClientMeta) (*models.TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenMissing
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrRefreshTokenInvalid.WithCause(err)
	}

	record, err := s.storage.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if !errors.Is(err, storage.ErrRefreshTokenNotFound) {
			return nil, fmt.Errorf("refresh: %w", err)
		}
		s.revokeAll(ctx, claims.SubjectID, meta)
		return nil, ErrRefreshTokenInvalid.WithCause(err)
	}

	if record.Expired(s.now()) {
		if err := s.storage.DeleteRefreshToken(ctx, refreshToken); err != nil {
			return nil, fmt.Errorf("refresh: delete expired token: %w", err)
		}
		return nil, ErrRefreshTokenExpired
	}

	principal, err := s.storage.GetPrincipal(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrRefreshTokenInvalid.WithCause(err)
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	var pair *models.TokenPair
	err = s.storage.WithTx(ctx, func(ctx context.Context, repos storage.Repositories) error {
		if err := repos.ConsumeRefreshToken(ctx, refreshToken); err != nil {
			return err
		}
		issued, err := s.tokens.IssueSession(ctx, repos, principal.ID, principal.Role)
		if err != nil {
			return err
		}
		pair = issued
		return nil
	})
	if err != nil {
		// Another request redeemed the same token between lookup and consume.
		if errors.Is(err, storage.ErrRefreshTokenNotFound) {
			return nil, ErrRefreshTokenInvalid.WithCause(err)
		}
		return nil, fmt.Errorf("refresh: rotate: %w", err)
	}
	return pair, nil
}

func (s *AuthService) revokeAll(ctx context.Context, userID string, meta models.ClientMeta) {
	s.log.Warnw("Unknown refresh token presented, revoking all sessions",
		"userID", userID, "ip", meta.IPAddress, "userAgent", meta.UserAgent)

	if err := s.storage.DeleteUserRefreshTokens(ctx, userID); err != nil {
		s.log.Errorw("failed to revoke refresh tokens", "userID", userID, "error", err)
		return
	}
	if s.notifier != nil {
		s.notifier.NotifyTokenReuse(ctx, userID, meta)
	}
}

// Authenticate verifies an access token and loads the principal it names.
// A bad token and a deleted account both fail with ErrAccessTokenInvalid.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.Principal, error) {
	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, ErrAccessTokenInvalid.WithCause(err)
	}

	principal, err := s.storage.GetPrincipal(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrAccessTokenInvalid.WithCause(err)
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return principal, nil
}
