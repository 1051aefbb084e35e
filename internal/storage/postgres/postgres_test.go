package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/storage"
)

func newStorageWithMock(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStorage(db), mock
}

var userRowColumns = []string{"id", "email", "password_hash", "name", "username", "bio", "avatar_key", "role", "created_at", "updated_at"}

func TestCreateRefreshToken(t *testing.T) {
	s, mock := newStorageWithMock(t)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO refresh_tokens (id, token, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4, $5)`)).
		WithArgs("rt1", "tok", "u1", now.Add(time.Hour), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.CreateRefreshToken(context.Background(), models.RefreshToken{
		ID: "rt1", Token: "tok", UserID: "u1", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRefreshToken_NotFound(t *testing.T) {
	s, mock := newStorageWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, token, user_id, expires_at, created_at FROM refresh_tokens WHERE token = $1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetRefreshToken(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrRefreshTokenNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRefreshToken_Found(t *testing.T) {
	s, mock := newStorageWithMock(t)
	expires := time.Now().Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, token, user_id, expires_at, created_at FROM refresh_tokens WHERE token = $1`)).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "user_id", "expires_at", "created_at"}).
			AddRow("rt1", "tok", "u1", expires, expires.Add(-time.Hour)))

	rt, err := s.GetRefreshToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", rt.UserID)
	assert.True(t, rt.ExpiresAt.Equal(expires))
}

func TestConsumeRefreshToken(t *testing.T) {
	query := regexp.QuoteMeta(`DELETE FROM refresh_tokens WHERE token = $1`)

	t.Run("deleted", func(t *testing.T) {
		s, mock := newStorageWithMock(t)
		mock.ExpectExec(query).WithArgs("tok").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.ConsumeRefreshToken(context.Background(), "tok"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already consumed", func(t *testing.T) {
		s, mock := newStorageWithMock(t)
		mock.ExpectExec(query).WithArgs("tok").WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.ConsumeRefreshToken(context.Background(), "tok")
		require.ErrorIs(t, err, storage.ErrRefreshTokenNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		s, mock := newStorageWithMock(t)
		mock.ExpectExec(query).WithArgs("tok").WillReturnError(errors.New("db down"))

		err := s.ConsumeRefreshToken(context.Background(), "tok")
		require.Error(t, err)
		assert.NotErrorIs(t, err, storage.ErrRefreshTokenNotFound)
		assert.Contains(t, err.Error(), "db down")
	})
}

func TestDeleteUserRefreshTokens(t *testing.T) {
	s, mock := newStorageWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM refresh_tokens WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, s.DeleteUserRefreshTokens(context.Background(), "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	query := regexp.QuoteMeta(`INSERT INTO users (id, email, password_hash, name, role) VALUES ($1, $2, $3, $4, $5) RETURNING`)
	user := models.User{ID: "u1", Email: "a@b.c", PasswordHash: "hash", Name: "Ann", Role: models.RoleUser}

	t.Run("created", func(t *testing.T) {
		s, mock := newStorageWithMock(t)
		now := time.Now()
		mock.ExpectQuery(query).
			WithArgs("u1", "a@b.c", "hash", "Ann", "USER").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow("u1", "a@b.c", "hash", "Ann", nil, "", nil, "USER", now, now))

		created, err := s.CreateUser(context.Background(), user)
		require.NoError(t, err)
		assert.Equal(t, models.RoleUser, created.Role)
		assert.Nil(t, created.Username)
	})

	t.Run("email taken", func(t *testing.T) {
		s, mock := newStorageWithMock(t)
		mock.ExpectQuery(query).
			WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "users_email_key"})

		_, err := s.CreateUser(context.Background(), user)
		require.ErrorIs(t, err, storage.ErrEmailTaken)
	})
}

func TestGetPrincipal(t *testing.T) {
	query := regexp.QuoteMeta(`SELECT id, email, name, role FROM users WHERE id = $1`)

	t.Run("found", func(t *testing.T) {
		s, mock := newStorageWithMock(t)
		mock.ExpectQuery(query).WithArgs("u1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "role"}).AddRow("u1", "a@b.c", "Ann", "ADMIN"))

		p, err := s.GetPrincipal(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, &models.Principal{ID: "u1", Email: "a@b.c", Name: "Ann", Role: models.RoleAdmin}, p)
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := newStorageWithMock(t)
		mock.ExpectQuery(query).WithArgs("u1").WillReturnError(sql.ErrNoRows)

		_, err := s.GetPrincipal(context.Background(), "u1")
		require.ErrorIs(t, err, storage.ErrUserNotFound)
	})
}

func TestUpdateProfile_UsernameTaken(t *testing.T) {
	s, mock := newStorageWithMock(t)
	username := "ann"

	mock.ExpectQuery(`UPDATE users SET`).
		WithArgs("u1", nil, nil, "ann").
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "users_username_key"})

	_, err := s.UpdateProfile(context.Background(), "u1", models.ProfileUpdate{Username: &username})
	require.ErrorIs(t, err, storage.ErrUsernameTaken)
}

func TestWithTx_Commit(t *testing.T) {
	s, mock := newStorageWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM refresh_tokens WHERE token = $1`)).
		WithArgs("old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO refresh_tokens`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.WithTx(context.Background(), func(ctx context.Context, repos storage.Repositories) error {
		if err := repos.ConsumeRefreshToken(ctx, "old"); err != nil {
			return err
		}
		return repos.CreateRefreshToken(ctx, models.RefreshToken{ID: "rt2", Token: "new", UserID: "u1"})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnError(t *testing.T) {
	s, mock := newStorageWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM refresh_tokens WHERE token = $1`)).
		WithArgs("old").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(ctx context.Context, repos storage.Repositories) error {
		return repos.ConsumeRefreshToken(ctx, "old")
	})
	require.ErrorIs(t, err, storage.ErrRefreshTokenNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	s, mock := newStorageWithMock(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	require.PanicsWithValue(t, "boom", func() {
		_ = s.WithTx(context.Background(), func(context.Context, storage.Repositories) error {
			panic("boom")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetLinkPositions_Mismatch(t *testing.T) {
	s, mock := newStorageWithMock(t)

	mock.ExpectQuery(`SELECT id FROM links WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("l1").AddRow("l2"))

	err := s.SetLinkPositions(context.Background(), "u1", []string{"l1", "l1"})
	require.ErrorIs(t, err, storage.ErrLinkSetMismatch)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckPermutation(t *testing.T) {
	owned := map[string]bool{"a": true, "b": true}

	assert.NoError(t, storage.CheckPermutation(owned, []string{"b", "a"}))
	assert.ErrorIs(t, storage.CheckPermutation(owned, []string{"a"}), storage.ErrLinkSetMismatch)
	assert.ErrorIs(t, storage.CheckPermutation(owned, []string{"a", "c"}), storage.ErrLinkSetMismatch)
	assert.ErrorIs(t, storage.CheckPermutation(owned, []string{"a", "a"}), storage.ErrLinkSetMismatch)
}
