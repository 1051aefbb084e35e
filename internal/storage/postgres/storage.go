package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/rryowa/nexus/internal/storage"
)

const uniqueViolation = "23505"

type Storage struct {
	db *sql.DB
	*repositories
}

type repositories struct {
	*UserRepository
	*RefreshTokenRepository
	*LinkRepository
	*ConsentRepository
}

func newRepositories(db storage.DBTX) *repositories {
	return &repositories{
		UserRepository:         NewUserRepository(db),
		RefreshTokenRepository: NewRefreshTokenRepository(db),
		LinkRepository:         NewLinkRepository(db),
		ConsentRepository:      NewConsentRepository(db),
	}
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{
		db:           db,
		repositories: newRepositories(db),
	}
}

// WithTx begins a transaction, runs fn with repositories bound to it and commits
// on success. Errors and panics roll the transaction back; panics are rethrown.
func (s *Storage) WithTx(ctx context.Context, fn func(ctx context.Context, repos storage.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("commit transaction: %w", err)
		}
	}()

	return fn(ctx, newRepositories(tx))
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
