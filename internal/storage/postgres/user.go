package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/storage"
)

const userColumns = `id, email, password_hash, name, username, bio, avatar_key, role, created_at, updated_at`

type UserRepository struct {
	db storage.DBTX
}

func NewUserRepository(db storage.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user models.User
		role string
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Username,
		&user.Bio,
		&user.AvatarKey,
		&role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if user.Role, err = models.ParseRole(role); err != nil {
		return nil, fmt.Errorf("user %s: %w", user.ID, err)
	}
	return &user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	query := `INSERT INTO users (id, email, password_hash, name, role) VALUES ($1, $2, $3, $4, $5) RETURNING ` + userColumns
	created, err := scanUser(r.db.QueryRowContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.Name, user.Role.String()))
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return nil, storage.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) getUserBy(ctx context.Context, column string, value string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getUserBy(ctx, "id", id)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUserBy(ctx, "email", email)
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUserBy(ctx, "username", username)
}

// GetPrincipal selects only the fields that are safe to attach to a request.
func (r *UserRepository) GetPrincipal(ctx context.Context, id string) (*models.Principal, error) {
	var (
		p    models.Principal
		role string
	)
	query := `SELECT id, email, name, role FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Email, &p.Name, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("get principal: %w", err)
	}
	if p.Role, err = models.ParseRole(role); err != nil {
		return nil, fmt.Errorf("principal %s: %w", id, err)
	}
	return &p, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	query := `UPDATE users SET
		name = COALESCE($2, name),
		bio = COALESCE($3, bio),
		username = COALESCE($4, username),
		updated_at = now()
	WHERE id = $1 RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, upd.Name, upd.Bio, upd.Username))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, storage.ErrUserNotFound
		case isUniqueViolation(err, "users_username_key"):
			return nil, storage.ErrUsernameTaken
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (r *UserRepository) SetAvatarKey(ctx context.Context, id, key string) error {
	query := `UPDATE users SET avatar_key = $2, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, key)
	if err != nil {
		return fmt.Errorf("set avatar key: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
