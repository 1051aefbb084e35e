package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/storage"
)

const linkColumns = `id, user_id, title, url, position, created_at, updated_at`

type LinkRepository struct {
	db storage.DBTX
}

func NewLinkRepository(db storage.DBTX) *LinkRepository {
	return &LinkRepository{db: db}
}

func scanLink(row rowScanner) (*models.Link, error) {
	var l models.Link
	if err := row.Scan(&l.ID, &l.UserID, &l.Title, &l.URL, &l.Position, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateLink appends the link after the user's last one.
func (r *LinkRepository) CreateLink(ctx context.Context, link models.Link) (*models.Link, error) {
	query := `INSERT INTO links (id, user_id, title, url, position)
		VALUES ($1, $2, $3, $4, (SELECT COALESCE(MAX(position) + 1, 0) FROM links WHERE user_id = $2))
		RETURNING ` + linkColumns
	created, err := scanLink(r.db.QueryRowContext(ctx, query, link.ID, link.UserID, link.Title, link.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to create link: %w", err)
	}
	return created, nil
}

func (r *LinkRepository) GetLink(ctx context.Context, userID, id string) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1 AND user_id = $2`
	link, err := scanLink(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrLinkNotFound
		}
		return nil, fmt.Errorf("get link: %w", err)
	}
	return link, nil
}

func (r *LinkRepository) ListLinks(ctx context.Context, userID string) ([]models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE user_id = $1 ORDER BY position, created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (r *LinkRepository) UpdateLink(ctx context.Context, link models.Link) (*models.Link, error) {
	query := `UPDATE links SET title = $3, url = $4, updated_at = now() WHERE id = $1 AND user_id = $2 RETURNING ` + linkColumns
	updated, err := scanLink(r.db.QueryRowContext(ctx, query, link.ID, link.UserID, link.Title, link.URL))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrLinkNotFound
		}
		return nil, fmt.Errorf("update link: %w", err)
	}
	return updated, nil
}

func (r *LinkRepository) DeleteLink(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	if n == 0 {
		return storage.ErrLinkNotFound
	}
	return nil
}

// SetLinkPositions renumbers the user's links in the order given. ids must list
// every link of the user exactly once. Run it inside a transaction.
func (r *LinkRepository) SetLinkPositions(ctx context.Context, userID string, ids []string) error {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM links WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		return fmt.Errorf("lock links: %w", err)
	}
	owned := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan link id: %w", err)
		}
		owned[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("lock links: %w", err)
	}

	if err := storage.CheckPermutation(owned, ids); err != nil {
		return err
	}

	for pos, id := range ids {
		_, err := r.db.ExecContext(ctx, `UPDATE links SET position = $3, updated_at = now() WHERE id = $1 AND user_id = $2`, id, userID, pos)
		if err != nil {
			return fmt.Errorf("set link position: %w", err)
		}
	}
	return nil
}
