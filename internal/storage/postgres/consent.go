package postgres

import (
	"context"
	"fmt"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/storage"
)

type ConsentRepository struct {
	db storage.DBTX
}

func NewConsentRepository(db storage.DBTX) *ConsentRepository {
	return &ConsentRepository{db: db}
}

func (r *ConsentRepository) CreateConsent(ctx context.Context, consent models.Consent) (*models.Consent, error) {
	query := `INSERT INTO consents (id, user_id, type, action) VALUES ($1, $2, $3, $4) RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, consent.ID, consent.UserID, consent.Type, string(consent.Action)).Scan(&consent.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to log consent: %w", err)
	}
	return &consent, nil
}

// ListConsents returns the user's consent log, oldest first.
func (r *ConsentRepository) ListConsents(ctx context.Context, userID string) ([]models.Consent, error) {
	query := `SELECT id, user_id, type, action, created_at FROM consents WHERE user_id = $1 ORDER BY created_at, seq`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	defer rows.Close()

	var consents []models.Consent
	for rows.Next() {
		var (
			c      models.Consent
			action string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Type, &action, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan consent: %w", err)
		}
		c.Action = models.ConsentAction(action)
		consents = append(consents, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	return consents, nil
}
