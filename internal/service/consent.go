package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/storage"
)

type ConsentService struct {
	consents storage.ConsentRepository
}

func NewConsentService(consents storage.ConsentRepository) *ConsentService {
	return &ConsentService{consents: consents}
}

func (s *ConsentService) Log(ctx context.Context, userID string, req models.LogConsentRequest) (*models.Consent, error) {
	consent, err := s.consents.CreateConsent(ctx, models.Consent{
		ID:     uuid.NewString(),
		UserID: userID,
		Type:   req.Type,
		Action: req.Action,
	})
	if err != nil {
		return nil, fmt.Errorf("log consent: %w", err)
	}
	return consent, nil
}

func (s *ConsentService) Status(ctx context.Context, userID string) (map[string]models.ConsentAction, error) {
	entries, err := s.consents.ListConsents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("consent status: %w", err)
	}
	return models.ConsentStatus(entries), nil
}
