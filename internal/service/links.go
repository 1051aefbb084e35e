package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/storage"
	"github.com/rryowa/nexus/internal/util"
)

type LinkService struct {
	storage storage.Storage
}

func NewLinkService(storage storage.Storage) *LinkService {
	return &LinkService{storage: storage}
}

func linkError(op string, err error) error {
	if errors.Is(err, storage.ErrLinkNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *LinkService) List(ctx context.Context, userID string) ([]models.Link, error) {
	links, err := s.storage.ListLinks(ctx, userID)
	if err != nil {
		return nil, linkError("list links", err)
	}
	return links, nil
}

func (s *LinkService) Create(ctx context.Context, userID string, req models.CreateLinkRequest) (*models.Link, error) {
	link, err := s.storage.CreateLink(ctx, models.Link{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  req.Title,
		URL:    req.URL,
	})
	if err != nil {
		return nil, linkError("create link", err)
	}
	return link, nil
}

func (s *LinkService) Update(ctx context.Context, userID, id string, req models.UpdateLinkRequest) (*models.Link, error) {
	var updated *models.Link
	err := s.storage.WithTx(ctx, func(ctx context.Context, repos storage.Repositories) error {
		link, err := repos.GetLink(ctx, userID, id)
		if err != nil {
			return err
		}
		if req.Title != nil {
			link.Title = *req.Title
		}
		if req.URL != nil {
			link.URL = *req.URL
		}
		updated, err = repos.UpdateLink(ctx, *link)
		return err
	})
	if err != nil {
		return nil, linkError("update link", err)
	}
	return updated, nil
}

func (s *LinkService) Delete(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteLink(ctx, userID, id); err != nil {
		return linkError("delete link", err)
	}
	return nil
}

// Reorder applies the order given by ids, which must name each of the user's
// links exactly once.
func (s *LinkService) Reorder(ctx context.Context, userID string, ids []string) ([]models.Link, error) {
	var links []models.Link
	err := s.storage.WithTx(ctx, func(ctx context.Context, repos storage.Repositories) error {
		if err := repos.SetLinkPositions(ctx, userID, ids); err != nil {
			return err
		}
		var err error
		links, err = repos.ListLinks(ctx, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrLinkSetMismatch) {
			verr := util.NewValidationError()
			verr.Add("ids", "must list every link exactly once")
			return nil, verr
		}
		return nil, linkError("reorder links", err)
	}
	return links, nil
}
