package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/storage/memory"
	"github.com/rryowa/nexus/internal/util"
)

func createLinks(t *testing.T, svc *LinkService, userID string, titles ...string) []models.Link {
	t.Helper()
	links := make([]models.Link, 0, len(titles))
	for _, title := range titles {
		l, err := svc.Create(context.Background(), userID, models.CreateLinkRequest{Title: title, URL: "https://example.com/" + title})
		require.NoError(t, err)
		links = append(links, *l)
	}
	return links
}

func TestLinkService_CreateAppends(t *testing.T) {
	svc := NewLinkService(memory.NewStorage(zap.NewNop().Sugar()))
	links := createLinks(t, svc, "u1", "a", "b", "c")

	for i, l := range links {
		assert.Equal(t, i, l.Position)
	}
}

func TestLinkService_Reorder(t *testing.T) {
	svc := NewLinkService(memory.NewStorage(zap.NewNop().Sugar()))
	links := createLinks(t, svc, "u1", "a", "b", "c")
	ctx := context.Background()

	reordered, err := svc.Reorder(ctx, "u1", []string{links[2].ID, links[0].ID, links[1].ID})
	require.NoError(t, err)
	require.Len(t, reordered, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{reordered[0].Title, reordered[1].Title, reordered[2].Title})

	_, err = svc.Reorder(ctx, "u1", []string{links[0].ID, links[1].ID})
	var verr *util.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "ids")

	// A failed reorder leaves the previous order intact.
	current, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "c", current[0].Title)
}

func TestLinkService_OwnershipIsolation(t *testing.T) {
	svc := NewLinkService(memory.NewStorage(zap.NewNop().Sugar()))
	links := createLinks(t, svc, "u1", "a")
	ctx := context.Background()

	title := "stolen"
	_, err := svc.Update(ctx, "u2", links[0].ID, models.UpdateLinkRequest{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, svc.Delete(ctx, "u2", links[0].ID), ErrNotFound)

	updated, err := svc.Update(ctx, "u1", links[0].ID, models.UpdateLinkRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "stolen", updated.Title)
	assert.Equal(t, links[0].URL, updated.URL)

	require.NoError(t, svc.Delete(ctx, "u1", links[0].ID))
	remaining, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
