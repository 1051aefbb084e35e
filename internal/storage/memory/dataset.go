package memory

import (
	"context"
	"sort"
	"time"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/storage"
)

// dataset holds the stored entities and implements storage.Repositories
// without any locking. Storage guards it.
type dataset struct {
	now           func() time.Time
	users         map[string]models.User
	refreshTokens map[string]models.RefreshToken
	links         map[string]models.Link
	consents      []models.Consent
}

func newDataset(now func() time.Time) *dataset {
	return &dataset{
		now:           now,
		users:         make(map[string]models.User),
		refreshTokens: make(map[string]models.RefreshToken),
		links:         make(map[string]models.Link),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset(d.now)
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.refreshTokens {
		c.refreshTokens[k] = v
	}
	for k, v := range d.links {
		c.links[k] = v
	}
	c.consents = append([]models.Consent(nil), d.consents...)
	return c
}

func (d *dataset) CreateUser(_ context.Context, user models.User) (*models.User, error) {
	for _, u := range d.users {
		if u.Email == user.Email {
			return nil, storage.ErrEmailTaken
		}
	}
	now := d.now()
	user.CreatedAt, user.UpdatedAt = now, now
	d.users[user.ID] = user
	return &user, nil
}

func (d *dataset) GetUserByID(_ context.Context, id string) (*models.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return &u, nil
}

func (d *dataset) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range d.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (d *dataset) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range d.users {
		if u.Username != nil && *u.Username == username {
			return &u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (d *dataset) GetPrincipal(_ context.Context, id string) (*models.Principal, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return &models.Principal{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}, nil
}

func (d *dataset) UpdateProfile(_ context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	if upd.Username != nil {
		for _, other := range d.users {
			if other.ID != id && other.Username != nil && *other.Username == *upd.Username {
				return nil, storage.ErrUsernameTaken
			}
		}
		username := *upd.Username
		u.Username = &username
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	u.UpdatedAt = d.now()
	d.users[id] = u
	return &u, nil
}

func (d *dataset) SetAvatarKey(_ context.Context, id, key string) error {
	u, ok := d.users[id]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.AvatarKey = &key
	u.UpdatedAt = d.now()
	d.users[id] = u
	return nil
}

func (d *dataset) ListUsers(_ context.Context, limit, offset int) ([]models.User, error) {
	users := make([]models.User, 0, len(d.users))
	for _, u := range d.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	if offset >= len(users) {
		return []models.User{}, nil
	}
	users = users[offset:]
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (d *dataset) CreateRefreshToken(_ context.Context, token models.RefreshToken) error {
	d.refreshTokens[token.Token] = token
	return nil
}

func (d *dataset) GetRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := d.refreshTokens[token]
	if !ok {
		return nil, storage.ErrRefreshTokenNotFound
	}
	return &rt, nil
}

func (d *dataset) ListUserRefreshTokens(_ context.Context, userID string) ([]models.RefreshToken, error) {
	var tokens []models.RefreshToken
	for _, rt := range d.refreshTokens {
		if rt.UserID == userID {
			tokens = append(tokens, rt)
		}
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].CreatedAt.Before(tokens[j].CreatedAt) })
	return tokens, nil
}

func (d *dataset) DeleteRefreshToken(_ context.Context, token string) error {
	delete(d.refreshTokens, token)
	return nil
}

func (d *dataset) ConsumeRefreshToken(_ context.Context, token string) error {
	if _, ok := d.refreshTokens[token]; !ok {
		return storage.ErrRefreshTokenNotFound
	}
	delete(d.refreshTokens, token)
	return nil
}

func (d *dataset) DeleteUserRefreshTokens(_ context.Context, userID string) error {
	for k, rt := range d.refreshTokens {
		if rt.UserID == userID {
			delete(d.refreshTokens, k)
		}
	}
	return nil
}

func (d *dataset) userLinks(userID string) []models.Link {
	links := []models.Link{}
	for _, l := range d.links {
		if l.UserID == userID {
			links = append(links, l)
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Position < links[j].Position })
	return links
}

func (d *dataset) CreateLink(_ context.Context, link models.Link) (*models.Link, error) {
	link.Position = 0
	for _, l := range d.userLinks(link.UserID) {
		if l.Position >= link.Position {
			link.Position = l.Position + 1
		}
	}
	now := d.now()
	link.CreatedAt, link.UpdatedAt = now, now
	d.links[link.ID] = link
	return &link, nil
}

func (d *dataset) GetLink(_ context.Context, userID, id string) (*models.Link, error) {
	l, ok := d.links[id]
	if !ok || l.UserID != userID {
		return nil, storage.ErrLinkNotFound
	}
	return &l, nil
}

func (d *dataset) ListLinks(_ context.Context, userID string) ([]models.Link, error) {
	return d.userLinks(userID), nil
}

func (d *dataset) UpdateLink(_ context.Context, link models.Link) (*models.Link, error) {
	existing, ok := d.links[link.ID]
	if !ok || existing.UserID != link.UserID {
		return nil, storage.ErrLinkNotFound
	}
	existing.Title, existing.URL = link.Title, link.URL
	existing.UpdatedAt = d.now()
	d.links[link.ID] = existing
	return &existing, nil
}

func (d *dataset) DeleteLink(_ context.Context, userID, id string) error {
	l, ok := d.links[id]
	if !ok || l.UserID != userID {
		return storage.ErrLinkNotFound
	}
	delete(d.links, id)
	return nil
}

func (d *dataset) SetLinkPositions(_ context.Context, userID string, ids []string) error {
	owned := make(map[string]bool)
	for _, l := range d.userLinks(userID) {
		owned[l.ID] = true
	}
	if err := storage.CheckPermutation(owned, ids); err != nil {
		return err
	}
	now := d.now()
	for pos, id := range ids {
		l := d.links[id]
		l.Position = pos
		l.UpdatedAt = now
		d.links[id] = l
	}
	return nil
}

func (d *dataset) CreateConsent(_ context.Context, consent models.Consent) (*models.Consent, error) {
	consent.CreatedAt = d.now()
	d.consents = append(d.consents, consent)
	return &consent, nil
}

func (d *dataset) ListConsents(_ context.Context, userID string) ([]models.Consent, error) {
	var consents []models.Consent
	for _, c := range d.consents {
		if c.UserID == userID {
			consents = append(consents, c)
		}
	}
	return consents, nil
}
