package client

import (
	"context"
	"net/http"

	"github.com/rryowa/nexus/internal/models"
)

func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	var resp models.AuthResponse
	if err := c.Do(ctx, http.MethodPost, "/api/auth/signup", req, &resp); err != nil {
		return nil, err
	}
	c.tokens.Set(resp.AccessToken)
	return resp.User, nil
}

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	var resp models.AuthResponse
	if err := c.Do(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	c.tokens.Set(resp.AccessToken)
	return resp.User, nil
}

// Logout ends the session on the server and forgets the access token even if
// the server call failed.
func (c *Client) Logout(ctx context.Context) error {
	defer c.tokens.Clear()
	return c.Do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Refresh rotates the session explicitly, e.g. on startup when only the
// refresh cookie survived.
func (c *Client) Refresh(ctx context.Context) error {
	_, err := c.refreshAfter(ctx, c.tokens.Get())
	return err
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.Do(ctx, http.MethodGet, "/api/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListLinks(ctx context.Context) ([]models.Link, error) {
	var links []models.Link
	if err := c.Do(ctx, http.MethodGet, "/api/links", nil, &links); err != nil {
		return nil, err
	}
	return links, nil
}

func (c *Client) CreateLink(ctx context.Context, req models.CreateLinkRequest) (*models.Link, error) {
	var link models.Link
	if err := c.Do(ctx, http.MethodPost, "/api/links", req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}
