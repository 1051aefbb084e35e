package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/service"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// (GET /api/users/me).
func (c *Controller) GetMe(ctx echo.Context) error {
	p, err := Principal(ctx)
	if err != nil {
		return err
	}
	user, err := c.profileService.Me(ctx.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return success(ctx, http.StatusOK, user)
}

// (PATCH /api/users/me).
func (c *Controller) UpdateMe(ctx echo.Context) error {
	p, err := Principal(ctx)
	if err != nil {
		return err
	}
	var req models.ProfileUpdate
	if err := bind(ctx, &req); err != nil {
		return err
	}
	user, err := c.profileService.UpdateProfile(ctx.Request().Context(), p.ID, req)
	if err != nil {
		return err
	}
	return success(ctx, http.StatusOK, user)
}

// (POST /api/users/me/avatar).
func (c *Controller) CreateAvatarUpload(ctx echo.Context) error {
	p, err := Principal(ctx)
	if err != nil {
		return err
	}
	var req models.AvatarUploadRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}
	upload, err := c.profileService.CreateAvatarUpload(ctx.Request().Context(), p.ID, req.ContentType)
	if err != nil {
		return err
	}
	return success(ctx, http.StatusOK, upload)
}

// (GET /api/profiles/{username}).
func (c *Controller) GetPublicProfile(ctx echo.Context) error {
	profile, err := c.profileService.PublicProfile(ctx.Request().Context(), ctx.Param("username"))
	if err != nil {
		return err
	}
	return success(ctx, http.StatusOK, profile)
}

type listUsersParams struct {
	Limit  *int `query:"limit"`
	Offset *int `query:"offset"`
}

// (GET /api/admin/users).
func (c *Controller) ListUsers(ctx echo.Context) error {
	var params listUsersParams
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &params); err != nil {
		return service.ErrBadRequest.WithCause(err)
	}

	limit, offset := defaultPageSize, 0
	if params.Limit != nil && *params.Limit > 0 && *params.Limit <= maxPageSize {
		limit = *params.Limit
	}
	if params.Offset != nil && *params.Offset > 0 {
		offset = *params.Offset
	}

	users, err := c.profileService.ListUsers(ctx.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	return success(ctx, http.StatusOK, users)
}
