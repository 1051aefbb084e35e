package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rryowa/nexus/internal/models"
)

// (POST /api/auth/signup).
func (c *Controller) Signup(ctx echo.Context) error {
	var req models.SignupRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	result, err := c.authService.Signup(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	c.setRefreshCookie(ctx, result.Tokens.RefreshToken, c.authService.RefreshTTL())
	return success(ctx, http.StatusCreated, models.AuthResponse{
		AccessToken: result.Tokens.AccessToken,
		User:        result.User,
	})
}

// (POST /api/auth/login).
func (c *Controller) Login(ctx echo.Context) error {
	var req models.LoginRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	result, err := c.authService.Login(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	c.setRefreshCookie(ctx, result.Tokens.RefreshToken, c.authService.RefreshTTL())
	return success(ctx, http.StatusOK, models.AuthResponse{
		AccessToken: result.Tokens.AccessToken,
		User:        result.User,
	})
}

// (POST /api/auth/logout).
func (c *Controller) Logout(ctx echo.Context) error {
	if err := c.authService.Logout(ctx.Request().Context(), refreshCookieValue(ctx)); err != nil {
		return err
	}
	c.clearRefreshCookie(ctx)
	return ctx.NoContent(http.StatusNoContent)
}

// (POST /api/auth/refresh).
// The rotated refresh token replaces the cookie; the old one is single use.
func (c *Controller) Refresh(ctx echo.Context) error {
	meta := clientMeta(ctx)
	pair, err := c.authService.Refresh(ctx.Request().Context(), refreshCookieValue(ctx), meta)
	if err != nil {
		c.zapLogger.Debugw("Refresh rejected", "ip", meta.IPAddress, "error", err)
		return err
	}

	c.setRefreshCookie(ctx, pair.RefreshToken, c.authService.RefreshTTL())
	return success(ctx, http.StatusOK, models.RefreshResponse{AccessToken: pair.AccessToken})
}
