package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rryowa/nexus/internal/models"
)

// (POST /api/consents).
func (c *Controller) LogConsent(ctx echo.Context) error {
	p, err := Principal(ctx)
	if err != nil {
		return err
	}
	var req models.LogConsentRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}
	consent, err := c.consentService.Log(ctx.Request().Context(), p.ID, req)
	if err != nil {
		return err
	}
	return success(ctx, http.StatusCreated, consent)
}

// (GET /api/consents).
func (c *Controller) GetConsentStatus(ctx echo.Context) error {
	p, err := Principal(ctx)
	if err != nil {
		return err
	}
	status, err := c.consentService.Status(ctx.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return success(ctx, http.StatusOK, status)
}
