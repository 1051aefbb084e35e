package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/service"
)

func linkID(ctx echo.Context) (string, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", service.ErrBadRequest.WithCause(err)
	}
	return id.String(), nil
}

// (GET /api/links).
func (c *Controller) ListLinks(ctx echo.Context) error {
	p, err := Principal(ctx)
	if err != nil {
		return err
	}
	links, err := c.linkService.List(ctx.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return success(ctx, http.StatusOK, links)
}

// (POST /api/links).
func (c *Controller) CreateLink(ctx echo.Context) error {
	p, err := Principal(ctx)
	if err != nil {
		return err
	}
	var req models.CreateLinkRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}
	link, err := c.linkService.Create(ctx.Request().Context(), p.ID, req)
	if err != nil {
		return err
	}
	return success(ctx, http.StatusCreated, link)
}

// (PATCH /api/links/{id}).
func (c *Controller) UpdateLink(ctx echo.Context) error {
	p, err := Principal(ctx)
	if err != nil {
		return err
	}
	id, err := linkID(ctx)
	if err != nil {
		return err
	}
	var req models.UpdateLinkRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}
	link, err := c.linkService.Update(ctx.Request().Context(), p.ID, id, req)
	if err != nil {
		return err
	}
	return success(ctx, http.StatusOK, link)
}

// (DELETE /api/links/{id}).
func (c *Controller) DeleteLink(ctx echo.Context) error {
	p, err := Principal(ctx)
	if err != nil {
		return err
	}
	id, err := linkID(ctx)
	if err != nil {
		return err
	}
	if err := c.linkService.Delete(ctx.Request().Context(), p.ID, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// (PUT /api/links/order).
func (c *Controller) ReorderLinks(ctx echo.Context) error {
	p, err := Principal(ctx)
	if err != nil {
		return err
	}
	var req models.ReorderLinksRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}
	links, err := c.linkService.Reorder(ctx.Request().Context(), p.ID, req.IDs)
	if err != nil {
		return err
	}
	return success(ctx, http.StatusOK, links)
}
