package controller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/service"
)

type Controller struct {
	zapLogger      *zap.SugaredLogger
	authService    *service.AuthService
	profileService *service.ProfileService
	linkService    *service.LinkService
	consentService *service.ConsentService
	secureCookies  bool
}

func NewController(
	logger *zap.SugaredLogger,
	authService *service.AuthService,
	profileService *service.ProfileService,
	linkService *service.LinkService,
	consentService *service.ConsentService,
	secureCookies bool,
) *Controller {
	return &Controller{
		zapLogger:      logger,
		authService:    authService,
		profileService: profileService,
		linkService:    linkService,
		consentService: consentService,
		secureCookies:  secureCookies,
	}
}

// (GET /api/ping).
func (c *Controller) CheckServer(ctx echo.Context) error {
	return success(ctx, http.StatusOK, "ok")
}

// (GET /api/openapi.json).
func (c *Controller) GetOpenAPI(ctx echo.Context) error {
	swagger, err := GetSwagger()
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, swagger)
}

func success(ctx echo.Context, status int, data interface{}) error {
	return ctx.JSON(status, models.SuccessResponse{Status: models.StatusSuccess, Data: data})
}

// bind decodes the request body into dst and runs the registered validator on it.
func bind(ctx echo.Context, dst interface{}) error {
	if err := ctx.Bind(dst); err != nil {
		return service.ErrBadRequest.WithCause(err)
	}
	return ctx.Validate(dst)
}

// Principal returns the principal attached by the authentication middleware.
func Principal(ctx echo.Context) (*models.Principal, error) {
	p, ok := ctx.Get(models.MwPrincipalKey).(*models.Principal)
	if !ok || p == nil {
		return nil, service.ErrNotLoggedIn
	}
	return p, nil
}

func clientMeta(ctx echo.Context) models.ClientMeta {
	return models.ClientMeta{
		UserAgent: ctx.Request().UserAgent(),
		IPAddress: ctx.RealIP(),
	}
}

func (c *Controller) setRefreshCookie(ctx echo.Context, token string, ttl time.Duration) {
	ctx.SetCookie(&http.Cookie{
		Name:     models.RefreshCookieName,
		Value:    token,
		Path:     models.RefreshCookiePath,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *Controller) clearRefreshCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     models.RefreshCookieName,
		Value:    "",
		Path:     models.RefreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func refreshCookieValue(ctx echo.Context) string {
	cookie, err := ctx.Cookie(models.RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
