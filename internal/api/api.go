package api

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	middleware "github.com/oapi-codegen/echo-middleware"
	"go.uber.org/zap"

	"github.com/rryowa/nexus/internal/controller"
	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/util"
)

const (
	shutdownTimeout = 5 * time.Second
)

type API struct {
	server          *echo.Echo
	log             *zap.SugaredLogger
	gracefulTimeout time.Duration
	cleanupFuncs    []func()
}

// NewAPI builds the server and registers every route. A nil limiter disables rate limiting.
func NewAPI(
	c *controller.Controller,
	auth Authenticator,
	limiter RateLimiter,
	sc *util.ServerConfig,
	l *zap.SugaredLogger,
	cleanupFuncs []func(),
) (*API, error) {
	swagger, err := controller.GetSwagger()
	if err != nil {
		return nil, err
	}
	swagger.Servers = nil

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.Addr = sc.ServerAddr
	e.Server.WriteTimeout = sc.WriteTimeout
	e.Server.ReadTimeout = sc.ReadTimeout
	e.Server.IdleTimeout = sc.IdleTimeout
	e.HTTPErrorHandler = ErrorHandler(l)
	e.Validator = NewRequestValidator()

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestLoggerWithConfig(GetLoggerMiddlewareConfig(l)))

	g := e.Group("/api")
	g.Use(middleware.OapiRequestValidatorWithOptions(swagger, &middleware.Options{
		Options: openapi3filter.Options{
			ExcludeRequestBody: true,
			// Bearer tokens are checked by AuthMiddleware.
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	}))

	registerRoutes(g, c, auth, limiter, l)

	return &API{
		server:          e,
		log:             l,
		gracefulTimeout: sc.GracefulTimeout,
		cleanupFuncs:    cleanupFuncs,
	}, nil
}

func registerRoutes(g *echo.Group, c *controller.Controller, auth Authenticator, limiter RateLimiter, l *zap.SugaredLogger) {
	authenticated := AuthMiddleware(auth)

	var limited []echo.MiddlewareFunc
	if limiter != nil {
		limited = append(limited, RateLimitMiddleware(limiter, l))
	}

	g.GET("/ping", c.CheckServer)
	g.GET("/openapi.json", c.GetOpenAPI)

	g.POST("/auth/signup", c.Signup, limited...)
	g.POST("/auth/login", c.Login, limited...)
	g.POST("/auth/refresh", c.Refresh, limited...)
	g.POST("/auth/logout", c.Logout)

	g.GET("/users/me", c.GetMe, authenticated)
	g.PATCH("/users/me", c.UpdateMe, authenticated)
	g.POST("/users/me/avatar", c.CreateAvatarUpload, authenticated)
	g.GET("/profiles/:username", c.GetPublicProfile)

	g.GET("/links", c.ListLinks, authenticated)
	g.POST("/links", c.CreateLink, authenticated)
	g.PUT("/links/order", c.ReorderLinks, authenticated)
	g.PATCH("/links/:id", c.UpdateLink, authenticated)
	g.DELETE("/links/:id", c.DeleteLink, authenticated)

	g.GET("/consents", c.GetConsentStatus, authenticated)
	g.POST("/consents", c.LogConsent, authenticated)

	g.GET("/admin/users", c.ListUsers, authenticated, Authorize(models.RoleAdmin))
}

// Handler exposes the router, mainly for httptest.
func (a *API) Handler() http.Handler {
	return a.server
}

func (a *API) Run(ctxBackground context.Context) {
	ctx, stop := signal.NotifyContext(ctxBackground, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.ListenGracefulShutdown(ctx)
}

func (a *API) ListenGracefulShutdown(ctx context.Context) {
	go func() {
		err := a.server.Start(a.server.Server.Addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()
	a.log.Infof("Listening on: %s", a.server.Server.Addr)

	<-ctx.Done()
	a.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Errorf("shutdown: %v", err)
	}

	done := make(chan struct{})
	go func() {
		for _, cleanup := range a.cleanupFuncs {
			cleanup()
		}
		close(done)
	}()

	select {
	case <-done:
		a.log.Info("server shutdown completed")
	case <-time.After(a.gracefulTimeout):
		a.log.Warn("cleanup did not finish within the graceful timeout")
	}
}
