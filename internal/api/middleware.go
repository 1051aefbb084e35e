package api

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/service"
)

const bearerPrefix = "Bearer "

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.Principal, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// AuthMiddleware resolves the bearer access token to a principal and stores it
// under models.MwPrincipalKey.
func AuthMiddleware(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, bearerPrefix) {
				return service.ErrNotLoggedIn
			}
			token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
			if token == "" {
				return service.ErrNotLoggedIn
			}

			principal, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(models.MwPrincipalKey, principal)
			return next(c)
		}
	}
}

// Authorize admits only principals holding one of roles. A request without a
// principal is refused the same way as one with the wrong role.
func Authorize(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := c.Get(models.MwPrincipalKey).(*models.Principal)
			if !ok || p == nil {
				return service.ErrNotAuthorized
			}
			for _, r := range roles {
				if p.Role == r {
					return next(c)
				}
			}
			return service.ErrNotAuthorized
		}
	}
}

// RateLimitMiddleware counts requests per client IP and route. Limiter failures
// let the request through.
func RateLimitMiddleware(limiter RateLimiter, log *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP() + ":" + c.Path()
			allowed, retryAfter, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				log.Warnw("rate limiter unavailable", "key", key, "error", err)
				return next(c)
			}
			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return service.ErrTooManyRequests
			}
			return next(c)
		}
	}
}

func GetLoggerMiddlewareConfig(log *zap.SugaredLogger) echomiddleware.RequestLoggerConfig {
	return echomiddleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogError:    true,
		LogLatency:  true,
		LogRemoteIP: true,
		HandleError: true,

		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"ip", v.RemoteIP,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			if v.Status >= http.StatusInternalServerError {
				log.Errorw("Request", fields...)
			} else {
				log.Infow("Request", fields...)
			}
			return nil
		},
	}
}
