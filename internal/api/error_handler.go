package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rryowa/nexus/internal/models"
	"github.com/rryowa/nexus/internal/service"
	"github.com/rryowa/nexus/internal/util"
)

// ErrorHandler writes every error as the response envelope. Causes attached to
// a util.ResponseError are logged and never sent to the client.
func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var verr *util.ValidationError
		if errors.As(err, &verr) {
			writeJSON(c, log, http.StatusUnprocessableEntity, models.FailResponse{
				Status: models.StatusFail,
				Data:   verr.Fields,
			})
			return
		}

		var rerr *util.ResponseError
		if errors.As(err, &rerr) {
			if rerr.Status >= http.StatusInternalServerError {
				log.Errorw("request failed", "error", err, "uri", c.Request().RequestURI)
			} else if errors.Unwrap(rerr) != nil {
				log.Debugw("request rejected", "code", rerr.Code, "error", err, "uri", c.Request().RequestURI)
			}
			writeError(c, log, rerr)
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			if he.Code >= http.StatusInternalServerError {
				log.Errorw("HTTP error", "error", err, "uri", c.Request().RequestURI)
				writeError(c, log, service.ErrInternal)
				return
			}
			writeError(c, log, fromHTTPError(he))
			return
		}

		log.Errorw("unhandled error", "error", err, "uri", c.Request().RequestURI)
		writeError(c, log, service.ErrInternal)
	}
}

func fromHTTPError(he *echo.HTTPError) *util.ResponseError {
	msg, ok := he.Message.(string)
	if !ok || msg == "" {
		msg = http.StatusText(he.Code)
	}

	switch he.Code {
	case http.StatusBadRequest:
		return util.NewResponseError(he.Code, service.ErrBadRequest.Code, "%s", msg)
	case http.StatusUnauthorized:
		return service.ErrNotLoggedIn
	case http.StatusForbidden:
		return service.ErrNotAuthorized
	case http.StatusNotFound:
		return service.ErrNotFound
	case http.StatusTooManyRequests:
		return service.ErrTooManyRequests
	case http.StatusMethodNotAllowed:
		return util.NewResponseError(he.Code, "METHOD_NOT_ALLOWED", "%s", msg)
	default:
		return util.NewResponseError(he.Code, "HTTP_ERROR", "%s", msg)
	}
}

func writeError(c echo.Context, log *zap.SugaredLogger, rerr *util.ResponseError) {
	writeJSON(c, log, rerr.Status, models.ErrorResponse{
		Status:  models.StatusError,
		Code:    rerr.Code,
		Message: rerr.Msg,
	})
}

func writeJSON(c echo.Context, log *zap.SugaredLogger, status int, body interface{}) {
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		log.Errorw("failed to write json response", "error", err)
	}
}
