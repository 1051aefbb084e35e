package service

import (
	"net/http"

	"github.com/rryowa/nexus/internal/util"
)

// Errors reported to API callers. Each collapse group (bad signature vs expiry,
// bad token vs deleted account) maps to one code on purpose.
var (
	ErrNotLoggedIn          = util.NewResponseError(http.StatusUnauthorized, "NOT_LOGGED_IN", "You are not logged in")
	ErrAccessTokenInvalid   = util.NewResponseError(http.StatusUnauthorized, "ACCESS_TOKEN_INVALID", "Access token is invalid or has expired")
	ErrRefreshTokenMissing  = util.NewResponseError(http.StatusUnauthorized, "REFRESH_TOKEN_MISSING", "Refresh token is missing")
	ErrRefreshTokenInvalid  = util.NewResponseError(http.StatusUnauthorized, "REFRESH_TOKEN_INVALID", "Refresh token is invalid")
	ErrRefreshTokenExpired  = util.NewResponseError(http.StatusUnauthorized, "REFRESH_TOKEN_EXPIRED", "Refresh token has expired")
	ErrUserForTokenNotFound = util.NewResponseError(http.StatusUnauthorized, "USER_FOR_TOKEN_NOT_FOUND", "User for token not found")
	ErrIncorrectCredentials = util.NewResponseError(http.StatusUnauthorized, "INCORRECT_CREDENTIALS", "Incorrect email or password")
	ErrNotAuthorized        = util.NewResponseError(http.StatusForbidden, "NOT_AUTHORIZED", "You are not allowed to perform this action")
	ErrNotFound             = util.NewResponseError(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrEmailTaken           = util.NewResponseError(http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists")
	ErrUsernameTaken        = util.NewResponseError(http.StatusConflict, "USERNAME_TAKEN", "This username is already taken")
	ErrBadRequest           = util.NewResponseError(http.StatusBadRequest, "BAD_REQUEST", "Malformed request")
	ErrTooManyRequests      = util.NewResponseError(http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many requests, please try again later")
	ErrInternal             = util.NewResponseError(http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong, please try again")
)
