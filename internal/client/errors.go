package client

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	CodeAccessTokenInvalid = "ACCESS_TOKEN_INVALID"
	CodeNotLoggedIn        = "NOT_LOGGED_IN"
)

// APIError is an {"status":"error"} response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// ValidationError is a {"status":"fail"} response: field name to messages.
type ValidationError struct {
	Status int
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

// TransportError means the request did not produce a readable envelope.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HasCode reports whether err is an *APIError carrying code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
