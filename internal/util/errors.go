package util

import (
	"fmt"
	"sort"
)

// ResponseError is an error that carries the HTTP status and the stable code
// reported to API callers. Two ResponseErrors match under errors.Is when their
// codes are equal, so a sentinel still matches after WithCause.
type ResponseError struct {
	Status int
	Code   string
	Msg    string
	cause  error
}

func (e *ResponseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

func (e *ResponseError) Unwrap() error { return e.cause }

func (e *ResponseError) Is(target error) bool {
	t, ok := target.(*ResponseError)
	return ok && t.Code == e.Code
}

// WithCause returns a copy of e that keeps err for logging only.
// The cause is never written to a response.
func (e *ResponseError) WithCause(err error) *ResponseError {
	c := *e
	c.cause = err
	return &c
}

func NewResponseError(status int, code, format string, args ...interface{}) *ResponseError {
	return &ResponseError{
		Status: status,
		Code:   code,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// ValidationError maps request fields to the messages describing what is wrong with them.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("validation failed: %v", keys)
}
