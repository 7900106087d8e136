package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")

	ErrDuplicateIdentity = errors.New("duplicate identity")
	ErrDuplicateEmail    = fmt.Errorf("%w: email already registered", ErrDuplicateIdentity)
	ErrDuplicateUsername = fmt.Errorf("%w: username already taken", ErrDuplicateIdentity)

	ErrAuthFailure         = errors.New("incorrect email or password")
	ErrInactiveAccount     = errors.New("inactive user account")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrUnauthenticated     = errors.New("could not validate credentials")

	ErrGeneratorUnavailable = errors.New("text generation is not configured")
	ErrGeneratorFailed      = errors.New("text generation failed")
	ErrSearchDisabled       = errors.New("search is not configured")
	ErrFeedNotConfigured    = errors.New("player feed is not configured")

	ErrNotCSV  = errors.New("file must be a CSV")
	ErrNotUTF8 = errors.New("file must be UTF-8 encoded")
)

// ValidationError carries per-field reasons. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
