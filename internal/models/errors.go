package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error categories. Every specific error below wraps exactly one of them,
// so callers can branch with errors.Is on the category alone.
var (
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrAuthorization  = errors.New("forbidden")
	ErrAuthentication = errors.New("authentication required")
	ErrTransport      = errors.New("transport error")
	ErrNotFound       = errors.New("resource not found")
)

// User & authentication errors
var (
	ErrUserNotFound         = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrUsernameTaken        = fmt.Errorf("%w: a user with that username already exists", ErrConflict)
	ErrEmailTaken           = fmt.Errorf("%w: a user with that email already exists", ErrConflict)
	ErrPasswordMismatch     = fmt.Errorf("%w: the two password fields didn't match", ErrValidation)
	ErrWeakPassword         = fmt.Errorf("%w: password is too weak", ErrValidation)
	ErrInvalidCredentials   = fmt.Errorf("%w: invalid username or password", ErrAuthentication)
	ErrInactiveAccount      = fmt.Errorf("%w: this account is inactive", ErrAuthentication)
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	ErrForbidden            = fmt.Errorf("%w: insufficient privileges", ErrAuthorization)
	ErrAuthRequired         = fmt.Errorf("%w: login required", ErrAuthentication)
)

// Token errors
var (
	ErrTokenInvalid      = fmt.Errorf("%w: token is invalid", ErrAuthentication)
	ErrTokenMalformed    = fmt.Errorf("%w: token is malformed", ErrAuthentication)
	ErrTokenExpired      = fmt.Errorf("%w: token has expired", ErrAuthentication)
	ErrTokenNotFound     = fmt.Errorf("%w: token not found in storage", ErrAuthentication)
	ErrResetTokenInvalid = fmt.Errorf("%w: password reset link is invalid or has expired", ErrValidation)
)

// Content errors
var (
	ErrPostNotFound    = fmt.Errorf("%w: post not found", ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("%w: comment not found", ErrNotFound)
	ErrDuplicateTitle  = fmt.Errorf("%w: post with this title already exists", ErrConflict)
	ErrContentTooLong  = fmt.Errorf("%w: content is too long", ErrValidation)
	ErrEmptyContent    = fmt.Errorf("%w: content must not be empty", ErrValidation)
)

// Transport errors
var (
	ErrMailDelivery = fmt.Errorf("%w: mail delivery failed", ErrTransport)
)

// FieldErrors maps a form field to the problems found with it.
type FieldErrors map[string][]string

// Add records a problem for a field.
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Has reports whether the field has recorded problems.
func (fe FieldErrors) Has(field string) bool {
	return len(fe[field]) > 0
}

// Err returns nil when nothing was recorded.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(fe[f], "; "))
	}
	return "validation error: " + strings.Join(parts, ", ")
}

// Unwrap lets errors.Is(fieldErrs, ErrValidation) succeed.
func (fe FieldErrors) Unwrap() error {
	return ErrValidation
}
