package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileAlreadyExists = errors.New("profile already exists")
	ErrSwipeNotFound        = errors.New("swipe not found")
	ErrAlreadyMatched       = errors.New("user is already matched")
	ErrNotMatched           = errors.New("user is not matched")
	ErrCannotSwipeSelf      = &ValidationError{Subject: "invalid swipe", Problems: []string{"cannot swipe on your own profile"}}
	ErrInvalidToken         = errors.New("invalid token")
)

// ValidationError carries user-correctable problems that are safe to show verbatim.
// Subject names what was rejected.
type ValidationError struct {
	Subject  string
	Problems []string
}

func NewValidationError(subject string, problems ...string) *ValidationError {
	return &ValidationError{Subject: subject, Problems: problems}
}

func (e *ValidationError) Error() string {
	subject := e.Subject
	if subject == "" {
		subject = "validation failed"
	}
	return subject + ": " + strings.Join(e.Problems, "; ")
}

// TransientStoreError wraps a storage failure that may succeed when retried.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("transient store error during %s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

// ConsistencyViolation reports a broken invariant found in stored state.
// It is never retried and the surrounding transaction is rolled back.
type ConsistencyViolation struct {
	GuildID string
	UserID  string
	Detail  string
}

func (e *ConsistencyViolation) Error() string {
	return fmt.Sprintf("consistency violation in guild %s for user %s: %s", e.GuildID, e.UserID, e.Detail)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsTransient(err error) bool {
	var t *TransientStoreError
	return errors.As(err, &t)
}

func IsConsistencyViolation(err error) bool {
	var c *ConsistencyViolation
	return errors.As(err, &c)
}
