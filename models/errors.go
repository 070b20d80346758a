package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error so callers and the HTTP layer can
// distinguish rejection reasons without string matching.
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindConflict           ErrorKind = "conflict"
	KindInvalidTransition  ErrorKind = "invalid_transition"
	KindAuthorization      ErrorKind = "authorization"
	KindExternalDependency ErrorKind = "external_dependency"
	KindExpired            ErrorKind = "expired"
	KindNotFound           ErrorKind = "not_found"
)

// DomainError is the error family for all guard and validation failures in
// the reservation core. Side-effect failures are logged and retried, never
// wrapped into transition results.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

func NewValidationError(format string, args ...any) error {
	return &DomainError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(assetID string) error {
	return &DomainError{Kind: KindConflict, Message: fmt.Sprintf("asset %s is already reserved for the requested window", assetID)}
}

func NewInvalidTransitionError(reservationID, from, to string) error {
	return &DomainError{Kind: KindInvalidTransition, Message: fmt.Sprintf("reservation %s cannot move from %s to %s", reservationID, from, to)}
}

func NewAuthorizationError(actorID, action string) error {
	return &DomainError{Kind: KindAuthorization, Message: fmt.Sprintf("actor %s is not allowed to %s", actorID, action)}
}

func NewExternalDependencyError(dep string, err error) error {
	return &DomainError{Kind: KindExternalDependency, Message: dep + " unavailable", Err: err}
}

func NewExpiredError(reservationID string) error {
	return &DomainError{Kind: KindExpired, Message: fmt.Sprintf("reservation %s payment window has elapsed", reservationID)}
}

func NewNotFoundError(reservationID string) error {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf("reservation %s not found", reservationID)}
}

// KindOf extracts the error kind, or an empty kind for non-domain errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func IsValidation(err error) bool        { return KindOf(err) == KindValidation }
func IsConflict(err error) bool          { return KindOf(err) == KindConflict }
func IsInvalidTransition(err error) bool { return KindOf(err) == KindInvalidTransition }
func IsAuthorization(err error) bool     { return KindOf(err) == KindAuthorization }
func IsExpired(err error) bool           { return KindOf(err) == KindExpired }
func IsNotFound(err error) bool          { return KindOf(err) == KindNotFound }
