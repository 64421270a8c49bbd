// Package common defines shared constants and sentinel errors used across
// the orgkeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Write rejected because a model invariant does not hold.
	ErrorValidation = errors.New("validation failed")

	// Storage-level constraint errors that could not be reported as validation.
	ErrorConstraint = errors.New("constraint violation")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Credential token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Polymorphic reference points at a type this build does not know.
	ErrUnknownAuditableType = errors.New("unknown auditable type")
)
