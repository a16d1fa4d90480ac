package model

import "errors"

// Sentinel errors shared by the stores, services and handlers. Storage and
// delivery failures are wrapped so callers can use errors.Is.
var (
	ErrConflict             = errors.New("username or email already exists")
	ErrNotFound             = errors.New("not found")
	ErrInvalidCredential    = errors.New("invalid credentials")
	ErrVerificationRequired = errors.New("email verification required")
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrDeliveryUnavailable  = errors.New("email delivery unavailable")
)
