package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Registration and verification flow errors.
var (
	// ErrInvalidSession covers not-found, expired and already-consumed
	// sessions alike. Callers must not be able to tell them apart.
	ErrInvalidSession = errors.New("invalid verification session")
	ErrUserBanned     = errors.New("user is banned")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrTokenIssuance  = errors.New("token issuance failed")
	ErrTooManyOTP     = errors.New("too many code requests")
)

// Webhook callback errors.
var (
	ErrUnauthenticatedCallback = errors.New("unauthenticated callback")
	ErrMissingSignature        = errors.New("missing signature header")
	ErrInvalidSignature        = errors.New("invalid payload signature")
	ErrMalformedPayload        = errors.New("malformed vendor payload")
)

// ErrExternalGateway marks a failure (including timeout) of a downstream
// collaborator, as opposed to an error the collaborator itself reported.
var ErrExternalGateway = errors.New("external gateway failure")

// VendorError carries the KYC vendor's own error response verbatim.
// It is the one case where a downstream body is surfaced to the client.
type VendorError struct {
	StatusCode int
	Body       string
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("vendor error (status %d): %s", e.StatusCode, e.Body)
}
