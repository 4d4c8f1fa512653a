package handler

import (
	"errors"
	"net/http"

	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
)

// httpError maps a domain error onto an HTTP status and the response
// envelope. Infrastructure detail never leaks; the one exception is
// VendorError, whose body is the vendor's own error response.
func httpError(w http.ResponseWriter, err error) {
	var ve *domain.VendorError
	if errors.As(err, &ve) {
		writeError(w, ve.StatusCode, "Verification failed", ve.Body)
		return
	}

	switch {
	case errors.Is(err, domain.ErrUserBanned):
		writeError(w, http.StatusForbidden, "Forbidden", "user is banned")
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden", "operation not permitted")
	case errors.Is(err, domain.ErrInvalidSession):
		writeError(w, http.StatusBadRequest, "Invalid session", "verification session is invalid or expired")
	case errors.Is(err, domain.ErrUsernameTaken):
		writeError(w, http.StatusBadRequest, "Username taken", "username is already in use")
	case errors.Is(err, domain.ErrUnauthenticatedCallback),
		errors.Is(err, domain.ErrMissingSignature),
		errors.Is(err, domain.ErrInvalidSignature):
		writeError(w, http.StatusUnauthorized, "Unauthorized", "callback authentication failed")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", "resource not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "Conflict", "resource already exists")
	case errors.Is(err, domain.ErrTooManyOTP):
		writeError(w, http.StatusTooManyRequests, "Too many requests", "code request limit reached, retry later")
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrMalformedPayload):
		writeError(w, http.StatusBadRequest, "Bad request", err.Error())
	case errors.Is(err, domain.ErrExternalGateway), errors.Is(err, domain.ErrTokenIssuance):
		writeError(w, http.StatusBadGateway, "Upstream failure", "a downstream dependency failed, retry later")
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", "unexpected error")
	}
}
