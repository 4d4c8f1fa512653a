package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Donatronix/identity-center-ms-sub001/internal/application/registration"
	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
	"github.com/Donatronix/identity-center-ms-sub001/internal/pkg/validate"
)

// AuthHandler handles the phone-registration and login endpoints.
type AuthHandler struct {
	svc registration.Service
}

func NewAuthHandler(svc registration.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// SendPhone accepts a phone number and drives the first step of the
// registration state machine. A fresh user gets 201 and a session id;
// a known user is reported without side effects.
func (h *AuthHandler) SendPhone(w http.ResponseWriter, r *http.Request) {
	var req domain.SendPhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request", err.Error())
		return
	}

	res, err := h.svc.RequestRegistration(r.Context(), req.Phone)
	if err != nil {
		httpError(w, err)
		return
	}

	switch res.Status {
	case registration.StatusCreated:
		writeJSON(w, http.StatusCreated, Envelope{
			Type:    "success",
			Message: "verification code sent",
			Sid:     res.Sid,
		})
	case registration.StatusPendingVerification:
		writeJSON(w, http.StatusOK, Envelope{
			Type:    "warning",
			Message: "phone is awaiting verification",
		})
	default: // already_registered
		writeJSON(w, http.StatusOK, Envelope{
			Type:    "warning",
			Message: "phone is already registered",
		})
	}
}

// SendSMS re-dispatches a one-time code to an existing user.
func (h *AuthHandler) SendSMS(w http.ResponseWriter, r *http.Request) {
	var req domain.SendPhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request", err.Error())
		return
	}

	res, err := h.svc.RequestOTP(r.Context(), req.Phone)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{
		Type:    "success",
		Message: "verification code sent",
		Sid:     res.Sid,
	})
}

// SendCode submits a username against an open verification session.
// For an inactive user this claims the username; for an active user
// it is a login check. Both return a token pair.
func (h *AuthHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req domain.SendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request", err.Error())
		return
	}

	res, err := h.svc.SubmitUsername(r.Context(), req.Sid, req.Username)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Type:         "success",
		Token:        res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         res.User,
	})
}

// RefreshToken exchanges a refresh token for a fresh pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request", err.Error())
		return
	}

	res, err := h.svc.Refresh(r.Context(), req.Token)
	if err != nil {
		// An unknown or expired refresh token is a client error here,
		// not a forbidden operation.
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusBadRequest, "Bad request", "invalid refresh token")
			return
		}
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Type:         "success",
		Token:        res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}
