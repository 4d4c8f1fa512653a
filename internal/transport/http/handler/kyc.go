package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Donatronix/identity-center-ms-sub001/internal/application/kyc"
	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
	"github.com/Donatronix/identity-center-ms-sub001/internal/pkg/validate"
	"github.com/Donatronix/identity-center-ms-sub001/internal/transport/http/middleware"
)

// KYCHandler opens vendor verification sessions for authenticated users.
type KYCHandler struct {
	svc kyc.Service
}

func NewKYCHandler(svc kyc.Service) *KYCHandler { return &KYCHandler{svc: svc} }

func (h *KYCHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "missing credentials")
		return
	}

	var req domain.StartIdentifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request", err.Error())
		return
	}

	sess, err := h.svc.StartSession(r.Context(), claims.UserID, req.DocumentType)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IdentifyEnvelope{
		Type:         "success",
		URL:          sess.URL,
		SessionToken: sess.SessionToken,
	})
}
