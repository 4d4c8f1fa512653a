package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Donatronix/identity-center-ms-sub001/internal/application/kyc"
	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
	"github.com/Donatronix/identity-center-ms-sub001/internal/infrastructure/identify"
	"github.com/go-chi/chi/v5"
)

// webhookKinds are the vendor callback categories we accept.
var webhookKinds = map[string]bool{
	"events":    true,
	"decisions": true,
	"sanctions": true,
}

// UserDirectory is the bulk-lookup surface for the identities callback.
type UserDirectory interface {
	GetByIDs(ctx context.Context, userIDs []string) ([]domain.User, error)
}

// WebhookHandler handles callbacks from the identity-verification vendor.
type WebhookHandler struct {
	svc       kyc.Service
	users     UserDirectory
	publicKey string
}

func NewWebhookHandler(svc kyc.Service, users UserDirectory, publicKey string) *WebhookHandler {
	return &WebhookHandler{svc: svc, users: users, publicKey: publicKey}
}

// Identify ingests a signed vendor webhook. The signature covers the exact
// raw body bytes, so the body must not be re-marshalled before verification.
func (h *WebhookHandler) Identify(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "type")
	if !webhookKinds[kind] {
		writeError(w, http.StatusNotFound, "Not found", "unknown webhook type")
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad request", "unreadable body")
		return
	}

	_, err = h.svc.HandleWebhook(r.Context(), kyc.Webhook{
		Kind:       kind,
		AuthClient: r.Header.Get(identify.HeaderAuthClient),
		Signature:  r.Header.Get(identify.HeaderSignature),
		Payload:    payload,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// identitiesRequest accepts either a single id or a list of ids.
type identitiesRequest struct {
	ID idList `json:"id"`
}

type idList []string

func (l *idList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = idList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// Identities is the vendor-facing bulk user lookup, guarded by the shared
// auth-client key rather than a bearer token.
func (h *WebhookHandler) Identities(w http.ResponseWriter, r *http.Request) {
	authClient := r.Header.Get(identify.HeaderAuthClient)
	if subtle.ConstantTimeCompare([]byte(authClient), []byte(h.publicKey)) != 1 {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "callback authentication failed")
		return
	}

	var req identitiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request", "invalid request body")
		return
	}
	if len(req.ID) == 0 {
		writeError(w, http.StatusBadRequest, "Bad request", "id is required")
		return
	}

	users, err := h.users.GetByIDs(r.Context(), req.ID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Type: "success", Data: users})
}
