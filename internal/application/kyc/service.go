package kyc

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
	"github.com/Donatronix/identity-center-ms-sub001/internal/infrastructure/identify"
	"github.com/google/uuid"
)

// Webhook is one inbound vendor callback, transport-neutral: the handler
// extracts the headers and hands over the exact raw body bytes.
type Webhook struct {
	Kind       string // events | decisions | sanctions
	AuthClient string // x-auth-client header
	Signature  string // x-hmac-signature header
	Payload    []byte
}

// Outcome reports what a webhook delivery did.
type Outcome struct {
	Type   string `json:"type"`
	UserID string `json:"user_id,omitempty"`
}

// UserStore is the slice of the user directory the reconciler mutates.
type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// SessionLog is the append-only identification audit store. Insert fails with
// ErrConflict when the vendor session id was already ingested.
type SessionLog interface {
	Insert(ctx context.Context, s *domain.IdentificationSession) error
	Get(ctx context.Context, sessionID string) (*domain.IdentificationSession, error)
}

// Vendor starts verification sessions with the external provider.
type Vendor interface {
	StartSession(ctx context.Context, req identify.SessionRequest) (*identify.SessionResponse, error)
}

// SignatureVerifier checks a webhook payload against its signature header.
type SignatureVerifier interface {
	Verify(payload []byte, signature string) error
}

type Service interface {
	HandleWebhook(ctx context.Context, wh Webhook) (*Outcome, error)
	StartSession(ctx context.Context, userID, documentType string) (*identify.SessionResponse, error)
}

type service struct {
	users     UserStore
	log       SessionLog
	vendor    Vendor
	verifier  SignatureVerifier
	publicKey string
}

func NewService(users UserStore, log SessionLog, vendor Vendor, verifier SignatureVerifier, publicKey string) Service {
	return &service{users: users, log: log, vendor: vendor, verifier: verifier, publicKey: publicKey}
}

// webhookPayload covers both webhook shapes: decisions nest the session under
// "verification", progress events carry it at the top level.
type webhookPayload struct {
	ID           string `json:"id"`
	Action       string `json:"action"`
	VendorData   string `json:"vendorData"`
	Verification *struct {
		ID         string `json:"id"`
		Code       int    `json:"code"`
		Status     string `json:"status"`
		VendorData string `json:"vendorData"`
	} `json:"verification"`
}

// HandleWebhook authenticates, validates and ingests one vendor callback,
// applying the kyc_verified flip at most once per vendor session.
func (s *service) HandleWebhook(ctx context.Context, wh Webhook) (*Outcome, error) {
	if subtle.ConstantTimeCompare([]byte(wh.AuthClient), []byte(s.publicKey)) != 1 {
		return nil, fmt.Errorf("auth client header mismatch: %w", domain.ErrUnauthenticatedCallback)
	}
	if wh.Signature == "" {
		return nil, domain.ErrMissingSignature
	}
	if err := s.verifier.Verify(wh.Payload, wh.Signature); err != nil {
		return nil, err
	}

	sessionID, userID, status, err := parsePayload(wh.Payload)
	if err != nil {
		return nil, err
	}

	record := &domain.IdentificationSession{
		SessionID: sessionID,
		UserID:    userID,
		Kind:      wh.Kind,
		Status:    status,
		Payload:   string(wh.Payload),
		CreatedAt: time.Now().Unix(),
	}
	if err := s.log.Insert(ctx, record); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Replay: report what the first delivery did, change nothing.
			return s.replayOutcome(ctx, sessionID)
		}
		return nil, err
	}

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Vendor/internal drift: the audit row stays, the caller is told.
			slog.Error("webhook references unknown user", "session_id", sessionID, "user_id", userID)
			return nil, fmt.Errorf("webhook user %s: %w", userID, domain.ErrNotFound)
		}
		return nil, err
	}

	if wh.Kind == "decisions" && status == domain.IdentifyStatusApproved {
		if err := s.users.Update(ctx, u.UserID, map[string]interface{}{"kyc_verified": true}); err != nil {
			return nil, err
		}
		slog.Info("kyc verification applied", "user_id", u.UserID, "session_id", sessionID)
	}
	return &Outcome{Type: "success", UserID: u.UserID}, nil
}

// StartSession opens a vendor verification session for the user, embedding
// the internal user id as vendorData so the webhook can be correlated back.
func (s *service) StartSession(ctx context.Context, userID, documentType string) (*identify.SessionResponse, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Status == domain.StatusBanned {
		return nil, fmt.Errorf("user %s: %w", u.UserID, domain.ErrUserBanned)
	}
	return s.vendor.StartSession(ctx, identify.SessionRequest{
		FirstName:    u.DisplayName(),
		DocumentType: documentType,
		VendorData:   u.UserID,
	})
}

func (s *service) replayOutcome(ctx context.Context, sessionID string) (*Outcome, error) {
	prev, err := s.log.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// The first delivery may have failed between the audit insert and the
	// user update. The flip is one-way and idempotent, so an approved
	// decision re-applies it on redelivery when it is still missing.
	if prev.Kind == "decisions" && prev.Status == domain.IdentifyStatusApproved {
		u, err := s.users.Get(ctx, prev.UserID)
		if err != nil {
			return nil, err
		}
		if !u.KYCVerified {
			if err := s.users.Update(ctx, u.UserID, map[string]interface{}{"kyc_verified": true}); err != nil {
				return nil, err
			}
			slog.Info("kyc verification applied on redelivery", "user_id", u.UserID, "session_id", sessionID)
		}
	}
	return &Outcome{Type: "success", UserID: prev.UserID}, nil
}

func parsePayload(raw []byte) (sessionID, userID, status string, err error) {
	var p webhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", "", "", fmt.Errorf("decode payload: %v: %w", err, domain.ErrMalformedPayload)
	}

	sessionID, userID = p.ID, p.VendorData
	if p.Verification != nil {
		sessionID, userID, status = p.Verification.ID, p.Verification.VendorData, p.Verification.Status
	}
	if sessionID == "" || userID == "" {
		return "", "", "", fmt.Errorf("payload missing session id or vendorData: %w", domain.ErrMalformedPayload)
	}
	// Vendor session ids are UUIDs; anything else is not a payload we emitted
	// a session for.
	if _, err := uuid.Parse(sessionID); err != nil {
		return "", "", "", fmt.Errorf("session id %q is not a UUID: %w", sessionID, domain.ErrMalformedPayload)
	}
	return sessionID, userID, status, nil
}
