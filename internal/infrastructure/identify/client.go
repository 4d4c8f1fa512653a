package identify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Donatronix/identity-center-ms-sub001/internal/config"
	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
)

// Header names shared between outbound vendor calls and inbound webhooks.
const (
	HeaderAuthClient = "x-auth-client"
	HeaderSignature  = "x-hmac-signature"
)

// SessionRequest describes one verification session to open with the vendor.
// VendorData carries the internal user id so the webhook can be correlated
// back to a user when the vendor echoes it.
type SessionRequest struct {
	FirstName    string
	LastName     string
	DocumentType string
	VendorData   string
}

// SessionResponse is the vendor's reply to a session start.
type SessionResponse struct {
	SessionID    string
	URL          string
	SessionToken string
}

// Client talks to the KYC vendor's station API. All calls are blocking with
// the configured timeout; a timeout surfaces as ErrExternalGateway while a
// vendor-reported client error surfaces as *domain.VendorError with the raw
// response body.
type Client struct {
	http      *http.Client
	baseURL   string
	publicKey string
	signer    *Signer
	callback  string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:      &http.Client{Timeout: cfg.IdentifyTimeout},
		baseURL:   cfg.IdentifyBaseURL,
		publicKey: cfg.IdentifyPublicKey,
		signer:    NewSigner(cfg.IdentifyPrivateKey),
		callback:  cfg.IdentifyCallback,
	}
}

// Signer exposes the webhook signature verifier sharing this client's keys.
func (c *Client) Signer() *Signer { return c.signer }

type sessionPayload struct {
	Verification struct {
		Callback string `json:"callback,omitempty"`
		Person   struct {
			FirstName string `json:"firstName,omitempty"`
			LastName  string `json:"lastName,omitempty"`
		} `json:"person"`
		Document struct {
			Type string `json:"type"`
		} `json:"document"`
		VendorData string `json:"vendorData"`
		Timestamp  string `json:"timestamp"`
	} `json:"verification"`
}

type sessionReply struct {
	Status       string `json:"status"`
	Verification struct {
		ID           string `json:"id"`
		URL          string `json:"url"`
		SessionToken string `json:"sessionToken"`
	} `json:"verification"`
}

// StartSession opens a verification session with the vendor.
func (c *Client) StartSession(ctx context.Context, req SessionRequest) (*SessionResponse, error) {
	var payload sessionPayload
	payload.Verification.Callback = c.callback
	payload.Verification.Person.FirstName = req.FirstName
	payload.Verification.Person.LastName = req.LastName
	payload.Verification.Document.Type = req.DocumentType
	payload.Verification.VendorData = req.VendorData
	payload.Verification.Timestamp = time.Now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(HeaderAuthClient, c.publicKey)
	httpReq.Header.Set(HeaderSignature, c.signer.Sign(body))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("vendor call timed out: %w", domain.ErrExternalGateway)
		}
		return nil, fmt.Errorf("vendor call failed: %v: %w", err, domain.ErrExternalGateway)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read vendor response: %v: %w", err, domain.ErrExternalGateway)
	}

	if resp.StatusCode >= 400 {
		return nil, &domain.VendorError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var reply sessionReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("decode vendor response: %v: %w", err, domain.ErrExternalGateway)
	}
	return &SessionResponse{
		SessionID:    reply.Verification.ID,
		URL:          reply.Verification.URL,
		SessionToken: reply.Verification.SessionToken,
	}, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
