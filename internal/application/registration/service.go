package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
	"github.com/Donatronix/identity-center-ms-sub001/internal/infrastructure/oauth"
	"github.com/Donatronix/identity-center-ms-sub001/internal/pkg/id"
	"github.com/Donatronix/identity-center-ms-sub001/internal/pkg/phone"
)

// Registration outcome statuses surfaced to the transport layer.
const (
	StatusCreated             = "created"
	StatusPendingVerification = "pending_verification"
	StatusAlreadyRegistered   = "already_registered"
	StatusOTPSent             = "otp_sent"
)

// Result is the outcome of a phone-submission step.
type Result struct {
	Status string
	Sid    string
}

// AuthResult is the outcome of a successful claim, login or refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

// UserStore is the user directory the state machine drives.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	HardDelete(ctx context.Context, userID string) error
}

// SessionStore issues and consumes one-time verification sessions.
type SessionStore interface {
	Create(ctx context.Context, userID, purpose string) (*domain.VerificationSession, error)
	Resolve(ctx context.Context, sid string) (*domain.VerificationSession, error)
	Consume(ctx context.Context, sid string) error
	Invalidate(ctx context.Context, sid string) error
}

// Notifier dispatches one-time codes out of band.
type Notifier interface {
	SendSMS(ctx context.Context, to, message string) error
}

// TokenIssuer mints and refreshes access tokens for verified users.
type TokenIssuer interface {
	Issue(ctx context.Context, u *domain.User) (*oauth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth.TokenPair, error)
}

// DispatchGuard throttles outbound code dispatches per phone.
type DispatchGuard interface {
	AllowDispatch(ctx context.Context, phone string) error
	Release(ctx context.Context, phone string)
}

type Service interface {
	RequestRegistration(ctx context.Context, rawPhone string) (*Result, error)
	RequestOTP(ctx context.Context, rawPhone string) (*Result, error)
	SubmitUsername(ctx context.Context, sid, username string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
}

type service struct {
	users    UserStore
	sessions SessionStore
	notifier Notifier
	issuer   TokenIssuer
	guard    DispatchGuard
}

func NewService(users UserStore, sessions SessionStore, notifier Notifier, issuer TokenIssuer, guard DispatchGuard) Service {
	return &service{users: users, sessions: sessions, notifier: notifier, issuer: issuer, guard: guard}
}

// RequestRegistration drives the first step of the state machine: a phone is
// claimed and an OTP dispatched. Re-submitting the phone of a still-inactive
// user reports pending without re-issuing a code; RequestOTP exists for
// explicit re-dispatch.
func (s *service) RequestRegistration(ctx context.Context, rawPhone string) (*Result, error) {
	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByPhone(ctx, normalized)
	switch {
	case err == nil:
		switch u.Status {
		case domain.StatusBanned:
			return nil, fmt.Errorf("phone %s: %w", normalized, domain.ErrUserBanned)
		case domain.StatusActive:
			return &Result{Status: StatusAlreadyRegistered}, nil
		default:
			return &Result{Status: StatusPendingVerification}, nil
		}
	case errors.Is(err, domain.ErrNotFound):
		// fallthrough to creation
	default:
		return nil, err
	}

	if err := s.guard.AllowDispatch(ctx, normalized); err != nil {
		return nil, err
	}

	u = newInactiveUser(normalized)
	if err := s.users.Create(ctx, u); err != nil {
		s.guard.Release(ctx, normalized)
		return nil, err
	}

	sid, err := s.issueAndDispatch(ctx, u, domain.PurposeRegistration)
	if err != nil {
		// All-or-nothing: a failed dispatch unwinds the freshly created user.
		if delErr := s.users.HardDelete(ctx, u.UserID); delErr != nil {
			slog.Error("failed to unwind user after dispatch failure", "user_id", u.UserID, "err", delErr)
		}
		s.guard.Release(ctx, normalized)
		return nil, err
	}
	return &Result{Status: StatusCreated, Sid: sid}, nil
}

// RequestOTP re-dispatches a fresh code to an existing user, invalidating any
// prior unconsumed session for the purpose.
func (s *service) RequestOTP(ctx context.Context, rawPhone string) (*Result, error) {
	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByPhone(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if u.Status == domain.StatusBanned {
		return nil, fmt.Errorf("phone %s: %w", normalized, domain.ErrUserBanned)
	}

	if err := s.guard.AllowDispatch(ctx, normalized); err != nil {
		return nil, err
	}

	purpose := domain.PurposeRegistration
	if u.Status == domain.StatusActive {
		purpose = domain.PurposeLogin
	}
	sid, err := s.issueAndDispatch(ctx, u, purpose)
	if err != nil {
		s.guard.Release(ctx, normalized)
		return nil, err
	}
	return &Result{Status: StatusOTPSent, Sid: sid}, nil
}

// SubmitUsername completes registration for an inactive user or authenticates
// an active one. The claim commit precedes token issuance and survives a
// transient issuance failure.
func (s *service) SubmitUsername(ctx context.Context, sid, username string) (*AuthResult, error) {
	sess, err := s.sessions.Resolve(ctx, sid)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	switch u.Status {
	case domain.StatusBanned:
		return nil, fmt.Errorf("user %s: %w", u.UserID, domain.ErrUserBanned)

	case domain.StatusActive:
		if !strings.EqualFold(u.Username, username) {
			// Possible credential stuffing: a valid sid paired with the
			// wrong username for its owner.
			slog.Warn("username mismatch on login attempt", "user_id", u.UserID, "sid", sid)
			return nil, fmt.Errorf("username does not match session owner: %w", domain.ErrUnauthorized)
		}
		if err := s.sessions.Consume(ctx, sid); err != nil {
			return nil, err
		}
		return s.issueTokens(ctx, u)

	default: // inactive: username claim
		if taken, err := s.usernameTaken(ctx, username, u.UserID); err != nil {
			return nil, err
		} else if taken {
			return nil, fmt.Errorf("username %q: %w", username, domain.ErrUsernameTaken)
		}
		// Consume before the claim: the CAS on the session is what stops two
		// concurrent submissions from both claiming. The cost is that a failed
		// claim update below burns the code, and recovery is a fresh send-sms;
		// consuming after the update would instead let a raced sid claim twice.
		if err := s.sessions.Consume(ctx, sid); err != nil {
			return nil, err
		}
		if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
			"username": username,
			"status":   domain.StatusActive,
		}); err != nil {
			return nil, err
		}
		u.Username = username
		u.Status = domain.StatusActive
		return s.issueTokens(ctx, u)
	}
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	pair, err := s.issuer.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *service) issueAndDispatch(ctx context.Context, u *domain.User, purpose string) (string, error) {
	sess, err := s.sessions.Create(ctx, u.UserID, purpose)
	if err != nil {
		return "", err
	}
	msg := "Your verification code: " + sess.Code
	if err := s.notifier.SendSMS(ctx, u.Phone, msg); err != nil {
		if invErr := s.sessions.Invalidate(ctx, sess.Sid); invErr != nil {
			slog.Error("failed to invalidate session after dispatch failure", "sid", sess.Sid, "err", invErr)
		}
		return "", fmt.Errorf("dispatch code: %v: %w", err, domain.ErrExternalGateway)
	}
	return sess.Sid, nil
}

func (s *service) issueTokens(ctx context.Context, u *domain.User) (*AuthResult, error) {
	pair, err := s.issuer.Issue(ctx, u)
	if err != nil {
		if errors.Is(err, domain.ErrTokenIssuance) {
			return nil, err
		}
		return nil, fmt.Errorf("%v: %w", err, domain.ErrTokenIssuance)
	}
	return &AuthResult{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, User: u}, nil
}

func (s *service) usernameTaken(ctx context.Context, username, selfID string) (bool, error) {
	existing, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing.UserID != selfID, nil
}

func newInactiveUser(normalizedPhone string) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		UserID:    id.New(),
		Phone:     normalizedPhone,
		Status:    domain.StatusInactive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
