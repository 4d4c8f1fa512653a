package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
	"github.com/Donatronix/identity-center-ms-sub001/internal/pkg/id"
)

// maxCodeAttempts bounds regeneration when a generated code collides with a
// currently-unconsumed one.
const maxCodeAttempts = 5

// Repo is the persistence the store needs. The DynamoDB implementation backs
// MarkConsumed with a conditional update so the consumed flip is a CAS.
type Repo interface {
	Put(ctx context.Context, v *domain.VerificationSession) error
	Get(ctx context.Context, sid string) (*domain.VerificationSession, error)
	GetActiveByUser(ctx context.Context, userID, purpose string) (*domain.VerificationSession, error)
	CodeInUse(ctx context.Context, code string) (bool, error)
	MarkConsumed(ctx context.Context, sid string) error
	Delete(ctx context.Context, sid string) error
}

// Store manages short-lived one-time codes correlated to a user.
type Store struct {
	repo    Repo
	ttl     time.Duration
	codeLen int
}

func NewStore(repo Repo, ttl time.Duration, codeLen int) *Store {
	return &Store{repo: repo, ttl: ttl, codeLen: codeLen}
}

// Create issues a fresh session for (user, purpose). Any prior unconsumed
// session for the pair is invalidated first, so at most one code is live per
// user and purpose at any time.
func (s *Store) Create(ctx context.Context, userID, purpose string) (*domain.VerificationSession, error) {
	if prior, err := s.repo.GetActiveByUser(ctx, userID, purpose); err == nil {
		if err := s.repo.Delete(ctx, prior.Sid); err != nil {
			return nil, fmt.Errorf("invalidate prior session: %w", err)
		}
		slog.Debug("invalidated prior verification session", "user_id", userID, "purpose", purpose)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	v := &domain.VerificationSession{
		Sid:       id.New(),
		Code:      code,
		UserID:    userID,
		Purpose:   purpose,
		Consumed:  false,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	if err := s.repo.Put(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Resolve returns the live session for sid. Not-found, expired and consumed
// are indistinguishable to the caller: all fail with ErrInvalidSession.
func (s *Store) Resolve(ctx context.Context, sid string) (*domain.VerificationSession, error) {
	v, err := s.repo.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("sid %s: %w", sid, domain.ErrInvalidSession)
		}
		return nil, err
	}
	if v.Consumed || v.ExpiresAt < time.Now().Unix() {
		return nil, fmt.Errorf("sid %s: %w", sid, domain.ErrInvalidSession)
	}
	return v, nil
}

// Consume marks the session used exactly once. When two callers race, the
// conditional update in the repo lets only the first through; the loser gets
// ErrInvalidSession.
func (s *Store) Consume(ctx context.Context, sid string) error {
	return s.repo.MarkConsumed(ctx, sid)
}

// Invalidate discards a session outright, e.g. when the dispatch that created
// it could not be completed.
func (s *Store) Invalidate(ctx context.Context, sid string) error {
	return s.repo.Delete(ctx, sid)
}

// generateCode produces a uniform fixed-length digit code, retrying when the
// value collides with another unconsumed session.
func (s *Store) generateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomDigits(s.codeLen)
		if err != nil {
			return "", err
		}
		inUse, err := s.repo.CodeInUse(ctx, code)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique code after %d attempts", maxCodeAttempts)
}

func randomDigits(n int) (string, error) {
	const digits = "0123456789"
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		b[i] = digits[idx.Int64()]
	}
	return string(b), nil
}
