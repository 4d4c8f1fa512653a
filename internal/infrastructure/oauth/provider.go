package oauth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Donatronix/identity-center-ms-sub001/internal/config"
	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
	"github.com/Donatronix/identity-center-ms-sub001/internal/pkg/id"
	pkgtoken "github.com/Donatronix/identity-center-ms-sub001/internal/pkg/token"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the JWT payload fields.
type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username,omitempty"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// TokenPair is one issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionStore is the persistence the provider needs for refresh grants.
type SessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
}

// UserStore resolves the session owner during a refresh grant.
type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// Provider signs RS256 access tokens and rotates opaque refresh tokens.
// It is the token-issuance collaborator for the registration flow.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	sessions   SessionStore
	users      UserStore
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewProvider(cfg *config.Config, sessions SessionStore, users UserStore) (*Provider, error) {
	privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return &Provider{
		privateKey: privKey,
		publicKey:  pubKey,
		sessions:   sessions,
		users:      users,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

// Issue creates a new session for the user and returns a signed token pair.
// A nil provider (signing keys absent at startup) refuses cleanly rather
// than panicking mid-flow.
func (p *Provider) Issue(ctx context.Context, u *domain.User) (*TokenPair, error) {
	if p == nil {
		return nil, fmt.Errorf("token provider not configured: %w", domain.ErrTokenIssuance)
	}
	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrTokenIssuance)
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(p.refreshTTL).Unix(),
		Enable:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := p.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session: %v: %w", err, domain.ErrTokenIssuance)
	}
	access, err := p.sign(u, sess.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrTokenIssuance)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}

// Refresh rotates the refresh token and returns a fresh pair.
// An unknown, disabled or expired refresh token fails with ErrUnauthorized.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if p == nil {
		return nil, fmt.Errorf("token provider not configured: %w", domain.ErrTokenIssuance)
	}
	sess, err := p.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown refresh token: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if sess.RefreshExpiresAt < time.Now().Unix() {
		return nil, fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}
	u, err := p.users.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if u.Status == domain.StatusBanned {
		return nil, fmt.Errorf("refresh for banned user: %w", domain.ErrUserBanned)
	}

	newToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrTokenIssuance)
	}
	newExpiry := time.Now().Add(p.refreshTTL).Unix()
	if err := p.sessions.RotateRefreshToken(ctx, sess.SessionID, newToken, newExpiry); err != nil {
		return nil, fmt.Errorf("rotate refresh token: %v: %w", err, domain.ErrTokenIssuance)
	}
	access, err := p.sign(u, sess.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrTokenIssuance)
	}
	return &TokenPair{AccessToken: access, RefreshToken: newToken}, nil
}

func (p *Provider) sign(u *domain.User, sessionID string) (string, error) {
	claims := Claims{
		UserID:    u.UserID,
		Username:  u.Username,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

// Verify validates an access token and returns its claims.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.publicKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
