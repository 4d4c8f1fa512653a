package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// refreshTokenBytes is the entropy of one refresh token. 32 bytes encodes to
// 64 hex characters, which fits the refresh_token GSI key unpadded.
const refreshTokenBytes = 32

// NewRefreshToken generates an opaque, cryptographically random refresh token.
func NewRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
