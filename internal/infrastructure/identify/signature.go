package identify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
)

// Signer computes and verifies the vendor's lowercase-hex HMAC-SHA256
// payload signatures using the shared private key.
type Signer struct {
	privateKey []byte
}

func NewSigner(privateKey string) *Signer {
	return &Signer{privateKey: []byte(privateKey)}
}

// Sign returns the signature over the exact payload bytes.
func (s *Signer) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.privateKey)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature and compares it in constant time.
// A mismatch is a hard failure; it must never be downgraded to a log line.
func (s *Signer) Verify(payload []byte, signature string) error {
	want := s.Sign(payload)
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return fmt.Errorf("hmac mismatch: %w", domain.ErrInvalidSignature)
	}
	return nil
}
