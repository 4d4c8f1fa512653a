package phone

import (
	"fmt"
	"strings"

	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
)

// Normalize strips a leading "+" and any separator characters, returning the
// digits-only, country-code-prefixed form used as the canonical phone value.
// E.164 allows at most 15 digits; anything shorter than 10 is rejected.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "+")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// separators are tolerated and dropped
		default:
			return "", fmt.Errorf("phone contains invalid character %q: %w", r, domain.ErrBadRequest)
		}
	}

	n := b.String()
	if len(n) < 10 || len(n) > 15 {
		return "", fmt.Errorf("phone must be 10-15 digits, got %d: %w", len(n), domain.ErrBadRequest)
	}
	return n, nil
}
