package identity

import (
	"errors"
	"strings"
)

// KeyDelimiter separates the owner key from the job id in record keys. It may
// never appear inside an owner key.
const KeyDelimiter = "#"

var ErrIdentityMissing = errors.New("identity missing")

// DeriveOwnerKey prefers the human readable identifiers (email, then
// username) and falls back to the subject. The result is trimmed and
// lowercased. Claims that contain the delimiter are skipped.
func DeriveOwnerKey(claims *Claims) (string, error) {
	if claims == nil {
		return "", ErrIdentityMissing
	}
	for _, candidate := range []string{claims.Email, claims.Username, claims.Subject} {
		key := strings.ToLower(strings.TrimSpace(candidate))
		if key == "" || strings.Contains(key, KeyDelimiter) {
			continue
		}
		return key, nil
	}
	return "", ErrIdentityMissing
}
