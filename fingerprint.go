package accounts

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// TokenFingerprint derives the revocation registry key for a raw token.
// The fingerprint hashes the signature part only, so it stays stable for
// a given token regardless of how the claims were decoded, and a token
// without a jti still fingerprints deterministically.
func TokenFingerprint(raw string) (string, error) {
	idx := strings.LastIndexByte(raw, '.')
	if idx < 0 || idx == len(raw)-1 {
		return "", errors.New(ErrTokenMalformed.Message, ErrTokenMalformed.Category).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	id, err := hashid.NewUUID(raw[idx+1:])
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to fingerprint token")
	}

	return id.String(), nil
}
