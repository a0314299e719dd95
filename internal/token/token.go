// Package token inspects bearer credentials without verifying them.
// The portal never validates signatures; it only peeks at the exp
// claim so an expired credential can trigger a re-prompt before the
// upstream API rejects it.
package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryBuffer makes a token count as expired slightly before its
// actual exp claim, so a refresh in flight doesn't race the cutoff.
const ExpiryBuffer = 5 * time.Minute

// Expiry returns the exp claim of a JWT bearer token. It reports false
// for non-JWT tokens and JWTs without an exp claim.
func Expiry(bearer string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(bearer, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// IsExpired reports whether the credential should be treated as
// expired. Empty tokens are expired; opaque (non-JWT) tokens and JWTs
// without an exp claim are accepted as non-expiring.
func IsExpired(bearer string) bool {
	if strings.TrimSpace(bearer) == "" {
		return true
	}
	exp, ok := Expiry(bearer)
	if !ok {
		return false
	}
	return !time.Now().Before(exp.Add(-ExpiryBuffer))
}
