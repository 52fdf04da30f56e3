package usecase

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultAdminSecret applies only when no secret or hash is configured.
const DefaultAdminSecret = "admin123"

// AdminAuthorizer checks a supplied secret against the configured one. A
// bcrypt hash, when set, takes precedence over the plain secret.
type AdminAuthorizer struct {
	secret []byte
	hash   []byte
}

func NewAdminAuthorizer(secret, bcryptHash string) *AdminAuthorizer {
	bcryptHash = strings.TrimSpace(bcryptHash)
	if bcryptHash != "" {
		return &AdminAuthorizer{hash: []byte(bcryptHash)}
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		secret = DefaultAdminSecret
	}
	return &AdminAuthorizer{secret: []byte(secret)}
}

// IsAdmin ignores surrounding whitespace on both secrets, as the HTTP layer
// trims header values.
func (a *AdminAuthorizer) IsAdmin(supplied string) bool {
	supplied = strings.TrimSpace(supplied)
	if a == nil || supplied == "" {
		return false
	}
	if len(a.hash) > 0 {
		return bcrypt.CompareHashAndPassword(a.hash, []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare(a.secret, []byte(supplied)) == 1
}
