package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

// IsHashed reports whether a stored value is a bcrypt hash rather than a
// legacy plaintext password.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2")
}

// CheckPassword compares a candidate with the stored value, which may be a
// bcrypt hash or legacy plaintext.
func CheckPassword(password, stored string) bool {
	if stored == "" {
		return false
	}
	if IsHashed(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
}
