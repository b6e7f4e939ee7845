package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const minSecretLength = 8

// Secret is one configured shared secret. It holds either a plaintext value or
// a bcrypt hash of it. An empty Secret never matches.
type Secret struct {
	plain string
	hash  string
}

// PlainSecret returns a Secret compared by constant-time equality.
func PlainSecret(value string) Secret {
	return Secret{plain: value}
}

// HashedSecret returns a Secret verified against a bcrypt hash.
func HashedSecret(hash string) Secret {
	return Secret{hash: strings.TrimSpace(hash)}
}

// IsZero reports whether no secret is configured.
func (s Secret) IsZero() bool {
	return s.plain == "" && s.hash == ""
}

// Plaintext returns the plaintext value, if the secret was configured as one.
func (s Secret) Plaintext() (string, bool) {
	return s.plain, s.plain != ""
}

// Matches reports whether candidate equals the secret.
func (s Secret) Matches(candidate string) bool {
	if candidate == "" {
		return false
	}
	if s.plain != "" {
		return subtle.ConstantTimeCompare([]byte(s.plain), []byte(candidate)) == 1
	}
	if s.hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.hash), []byte(candidate)) == nil
	}
	return false
}

// ValidateSecret checks minimal shared secret requirements. Credentials are
// matched exactly, so surrounding whitespace is rejected.
func ValidateSecret(value string) error {
	if strings.TrimSpace(value) != value {
		return fmt.Errorf("secret must not start or end with whitespace")
	}
	if len(value) < minSecretLength {
		return fmt.Errorf("secret must be at least %d characters", minSecretLength)
	}
	return nil
}

// HashSecret hashes one plaintext secret for storage in config.
func HashSecret(value string) (string, error) {
	if err := ValidateSecret(value); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(value), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
