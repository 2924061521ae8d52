package gateway

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned when a hello frame fails authentication.
var ErrBadCredentials = errors.New("bad credentials")

// HashSecret returns a bcrypt hash suitable for gateway.accounts.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing secret: %w", err)
	}
	return string(hash), nil
}

// authenticate checks name/secret against configured accounts.
// An empty account table means open login.
func authenticate(accounts map[string]string, name, secret string) error {
	if len(accounts) == 0 {
		return nil
	}
	hash, ok := accounts[name]
	if !ok {
		return fmt.Errorf("unknown account %q: %w", name, ErrBadCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return fmt.Errorf("account %q: %w", name, ErrBadCredentials)
	}
	return nil
}
