// Package bcrypt keeps password hashing in one place: registration,
// profile updates, reset tokens and the oauth placeholder all hash
// through it.
package bcrypt

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	if err != nil {
		return "", fmt.Errorf("error hashing password: %v", err)
	}

	return string(hash), nil
}

// ComparePassword checks a login attempt against the stored hash.
func ComparePassword(attempt string, stored string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(attempt)); err != nil {
		return fmt.Errorf("password does not match: %v", err)
	}

	return nil
}
