package auth

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// passwordHashCost trades login latency for brute force resistance.
const passwordHashCost = 14

// HashPassword hashes a cleartext password for storage.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "could not hash password")
	}
	return string(h), nil
}

// ComparePasswordAndHash checks the cleartext password against the stored
// hash. Mismatches map to ErrMismatchedHashAndPassword.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if goerrors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return goerrors.Wrap(err, goerrors.CategoryAuth, "could not compare password and hash")
	}
	return nil
}

// RandomPasswordHash hashes a throwaway password. Used to keep lookup misses
// and credential mismatches indistinguishable by timing.
func RandomPasswordHash() string {
	h, err := HashPassword(uuid.NewString())
	if err != nil {
		return RandomPasswordHash()
	}
	return h
}
