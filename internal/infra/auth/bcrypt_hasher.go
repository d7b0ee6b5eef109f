// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"golang.org/x/crypto/bcrypt"

	"passport/config"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/service"
)

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost int
}

// NewBcryptHasher is the constructor for bcryptHasher.
// Construction fails when the configured cost is outside bcrypt's supported
// range; a hasher that cannot be built surfaces as HashingUnavailable rather
// than failing on the first registration.
func NewBcryptHasher(cfg *config.Config) (service.PasswordHasher, error) {
	cost := bcrypt.DefaultCost
	if cfg.Auth != nil && cfg.Auth.BcryptCost != 0 {
		cost = cfg.Auth.BcryptCost
	}

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, domainerrors.ErrHashingUnavailable.WrapMessage("bcrypt cost out of range")
	}

	return &bcryptHasher{cost: cost}, nil
}

// Hash generates a salted hash from a plaintext password using bcrypt.
// bcrypt automatically handles salt generation.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	return string(bytes), err
}

// Check compares a plaintext password with a bcrypt hash.
// bcrypt's comparison is constant-time; no further comparison happens here.
func (h *bcryptHasher) Check(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	// err is nil if the password and hash match.
	return err == nil
}
