// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"passport/config"
	"passport/internal/domain/service"

	"github.com/pkg/errors"
)

const (
	// tokenBytes is the entropy of the bearer credential: 128 bits.
	tokenBytes = 16

	// expiryLayout is the fixed textual form for stored expiries,
	// UTC at millisecond precision. The trailing Z is literal.
	expiryLayout = "2006-01-02T15:04:05.000Z"

	// defaultTokenTTL applies when the config does not override it.
	defaultTokenTTL = 7 * 24 * time.Hour
)

// tokenCodec is a concrete implementation of the TokenCodec interface.
type tokenCodec struct{}

// NewTokenCodec is the constructor for tokenCodec.
func NewTokenCodec() service.TokenCodec {
	return &tokenCodec{}
}

// NewOpaqueToken draws 16 bytes from crypto/rand and base64-encodes them.
// The result is the bearer credential; collisions are cryptographically
// negligible so no store-side uniqueness probe is made.
func (c *tokenCodec) NewOpaqueToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "rng unavailable")
	}

	return base64.StdEncoding.EncodeToString(b), nil
}

// FormatExpiry renders a UTC instant at millisecond precision.
func (c *tokenCodec) FormatExpiry(t time.Time) string {
	return t.UTC().Format(expiryLayout)
}

// ParseExpiry parses the fixed textual form back to a UTC instant.
func (c *tokenCodec) ParseExpiry(s string) (time.Time, error) {
	t, err := time.Parse(expiryLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "malformed expiry")
	}

	return t, nil
}

// expirationPolicy is a concrete implementation of the ExpirationPolicy interface.
type expirationPolicy struct {
	codec service.TokenCodec
	ttl   time.Duration
}

// NewExpirationPolicy is the constructor for expirationPolicy.
// The TTL is fixed per process; a token's expiry never moves once issued.
func NewExpirationPolicy(cfg *config.Config, codec service.TokenCodec) service.ExpirationPolicy {
	ttl := defaultTokenTTL
	if cfg.Auth != nil && cfg.Auth.TokenTTL > 0 {
		ttl = cfg.Auth.TokenTTL
	}

	return &expirationPolicy{codec: codec, ttl: ttl}
}

// ExpiryOf returns issuedAt + TTL in UTC.
func (p *expirationPolicy) ExpiryOf(issuedAt time.Time) time.Time {
	return issuedAt.UTC().Add(p.ttl)
}

// IsExpired reports whether the stored expiry has passed, strictly.
// A value that fails to parse counts as expired: a row whose expiry cannot be
// read must never authenticate.
func (p *expirationPolicy) IsExpired(expiry string, now time.Time) bool {
	t, err := p.codec.ParseExpiry(expiry)
	if err != nil {
		return true
	}

	return now.After(t)
}
