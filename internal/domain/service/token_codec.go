package service

import "time"

// TokenCodec mints opaque bearer credentials and converts expiry instants to
// and from their fixed textual form. The credential is pure randomness — the
// server resolves it by store lookup, so no uniqueness check is needed beyond
// the entropy itself.
type TokenCodec interface {
	// NewOpaqueToken draws fresh CSPRNG bytes and encodes them as the bearer
	// credential. It fails only when the RNG is unavailable.
	NewOpaqueToken() (string, error)

	// FormatExpiry renders a UTC instant at millisecond precision.
	// ParseExpiry(FormatExpiry(t)) == t.UTC().Truncate(time.Millisecond).
	FormatExpiry(t time.Time) string

	// ParseExpiry parses the fixed textual form back to an instant.
	ParseExpiry(s string) (time.Time, error)
}

// ExpirationPolicy fixes how long a session lives. Expiry is fully determined
// by the issuance time; it is never extended afterwards.
type ExpirationPolicy interface {
	// ExpiryOf returns the instant a token issued at issuedAt stops being valid.
	ExpiryOf(issuedAt time.Time) time.Time

	// IsExpired reports whether a stored expiry string has passed at `now`.
	// The comparison is strict (now > expiry). A stored value that does not
	// parse is treated as expired: an unreadable expiry must deny, not admit.
	IsExpired(expiry string, now time.Time) bool
}
