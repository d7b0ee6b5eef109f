package auth

import (
	"encoding/base64"
	"testing"
	"time"

	"passport/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpaqueToken(t *testing.T) {
	c := NewTokenCodec()

	token, err := c.NewOpaqueToken()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, 16)

	// Two draws must differ; a repeat would mean the RNG is broken.
	other, err := c.NewOpaqueToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestFormatExpiry(t *testing.T) {
	c := NewTokenCodec()

	instant := time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	assert.Equal(t, "2026-03-14T09:26:53.589Z", c.FormatExpiry(instant))

	// Non-UTC input is rendered in UTC.
	taipei := time.FixedZone("CST", 8*60*60)
	assert.Equal(t, "2026-03-14T01:26:53.589Z", c.FormatExpiry(instant.In(taipei)))
}

func TestExpiryRoundTrip(t *testing.T) {
	c := NewTokenCodec()

	instants := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 31, 23, 59, 59, 999_000_000, time.UTC),
		time.Now().UTC().Truncate(time.Millisecond),
	}

	for _, instant := range instants {
		parsed, err := c.ParseExpiry(c.FormatExpiry(instant))
		require.NoError(t, err)
		assert.True(t, parsed.Equal(instant), "round-trip changed %v to %v", instant, parsed)
	}
}

func TestParseExpiryRejectsMalformed(t *testing.T) {
	c := NewTokenCodec()

	for _, s := range []string{"", "not a timestamp", "2026-03-14 09:26:53", "2026-03-14T09:26:53Z"} {
		_, err := c.ParseExpiry(s)
		assert.Error(t, err, "expected %q to be rejected", s)
	}
}

func TestExpiryOfDefaultTTL(t *testing.T) {
	c := NewTokenCodec()
	p := NewExpirationPolicy(&config.Config{}, c)

	issued := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, issued.Add(7*24*time.Hour), p.ExpiryOf(issued))
}

func TestIsExpiredStrictBoundary(t *testing.T) {
	c := NewTokenCodec()
	p := NewExpirationPolicy(&config.Config{}, c)

	expiry := time.Date(2026, 5, 8, 12, 0, 0, 0, time.UTC)
	stored := c.FormatExpiry(expiry)

	// The comparison is strict: a token is valid at its exact expiry instant.
	assert.False(t, p.IsExpired(stored, expiry))
	assert.False(t, p.IsExpired(stored, expiry.Add(-time.Millisecond)))
	assert.True(t, p.IsExpired(stored, expiry.Add(time.Millisecond)))
}

func TestIsExpiredFailsClosedOnMalformedExpiry(t *testing.T) {
	c := NewTokenCodec()
	p := NewExpirationPolicy(&config.Config{}, c)

	assert.True(t, p.IsExpired("garbage", time.Now()))
	assert.True(t, p.IsExpired("", time.Now()))
}

func TestConfiguredTTL(t *testing.T) {
	c := NewTokenCodec()
	p := NewExpirationPolicy(&config.Config{Auth: &config.AuthConfig{TokenTTL: time.Hour}}, c)

	issued := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, issued.Add(time.Hour), p.ExpiryOf(issued))
}
