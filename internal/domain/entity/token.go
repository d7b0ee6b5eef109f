// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Token represents an authorized user session. The opaque string is the bearer
// credential sent by clients; the server resolves it by lookup, never by
// decoding. A token's expiry is derived once from its issuance time and is
// never extended — rows are created and deleted, never mutated in place.
type Token struct {
	ID        uuid.UUID // The unique ID for this token record.
	UserID    uuid.UUID // Links this session to the User it belongs to.
	Token     string    // The opaque credential: 16 CSPRNG bytes, base64 encoded.
	IssuedAt  time.Time // When this session was created.
	ExpiresAt string    // IssuedAt + TTL in the codec's fixed textual form.
}
