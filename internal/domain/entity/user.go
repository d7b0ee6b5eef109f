// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core identity record. One User exists per email address; the
// email is matched byte-exactly (no case folding or other normalization).
type User struct {
	ID           uuid.UUID // The unique identifier for the user.
	Name         string    // The user's display name.
	Email        string    // The user's login identifier. Unique as stored.
	PasswordHash string    // The bcrypt digest of the user's password. Never the plaintext.
	CreatedAt    time.Time // Timestamp of when this user account was created.
	UpdatedAt    time.Time // Timestamp of the last modification to this user's data.
}
