// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"passport/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the standard operations for user persistence.
// The application layer will depend on this interface, not the concrete implementation.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by their email address.
	// Matching is byte-exact; callers must not normalize the email.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// Create persists a new user entity to the storage.
	Create(ctx context.Context, user *entity.User) error

	// UpdatePasswordHash replaces the stored digest for a user.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error

	// AcquireSessionMutex takes a per-user serialization lock for the duration
	// of the surrounding transaction. Sign-in uses it so that the
	// purge/reuse/mint sequence is atomic per user.
	AcquireSessionMutex(ctx context.Context, id uuid.UUID) error
}
