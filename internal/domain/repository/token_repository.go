// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"passport/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrTokenNotFound is returned when no token row matches the lookup.
var ErrTokenNotFound = errors.New("token not found")

// TokenRepository defines the store operations the session manager requires.
// The store is the single source of truth for sessions: there is no in-memory
// cache, so every issue/resolve/revoke re-reads from here.
type TokenRepository interface {
	// Create persists a newly minted token.
	Create(ctx context.Context, token *entity.Token) error

	// FindByToken retrieves a token row by its opaque credential string.
	FindByToken(ctx context.Context, token string) (*entity.Token, error)

	// FindByUserID retrieves every token owned by a user, expired or not.
	// Sign-in partitions the result itself; filtering here would hide the
	// stale rows it must purge.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Token, error)

	// Delete removes a token by its row ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByUserID removes every token owned by a user.
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}
