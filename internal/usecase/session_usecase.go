package usecase

import (
	"context"

	"passport/internal/domain/entity"

	"github.com/google/uuid"
)

// SignInOutput returns the opaque session token issued (or reused) by SignIn.
type SignInOutput struct {
	Token string
}

// SessionUsecase defines the interface for session token lifecycle operations.
type SessionUsecase interface {
	// SignIn reconciles the user's token rows down to exactly one valid token
	// and returns it. A single unexpired token is reused unchanged; anything
	// else is replaced by one freshly minted token.
	SignIn(ctx context.Context, userID uuid.UUID) (*SignInOutput, error)

	// Resolve maps a bearer token string to its owning user, rejecting unknown
	// and expired tokens.
	Resolve(ctx context.Context, token string) (*entity.User, error)

	// RevokeAll deletes every session token owned by the user.
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}
