// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"passport/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// VerifyPasswordInput defines the credentials checked during password sign-in.
type VerifyPasswordInput struct {
	Email    string
	Password string
}

// ChangePasswordInput defines the data required to rotate a user's password digest.
type ChangePasswordInput struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
}

// --- Output DTOs ---

// RegisterOutput returns the newly created user's basic information.
// The password digest never leaves the usecase layer.
type RegisterOutput struct {
	User *entity.User
}

// UserUsecase defines the interface for user-related business operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type UserUsecase interface {
	// Register creates a new user with a hashed password digest.
	// It does not issue a session token; registration and sign-in are separate steps.
	Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error)

	// VerifyPassword checks a plaintext password against the stored digest and
	// returns the matching user. It never mutates state.
	VerifyPassword(ctx context.Context, input VerifyPasswordInput) (*entity.User, error)

	// ChangePassword verifies the current password, stores a new digest, and
	// revokes every session token the user holds.
	ChangePassword(ctx context.Context, input ChangePasswordInput) error
}
