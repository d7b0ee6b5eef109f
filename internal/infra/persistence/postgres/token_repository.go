// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"
	"passport/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// tokenRepository implements the domain.TokenRepository interface using GORM.
type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository is the constructor for tokenRepository.
func NewTokenRepository(db *gorm.DB) repository.TokenRepository {
	return &tokenRepository{db: db}
}

// Create persists a new session token row.
func (repo *tokenRepository) Create(ctx context.Context, token *entity.Token) error {
	tokenM := fromTokenDomain(token)

	if err := repo.db.WithContext(ctx).Create(tokenM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return domainerrors.NewStoreExecuteError(err, "token value collision")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.NewStoreExecuteError(err, "invalid user reference")
		}
		// For other database errors, return a generic database error
		return domainerrors.NewStoreExecuteError(err, "failed to create token")
	}

	// Update the entity with generated values
	token.ID = tokenM.ID

	return nil
}

// FindByToken retrieves a session token row by its exact opaque value.
// Expiry is not evaluated here; callers decide what a stale row means.
func (repo *tokenRepository) FindByToken(ctx context.Context, token string) (*entity.Token, error) {
	var tokenM model.TokenModel

	if err := repo.db.WithContext(ctx).
		Where("token = ?", token).
		First(&tokenM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrTokenNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toTokenDomain(&tokenM), nil
}

// FindByUserID retrieves every session token row for a user, expired rows
// included, ordered oldest first.
func (repo *tokenRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Token, error) {
	var tokenModels []*model.TokenModel

	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issued_at ASC").
		Find(&tokenModels).Error; err != nil {
		return nil, errors.WithStack(err)
	}

	tokens := make([]*entity.Token, 0, len(tokenModels))
	for _, tokenM := range tokenModels {
		tokens = append(tokens, toTokenDomain(tokenM))
	}

	return tokens, nil
}

// Delete removes a session token row by its ID.
func (repo *tokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.TokenModel{})

	if result.Error != nil {
		return errors.WithStack(result.Error)
	}

	// If no rows were affected, it means the token was not found.
	if result.RowsAffected == 0 {
		return repository.ErrTokenNotFound
	}

	return nil
}

// DeleteByUserID removes every session token row for a user.
func (repo *tokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.TokenModel{}).Error; err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// --- Mapper Functions ---

// toTokenDomain converts a GORM TokenModel to a domain Token entity.
func toTokenDomain(data *model.TokenModel) *entity.Token {
	if data == nil {
		return nil
	}

	return &entity.Token{
		ID:        data.ID,
		UserID:    data.UserID,
		Token:     data.Token,
		IssuedAt:  data.IssuedAt,
		ExpiresAt: data.ExpiresAt,
	}
}

// fromTokenDomain converts a domain Token entity to a GORM TokenModel.
func fromTokenDomain(data *entity.Token) *model.TokenModel {
	if data == nil {
		return nil
	}

	return &model.TokenModel{
		ID:        data.ID,
		UserID:    data.UserID,
		Token:     data.Token,
		IssuedAt:  data.IssuedAt,
		ExpiresAt: data.ExpiresAt,
	}
}
