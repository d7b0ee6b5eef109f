package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenModel mirrors the 'tokens' table. The expiry is persisted in its
// textual form exactly as the codec formatted it at issuance.
type TokenModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Token     string    `gorm:"type:varchar(255);unique;not null"`
	IssuedAt  time.Time `gorm:"not null"`
	ExpiresAt string    `gorm:"type:varchar(64);not null"`
}

// TableName explicitly sets the table name for GORM.
func (TokenModel) TableName() string {
	return "tokens"
}
