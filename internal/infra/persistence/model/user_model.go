// Package model contains the GORM persistence models mirroring the database schema.
package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table.
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name         string    `gorm:"type:varchar(255);not null"`
	Email        string    `gorm:"type:varchar(255);unique;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
