package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID                   uint   `gorm:"primaryKey"`
	Address              string `gorm:"unique;not null"`
	Nonce                string `gorm:"not null"`
	IsVerifiedResearcher bool   `gorm:"not null;default:false"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
	DeletedAt            gorm.DeletedAt `gorm:"index"`
}
