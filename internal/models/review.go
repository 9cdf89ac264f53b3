package models

import "gorm.io/gorm"

type Review struct {
	gorm.Model
	ResearchID      string `gorm:"type:varchar(36);index;not null"`
	ReviewerAddress string `gorm:"index;not null"`
	Content         string `gorm:"type:text;not null"`
	Score           int    `gorm:"not null;check:score >= 1 AND score <= 5"`
	Verified        bool   `gorm:"not null;default:false"`
	TransactionHash string
}
