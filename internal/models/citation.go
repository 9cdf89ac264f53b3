package models

import "time"

// Citation records that one paper cited another through the cite operation.
type Citation struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	CitingPaper     string    `json:"citingPaper" gorm:"type:varchar(36);index;not null"`
	CitedPaper      string    `json:"citedPaper" gorm:"type:varchar(36);index;not null"`
	TransactionHash string    `json:"transactionHash" gorm:"not null"`
	RewardClaimed   bool      `json:"rewardClaimed" gorm:"not null;default:false"`
	CreatedAt       time.Time `json:"createdAt"`
}
