package models

import (
	"time"

	"gorm.io/gorm"
)

// DaySwap records a tukar-hari submission: the employee works on
// ReplacementDate instead of OriginalDate once the swap is approved.
type DaySwap struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	ApprovalRequestID uint           `json:"approval_request_id" gorm:"not null;uniqueIndex"`
	UserID            uint           `json:"user_id" gorm:"not null;index"`
	OriginalDate      string         `json:"original_date" gorm:"size:10;not null"`    // YYYY-MM-DD
	ReplacementDate   string         `json:"replacement_date" gorm:"size:10;not null"` // YYYY-MM-DD
	Reason            string         `json:"reason" gorm:"type:text"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Relations
	User            User            `json:"user,omitempty" gorm:"foreignKey:UserID"`
	ApprovalRequest ApprovalRequest `json:"approval_request,omitempty" gorm:"foreignKey:ApprovalRequestID"`
}

func (DaySwap) TableName() string {
	return "day_swaps"
}
