package models

import (
	"time"

	"gorm.io/gorm"
)

type LeaveType string

const (
	LeaveTypeTahunan LeaveType = "tahunan"
	LeaveTypeSakit   LeaveType = "sakit"
	LeaveTypePenting LeaveType = "penting"
)

// LeaveRequest holds the leave-specific fields of a cuti/sakit submission.
// Approval state lives on the referenced ApprovalRequest.
type LeaveRequest struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	ApprovalRequestID uint           `json:"approval_request_id" gorm:"not null;uniqueIndex"`
	UserID            uint           `json:"user_id" gorm:"not null;index"`
	LeaveType         LeaveType      `json:"leave_type" gorm:"type:varchar(20);not null"`
	StartDate         string         `json:"start_date" gorm:"size:10;not null"` // YYYY-MM-DD
	EndDate           string         `json:"end_date" gorm:"size:10;not null"`   // YYYY-MM-DD
	TotalDays         int            `json:"total_days" gorm:"not null"`
	Reason            string         `json:"reason" gorm:"type:text"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Relations
	User            User            `json:"user,omitempty" gorm:"foreignKey:UserID"`
	ApprovalRequest ApprovalRequest `json:"approval_request,omitempty" gorm:"foreignKey:ApprovalRequestID"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}
