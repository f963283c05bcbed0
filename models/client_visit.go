package models

import (
	"time"

	"gorm.io/gorm"
)

type VisitStatus string

const (
	VisitStatusBerlangsung VisitStatus = "berlangsung"
	VisitStatusSelesai     VisitStatus = "selesai"
	VisitStatusDilaporkan  VisitStatus = "dilaporkan"
)

// ClientVisit tracks a field visit to a client. When the employee submits
// the written report, an ApprovalRequest (kategori kunjungan_klien) is
// created and linked via ApprovalRequestID.
type ClientVisit struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	UserID            uint           `json:"user_id" gorm:"not null;index"`
	ClientName        string         `json:"client_name" gorm:"size:255;not null"`
	Purpose           string         `json:"purpose" gorm:"type:text"`
	Status            VisitStatus    `json:"status" gorm:"type:varchar(20);not null;default:'berlangsung'"`
	StartAt           time.Time      `json:"start_at"`
	EndAt             *time.Time     `json:"end_at"`
	StartLat          *float64       `json:"start_lat"`
	StartLng          *float64       `json:"start_lng"`
	EndLat            *float64       `json:"end_lat"`
	EndLng            *float64       `json:"end_lng"`
	Report            string         `json:"report" gorm:"type:text"`
	ApprovalRequestID *uint          `json:"approval_request_id" gorm:"uniqueIndex"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Relations
	User            User             `json:"user,omitempty" gorm:"foreignKey:UserID"`
	ApprovalRequest *ApprovalRequest `json:"approval_request,omitempty" gorm:"foreignKey:ApprovalRequestID"`
}

func (ClientVisit) TableName() string {
	return "client_visits"
}
