package models

import (
	"time"

	"gorm.io/gorm"
)

type AttendanceStatus string

const (
	AttendanceStatusHadir     AttendanceStatus = "hadir"
	AttendanceStatusTerlambat AttendanceStatus = "terlambat"
)

// Attendance is one check-in/check-out pair per employee per work date.
type Attendance struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	UserID      uint             `json:"user_id" gorm:"not null;uniqueIndex:idx_attendances_user_date"`
	WorkDate    string           `json:"work_date" gorm:"size:10;not null;uniqueIndex:idx_attendances_user_date"` // YYYY-MM-DD
	ShiftID     *uint            `json:"shift_id"`
	Status      AttendanceStatus `json:"status" gorm:"type:varchar(20);not null;default:'hadir'"`
	CheckInAt   time.Time        `json:"check_in_at"`
	CheckOutAt  *time.Time       `json:"check_out_at"`
	CheckInLat  *float64         `json:"check_in_lat"`
	CheckInLng  *float64         `json:"check_in_lng"`
	CheckOutLat *float64         `json:"check_out_lat"`
	CheckOutLng *float64         `json:"check_out_lng"`
	LateMinutes int              `json:"late_minutes" gorm:"default:0"`
	WorkMinutes int              `json:"work_minutes" gorm:"default:0"`
	Note        string           `json:"note" gorm:"type:text"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `json:"deleted_at" gorm:"index"`

	// Relations
	User  User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Shift *Shift `json:"shift,omitempty" gorm:"foreignKey:ShiftID"`
}

func (Attendance) TableName() string {
	return "attendances"
}
