package models

import (
	"time"

	"gorm.io/gorm"
)

// Shift is a named working window, e.g. "Pagi" 08:00-17:00.
type Shift struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	Name             string         `json:"name" gorm:"size:100;not null;uniqueIndex"`
	StartTime        string         `json:"start_time" gorm:"size:5;not null"` // HH:MM
	EndTime          string         `json:"end_time" gorm:"size:5;not null"`   // HH:MM
	ToleranceMinutes int            `json:"tolerance_minutes" gorm:"default:15"`
	IsDefault        bool           `json:"is_default" gorm:"default:false"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

func (Shift) TableName() string {
	return "shifts"
}

// ShiftAssignment binds an employee to a shift for one work date.
// Without an assignment the default shift applies.
type ShiftAssignment struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"not null;uniqueIndex:idx_shift_assignments_user_date"`
	ShiftID   uint           `json:"shift_id" gorm:"not null"`
	WorkDate  string         `json:"work_date" gorm:"size:10;not null;uniqueIndex:idx_shift_assignments_user_date"` // YYYY-MM-DD
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Relations
	User  User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Shift Shift `json:"shift,omitempty" gorm:"foreignKey:ShiftID"`
}

func (ShiftAssignment) TableName() string {
	return "shift_assignments"
}
