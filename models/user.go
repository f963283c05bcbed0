package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleKaryawan UserRole = "karyawan"
	RoleHR       UserRole = "hr"
	RoleDirektur UserRole = "direktur"
)

type User struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	FullName          string     `json:"full_name" gorm:"size:255;not null"`
	Email             string     `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PhoneNumber       string     `json:"phone_number" gorm:"size:20"`
	PasswordHash      string     `json:"-" gorm:"size:255;not null"` // Hidden from JSON
	Role              UserRole   `json:"role" gorm:"type:varchar(20);not null;default:'karyawan';check:role IN ('karyawan','hr','direktur')"`
	EmployeeNumber    string     `json:"employee_number" gorm:"size:30;uniqueIndex"`
	Position          string     `json:"position" gorm:"size:100"`
	Department        string     `json:"department" gorm:"size:100"`
	ProfilePictureURL *string    `json:"profile_picture_url" gorm:"size:255"`
	IsActive          bool       `json:"is_active" gorm:"default:true"`
	JoinedAt          *time.Time `json:"joined_at"`
	CreatedAt         time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Attendances      []Attendance      `json:"attendances,omitempty" gorm:"foreignKey:UserID"`
	ApprovalRequests []ApprovalRequest `json:"approval_requests,omitempty" gorm:"foreignKey:RequesterID"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate is a GORM hook that runs before creating a user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleKaryawan
	}
	return nil
}

// IsValidRole checks if the user role is valid
func (u *User) IsValidRole() bool {
	switch u.Role {
	case RoleKaryawan, RoleHR, RoleDirektur:
		return true
	default:
		return false
	}
}

// IsHR checks if the user belongs to the HR role
func (u *User) IsHR() bool {
	return u.Role == RoleHR
}

// IsDirektur checks if the user is a director
func (u *User) IsDirektur() bool {
	return u.Role == RoleDirektur
}
