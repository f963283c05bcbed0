package models

import (
	"time"

	"gorm.io/gorm"
)

type Notification struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"not null;uniqueIndex:idx_notifications_user_dedupe"`
	Title     string         `json:"title" gorm:"not null"`
	Body      string         `json:"body" gorm:"not null"`
	Trigger   string         `json:"trigger" gorm:"column:trigger_key;size:60;not null"`
	Data      string         `json:"data" gorm:"type:text"` // JSON payload, carries the dedupe key
	DedupeKey *string        `json:"-" gorm:"size:128;uniqueIndex:idx_notifications_user_dedupe"`
	Read      bool           `json:"read" gorm:"default:false"`
	ReadAt    *time.Time     `json:"read_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Relations
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Notification) TableName() string {
	return "notifications"
}

// NotificationTemplate is a database-stored message template keyed by event
// trigger. Inactive or missing templates fall back to the built-in table.
type NotificationTemplate struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Trigger       string    `json:"trigger" gorm:"column:trigger_key;size:60;not null;uniqueIndex"`
	TitleTemplate string    `json:"title_template" gorm:"size:255;not null"`
	BodyTemplate  string    `json:"body_template" gorm:"type:text;not null"`
	IsActive      bool      `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (NotificationTemplate) TableName() string {
	return "notification_templates"
}

type PushToken struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"not null;index"`
	Token     string         `json:"token" gorm:"not null;unique"`
	Platform  string         `json:"platform" gorm:"not null"` // ios, android
	DeviceID  string         `json:"device_id"`
	Active    bool           `json:"active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Relations
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (PushToken) TableName() string {
	return "push_tokens"
}
