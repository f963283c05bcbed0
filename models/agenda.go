package models

import (
	"time"

	"gorm.io/gorm"
)

type AgendaStatus string

const (
	AgendaStatusBelum   AgendaStatus = "belum"
	AgendaStatusProses  AgendaStatus = "proses"
	AgendaStatusSelesai AgendaStatus = "selesai"
)

// Agenda is a per-employee task or scheduled activity.
type Agenda struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      uint           `json:"user_id" gorm:"not null;index"`
	Title       string         `json:"title" gorm:"size:255;not null"`
	Description string         `json:"description" gorm:"type:text"`
	DueDate     string         `json:"due_date" gorm:"size:10"` // YYYY-MM-DD
	Status      AgendaStatus   `json:"status" gorm:"type:varchar(20);not null;default:'belum'"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Relations
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Agenda) TableName() string {
	return "agendas"
}
