package models

import (
	"time"

	"gorm.io/gorm"
)

type ApprovalStatus string

const (
	ApprovalStatusPending   ApprovalStatus = "pending"
	ApprovalStatusDisetujui ApprovalStatus = "disetujui"
	ApprovalStatusDitolak   ApprovalStatus = "ditolak"
)

type ApprovalCategory string

const (
	CategoryCuti           ApprovalCategory = "cuti"
	CategorySakit          ApprovalCategory = "sakit"
	CategoryTukarHari      ApprovalCategory = "tukar_hari"
	CategoryKunjunganKlien ApprovalCategory = "kunjungan_klien"
)

// ApprovalRequest is the record under approval. The concrete submission
// (leave request, day swap, visit report) references it by ApprovalRequestID.
type ApprovalRequest struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	RequesterID  uint             `json:"requester_id" gorm:"not null;index"`
	Category     ApprovalCategory `json:"category" gorm:"type:varchar(30);not null;index"`
	Status       ApprovalStatus   `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	CurrentLevel int              `json:"current_level" gorm:"not null;default:1"`
	Keterangan   string           `json:"keterangan" gorm:"type:text"` // requester's free-form remark
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `json:"deleted_at" gorm:"index"`

	// Relations
	Requester User           `json:"requester,omitempty" gorm:"foreignKey:RequesterID"`
	Steps     []ApprovalStep `json:"steps,omitempty" gorm:"foreignKey:RequestID"`
}

func (ApprovalRequest) TableName() string {
	return "approval_requests"
}

// IsTerminal reports whether no further decisions are accepted.
func (r *ApprovalRequest) IsTerminal() bool {
	return r.Status != ApprovalStatusPending
}

// ActiveStep returns the step whose level equals current_level and whose
// decision is still unset, or nil if the chain is corrupt. Only meaningful
// while the request is pending.
func (r *ApprovalRequest) ActiveStep() *ApprovalStep {
	for i := range r.Steps {
		if r.Steps[i].Level == r.CurrentLevel && r.Steps[i].Decision == nil {
			return &r.Steps[i]
		}
	}
	return nil
}

// NextLevel returns the next defined level above the given one, skipping
// gaps, or 0 when the given level is the highest in the chain.
func (r *ApprovalRequest) NextLevel(after int) int {
	next := 0
	for i := range r.Steps {
		lvl := r.Steps[i].Level
		if lvl > after && (next == 0 || lvl < next) {
			next = lvl
		}
	}
	return next
}

// ApprovalStep is one level of a sequential approval chain, bound to a
// specific user, a role, or both.
type ApprovalStep struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	RequestID    uint            `json:"request_id" gorm:"not null;uniqueIndex:idx_approval_steps_request_level"`
	Level        int             `json:"level" gorm:"not null;uniqueIndex:idx_approval_steps_request_level"`
	ApproverID   *uint           `json:"approver_id" gorm:"index"`
	ApproverRole *UserRole       `json:"approver_role" gorm:"type:varchar(20)"`
	Decision     *ApprovalStatus `json:"decision" gorm:"type:varchar(20)"`
	DecidedAt    *time.Time      `json:"decided_at"`
	DecidedByID  *uint           `json:"decided_by_id"`
	Note         string          `json:"note" gorm:"type:text"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// Relations
	Approver *User `json:"approver,omitempty" gorm:"foreignKey:ApproverID"`
}

func (ApprovalStep) TableName() string {
	return "approval_steps"
}

// BoundTo reports whether the step's approver binding matches the given
// actor. A match on either the user id or the role binding suffices.
func (s *ApprovalStep) BoundTo(userID uint, role UserRole) bool {
	if s.ApproverID != nil && *s.ApproverID == userID {
		return true
	}
	if s.ApproverRole != nil && *s.ApproverRole == role {
		return true
	}
	return false
}

// ChainStep describes one level of a chain at creation time.
type ChainStep struct {
	Level        int       `json:"level" binding:"required,min=1"`
	ApproverID   *uint     `json:"approver_id"`
	ApproverRole *UserRole `json:"approver_role"`
}
