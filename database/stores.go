package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"ehrm-server/models"
	"ehrm-server/services"
	"ehrm-server/types"
)

// GormApprovalStore is the GORM-backed implementation of
// services.ApprovalStore.
type GormApprovalStore struct {
	db *gorm.DB
}

func NewApprovalStore(db *gorm.DB) *GormApprovalStore {
	return &GormApprovalStore{db: db}
}

// InTransaction runs fn against a store bound to a single transaction.
// The read-validate-decide-write sequence of the approval engine relies on
// this to stay atomic.
func (s *GormApprovalStore) InTransaction(ctx context.Context, fn func(tx services.ApprovalStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormApprovalStore{db: tx})
	})
}

// GetRequest loads a non-deleted request with its steps ordered by level.
func (s *GormApprovalStore) GetRequest(ctx context.Context, id uint) (*models.ApprovalRequest, error) {
	var req models.ApprovalRequest
	err := s.db.WithContext(ctx).
		Preload("Requester").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("level ASC")
		}).
		First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *GormApprovalStore) CreateRequest(ctx context.Context, req *models.ApprovalRequest) error {
	return s.db.WithContext(ctx).Create(req).Error
}

// SaveRecord persists a category detail row in the store's transaction.
// Save inserts when the primary key is zero and updates otherwise, which
// covers both new leave/day-swap rows and visit report updates.
func (s *GormApprovalStore) SaveRecord(ctx context.Context, value interface{}) error {
	return s.db.WithContext(ctx).Save(value).Error
}

// DecideStep applies a decision to a step only while its decision is still
// unset. Zero rows affected means another decision won the race and is
// surfaced as Conflict.
func (s *GormApprovalStore) DecideStep(ctx context.Context, stepID uint, decision models.ApprovalStatus, note string, decidedBy uint, decidedAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.ApprovalStep{}).
		Where("id = ? AND decision IS NULL", stepID).
		Updates(map[string]interface{}{
			"decision":      decision,
			"note":          note,
			"decided_by_id": decidedBy,
			"decided_at":    decidedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return types.ErrConflict
	}
	return nil
}

func (s *GormApprovalStore) UpdateRequest(ctx context.Context, id uint, patch map[string]interface{}) error {
	return s.db.WithContext(ctx).Model(&models.ApprovalRequest{}).
		Where("id = ?", id).
		Updates(patch).Error
}

func (s *GormApprovalStore) SoftDeleteRequest(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.ApprovalRequest{}, id).Error
}

func (s *GormApprovalStore) ListUserIDsByRole(ctx context.Context, role models.UserRole) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND is_active = ?", role, true).
		Pluck("id", &ids).Error
	return ids, err
}

// ListPendingOlderThan returns pending requests untouched since the cutoff,
// steps preloaded. Used by the reminder sweep.
func (s *GormApprovalStore) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.ApprovalRequest, error) {
	var reqs []models.ApprovalRequest
	err := s.db.WithContext(ctx).
		Preload("Requester").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("level ASC")
		}).
		Where("status = ? AND updated_at < ?", models.ApprovalStatusPending, cutoff).
		Find(&reqs).Error
	return reqs, err
}

// GormNotificationStore is the GORM-backed implementation of
// services.NotificationStore.
type GormNotificationStore struct {
	db *gorm.DB
}

func NewNotificationStore(db *gorm.DB) *GormNotificationStore {
	return &GormNotificationStore{db: db}
}

// GetTemplate returns the template for a trigger, or nil when none exists.
func (s *GormNotificationStore) GetTemplate(ctx context.Context, trigger string) (*models.NotificationTemplate, error) {
	var tpl models.NotificationTemplate
	err := s.db.WithContext(ctx).Where("trigger_key = ?", trigger).First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

// CreateNotification inserts the in-app record. The composite unique index
// on (user_id, dedupe_key) makes the check-and-insert atomic; a duplicate
// surfaces as Conflict.
func (s *GormNotificationStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	err := s.db.WithContext(ctx).Create(n).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return types.ErrConflict
	}
	return err
}

// DeactivatePushToken marks a token inactive after a permanent push
// failure (DeviceNotRegistered).
func (s *GormNotificationStore) DeactivatePushToken(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Model(&models.PushToken{}).
		Where("token = ?", token).
		Update("active", false).Error
}

func (s *GormNotificationStore) ListActivePushTokens(ctx context.Context, userID uint) ([]models.PushToken, error) {
	var tokens []models.PushToken
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Find(&tokens).Error
	return tokens, err
}
