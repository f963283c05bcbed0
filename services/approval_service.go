package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"ehrm-server/models"
	"ehrm-server/types"
)

// ApprovalStore is the persistence surface the approval engine needs. The
// GORM implementation lives in the database package.
type ApprovalStore interface {
	InTransaction(ctx context.Context, fn func(tx ApprovalStore) error) error
	GetRequest(ctx context.Context, id uint) (*models.ApprovalRequest, error)
	CreateRequest(ctx context.Context, req *models.ApprovalRequest) error
	SaveRecord(ctx context.Context, value interface{}) error
	DecideStep(ctx context.Context, stepID uint, decision models.ApprovalStatus, note string, decidedBy uint, decidedAt time.Time) error
	UpdateRequest(ctx context.Context, id uint, patch map[string]interface{}) error
	SoftDeleteRequest(ctx context.Context, id uint) error
	ListUserIDsByRole(ctx context.Context, role models.UserRole) ([]uint, error)
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.ApprovalRequest, error)
}

// Notifier is the dispatch surface the engine uses. Satisfied by
// NotificationService.
type Notifier interface {
	Dispatch(ctx context.Context, trigger string, userID uint, data map[string]string, dedupeKey string) DispatchResult
}

// Actor identifies the authenticated caller of a decision.
type Actor struct {
	UserID uint
	Role   models.UserRole
}

// AttachFunc writes the category detail row (leave request, day swap, visit
// report) inside the same transaction that creates the approval request, so
// neither can exist without the other.
type AttachFunc func(ctx context.Context, tx ApprovalStore, requestID uint) error

// ApprovalEngine advances sequential approval chains. A rejection at any
// level hard-stops the chain; an approval advances to the next defined
// level or finalizes the request at the highest one.
type ApprovalEngine struct {
	store          ApprovalStore
	notifier       Notifier
	perLevelNotice bool
}

// NewApprovalEngine builds an engine. When perLevelNotice is set the
// requester is also notified on every intermediate level advance, not only
// on the terminal outcome.
func NewApprovalEngine(store ApprovalStore, notifier Notifier, perLevelNotice bool) *ApprovalEngine {
	return &ApprovalEngine{
		store:          store,
		notifier:       notifier,
		perLevelNotice: perLevelNotice,
	}
}

// Create opens a new approval request with the given chain. Levels must be
// positive and unique; each step needs a user or role binding. The request
// and the attach callback commit in one transaction; afterwards the lowest
// level becomes the active one and its approvers are notified.
func (e *ApprovalEngine) Create(ctx context.Context, requesterID uint, category models.ApprovalCategory, keterangan string, chain []models.ChainStep, attach AttachFunc) (*models.ApprovalRequest, error) {
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: approval chain must have at least one step", types.ErrValidation)
	}

	seen := make(map[int]bool, len(chain))
	lowest := 0
	steps := make([]models.ApprovalStep, 0, len(chain))
	for _, cs := range chain {
		if cs.Level < 1 {
			return nil, fmt.Errorf("%w: step level must be >= 1", types.ErrValidation)
		}
		if seen[cs.Level] {
			return nil, fmt.Errorf("%w: duplicate step level %d", types.ErrValidation, cs.Level)
		}
		seen[cs.Level] = true
		if cs.ApproverID == nil && cs.ApproverRole == nil {
			return nil, fmt.Errorf("%w: step level %d needs an approver user or role", types.ErrValidation, cs.Level)
		}
		if cs.ApproverRole != nil {
			switch *cs.ApproverRole {
			case models.RoleKaryawan, models.RoleHR, models.RoleDirektur:
			default:
				return nil, fmt.Errorf("%w: unknown approver role %q", types.ErrValidation, *cs.ApproverRole)
			}
		}
		if lowest == 0 || cs.Level < lowest {
			lowest = cs.Level
		}
		steps = append(steps, models.ApprovalStep{
			Level:        cs.Level,
			ApproverID:   cs.ApproverID,
			ApproverRole: cs.ApproverRole,
		})
	}

	req := &models.ApprovalRequest{
		RequesterID:  requesterID,
		Category:     category,
		Status:       models.ApprovalStatusPending,
		CurrentLevel: lowest,
		Keterangan:   keterangan,
		Steps:        steps,
	}

	err := e.store.InTransaction(ctx, func(tx ApprovalStore) error {
		if err := tx.CreateRequest(ctx, req); err != nil {
			return err
		}
		if attach != nil {
			return attach(ctx, tx, req.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reload so relations (requester) are populated for notification data.
	created, err := e.store.GetRequest(ctx, req.ID)
	if err != nil {
		log.Printf("⚠️ Could not reload approval request %d after create, approver fan-out skipped: %v", req.ID, err)
		return req, nil
	}
	e.notifyActiveApprovers(ctx, created, TriggerPengajuanDibuat)
	return created, nil
}

// Decide applies one approver decision. The read-validate-decide-write
// sequence runs inside a single transaction; the step update is conditional
// on the decision still being unset, so a losing concurrent call observes
// Conflict instead of silently double-writing.
func (e *ApprovalEngine) Decide(ctx context.Context, requestID uint, actor Actor, decision models.ApprovalStatus, note string) (*models.ApprovalRequest, error) {
	if decision != models.ApprovalStatusDisetujui && decision != models.ApprovalStatusDitolak {
		return nil, fmt.Errorf("%w: decision must be disetujui or ditolak", types.ErrValidation)
	}

	var decidedLevel int
	err := e.store.InTransaction(ctx, func(tx ApprovalStore) error {
		req, err := tx.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.IsTerminal() {
			return fmt.Errorf("%w: request already %s", types.ErrInvalidState, req.Status)
		}

		active := req.ActiveStep()
		if active == nil {
			return fmt.Errorf("%w: no undecided step at level %d", types.ErrInvalidState, req.CurrentLevel)
		}
		if !active.BoundTo(actor.UserID, actor.Role) {
			return fmt.Errorf("%w: step level %d is not assigned to this approver", types.ErrForbidden, active.Level)
		}

		if err := tx.DecideStep(ctx, active.ID, decision, note, actor.UserID, time.Now()); err != nil {
			return err
		}
		decidedLevel = active.Level

		patch := map[string]interface{}{}
		if decision == models.ApprovalStatusDitolak {
			patch["status"] = models.ApprovalStatusDitolak
		} else if next := req.NextLevel(active.Level); next == 0 {
			patch["status"] = models.ApprovalStatusDisetujui
		} else {
			patch["current_level"] = next
		}
		return tx.UpdateRequest(ctx, req.ID, patch)
	})
	if err != nil {
		return nil, err
	}

	updated, err := e.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	e.notifyDecision(ctx, updated, decidedLevel, note)
	return updated, nil
}

// Cancel soft-deletes a request. Only the requester may cancel, and only
// while the request is still pending.
func (e *ApprovalEngine) Cancel(ctx context.Context, requestID uint, actor Actor) error {
	return e.store.InTransaction(ctx, func(tx ApprovalStore) error {
		req, err := tx.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.RequesterID != actor.UserID {
			return fmt.Errorf("%w: only the requester may cancel", types.ErrForbidden)
		}
		if req.IsTerminal() {
			return fmt.Errorf("%w: request already %s", types.ErrInvalidState, req.Status)
		}
		return tx.SoftDeleteRequest(ctx, req.ID)
	})
}

// RemindPending re-notifies the active approver of every request pending
// longer than the threshold. The dedupe key includes the day so one sweep
// day produces at most one reminder per request.
func (e *ApprovalEngine) RemindPending(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	pending, err := e.store.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	day := time.Now().Format("2006-01-02")
	reminded := 0
	for i := range pending {
		req := &pending[i]
		active := req.ActiveStep()
		if active == nil {
			log.Printf("⚠️ Pending request %d has no active step, skipping reminder", req.ID)
			continue
		}
		data := map[string]string{
			"kategori": categoryLabel(req.Category),
			"nama":     req.Requester.FullName,
			"level":    fmt.Sprintf("%d", active.Level),
		}
		for _, approverID := range e.resolveApprovers(ctx, active) {
			key := fmt.Sprintf("approval:%d:level:%d:reminder:%d:%s", req.ID, active.Level, approverID, day)
			e.notifier.Dispatch(ctx, TriggerPengingatPersetujuan, approverID, data, key)
		}
		reminded++
	}
	return reminded, nil
}

// notifyDecision emits exactly one outcome event to the requester (plus the
// optional per-level notice) and hands the chain to the next approvers when
// it advanced.
func (e *ApprovalEngine) notifyDecision(ctx context.Context, req *models.ApprovalRequest, decidedLevel int, note string) {
	data := map[string]string{
		"kategori": categoryLabel(req.Category),
		"level":    fmt.Sprintf("%d", decidedLevel),
	}

	switch req.Status {
	case models.ApprovalStatusDisetujui:
		key := fmt.Sprintf("approval:%d:status:disetujui", req.ID)
		e.notifier.Dispatch(ctx, TriggerPengajuanDisetujui, req.RequesterID, data, key)
	case models.ApprovalStatusDitolak:
		data["catatan"] = note
		if note == "" {
			data["catatan"] = "-"
		}
		key := fmt.Sprintf("approval:%d:status:ditolak", req.ID)
		e.notifier.Dispatch(ctx, TriggerPengajuanDitolak, req.RequesterID, data, key)
	default:
		if e.perLevelNotice {
			data["level"] = fmt.Sprintf("%d", decidedLevel)
			key := fmt.Sprintf("approval:%d:level:%d:naik", req.ID, decidedLevel)
			e.notifier.Dispatch(ctx, TriggerPengajuanNaikLevel, req.RequesterID, data, key)
		}
		e.notifyActiveApprovers(ctx, req, TriggerPengajuanDibuat)
	}
}

// notifyActiveApprovers tells everyone bound to the active step that a
// request awaits their decision.
func (e *ApprovalEngine) notifyActiveApprovers(ctx context.Context, req *models.ApprovalRequest, trigger string) {
	active := req.ActiveStep()
	if active == nil {
		return
	}
	data := map[string]string{
		"kategori": categoryLabel(req.Category),
		"nama":     req.Requester.FullName,
		"level":    fmt.Sprintf("%d", active.Level),
	}
	for _, approverID := range e.resolveApprovers(ctx, active) {
		key := fmt.Sprintf("approval:%d:level:%d:menunggu:%d", req.ID, active.Level, approverID)
		e.notifier.Dispatch(ctx, trigger, approverID, data, key)
	}
}

// resolveApprovers expands a step binding into concrete user ids.
func (e *ApprovalEngine) resolveApprovers(ctx context.Context, step *models.ApprovalStep) []uint {
	if step.ApproverID != nil {
		return []uint{*step.ApproverID}
	}
	if step.ApproverRole != nil {
		ids, err := e.store.ListUserIDsByRole(ctx, *step.ApproverRole)
		if err != nil {
			log.Printf("❌ Could not resolve approvers for role %s: %v", *step.ApproverRole, err)
			return nil
		}
		return ids
	}
	return nil
}

func categoryLabel(c models.ApprovalCategory) string {
	switch c {
	case models.CategoryCuti:
		return "cuti"
	case models.CategorySakit:
		return "izin sakit"
	case models.CategoryTukarHari:
		return "tukar hari"
	case models.CategoryKunjunganKlien:
		return "laporan kunjungan klien"
	default:
		return string(c)
	}
}
