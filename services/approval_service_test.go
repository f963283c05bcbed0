package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ehrm-server/models"
	"ehrm-server/types"
)

type dispatchedEvent struct {
	Trigger   string
	UserID    uint
	Data      map[string]string
	DedupeKey string
}

type fakeNotifier struct {
	events []dispatchedEvent
}

func (f *fakeNotifier) Dispatch(ctx context.Context, trigger string, userID uint, data map[string]string, dedupeKey string) DispatchResult {
	copied := make(map[string]string, len(data))
	for k, v := range data {
		copied[k] = v
	}
	f.events = append(f.events, dispatchedEvent{Trigger: trigger, UserID: userID, Data: copied, DedupeKey: dedupeKey})
	return DispatchResult{Delivered: true}
}

func (f *fakeNotifier) byTrigger(trigger string) []dispatchedEvent {
	var out []dispatchedEvent
	for _, e := range f.events {
		if e.Trigger == trigger {
			out = append(out, e)
		}
	}
	return out
}

// fakeApprovalStore is an in-memory ApprovalStore with the same conditional
// decide semantics as the GORM implementation.
type fakeApprovalStore struct {
	requests    map[uint]*models.ApprovalRequest
	usersByRole map[models.UserRole][]uint
	records     []interface{}
	nextID      uint
	nextStepID  uint
}

func newFakeApprovalStore() *fakeApprovalStore {
	return &fakeApprovalStore{
		requests:    make(map[uint]*models.ApprovalRequest),
		usersByRole: make(map[models.UserRole][]uint),
		nextID:      1,
		nextStepID:  1,
	}
}

// InTransaction undoes requests created by fn when it fails, mirroring the
// rollback of the GORM store.
func (s *fakeApprovalStore) InTransaction(ctx context.Context, fn func(tx ApprovalStore) error) error {
	firstNewID := s.nextID
	err := fn(s)
	if err != nil {
		for id := firstNewID; id < s.nextID; id++ {
			delete(s.requests, id)
		}
		s.nextID = firstNewID
	}
	return err
}

func (s *fakeApprovalStore) GetRequest(ctx context.Context, id uint) (*models.ApprovalRequest, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return req, nil
}

func (s *fakeApprovalStore) CreateRequest(ctx context.Context, req *models.ApprovalRequest) error {
	req.ID = s.nextID
	s.nextID++
	for i := range req.Steps {
		req.Steps[i].ID = s.nextStepID
		req.Steps[i].RequestID = req.ID
		s.nextStepID++
	}
	s.requests[req.ID] = req
	return nil
}

func (s *fakeApprovalStore) SaveRecord(ctx context.Context, value interface{}) error {
	s.records = append(s.records, value)
	return nil
}

func (s *fakeApprovalStore) DecideStep(ctx context.Context, stepID uint, decision models.ApprovalStatus, note string, decidedBy uint, decidedAt time.Time) error {
	for _, req := range s.requests {
		for i := range req.Steps {
			step := &req.Steps[i]
			if step.ID != stepID {
				continue
			}
			if step.Decision != nil {
				return types.ErrConflict
			}
			step.Decision = &decision
			step.Note = note
			step.DecidedByID = &decidedBy
			step.DecidedAt = &decidedAt
			return nil
		}
	}
	return types.ErrNotFound
}

func (s *fakeApprovalStore) UpdateRequest(ctx context.Context, id uint, patch map[string]interface{}) error {
	req, ok := s.requests[id]
	if !ok {
		return types.ErrNotFound
	}
	if v, ok := patch["status"]; ok {
		req.Status = v.(models.ApprovalStatus)
	}
	if v, ok := patch["current_level"]; ok {
		req.CurrentLevel = v.(int)
	}
	return nil
}

func (s *fakeApprovalStore) SoftDeleteRequest(ctx context.Context, id uint) error {
	if _, ok := s.requests[id]; !ok {
		return types.ErrNotFound
	}
	delete(s.requests, id)
	return nil
}

func (s *fakeApprovalStore) ListUserIDsByRole(ctx context.Context, role models.UserRole) ([]uint, error) {
	return s.usersByRole[role], nil
}

func (s *fakeApprovalStore) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.ApprovalRequest, error) {
	var out []models.ApprovalRequest
	for _, req := range s.requests {
		if req.Status == models.ApprovalStatusPending && req.CreatedAt.Before(cutoff) {
			out = append(out, *req)
		}
	}
	return out, nil
}

func rolePtr(r models.UserRole) *models.UserRole { return &r }
func uintPtr(v uint) *uint                       { return &v }

func hrDirekturChain() []models.ChainStep {
	return []models.ChainStep{
		{Level: 1, ApproverRole: rolePtr(models.RoleHR)},
		{Level: 2, ApproverRole: rolePtr(models.RoleDirektur)},
	}
}

func TestCreateValidatesChain(t *testing.T) {
	store := newFakeApprovalStore()
	engine := NewApprovalEngine(store, &fakeNotifier{}, false)
	ctx := context.Background()

	tests := []struct {
		name  string
		chain []models.ChainStep
	}{
		{"empty chain", nil},
		{"level below one", []models.ChainStep{{Level: 0, ApproverRole: rolePtr(models.RoleHR)}}},
		{"duplicate levels", []models.ChainStep{
			{Level: 1, ApproverRole: rolePtr(models.RoleHR)},
			{Level: 1, ApproverRole: rolePtr(models.RoleDirektur)},
		}},
		{"no binding", []models.ChainStep{{Level: 1}}},
		{"unknown role", []models.ChainStep{{Level: 1, ApproverRole: rolePtr(models.UserRole("manajer"))}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Create(ctx, 7, models.CategoryCuti, "", tt.chain, nil)
			assert.ErrorIs(t, err, types.ErrValidation)
		})
	}
}

func TestCreateActivatesLowestLevelAndNotifiesApprovers(t *testing.T) {
	store := newFakeApprovalStore()
	store.usersByRole[models.RoleHR] = []uint{10, 11}
	notifier := &fakeNotifier{}
	engine := NewApprovalEngine(store, notifier, false)

	req, err := engine.Create(context.Background(), 7, models.CategoryCuti, "cuti tahunan", hrDirekturChain(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.ApprovalStatusPending, req.Status)
	assert.Equal(t, 1, req.CurrentLevel)
	require.Len(t, req.Steps, 2)

	created := notifier.byTrigger(TriggerPengajuanDibuat)
	require.Len(t, created, 2)
	assert.Equal(t, uint(10), created[0].UserID)
	assert.Equal(t, uint(11), created[1].UserID)
	assert.Equal(t, fmt.Sprintf("approval:%d:level:1:menunggu:10", req.ID), created[0].DedupeKey)
}

func TestDecideTwoLevelApproval(t *testing.T) {
	store := newFakeApprovalStore()
	store.usersByRole[models.RoleHR] = []uint{10}
	store.usersByRole[models.RoleDirektur] = []uint{20}
	notifier := &fakeNotifier{}
	engine := NewApprovalEngine(store, notifier, false)
	ctx := context.Background()

	req, err := engine.Create(ctx, 7, models.CategoryCuti, "", hrDirekturChain(), nil)
	require.NoError(t, err)

	hr := Actor{UserID: 10, Role: models.RoleHR}
	updated, err := engine.Decide(ctx, req.ID, hr, models.ApprovalStatusDisetujui, "")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusPending, updated.Status)
	assert.Equal(t, 2, updated.CurrentLevel)

	// Advancing hands the chain to the level-2 approver.
	created := notifier.byTrigger(TriggerPengajuanDibuat)
	require.NotEmpty(t, created)
	assert.Equal(t, uint(20), created[len(created)-1].UserID)

	direktur := Actor{UserID: 20, Role: models.RoleDirektur}
	final, err := engine.Decide(ctx, req.ID, direktur, models.ApprovalStatusDisetujui, "")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusDisetujui, final.Status)

	approved := notifier.byTrigger(TriggerPengajuanDisetujui)
	require.Len(t, approved, 1)
	assert.Equal(t, uint(7), approved[0].UserID)
	assert.Equal(t, fmt.Sprintf("approval:%d:status:disetujui", req.ID), approved[0].DedupeKey)
}

func TestDecideRejectionHardStopsChain(t *testing.T) {
	store := newFakeApprovalStore()
	store.usersByRole[models.RoleHR] = []uint{10}
	notifier := &fakeNotifier{}
	engine := NewApprovalEngine(store, notifier, false)
	ctx := context.Background()

	req, err := engine.Create(ctx, 7, models.CategorySakit, "", hrDirekturChain(), nil)
	require.NoError(t, err)

	hr := Actor{UserID: 10, Role: models.RoleHR}
	rejected, err := engine.Decide(ctx, req.ID, hr, models.ApprovalStatusDitolak, "dokumen tidak lengkap")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusDitolak, rejected.Status)

	events := notifier.byTrigger(TriggerPengajuanDitolak)
	require.Len(t, events, 1)
	assert.Equal(t, uint(7), events[0].UserID)
	assert.Equal(t, "dokumen tidak lengkap", events[0].Data["catatan"])

	// The level-2 step never activates.
	direktur := Actor{UserID: 20, Role: models.RoleDirektur}
	_, err = engine.Decide(ctx, req.ID, direktur, models.ApprovalStatusDisetujui, "")
	assert.ErrorIs(t, err, types.ErrInvalidState)
}

func TestDecideRejectionWithoutNoteUsesDash(t *testing.T) {
	store := newFakeApprovalStore()
	notifier := &fakeNotifier{}
	engine := NewApprovalEngine(store, notifier, false)
	ctx := context.Background()

	req, err := engine.Create(ctx, 7, models.CategoryCuti, "", hrDirekturChain(), nil)
	require.NoError(t, err)

	_, err = engine.Decide(ctx, req.ID, Actor{UserID: 10, Role: models.RoleHR}, models.ApprovalStatusDitolak, "")
	require.NoError(t, err)

	events := notifier.byTrigger(TriggerPengajuanDitolak)
	require.Len(t, events, 1)
	assert.Equal(t, "-", events[0].Data["catatan"])
}

func TestDecideRejectsUnboundActor(t *testing.T) {
	store := newFakeApprovalStore()
	engine := NewApprovalEngine(store, &fakeNotifier{}, false)
	ctx := context.Background()

	req, err := engine.Create(ctx, 7, models.CategoryCuti, "", hrDirekturChain(), nil)
	require.NoError(t, err)

	karyawan := Actor{UserID: 99, Role: models.RoleKaryawan}
	_, err = engine.Decide(ctx, req.ID, karyawan, models.ApprovalStatusDisetujui, "")
	assert.ErrorIs(t, err, types.ErrForbidden)

	// The step must remain undecided.
	stored, _ := store.GetRequest(ctx, req.ID)
	assert.Nil(t, stored.Steps[0].Decision)
	assert.Equal(t, models.ApprovalStatusPending, stored.Status)
}

func TestDecideUserBoundStepIgnoresRole(t *testing.T) {
	store := newFakeApprovalStore()
	engine := NewApprovalEngine(store, &fakeNotifier{}, false)
	ctx := context.Background()

	chain := []models.ChainStep{{Level: 1, ApproverID: uintPtr(42)}}
	req, err := engine.Create(ctx, 7, models.CategoryTukarHari, "", chain, nil)
	require.NoError(t, err)

	// A karyawan bound by user id may decide.
	final, err := engine.Decide(ctx, req.ID, Actor{UserID: 42, Role: models.RoleKaryawan}, models.ApprovalStatusDisetujui, "")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusDisetujui, final.Status)
}

func TestDecideInvalidDecisionValue(t *testing.T) {
	store := newFakeApprovalStore()
	engine := NewApprovalEngine(store, &fakeNotifier{}, false)

	_, err := engine.Decide(context.Background(), 1, Actor{UserID: 1, Role: models.RoleHR}, models.ApprovalStatusPending, "")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestDecideAfterTerminalIsInvalidState(t *testing.T) {
	store := newFakeApprovalStore()
	engine := NewApprovalEngine(store, &fakeNotifier{}, false)
	ctx := context.Background()

	req, err := engine.Create(ctx, 7, models.CategoryCuti, "", []models.ChainStep{{Level: 1, ApproverRole: rolePtr(models.RoleHR)}}, nil)
	require.NoError(t, err)

	hr := Actor{UserID: 10, Role: models.RoleHR}
	_, err = engine.Decide(ctx, req.ID, hr, models.ApprovalStatusDisetujui, "")
	require.NoError(t, err)

	_, err = engine.Decide(ctx, req.ID, hr, models.ApprovalStatusDisetujui, "")
	assert.ErrorIs(t, err, types.ErrInvalidState)
}

func TestDecideSkipsGapLevels(t *testing.T) {
	store := newFakeApprovalStore()
	engine := NewApprovalEngine(store, &fakeNotifier{}, false)
	ctx := context.Background()

	chain := []models.ChainStep{
		{Level: 10, ApproverRole: rolePtr(models.RoleHR)},
		{Level: 20, ApproverRole: rolePtr(models.RoleDirektur)},
	}
	req, err := engine.Create(ctx, 7, models.CategoryCuti, "", chain, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, req.CurrentLevel)

	updated, err := engine.Decide(ctx, req.ID, Actor{UserID: 10, Role: models.RoleHR}, models.ApprovalStatusDisetujui, "")
	require.NoError(t, err)
	assert.Equal(t, 20, updated.CurrentLevel)
	assert.Equal(t, models.ApprovalStatusPending, updated.Status)
}

func TestCreateAttachWritesDetailInSameTransaction(t *testing.T) {
	store := newFakeApprovalStore()
	engine := NewApprovalEngine(store, &fakeNotifier{}, false)

	type leaveDetail struct {
		ApprovalRequestID uint
	}
	var detail leaveDetail

	req, err := engine.Create(context.Background(), 7, models.CategoryCuti, "", hrDirekturChain(),
		func(ctx context.Context, tx ApprovalStore, requestID uint) error {
			detail = leaveDetail{ApprovalRequestID: requestID}
			return tx.SaveRecord(ctx, &detail)
		})
	require.NoError(t, err)

	assert.Equal(t, req.ID, detail.ApprovalRequestID)
	require.Len(t, store.records, 1)
	assert.Same(t, &detail, store.records[0])
}

func TestCreateAttachFailureLeavesNoRequest(t *testing.T) {
	store := newFakeApprovalStore()
	notifier := &fakeNotifier{}
	engine := NewApprovalEngine(store, notifier, false)
	ctx := context.Background()

	_, err := engine.Create(ctx, 7, models.CategoryCuti, "", hrDirekturChain(),
		func(ctx context.Context, tx ApprovalStore, requestID uint) error {
			return fmt.Errorf("detail insert failed")
		})
	require.Error(t, err)

	// The whole transaction rolls back and nobody is notified.
	assert.Empty(t, store.requests)
	assert.Empty(t, notifier.events)
}

// reloadFailStore creates fine but cannot read the request back afterwards.
type reloadFailStore struct {
	*fakeApprovalStore
}

func (s *reloadFailStore) GetRequest(ctx context.Context, id uint) (*models.ApprovalRequest, error) {
	return nil, types.ErrNotFound
}

func TestCreateReloadFailureReturnsRequestWithoutFanOut(t *testing.T) {
	inner := newFakeApprovalStore()
	inner.usersByRole[models.RoleHR] = []uint{10}
	notifier := &fakeNotifier{}
	engine := NewApprovalEngine(&reloadFailStore{fakeApprovalStore: inner}, notifier, false)

	req, err := engine.Create(context.Background(), 7, models.CategoryCuti, "", hrDirekturChain(), nil)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.NotZero(t, req.ID)

	// The request is persisted; only the approver fan-out is skipped.
	assert.Contains(t, inner.requests, req.ID)
	assert.Empty(t, notifier.events)
}

// lostRaceStore simulates losing the conditional step update to a concurrent
// approver.
type lostRaceStore struct {
	*fakeApprovalStore
}

func (s *lostRaceStore) InTransaction(ctx context.Context, fn func(tx ApprovalStore) error) error {
	return fn(s)
}

func (s *lostRaceStore) DecideStep(ctx context.Context, stepID uint, decision models.ApprovalStatus, note string, decidedBy uint, decidedAt time.Time) error {
	return types.ErrConflict
}

func TestDecideConcurrentLoserGetsConflict(t *testing.T) {
	inner := newFakeApprovalStore()
	store := &lostRaceStore{fakeApprovalStore: inner}
	engine := NewApprovalEngine(store, &fakeNotifier{}, false)
	ctx := context.Background()

	req, err := engine.Create(ctx, 7, models.CategoryCuti, "", hrDirekturChain(), nil)
	require.NoError(t, err)

	_, err = engine.Decide(ctx, req.ID, Actor{UserID: 10, Role: models.RoleHR}, models.ApprovalStatusDisetujui, "")
	assert.ErrorIs(t, err, types.ErrConflict)
}

func TestPerLevelNoticeNotifiesRequesterOnAdvance(t *testing.T) {
	store := newFakeApprovalStore()
	notifier := &fakeNotifier{}
	engine := NewApprovalEngine(store, notifier, true)
	ctx := context.Background()

	req, err := engine.Create(ctx, 7, models.CategoryCuti, "", hrDirekturChain(), nil)
	require.NoError(t, err)

	_, err = engine.Decide(ctx, req.ID, Actor{UserID: 10, Role: models.RoleHR}, models.ApprovalStatusDisetujui, "")
	require.NoError(t, err)

	events := notifier.byTrigger(TriggerPengajuanNaikLevel)
	require.Len(t, events, 1)
	assert.Equal(t, uint(7), events[0].UserID)
	assert.Equal(t, "1", events[0].Data["level"])
	assert.Equal(t, fmt.Sprintf("approval:%d:level:1:naik", req.ID), events[0].DedupeKey)
}

func TestCancelOnlyRequesterWhilePending(t *testing.T) {
	store := newFakeApprovalStore()
	engine := NewApprovalEngine(store, &fakeNotifier{}, false)
	ctx := context.Background()

	req, err := engine.Create(ctx, 7, models.CategoryCuti, "", hrDirekturChain(), nil)
	require.NoError(t, err)

	err = engine.Cancel(ctx, req.ID, Actor{UserID: 8, Role: models.RoleKaryawan})
	assert.ErrorIs(t, err, types.ErrForbidden)

	err = engine.Cancel(ctx, req.ID, Actor{UserID: 7, Role: models.RoleKaryawan})
	require.NoError(t, err)

	_, err = store.GetRequest(ctx, req.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCancelAfterTerminalIsInvalidState(t *testing.T) {
	store := newFakeApprovalStore()
	engine := NewApprovalEngine(store, &fakeNotifier{}, false)
	ctx := context.Background()

	req, err := engine.Create(ctx, 7, models.CategoryCuti, "", []models.ChainStep{{Level: 1, ApproverRole: rolePtr(models.RoleHR)}}, nil)
	require.NoError(t, err)

	_, err = engine.Decide(ctx, req.ID, Actor{UserID: 10, Role: models.RoleHR}, models.ApprovalStatusDisetujui, "")
	require.NoError(t, err)

	err = engine.Cancel(ctx, req.ID, Actor{UserID: 7, Role: models.RoleKaryawan})
	assert.ErrorIs(t, err, types.ErrInvalidState)
}

func TestRemindPendingDedupesPerDay(t *testing.T) {
	store := newFakeApprovalStore()
	notifier := &fakeNotifier{}
	engine := NewApprovalEngine(store, notifier, false)
	ctx := context.Background()

	req, err := engine.Create(ctx, 7, models.CategoryCuti, "", []models.ChainStep{{Level: 1, ApproverID: uintPtr(10)}}, nil)
	require.NoError(t, err)

	// Age the request past the threshold.
	store.requests[req.ID].CreatedAt = time.Now().Add(-48 * time.Hour)

	count, err := engine.RemindPending(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	reminders := notifier.byTrigger(TriggerPengingatPersetujuan)
	require.Len(t, reminders, 1)
	assert.Equal(t, uint(10), reminders[0].UserID)
	day := time.Now().Format("2006-01-02")
	assert.Equal(t, fmt.Sprintf("approval:%d:level:1:reminder:10:%s", req.ID, day), reminders[0].DedupeKey)
}

func TestRemindPendingSkipsFreshRequests(t *testing.T) {
	store := newFakeApprovalStore()
	notifier := &fakeNotifier{}
	engine := NewApprovalEngine(store, notifier, false)
	ctx := context.Background()

	req, err := engine.Create(ctx, 7, models.CategoryCuti, "", []models.ChainStep{{Level: 1, ApproverID: uintPtr(10)}}, nil)
	require.NoError(t, err)
	store.requests[req.ID].CreatedAt = time.Now().Add(-1 * time.Hour)

	count, err := engine.RemindPending(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, notifier.byTrigger(TriggerPengingatPersetujuan))
}
