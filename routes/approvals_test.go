package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ehrm-server/models"
	"ehrm-server/services"
	"ehrm-server/types"
)

// stubApprovalService records calls and replays canned results.
type stubApprovalService struct {
	decideErr    error
	decideResult *models.ApprovalRequest

	gotRequestID uint
	gotActor     services.Actor
	gotDecision  models.ApprovalStatus
	gotNote      string
}

func (s *stubApprovalService) Create(ctx context.Context, requesterID uint, category models.ApprovalCategory, keterangan string, chain []models.ChainStep, attach services.AttachFunc) (*models.ApprovalRequest, error) {
	return nil, nil
}

func (s *stubApprovalService) Decide(ctx context.Context, requestID uint, actor services.Actor, decision models.ApprovalStatus, note string) (*models.ApprovalRequest, error) {
	s.gotRequestID = requestID
	s.gotActor = actor
	s.gotDecision = decision
	s.gotNote = note
	if s.decideErr != nil {
		return nil, s.decideErr
	}
	return s.decideResult, nil
}

func (s *stubApprovalService) Cancel(ctx context.Context, requestID uint, actor services.Actor) error {
	return nil
}

func approvalTestRouter(stub *stubApprovalService, user models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	Init(stub, nil)

	router := gin.New()
	group := router.Group("/api/v1/approvals")
	group.Use(func(c *gin.Context) {
		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("user_role", string(user.Role))
	})
	RegisterApprovalRoutes(group)
	return router
}

func patchDecision(router *gin.Engine, id string, body map[string]interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/approvals/"+id, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestDecideApprovalSuccess(t *testing.T) {
	stub := &stubApprovalService{
		decideResult: &models.ApprovalRequest{
			ID:     42,
			Status: models.ApprovalStatusDisetujui,
		},
	}
	hr := models.User{ID: 10, Role: models.RoleHR}
	router := approvalTestRouter(stub, hr)

	w := patchDecision(router, "42", map[string]interface{}{
		"decision": "disetujui",
		"note":     "ok",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(42), stub.gotRequestID)
	assert.Equal(t, services.Actor{UserID: 10, Role: models.RoleHR}, stub.gotActor)
	assert.Equal(t, models.ApprovalStatusDisetujui, stub.gotDecision)
	assert.Equal(t, "ok", stub.gotNote)

	var resp struct {
		Success bool                    `json:"success"`
		Request *models.ApprovalRequest `json:"request"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, models.ApprovalStatusDisetujui, resp.Request.Status)
}

func TestDecideApprovalRejectsBadPayload(t *testing.T) {
	stub := &stubApprovalService{}
	router := approvalTestRouter(stub, models.User{ID: 10, Role: models.RoleHR})

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing decision", map[string]interface{}{"note": "x"}},
		{"unknown decision value", map[string]interface{}{"decision": "mungkin"}},
		{"pending is not a decision", map[string]interface{}{"decision": "pending"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := patchDecision(router, "1", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			// The engine must never be reached.
			assert.Zero(t, stub.gotRequestID)
		})
	}
}

func TestDecideApprovalRejectsBadID(t *testing.T) {
	stub := &stubApprovalService{}
	router := approvalTestRouter(stub, models.User{ID: 10, Role: models.RoleHR})

	for _, id := range []string{"0", "abc", "-1"} {
		w := patchDecision(router, id, map[string]interface{}{"decision": "disetujui"})
		assert.Equal(t, http.StatusBadRequest, w.Code, "id %q", id)
	}
}

func TestDecideApprovalMapsDomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", types.ErrNotFound, http.StatusNotFound},
		{"forbidden", fmt.Errorf("%w: not your step", types.ErrForbidden), http.StatusForbidden},
		{"already terminal", fmt.Errorf("%w: request already disetujui", types.ErrInvalidState), http.StatusConflict},
		{"lost race", types.ErrConflict, http.StatusConflict},
		{"validation", fmt.Errorf("%w: bad decision", types.ErrValidation), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubApprovalService{decideErr: tt.err}
			router := approvalTestRouter(stub, models.User{ID: 10, Role: models.RoleHR})

			w := patchDecision(router, "7", map[string]interface{}{"decision": "ditolak", "note": "tidak lengkap"})
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}
