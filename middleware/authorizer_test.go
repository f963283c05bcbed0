package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"ehrm-server/models"
)

func TestRoleAuthorizerGrants(t *testing.T) {
	auth := NewRoleAuthorizer()

	tests := []struct {
		role   models.UserRole
		action Action
		want   bool
	}{
		{models.RoleHR, ActionManageEmployees, true},
		{models.RoleHR, ActionManageShifts, true},
		{models.RoleHR, ActionManageTemplates, true},
		{models.RoleHR, ActionViewDashboard, true},
		{models.RoleDirektur, ActionViewRecap, true},
		{models.RoleDirektur, ActionViewDashboard, true},
		{models.RoleDirektur, ActionDecideApproval, true},
		{models.RoleDirektur, ActionManageEmployees, false},
		{models.RoleDirektur, ActionManageShifts, false},
		{models.RoleKaryawan, ActionDecideApproval, true},
		{models.RoleKaryawan, ActionManageEmployees, false},
		{models.RoleKaryawan, ActionViewDashboard, false},
		{models.UserRole("unknown"), ActionDecideApproval, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, auth.Allow(tt.role, tt.action))
		})
	}
}

func authorizeTestRouter(action Action, user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/guarded",
		func(c *gin.Context) {
			if user != nil {
				c.Set("user", *user)
			}
		},
		Authorize(action),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})
	return router
}

func TestAuthorizeMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		action     Action
		wantStatus int
	}{
		{
			name:       "allowed role passes",
			user:       &models.User{ID: 1, Role: models.RoleHR},
			action:     ActionManageEmployees,
			wantStatus: http.StatusOK,
		},
		{
			name:       "role without grant is forbidden",
			user:       &models.User{ID: 2, Role: models.RoleKaryawan},
			action:     ActionManageEmployees,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing user is unauthorized",
			user:       nil,
			action:     ActionManageEmployees,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := authorizeTestRouter(tt.action, tt.user)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

type allowAllAuthorizer struct{}

func (allowAllAuthorizer) Allow(models.UserRole, Action) bool { return true }

func TestSetAuthorizerSwapsImplementation(t *testing.T) {
	original := defaultAuthorizer
	defer SetAuthorizer(original)

	SetAuthorizer(allowAllAuthorizer{})

	user := &models.User{ID: 3, Role: models.RoleKaryawan}
	router := authorizeTestRouter(ActionManageEmployees, user)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
