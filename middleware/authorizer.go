package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ehrm-server/models"
)

// Action names an operation that can be authorized.
type Action string

const (
	ActionManageEmployees Action = "manage_employees"
	ActionManageShifts    Action = "manage_shifts"
	ActionManageTemplates Action = "manage_templates"
	ActionViewRecap       Action = "view_recap"
	ActionDecideApproval  Action = "decide_approval"
	ActionAssignAgenda    Action = "assign_agenda"
	ActionViewDashboard   Action = "view_dashboard"
)

// Authorizer evaluates whether an actor may perform an action. One
// implementation replaces the per-route role string comparisons.
type Authorizer interface {
	Allow(role models.UserRole, action Action) bool
}

// RoleAuthorizer grants actions per role from a static table.
type RoleAuthorizer struct {
	grants map[models.UserRole]map[Action]bool
}

// NewRoleAuthorizer builds the default grant table: HR runs day-to-day
// administration, direktur additionally sees the dashboard, and both may
// decide approvals (the engine still checks the step binding itself).
func NewRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{
		grants: map[models.UserRole]map[Action]bool{
			models.RoleHR: {
				ActionManageEmployees: true,
				ActionManageShifts:    true,
				ActionManageTemplates: true,
				ActionViewRecap:       true,
				ActionDecideApproval:  true,
				ActionAssignAgenda:    true,
				ActionViewDashboard:   true,
			},
			models.RoleDirektur: {
				ActionViewRecap:      true,
				ActionDecideApproval: true,
				ActionViewDashboard:  true,
			},
			models.RoleKaryawan: {
				ActionDecideApproval: true,
			},
		},
	}
}

func (a *RoleAuthorizer) Allow(role models.UserRole, action Action) bool {
	actions, ok := a.grants[role]
	if !ok {
		return false
	}
	return actions[action]
}

var defaultAuthorizer Authorizer = NewRoleAuthorizer()

// SetAuthorizer swaps the authorizer used by Authorize. Intended for tests.
func SetAuthorizer(a Authorizer) {
	defaultAuthorizer = a
}

// Authorize gates a route group on one action. Must run after
// AuthMiddleware.
func Authorize(action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthenticated",
				"message": "Please log in first",
			})
			c.Abort()
			return
		}

		if !defaultAuthorizer.Allow(user.Role, action) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "Your role does not permit this action",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
