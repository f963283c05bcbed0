package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ehrm-server/database"
	"ehrm-server/middleware"
	"ehrm-server/models"
)

// RegisterApprovalRoutes registers the approval decision endpoints
func RegisterApprovalRoutes(router *gin.RouterGroup) {
	router.GET("/inbox", getApprovalInbox)
	router.GET("/:id", getApprovalRequest)
	router.PATCH("/:id", middleware.Authorize(middleware.ActionDecideApproval), decideApproval)
}

// decideApproval applies one approver decision to a pending request
func decideApproval(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Decision string `json:"decision" binding:"required,oneof=disetujui ditolak"`
		Note     string `json:"note" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := approvalEngine.Decide(c.Request.Context(), requestID, actor, models.ApprovalStatus(req.Decision), req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"request": updated,
	})
}

// getApprovalRequest returns one request with its chain. Visible to the
// requester and to anyone bound to one of its steps.
func getApprovalRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var request models.ApprovalRequest
	err := database.DB.
		Preload("Requester").
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("level ASC") }).
		Preload("Steps.Approver").
		First(&request, requestID).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Approval request not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if request.RequesterID != actor.UserID && !boundToAnyStep(&request, actor.UserID, actor.Role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not involved in this request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"request": request,
	})
}

// getApprovalInbox lists pending requests whose active step is bound to the
// caller, i.e. requests awaiting the caller's decision.
func getApprovalInbox(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	offset, limit := paginationParams(c)

	var pending []models.ApprovalRequest
	err := database.DB.
		Preload("Requester").
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("level ASC") }).
		Joins("JOIN approval_steps ON approval_steps.request_id = approval_requests.id").
		Where("approval_requests.status = ?", models.ApprovalStatusPending).
		Where("approval_steps.level = approval_requests.current_level AND approval_steps.decision IS NULL").
		Where("approval_steps.approver_id = ? OR approval_steps.approver_role = ?", actor.UserID, actor.Role).
		Order("approval_requests.created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&pending).Error
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"requests": pending,
	})
}

func boundToAnyStep(request *models.ApprovalRequest, userID uint, role models.UserRole) bool {
	for i := range request.Steps {
		if request.Steps[i].BoundTo(userID, role) {
			return true
		}
	}
	return false
}
