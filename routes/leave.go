package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ehrm-server/database"
	"ehrm-server/models"
	"ehrm-server/services"
	"ehrm-server/utils"
)

// RegisterLeaveRoutes registers leave request routes
func RegisterLeaveRoutes(router *gin.RouterGroup) {
	router.POST("/", createLeaveRequest)
	router.GET("/my-requests", getMyLeaveRequests)
	router.GET("/:id", getLeaveRequest)
	router.POST("/:id/cancel", cancelLeaveRequest)
}

// defaultChain is used when the submission does not carry an explicit
// chain: HR approves first, then the director.
func defaultChain() []models.ChainStep {
	hr := models.RoleHR
	direktur := models.RoleDirektur
	return []models.ChainStep{
		{Level: 1, ApproverRole: &hr},
		{Level: 2, ApproverRole: &direktur},
	}
}

// createLeaveRequest submits a cuti or sakit request with its approval chain
func createLeaveRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req struct {
		LeaveType string             `json:"leave_type" binding:"required,oneof=tahunan sakit penting"`
		StartDate string             `json:"start_date" binding:"required"`
		EndDate   string             `json:"end_date" binding:"required"`
		Reason    string             `json:"reason" binding:"max=2000"`
		Chain     []models.ChainStep `json:"chain" binding:"omitempty,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	totalDays, err := utils.CountDaysInclusive(req.StartDate, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := models.CategoryCuti
	if req.LeaveType == string(models.LeaveTypeSakit) {
		category = models.CategorySakit
	}

	chain := req.Chain
	if len(chain) == 0 {
		chain = defaultChain()
	}

	// The detail row commits in the same transaction as the approval
	// request, so a failed insert leaves nothing behind.
	var leave models.LeaveRequest
	approval, err := approvalEngine.Create(c.Request.Context(), actor.UserID, category, req.Reason, chain,
		func(ctx context.Context, tx services.ApprovalStore, requestID uint) error {
			leave = models.LeaveRequest{
				ApprovalRequestID: requestID,
				UserID:            actor.UserID,
				LeaveType:         models.LeaveType(req.LeaveType),
				StartDate:         req.StartDate,
				EndDate:           req.EndDate,
				TotalDays:         totalDays,
				Reason:            req.Reason,
			}
			return tx.SaveRecord(ctx, &leave)
		})
	if err != nil {
		respondError(c, err)
		return
	}
	leave.ApprovalRequest = *approval

	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"leave_request": leave,
	})
}

// getMyLeaveRequests lists the caller's leave requests, newest first
func getMyLeaveRequests(c *gin.Context) {
	userID := c.GetUint("user_id")
	offset, limit := paginationParams(c)

	query := database.DB.
		Preload("ApprovalRequest").
		Preload("ApprovalRequest.Steps", func(db *gorm.DB) *gorm.DB { return db.Order("level ASC") }).
		Where("user_id = ?", userID)

	if leaveType := c.Query("leave_type"); leaveType != "" {
		query = query.Where("leave_type = ?", leaveType)
	}

	var leaves []models.LeaveRequest
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&leaves).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"leave_requests": leaves,
	})
}

// getLeaveRequest returns one leave request of the caller
func getLeaveRequest(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var leave models.LeaveRequest
	err := database.DB.
		Preload("ApprovalRequest").
		Preload("ApprovalRequest.Steps", func(db *gorm.DB) *gorm.DB { return db.Order("level ASC") }).
		Where("id = ? AND user_id = ?", id, userID).
		First(&leave).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Leave request not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"leave_request": leave,
	})
}

// cancelLeaveRequest withdraws a pending leave request
func cancelLeaveRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var leave models.LeaveRequest
	err := database.DB.Where("id = ? AND user_id = ?", id, actor.UserID).First(&leave).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Leave request not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if err := approvalEngine.Cancel(c.Request.Context(), leave.ApprovalRequestID, actor); err != nil {
		respondError(c, err)
		return
	}

	if err := database.DB.Delete(&leave).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Leave request cancelled",
	})
}
