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

// RegisterDaySwapRoutes registers tukar-hari routes
func RegisterDaySwapRoutes(router *gin.RouterGroup) {
	router.POST("/", createDaySwap)
	router.GET("/my-requests", getMyDaySwaps)
	router.POST("/:id/cancel", cancelDaySwap)
}

// createDaySwap submits a tukar-hari request
func createDaySwap(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req struct {
		OriginalDate    string             `json:"original_date" binding:"required"`
		ReplacementDate string             `json:"replacement_date" binding:"required"`
		Reason          string             `json:"reason" binding:"max=2000"`
		Chain           []models.ChainStep `json:"chain" binding:"omitempty,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !utils.IsValidDate(req.OriginalDate) || !utils.IsValidDate(req.ReplacementDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dates must be YYYY-MM-DD"})
		return
	}
	if req.OriginalDate == req.ReplacementDate {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Replacement date must differ from the original date"})
		return
	}

	chain := req.Chain
	if len(chain) == 0 {
		chain = defaultChain()
	}

	var swap models.DaySwap
	approval, err := approvalEngine.Create(c.Request.Context(), actor.UserID, models.CategoryTukarHari, req.Reason, chain,
		func(ctx context.Context, tx services.ApprovalStore, requestID uint) error {
			swap = models.DaySwap{
				ApprovalRequestID: requestID,
				UserID:            actor.UserID,
				OriginalDate:      req.OriginalDate,
				ReplacementDate:   req.ReplacementDate,
				Reason:            req.Reason,
			}
			return tx.SaveRecord(ctx, &swap)
		})
	if err != nil {
		respondError(c, err)
		return
	}
	swap.ApprovalRequest = *approval

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"day_swap": swap,
	})
}

// getMyDaySwaps lists the caller's tukar-hari requests
func getMyDaySwaps(c *gin.Context) {
	userID := c.GetUint("user_id")
	offset, limit := paginationParams(c)

	var swaps []models.DaySwap
	err := database.DB.
		Preload("ApprovalRequest").
		Preload("ApprovalRequest.Steps", func(db *gorm.DB) *gorm.DB { return db.Order("level ASC") }).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&swaps).Error
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"day_swaps": swaps,
	})
}

// cancelDaySwap withdraws a pending tukar-hari request
func cancelDaySwap(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var swap models.DaySwap
	err := database.DB.Where("id = ? AND user_id = ?", id, actor.UserID).First(&swap).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Day swap request not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if err := approvalEngine.Cancel(c.Request.Context(), swap.ApprovalRequestID, actor); err != nil {
		respondError(c, err)
		return
	}

	if err := database.DB.Delete(&swap).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Day swap request cancelled",
	})
}
