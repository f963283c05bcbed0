package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ehrm-server/database"
	"ehrm-server/models"
	"ehrm-server/services"
	"ehrm-server/utils"
)

// RegisterVisitRoutes registers client-visit tracking routes
func RegisterVisitRoutes(router *gin.RouterGroup) {
	router.POST("/start", startVisit)
	router.POST("/:id/end", endVisit)
	router.POST("/:id/report", submitVisitReport)
	router.GET("/my-visits", getMyVisits)
}

// startVisit opens a client visit with the employee's location
func startVisit(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req struct {
		ClientName string  `json:"client_name" binding:"required,max=255"`
		Purpose    string  `json:"purpose" binding:"max=2000"`
		Lat        float64 `json:"lat" binding:"required"`
		Lng        float64 `json:"lng" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !utils.IsLocationValid(req.Lat, req.Lng) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location coordinates"})
		return
	}

	visit := models.ClientVisit{
		UserID:     userID,
		ClientName: req.ClientName,
		Purpose:    req.Purpose,
		Status:     models.VisitStatusBerlangsung,
		StartAt:    time.Now(),
		StartLat:   &req.Lat,
		StartLng:   &req.Lng,
	}
	if err := database.DB.Create(&visit).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"visit":   visit,
	})
}

// endVisit closes an ongoing visit
func endVisit(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Lat float64 `json:"lat" binding:"required"`
		Lng float64 `json:"lng" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !utils.IsLocationValid(req.Lat, req.Lng) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location coordinates"})
		return
	}

	var visit models.ClientVisit
	err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&visit).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Visit not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if visit.Status != models.VisitStatusBerlangsung {
		c.JSON(http.StatusConflict, gin.H{"error": "Visit already ended"})
		return
	}

	now := time.Now()
	visit.Status = models.VisitStatusSelesai
	visit.EndAt = &now
	visit.EndLat = &req.Lat
	visit.EndLng = &req.Lng

	if err := database.DB.Save(&visit).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"visit":   visit,
	})
}

// submitVisitReport attaches the written report and opens its approval chain
func submitVisitReport(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Report string             `json:"report" binding:"required,max=10000"`
		Chain  []models.ChainStep `json:"chain" binding:"omitempty,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var visit models.ClientVisit
	err := database.DB.Where("id = ? AND user_id = ?", id, actor.UserID).First(&visit).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Visit not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if visit.Status != models.VisitStatusSelesai {
		c.JSON(http.StatusConflict, gin.H{"error": "Visit must be ended before reporting"})
		return
	}

	chain := req.Chain
	if len(chain) == 0 {
		hr := models.RoleHR
		chain = []models.ChainStep{{Level: 1, ApproverRole: &hr}}
	}

	// The visit update commits in the same transaction as the approval
	// request, so a report can never point at a request that was lost.
	_, err = approvalEngine.Create(c.Request.Context(), actor.UserID, models.CategoryKunjunganKlien, req.Report, chain,
		func(ctx context.Context, tx services.ApprovalStore, requestID uint) error {
			visit.Status = models.VisitStatusDilaporkan
			visit.Report = req.Report
			visit.ApprovalRequestID = &requestID
			return tx.SaveRecord(ctx, &visit)
		})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"visit":   visit,
	})
}

// getMyVisits lists the caller's client visits, newest first
func getMyVisits(c *gin.Context) {
	userID := c.GetUint("user_id")
	offset, limit := paginationParams(c)

	query := database.DB.
		Preload("ApprovalRequest").
		Where("user_id = ?", userID)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var visits []models.ClientVisit
	if err := query.Order("start_at DESC").Offset(offset).Limit(limit).Find(&visits).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"visits":  visits,
	})
}
