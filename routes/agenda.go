package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ehrm-server/database"
	"ehrm-server/middleware"
	"ehrm-server/models"
	"ehrm-server/utils"
)

// RegisterAgendaRoutes registers agenda/task routes
func RegisterAgendaRoutes(router *gin.RouterGroup) {
	router.POST("/", createAgenda)
	router.GET("/", getMyAgendas)
	router.PUT("/:id", updateAgenda)
	router.PATCH("/:id/status", updateAgendaStatus)
	router.DELETE("/:id", deleteAgenda)
	router.POST("/assign", middleware.Authorize(middleware.ActionAssignAgenda), assignAgenda)
}

// assignAgenda lets HR create a task on another employee's list
func assignAgenda(c *gin.Context) {
	var req struct {
		UserID      uint   `json:"user_id" binding:"required"`
		Title       string `json:"title" binding:"required,max=255"`
		Description string `json:"description" binding:"max=5000"`
		DueDate     string `json:"due_date" binding:"omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DueDate != "" && !utils.IsValidDate(req.DueDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	agenda := models.Agenda{
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      models.AgendaStatusBelum,
	}
	if err := database.DB.Create(&agenda).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"agenda":  agenda,
	})
}

// createAgenda adds a task for the caller
func createAgenda(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req struct {
		Title       string `json:"title" binding:"required,max=255"`
		Description string `json:"description" binding:"max=5000"`
		DueDate     string `json:"due_date" binding:"omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DueDate != "" && !utils.IsValidDate(req.DueDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
		return
	}

	agenda := models.Agenda{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      models.AgendaStatusBelum,
	}
	if err := database.DB.Create(&agenda).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"agenda":  agenda,
	})
}

// getMyAgendas lists the caller's tasks
func getMyAgendas(c *gin.Context) {
	userID := c.GetUint("user_id")
	offset, limit := paginationParams(c)

	query := database.DB.Where("user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var agendas []models.Agenda
	if err := query.Order("due_date ASC, created_at DESC").Offset(offset).Limit(limit).Find(&agendas).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"agendas": agendas,
	})
}

func findOwnAgenda(c *gin.Context) (*models.Agenda, bool) {
	userID := c.GetUint("user_id")
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	var agenda models.Agenda
	err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&agenda).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Agenda not found"})
		return nil, false
	}
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return &agenda, true
}

// updateAgenda edits title, description or due date
func updateAgenda(c *gin.Context) {
	agenda, ok := findOwnAgenda(c)
	if !ok {
		return
	}

	var req struct {
		Title       string `json:"title" binding:"required,max=255"`
		Description string `json:"description" binding:"max=5000"`
		DueDate     string `json:"due_date" binding:"omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DueDate != "" && !utils.IsValidDate(req.DueDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
		return
	}

	agenda.Title = req.Title
	agenda.Description = req.Description
	agenda.DueDate = req.DueDate

	if err := database.DB.Save(agenda).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"agenda":  agenda,
	})
}

// updateAgendaStatus moves a task between belum/proses/selesai
func updateAgendaStatus(c *gin.Context) {
	agenda, ok := findOwnAgenda(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=belum proses selesai"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	agenda.Status = models.AgendaStatus(req.Status)
	if err := database.DB.Save(agenda).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"agenda":  agenda,
	})
}

// deleteAgenda soft-deletes a task
func deleteAgenda(c *gin.Context) {
	agenda, ok := findOwnAgenda(c)
	if !ok {
		return
	}

	if err := database.DB.Delete(agenda).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Agenda deleted",
	})
}
