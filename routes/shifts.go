package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ehrm-server/database"
	"ehrm-server/models"
	"ehrm-server/utils"
)

// RegisterShiftRoutes registers shift management routes (HR only via Authorize)
func RegisterShiftRoutes(router *gin.RouterGroup) {
	router.GET("/", listShifts)
	router.POST("/", createShift)
	router.PUT("/:id", updateShift)
	router.DELETE("/:id", deleteShift)
	router.POST("/assignments", assignShift)
	router.GET("/assignments", listShiftAssignments)
	router.DELETE("/assignments/:id", deleteShiftAssignment)
}

func listShifts(c *gin.Context) {
	var shifts []models.Shift
	if err := database.DB.Order("is_default DESC, name ASC").Find(&shifts).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"shifts":  shifts,
	})
}

type shiftRequest struct {
	Name             string `json:"name" binding:"required,max=100"`
	StartTime        string `json:"start_time" binding:"required"`
	EndTime          string `json:"end_time" binding:"required"`
	ToleranceMinutes *int   `json:"tolerance_minutes"`
	IsDefault        bool   `json:"is_default"`
}

func (r *shiftRequest) validateClocks(c *gin.Context) bool {
	if _, _, err := utils.ParseClock(r.StartTime); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_time must be HH:MM"})
		return false
	}
	if _, _, err := utils.ParseClock(r.EndTime); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_time must be HH:MM"})
		return false
	}
	return true
}

// createShift adds a shift; marking it default clears the previous default
func createShift(c *gin.Context) {
	var req shiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.validateClocks(c) {
		return
	}

	tolerance := 15
	if req.ToleranceMinutes != nil {
		if *req.ToleranceMinutes < 0 || *req.ToleranceMinutes > 240 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tolerance_minutes must be between 0 and 240"})
			return
		}
		tolerance = *req.ToleranceMinutes
	}

	shift := models.Shift{
		Name:             req.Name,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		ToleranceMinutes: tolerance,
		IsDefault:        req.IsDefault,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := tx.Model(&models.Shift{}).Where("is_default = ?", true).Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&shift).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"shift":   shift,
	})
}

func updateShift(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var shift models.Shift
	if err := database.DB.First(&shift, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Shift not found"})
			return
		}
		respondError(c, err)
		return
	}

	var req shiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.validateClocks(c) {
		return
	}

	shift.Name = req.Name
	shift.StartTime = req.StartTime
	shift.EndTime = req.EndTime
	if req.ToleranceMinutes != nil {
		shift.ToleranceMinutes = *req.ToleranceMinutes
	}
	shift.IsDefault = req.IsDefault

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := tx.Model(&models.Shift{}).Where("is_default = ? AND id != ?", true, shift.ID).Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(&shift).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"shift":   shift,
	})
}

func deleteShift(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var shift models.Shift
	if err := database.DB.First(&shift, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Shift not found"})
			return
		}
		respondError(c, err)
		return
	}
	if shift.IsDefault {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete the default shift"})
		return
	}

	if err := database.DB.Delete(&shift).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Shift deleted",
	})
}

// assignShift binds an employee to a shift for one work date
func assignShift(c *gin.Context) {
	var req struct {
		UserID   uint   `json:"user_id" binding:"required"`
		ShiftID  uint   `json:"shift_id" binding:"required"`
		WorkDate string `json:"work_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !utils.IsValidDate(req.WorkDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "work_date must be YYYY-MM-DD"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	var shift models.Shift
	if err := database.DB.First(&shift, req.ShiftID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shift not found"})
		return
	}

	// upsert on (user, date): a new assignment replaces the old one
	var assignment models.ShiftAssignment
	err := database.DB.Where("user_id = ? AND work_date = ?", req.UserID, req.WorkDate).First(&assignment).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		assignment = models.ShiftAssignment{
			UserID:   req.UserID,
			ShiftID:  req.ShiftID,
			WorkDate: req.WorkDate,
		}
		err = database.DB.Create(&assignment).Error
	case err == nil:
		assignment.ShiftID = req.ShiftID
		err = database.DB.Save(&assignment).Error
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"assignment": assignment,
	})
}

func listShiftAssignments(c *gin.Context) {
	offset, limit := paginationParams(c)

	query := database.DB.Preload("Shift").Preload("User")
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if date := c.Query("work_date"); date != "" {
		query = query.Where("work_date = ?", date)
	}

	var assignments []models.ShiftAssignment
	if err := query.Order("work_date DESC").Offset(offset).Limit(limit).Find(&assignments).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"assignments": assignments,
	})
}

func deleteShiftAssignment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result := database.DB.Delete(&models.ShiftAssignment{}, id)
	if result.Error != nil {
		respondError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Assignment not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Assignment removed",
	})
}
