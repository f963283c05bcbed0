package routes

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ehrm-server/config"
	"ehrm-server/database"
	"ehrm-server/models"
	"ehrm-server/utils"
)

// RegisterAttendanceRoutes registers attendance routes
func RegisterAttendanceRoutes(router *gin.RouterGroup) {
	router.POST("/check-in", checkIn)
	router.POST("/check-out", checkOut)
	router.GET("/today", getTodayAttendance)
	router.GET("/my-history", getMyAttendanceHistory)
}

// shiftForDate resolves the shift an employee works on a given date:
// the explicit assignment when one exists, otherwise the default shift.
func shiftForDate(userID uint, workDate string) *models.Shift {
	var assignment models.ShiftAssignment
	err := database.DB.Preload("Shift").
		Where("user_id = ? AND work_date = ?", userID, workDate).
		First(&assignment).Error
	if err == nil {
		return &assignment.Shift
	}

	var shift models.Shift
	if err := database.DB.Where("is_default = ?", true).First(&shift).Error; err != nil {
		return nil
	}
	return &shift
}

// checkIn opens today's attendance for the caller
func checkIn(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req struct {
		Lat  float64 `json:"lat" binding:"required"`
		Lng  float64 `json:"lng" binding:"required"`
		Note string  `json:"note" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !utils.IsLocationValid(req.Lat, req.Lng) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location coordinates"})
		return
	}

	now := time.Now()
	workDate := now.Format("2006-01-02")

	var existing models.Attendance
	err := database.DB.Where("user_id = ? AND work_date = ?", userID, workDate).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Already checked in today"})
		return
	}
	if err != gorm.ErrRecordNotFound {
		respondError(c, err)
		return
	}

	attendance := models.Attendance{
		UserID:     userID,
		WorkDate:   workDate,
		Status:     models.AttendanceStatusHadir,
		CheckInAt:  now,
		CheckInLat: &req.Lat,
		CheckInLng: &req.Lng,
		Note:       req.Note,
	}

	if shift := shiftForDate(userID, workDate); shift != nil {
		attendance.ShiftID = &shift.ID
		tolerance := shift.ToleranceMinutes
		if tolerance == 0 {
			tolerance = config.AppConfig.Attendance.DefaultToleranceMinutes
		}
		late, err := utils.LateMinutes(now, shift.StartTime, tolerance)
		if err != nil {
			log.Printf("⚠️ Could not evaluate lateness against shift %d: %v", shift.ID, err)
		} else if late > 0 {
			attendance.Status = models.AttendanceStatusTerlambat
			attendance.LateMinutes = late
		}
	}

	if err := database.DB.Create(&attendance).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"attendance": attendance,
	})
}

// checkOut closes today's attendance
func checkOut(c *gin.Context) {
	userID := c.GetUint("user_id")

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

	workDate := time.Now().Format("2006-01-02")

	var attendance models.Attendance
	err := database.DB.Where("user_id = ? AND work_date = ?", userID, workDate).First(&attendance).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "No check-in found for today"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if attendance.CheckOutAt != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Already checked out today"})
		return
	}

	now := time.Now()
	attendance.CheckOutAt = &now
	attendance.CheckOutLat = &req.Lat
	attendance.CheckOutLng = &req.Lng
	attendance.WorkMinutes = int(now.Sub(attendance.CheckInAt).Minutes())

	if err := database.DB.Save(&attendance).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"attendance": attendance,
	})
}

// getTodayAttendance returns the caller's attendance for today, if any
func getTodayAttendance(c *gin.Context) {
	userID := c.GetUint("user_id")
	workDate := time.Now().Format("2006-01-02")

	var attendance models.Attendance
	err := database.DB.Preload("Shift").
		Where("user_id = ? AND work_date = ?", userID, workDate).
		First(&attendance).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"attendance": nil,
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"attendance": attendance,
	})
}

// getMyAttendanceHistory lists the caller's attendance records
func getMyAttendanceHistory(c *gin.Context) {
	userID := c.GetUint("user_id")
	offset, limit := paginationParams(c)

	query := database.DB.Preload("Shift").Where("user_id = ?", userID)
	if from := c.Query("from"); from != "" && utils.IsValidDate(from) {
		query = query.Where("work_date >= ?", from)
	}
	if to := c.Query("to"); to != "" && utils.IsValidDate(to) {
		query = query.Where("work_date <= ?", to)
	}

	var records []models.Attendance
	if err := query.Order("work_date DESC").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"attendances": records,
	})
}
