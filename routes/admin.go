package routes

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ehrm-server/database"
	"ehrm-server/middleware"
	"ehrm-server/models"
	"ehrm-server/services"
	"ehrm-server/utils"
)

// RegisterEmployeeAdminRoutes registers employee management routes (HR only)
func RegisterEmployeeAdminRoutes(router *gin.RouterGroup) {
	router.GET("/", listEmployees)
	router.POST("/", createEmployee)
	router.GET("/:id", getEmployee)
	router.PUT("/:id", updateEmployee)
	router.PATCH("/:id/deactivate", deactivateEmployee)
	router.PATCH("/:id/activate", activateEmployee)
}

// RegisterTemplateAdminRoutes registers notification template management (HR only)
func RegisterTemplateAdminRoutes(router *gin.RouterGroup) {
	router.GET("/", listTemplates)
	router.POST("/", upsertTemplate)
	router.DELETE("/:id", deleteTemplate)
}

// RegisterDashboardRoutes registers dashboard and recap routes (HR + direktur)
func RegisterDashboardRoutes(router *gin.RouterGroup) {
	router.GET("/stats", getDashboardStats)
	router.GET("/attendance-recap", middleware.Authorize(middleware.ActionViewRecap), getAttendanceRecap)
}

func listEmployees(c *gin.Context) {
	offset, limit := paginationParams(c)

	query := database.DB.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if dept := c.Query("department"); dept != "" {
		query = query.Where("department = ?", dept)
	}
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("full_name ILIKE ? OR email ILIKE ? OR employee_number ILIKE ?", pattern, pattern, pattern)
	}

	var total int64
	query.Count(&total)

	var users []models.User
	if err := query.Order("full_name ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"employees": users,
		"total":     total,
	})
}

type employeeRequest struct {
	FullName       string `json:"full_name" binding:"required,max=255"`
	Email          string `json:"email" binding:"required,email"`
	PhoneNumber    string `json:"phone_number" binding:"max=20"`
	Role           string `json:"role" binding:"omitempty,oneof=karyawan hr direktur"`
	EmployeeNumber string `json:"employee_number" binding:"max=30"`
	Position       string `json:"position" binding:"max=100"`
	Department     string `json:"department" binding:"max=100"`
}

// createEmployee provisions an account with an initial password
func createEmployee(c *gin.Context) {
	var req struct {
		employeeRequest
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if ok, problems := middleware.ValidatePasswordStrength(req.Password); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password too weak", "details": problems})
		return
	}

	var count int64
	database.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	hash, err := services.NewJWTService(database.DB).HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	role := models.RoleKaryawan
	if req.Role != "" {
		role = models.UserRole(req.Role)
	}
	now := time.Now()
	user := models.User{
		FullName:       req.FullName,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		PasswordHash:   hash,
		Role:           role,
		EmployeeNumber: req.EmployeeNumber,
		Position:       req.Position,
		Department:     req.Department,
		IsActive:       true,
		JoinedAt:       &now,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		respondError(c, err)
		return
	}

	log.Printf("✅ Employee %s (%s) created by user %d", user.FullName, user.Email, c.GetUint("user_id"))

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"employee": user,
	})
}

func findEmployee(c *gin.Context) (*models.User, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
			return nil, false
		}
		respondError(c, err)
		return nil, false
	}
	return &user, true
}

func getEmployee(c *gin.Context) {
	user, ok := findEmployee(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"employee": user,
	})
}

func updateEmployee(c *gin.Context) {
	user, ok := findEmployee(c)
	if !ok {
		return
	}

	var req employeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Email != user.Email {
		var count int64
		database.DB.Model(&models.User{}).Where("email = ? AND id != ?", req.Email, user.ID).Count(&count)
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
	}

	user.FullName = req.FullName
	user.Email = req.Email
	user.PhoneNumber = req.PhoneNumber
	if req.Role != "" {
		user.Role = models.UserRole(req.Role)
	}
	user.EmployeeNumber = req.EmployeeNumber
	user.Position = req.Position
	user.Department = req.Department

	if err := database.DB.Save(user).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"employee": user,
	})
}

// deactivateEmployee blocks login and revokes all refresh tokens
func deactivateEmployee(c *gin.Context) {
	user, ok := findEmployee(c)
	if !ok {
		return
	}
	if user.ID == c.GetUint("user_id") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot deactivate your own account"})
		return
	}

	user.IsActive = false
	if err := database.DB.Save(user).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := services.NewJWTService(database.DB).RevokeAllUserTokens(user.ID); err != nil {
		log.Printf("⚠️ Failed to revoke tokens for user %d: %v", user.ID, err)
	}

	log.Printf("🔒 Employee %d deactivated by user %d", user.ID, c.GetUint("user_id"))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Employee deactivated",
	})
}

func activateEmployee(c *gin.Context) {
	user, ok := findEmployee(c)
	if !ok {
		return
	}

	user.IsActive = true
	if err := database.DB.Save(user).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Employee activated",
	})
}

func listTemplates(c *gin.Context) {
	var templates []models.NotificationTemplate
	if err := database.DB.Order("trigger_key ASC").Find(&templates).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"templates": templates,
	})
}

// upsertTemplate creates or replaces the template for a trigger
func upsertTemplate(c *gin.Context) {
	var req struct {
		Trigger       string `json:"trigger" binding:"required,max=60"`
		TitleTemplate string `json:"title_template" binding:"required,max=255"`
		BodyTemplate  string `json:"body_template" binding:"required"`
		IsActive      *bool  `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	var template models.NotificationTemplate
	err := database.DB.Where("trigger_key = ?", req.Trigger).First(&template).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		template = models.NotificationTemplate{
			Trigger:       req.Trigger,
			TitleTemplate: req.TitleTemplate,
			BodyTemplate:  req.BodyTemplate,
			IsActive:      active,
		}
		err = database.DB.Create(&template).Error
	case err == nil:
		template.TitleTemplate = req.TitleTemplate
		template.BodyTemplate = req.BodyTemplate
		template.IsActive = active
		err = database.DB.Save(&template).Error
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"template": template,
	})
}

func deleteTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result := database.DB.Delete(&models.NotificationTemplate{}, id)
	if result.Error != nil {
		respondError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Template deleted",
	})
}

// getDashboardStats returns today's headline numbers for HR/direktur
func getDashboardStats(c *gin.Context) {
	today := time.Now().Format("2006-01-02")

	var totalEmployees, activeEmployees int64
	database.DB.Model(&models.User{}).Count(&totalEmployees)
	database.DB.Model(&models.User{}).Where("is_active = ?", true).Count(&activeEmployees)

	var presentToday, lateToday int64
	database.DB.Model(&models.Attendance{}).Where("work_date = ?", today).Count(&presentToday)
	database.DB.Model(&models.Attendance{}).
		Where("work_date = ? AND status = ?", today, models.AttendanceStatusTerlambat).
		Count(&lateToday)

	var pendingApprovals int64
	database.DB.Model(&models.ApprovalRequest{}).
		Where("status = ?", models.ApprovalStatusPending).
		Count(&pendingApprovals)

	var pendingByCategory []struct {
		Category string `json:"category"`
		Count    int64  `json:"count"`
	}
	database.DB.Model(&models.ApprovalRequest{}).
		Select("category, COUNT(*) as count").
		Where("status = ?", models.ApprovalStatusPending).
		Group("category").
		Scan(&pendingByCategory)

	var activeVisits int64
	database.DB.Model(&models.ClientVisit{}).
		Where("status = ?", models.VisitStatusBerlangsung).
		Count(&activeVisits)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"total_employees":      totalEmployees,
			"active_employees":     activeEmployees,
			"present_today":        presentToday,
			"late_today":           lateToday,
			"absent_today":         activeEmployees - presentToday,
			"pending_approvals":    pendingApprovals,
			"pending_by_category":  pendingByCategory,
			"active_client_visits": activeVisits,
		},
	})
}

// getAttendanceRecap aggregates per-employee attendance over a date range
func getAttendanceRecap(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if !utils.IsValidDate(from) || !utils.IsValidDate(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be YYYY-MM-DD"})
		return
	}

	var recap []struct {
		UserID       uint   `json:"user_id"`
		FullName     string `json:"full_name"`
		Department   string `json:"department"`
		DaysPresent  int64  `json:"days_present"`
		DaysLate     int64  `json:"days_late"`
		TotalLateMin int64  `json:"total_late_minutes"`
		TotalWorkMin int64  `json:"total_work_minutes"`
	}
	err := database.DB.Model(&models.Attendance{}).
		Select(`attendances.user_id,
			users.full_name,
			users.department,
			COUNT(*) as days_present,
			COUNT(*) FILTER (WHERE attendances.status = 'terlambat') as days_late,
			COALESCE(SUM(attendances.late_minutes), 0) as total_late_min,
			COALESCE(SUM(attendances.work_minutes), 0) as total_work_min`).
		Joins("JOIN users ON users.id = attendances.user_id").
		Where("attendances.work_date BETWEEN ? AND ?", from, to).
		Group("attendances.user_id, users.full_name, users.department").
		Order("users.full_name ASC").
		Scan(&recap).Error
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"from":    from,
		"to":      to,
		"recap":   recap,
	})
}
